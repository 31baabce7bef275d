package processor

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// BuiltinPrefix marks a register reference that aliases a builtin processor.
const BuiltinPrefix = "builtin:"

// Catalog is the read side of a Registry.
type Catalog interface {
	Lookup(name string) (Processor, bool)
	Has(name string) bool
	Names() []string
	Refs() map[string]string
}

// Registry maps processor names to their implementations. It is populated while
// configuration is built and only read afterwards.
type Registry struct {
	processors map[string]Processor
	refs       map[string]string
	mutex      sync.RWMutex
}

// NewRegistry returns a registry holding the builtin processors.
func NewRegistry() *Registry {
	r := &Registry{
		processors: make(map[string]Processor, len(builtins)),
		refs:       make(map[string]string),
	}
	for name, factory := range builtins {
		r.processors[name] = factory()
	}
	return r
}

// Register adds or replaces a processor under name.
func (r *Registry) Register(name string, p Processor) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("processor name cannot be empty")
	}
	if strings.Contains(name, ":") {
		return fmt.Errorf("processor name %q cannot contain ':'", name)
	}
	if p == nil {
		return fmt.Errorf("processor %q is nil", name)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.processors[name] = p
	return nil
}

// RegisterRef registers name from a configuration reference string. A
// "builtin:<name>" reference aliases a builtin; anything else is an external
// command line.
func (r *Registry) RegisterRef(name, ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return fmt.Errorf("processor %q has an empty reference", name)
	}

	var p Processor
	if target, ok := strings.CutPrefix(ref, BuiltinPrefix); ok {
		factory, exists := builtins[target]
		if !exists {
			return fmt.Errorf("processor %q references unknown builtin %q (available: %s)",
				name, target, strings.Join(BuiltinNames(), ", "))
		}
		p = factory()
	} else {
		cmd, err := NewCommand(ref)
		if err != nil {
			return fmt.Errorf("processor %q: %w", name, err)
		}
		p = cmd
	}

	if err := r.Register(name, p); err != nil {
		return err
	}

	r.mutex.Lock()
	r.refs[name] = ref
	r.mutex.Unlock()
	return nil
}

// Lookup returns the processor registered under name.
func (r *Registry) Lookup(name string) (Processor, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	p, ok := r.processors[name]
	return p, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.processors))
	for name := range r.processors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Refs returns the configuration references registered through RegisterRef.
func (r *Registry) Refs() map[string]string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	refs := make(map[string]string, len(r.refs))
	for k, v := range r.refs {
		refs[k] = v
	}
	return refs
}

// View returns a Catalog over r that cannot be used to register processors.
func (r *Registry) View() Catalog {
	return catalog{r: r}
}

type catalog struct {
	r *Registry
}

func (c catalog) Lookup(name string) (Processor, bool) { return c.r.Lookup(name) }

func (c catalog) Has(name string) bool { return c.r.Has(name) }

func (c catalog) Names() []string { return c.r.Names() }

func (c catalog) Refs() map[string]string { return c.r.Refs() }

// IsBuiltin reports whether name is one of the processors every registry starts with.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// BuiltinNames lists the builtin processors, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var builtins = map[string]func() Processor{
	"rewrite": func() Processor { return Func(Rewrite) },
	"cssmin":  func() Processor { return NewMinifier(MediaTypeCSS) },
	"jsmin":   func() Processor { return NewMinifier(MediaTypeJS) },
	"sass":    func() Processor { return mustCommand(SassCommand) },
}
