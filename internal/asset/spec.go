// Package asset turns raw asset specifications into ordered, resolved inputs
// and decides whether a packed asset is out of date.
//
// A raw spec is "proc1:proc2:file.ext" or a single-entry mapping from such a
// string to a list of dependency glob patterns. Processor segments read as a
// nested call: "cssmin:sass:a.scss" is cssmin(sass(a.scss)).
package asset

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/conneroisu/assetpack/internal/errors"
)

// Spec is one normalized input specification.
type Spec struct {
	// Raw is the colon-delimited processor and file string.
	Raw string `json:"spec" yaml:"spec"`
	// Depends are glob patterns relative to the input's directory.
	Depends []string `json:"depends,omitempty" yaml:"depends,omitempty"`
}

// Value returns the spec in the shape it is written in configuration files.
func (s Spec) Value() any {
	if len(s.Depends) == 0 {
		return s.Raw
	}
	return map[string]any{s.Raw: append([]string(nil), s.Depends...)}
}

// CheckDepends reports the first dependency pattern that is not a valid glob.
func (s Spec) CheckDepends() error {
	for _, dep := range s.Depends {
		if _, err := filepath.Match(filepath.FromSlash(dep), ""); err != nil {
			return apperrors.ErrInvalidDepends(dep, err)
		}
	}
	return nil
}

// Split separates the processor chain from the input name. The chain is
// returned in execution order, which is the reverse of the written order.
func (s Spec) Split() ([]string, string, error) {
	segments := strings.Split(s.Raw, ":")
	name := segments[len(segments)-1]
	if strings.TrimSpace(name) == "" {
		return nil, "", apperrors.ErrInvalidSpec(s.Raw)
	}

	written := segments[:len(segments)-1]
	chain := make([]string, 0, len(written))
	for i := len(written) - 1; i >= 0; i-- {
		if written[i] == "" {
			return nil, "", apperrors.ErrInvalidSpec(s.Raw)
		}
		chain = append(chain, written[i])
	}
	return chain, name, nil
}

// NormalizeSpecs converts the decoded configuration value for one asset into
// specs. It accepts a string, a list of strings and single-entry mappings, or a
// single-entry mapping on its own.
func NormalizeSpecs(raw any) ([]Spec, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return []Spec{{Raw: v}}, nil
	case Spec:
		return []Spec{v}, nil
	case []Spec:
		return append([]Spec(nil), v...), nil
	case []string:
		specs := make([]Spec, 0, len(v))
		for _, s := range v {
			specs = append(specs, Spec{Raw: s})
		}
		return specs, nil
	case []any:
		specs := make([]Spec, 0, len(v))
		for _, item := range v {
			spec, err := normalizeOne(item)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
		return specs, nil
	case map[string]any, map[string][]string, map[string][]any, map[any]any:
		spec, err := normalizeOne(v)
		if err != nil {
			return nil, err
		}
		return []Spec{spec}, nil
	default:
		return nil, apperrors.ErrInvalidSpec(raw)
	}
}

func normalizeOne(item any) (Spec, error) {
	switch v := item.(type) {
	case string:
		return Spec{Raw: v}, nil
	case Spec:
		return v, nil
	case map[string][]string:
		if len(v) != 1 {
			return Spec{}, apperrors.ErrInvalidSpec(item)
		}
		for raw, deps := range v {
			return Spec{Raw: raw, Depends: append([]string(nil), deps...)}, nil
		}
	case map[string][]any:
		generic := make(map[string]any, len(v))
		for k, deps := range v {
			generic[k] = deps
		}
		return normalizeOne(generic)
	case map[any]any:
		generic := make(map[string]any, len(v))
		for k, deps := range v {
			key, ok := k.(string)
			if !ok {
				return Spec{}, apperrors.ErrInvalidSpec(item)
			}
			generic[key] = deps
		}
		return normalizeOne(generic)
	case map[string]any:
		if len(v) != 1 {
			return Spec{}, apperrors.ErrInvalidSpec(item)
		}
		for raw, deps := range v {
			patterns, err := normalizeDepends(deps)
			if err != nil {
				return Spec{}, apperrors.ErrInvalidSpec(item)
			}
			return Spec{Raw: raw, Depends: patterns}, nil
		}
	}
	return Spec{}, apperrors.ErrInvalidSpec(item)
}

func normalizeDepends(deps any) ([]string, error) {
	switch v := deps.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		patterns := make([]string, 0, len(v))
		for _, p := range v {
			s, ok := p.(string)
			if !ok {
				return nil, fmt.Errorf("dependency pattern %v is not a string", p)
			}
			patterns = append(patterns, s)
		}
		return patterns, nil
	}
	return nil, fmt.Errorf("dependency patterns %v are not a list", deps)
}

// Ext returns the lowercased extension of name without the dot.
func Ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

// SortedNames returns the keys of assets in lexical order.
func SortedNames[V any](assets map[string]V) []string {
	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
