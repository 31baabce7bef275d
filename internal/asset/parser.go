package asset

import (
	apperrors "github.com/conneroisu/assetpack/internal/errors"
	"github.com/conneroisu/assetpack/internal/processor"
	"github.com/conneroisu/assetpack/internal/resolver"
)

// Parser derives assets from their specs. It holds no per-asset state and may
// be shared.
type Parser struct {
	resolver *resolver.Resolver
	registry processor.Catalog
	defaults map[string][]string
}

// NewParser returns a parser. defaults maps a lowercased input extension to the
// chain used when a spec names no processors.
func NewParser(res *resolver.Resolver, reg processor.Catalog, defaults map[string][]string) *Parser {
	return &Parser{
		resolver: res,
		registry: reg,
		defaults: defaults,
	}
}

// Parse resolves specs into an asset. Inputs that cannot be found are left out
// and returned as reportable errors; an unknown processor or malformed spec
// fails the whole parse.
func (p *Parser) Parse(name string, specs []Spec) (*Asset, []error, error) {
	a := &Asset{Name: name, Inputs: make([]Input, 0, len(specs))}
	var missing []error

	for _, spec := range specs {
		in, err := p.parseOne(spec)
		if err != nil {
			return nil, nil, apperrors.AttachAsset(err, name)
		}
		if in.Path == "" {
			missing = append(missing, apperrors.ErrInputNotFound(in.Name).WithAsset(name))
			continue
		}
		a.Inputs = append(a.Inputs, in)
	}

	return a, missing, nil
}

func (p *Parser) parseOne(spec Spec) (Input, error) {
	chain, inputName, err := spec.Split()
	if err != nil {
		return Input{}, err
	}

	if len(chain) == 0 {
		chain = append([]string(nil), p.defaults[Ext(inputName)]...)
	}

	for _, proc := range chain {
		if !p.registry.Has(proc) {
			return Input{}, apperrors.ErrUnknownProcessor(proc).WithInput(inputName)
		}
	}

	in := Input{
		Name:       inputName,
		Processors: chain,
		Depends:    append([]string(nil), spec.Depends...),
	}
	if path, ok := p.resolver.Resolve(inputName); ok {
		in.Path = path
	}
	return in, nil
}
