package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/conneroisu/assetpack/internal/processor"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Export is the minimal configuration reproducing a Settings value. Built-in
// defaults are omitted.
type Export struct {
	Output   string              `yaml:"output,omitempty" toml:"output,omitempty" json:"output,omitempty"`
	Search   []string            `yaml:"search,omitempty" toml:"search,omitempty" json:"search,omitempty"`
	Prefix   string              `yaml:"prefix,omitempty" toml:"prefix,omitempty" json:"prefix,omitempty"`
	Register map[string]string   `yaml:"register,omitempty" toml:"register,omitempty" json:"register,omitempty"`
	Defaults map[string][]string `yaml:"defaults,omitempty" toml:"defaults,omitempty" json:"defaults,omitempty"`
	Concat   map[string]string   `yaml:"concat,omitempty" toml:"concat,omitempty" json:"concat,omitempty"`
	Charset  string              `yaml:"charset,omitempty" toml:"charset,omitempty" json:"charset,omitempty"`
	Assets   map[string]any      `yaml:"assets" toml:"assets" json:"assets"`
}

// Export returns the minimal configuration for s. The output directory is
// left out when it is ephemeral.
func (s *Settings) Export() *Export {
	e := &Export{
		Prefix: s.prefix,
		Assets: make(map[string]any, len(s.assets)),
	}

	if !s.ephemeral {
		e.Output = s.rawOutput
	}
	if !slices.Equal(s.rawSearch, builtinSearch) {
		e.Search = append([]string(nil), s.rawSearch...)
	}
	for name, ref := range s.registry.Refs() {
		if processor.IsBuiltin(name) && ref == processor.BuiltinPrefix+name {
			continue
		}
		if e.Register == nil {
			e.Register = make(map[string]string)
		}
		e.Register[name] = ref
	}
	if s.charset != DefaultCharset {
		e.Charset = s.charset
	}

	for ext, chain := range s.defaults {
		if builtin, ok := builtinDefaults[ext]; ok && slices.Equal(builtin, chain) {
			continue
		}
		if e.Defaults == nil {
			e.Defaults = make(map[string][]string)
		}
		e.Defaults[ext] = append([]string(nil), chain...)
	}

	for ext, sep := range s.concat {
		if builtin, ok := builtinConcat[ext]; ok && builtin == sep {
			continue
		}
		if e.Concat == nil {
			e.Concat = make(map[string]string)
		}
		e.Concat[ext] = sep
	}

	for name, specs := range s.assets {
		if len(specs) == 1 && len(specs[0].Depends) == 0 {
			e.Assets[name] = specs[0].Raw
			continue
		}
		values := make([]any, 0, len(specs))
		for _, spec := range specs {
			values = append(values, spec.Value())
		}
		e.Assets[name] = values
	}

	return e
}

// Marshal encodes v in the given format.
func Marshal(v any, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTOML:
		return toml.Marshal(v)
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}
