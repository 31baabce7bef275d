// Package config loads assetpack configuration files and turns them into
// immutable Settings for the pack engine.
//
// Configuration comes from a YAML, TOML or JSON file, with scalar keys
// overridable by command-line flags and ASSETPACK_ environment variables
// through Viper. Asset names are case sensitive and may contain dots, so the
// file itself is decoded directly rather than through Viper's key handling.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the raw configuration as written in a config file.
type Config struct {
	Output   string              `mapstructure:"output"`
	Search   []string            `mapstructure:"search"`
	Prefix   string              `mapstructure:"prefix"`
	Register map[string]string   `mapstructure:"register"`
	Defaults map[string][]string `mapstructure:"defaults"`
	Concat   map[string]string   `mapstructure:"concat"`
	Assets   map[string]any      `mapstructure:"assets"`
	BaseDir  string              `mapstructure:"base_dir"`
	Charset  string              `mapstructure:"charset"`
	Workers  int                 `mapstructure:"workers"`
	Server   ServerConfig        `mapstructure:"server"`
	Log      LogConfig           `mapstructure:"log"`

	// File is the path the configuration was read from, if any.
	File string `mapstructure:"-"`
	// UnknownKeys lists top-level or nested keys the decoder did not recognize.
	UnknownKeys []string `mapstructure:"-"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host,omitempty" toml:"host,omitempty" json:"host,omitempty"`
	Port int    `mapstructure:"port" yaml:"port,omitempty" toml:"port,omitempty" json:"port,omitempty"`
	Root string `mapstructure:"root" yaml:"root,omitempty" toml:"root,omitempty" json:"root,omitempty"`
}

type LogConfig struct {
	Level   string `mapstructure:"level" yaml:"level,omitempty" toml:"level,omitempty" json:"level,omitempty"`
	Format  string `mapstructure:"format" yaml:"format,omitempty" toml:"format,omitempty" json:"format,omitempty"`
	File    string `mapstructure:"file" yaml:"file,omitempty" toml:"file,omitempty" json:"file,omitempty"`
	Persist bool   `mapstructure:"persist" yaml:"persist,omitempty" toml:"persist,omitempty" json:"persist,omitempty"`
}

// Format is a configuration file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// ParseFormat returns the format named by s.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml", "":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported format %q (want yaml, toml or json)", s)
}

// FormatForPath infers the file format from a path's extension.
func FormatForPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer config format of %q", path)
	}
	return ParseFormat(ext)
}

// Decode parses data in the given format.
func Decode(data []byte, format Format) (*Config, error) {
	raw := map[string]any{}

	switch format {
	case FormatYAML, FormatJSON:
		// JSON documents are valid YAML.
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", format, err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	return FromMap(raw)
}

// FromMap decodes an already parsed configuration document. Single strings
// are accepted wherever a list is expected.
func FromMap(raw map[string]any) (*Config, error) {
	var cfg Config
	var md mapstructure.Metadata

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		Metadata:         &md,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	cfg.UnknownKeys = md.Unused
	return &cfg, nil
}
