package config

import (
	"maps"
	"path/filepath"

	"github.com/conneroisu/assetpack/internal/asset"
	"github.com/conneroisu/assetpack/internal/processor"
)

// Built-in defaults applied beneath the configuration file.
const (
	DefaultCharset    = "utf-8"
	DefaultSeparator  = "\n"
	DefaultServerHost = "localhost"
	DefaultServerPort = 8000
	TempOutputPattern = "assetpack-"
)

var (
	builtinDefaults = map[string][]string{"css": {"rewrite"}}
	builtinConcat   = map[string]string{"js": "\n;\n"}
	builtinSearch   = []string{"."}
)

// Settings is the validated, immutable configuration handed to the engine.
// Every accessor returns copies.
type Settings struct {
	file      string
	baseDir   string
	output    string
	rawOutput string
	ephemeral bool
	search    []string
	rawSearch []string
	prefix    string
	registry  *processor.Registry
	defaults  map[string][]string
	concat    map[string]string
	assets    map[string][]asset.Spec
	charset   string
	workers   int
	server    ServerConfig
	log       LogConfig
	warnings  []string
}

// File returns the config file the settings were loaded from, if any.
func (s *Settings) File() string { return s.file }

// BaseDir is the absolute directory relative paths were resolved against.
func (s *Settings) BaseDir() string { return s.baseDir }

// Output is the absolute directory packed assets are written to.
func (s *Settings) Output() string { return s.output }

// Ephemeral reports whether Output is a temporary directory created because
// none was configured.
func (s *Settings) Ephemeral() bool { return s.ephemeral }

// SearchRoots returns the absolute search roots in order.
func (s *Settings) SearchRoots() []string { return append([]string(nil), s.search...) }

// Prefix is the public URL prefix of packed assets.
func (s *Settings) Prefix() string { return s.prefix }

// Registry returns a read-only view of the processor registry.
func (s *Settings) Registry() processor.Catalog { return s.registry.View() }

// Defaults returns the default processor chains keyed by input extension.
func (s *Settings) Defaults() map[string][]string {
	out := make(map[string][]string, len(s.defaults))
	for ext, chain := range s.defaults {
		out[ext] = append([]string(nil), chain...)
	}
	return out
}

// Concat returns the separators keyed by asset extension.
func (s *Settings) Concat() map[string]string { return maps.Clone(s.concat) }

// Separator returns the text placed between inputs of an asset with extension ext.
func (s *Settings) Separator(ext string) string {
	if sep, ok := s.concat[ext]; ok {
		return sep
	}
	return DefaultSeparator
}

// AssetNames lists configured asset names in sorted order.
func (s *Settings) AssetNames() []string { return asset.SortedNames(s.assets) }

// HasAsset reports whether name is a configured asset.
func (s *Settings) HasAsset(name string) bool {
	_, ok := s.assets[name]
	return ok
}

// Specs returns the input specs of an asset.
func (s *Settings) Specs(name string) ([]asset.Spec, bool) {
	specs, ok := s.assets[name]
	if !ok {
		return nil, false
	}
	return append([]asset.Spec(nil), specs...), true
}

// Charset is the canonical name of the output encoding.
func (s *Settings) Charset() string { return s.charset }

// Workers bounds how many assets are packed at once.
func (s *Settings) Workers() int { return s.workers }

// Server returns the dev server settings.
func (s *Settings) Server() ServerConfig { return s.server }

// Log returns the logging settings.
func (s *Settings) Log() LogConfig { return s.log }

// Warnings are non-fatal problems found while building.
func (s *Settings) Warnings() []string { return append([]string(nil), s.warnings...) }

// Env returns the engine context passed to processors.
func (s *Settings) Env() processor.Env {
	return processor.Env{Prefix: s.prefix, BaseDir: s.baseDir}
}

// OutputPath returns where the named asset is written.
func (s *Settings) OutputPath(name string) string {
	return filepath.Join(s.output, filepath.FromSlash(name))
}
