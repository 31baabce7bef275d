package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/conneroisu/assetpack/internal/asset"
	apperrors "github.com/conneroisu/assetpack/internal/errors"
	"github.com/conneroisu/assetpack/internal/processor"
	"github.com/spf13/afero"
	"golang.org/x/text/encoding/htmlindex"
)

// Builder provides a fluent interface for assembling Settings. Build validates
// everything up front, so a Settings value never references an unknown
// processor.
//
// Usage:
//
//	settings, err := config.NewBuilder().
//	    WithSearch("static", "node_modules").
//	    WithAsset("js/site.js", "jsmin:app.js").
//	    WithOutput("public").
//	    Build()
type Builder struct {
	config     Config
	processors map[string]processor.Processor
	validators []ValidatorFunc
	fs         afero.Fs
}

// ValidatorFunc represents a settings validation function run after the
// built-in checks.
type ValidatorFunc func(*Settings) error

// NewBuilder creates a builder with no configuration.
func NewBuilder() *Builder {
	return &Builder{
		processors: make(map[string]processor.Processor),
		fs:         afero.NewOsFs(),
	}
}

// FromConfig starts a builder from a decoded configuration.
func FromConfig(cfg *Config) *Builder {
	b := NewBuilder()
	if cfg != nil {
		b.config = cloneConfig(cfg)
	}
	return b
}

// WithFs sets the filesystem used to create an ephemeral output directory and
// to check search roots.
func (b *Builder) WithFs(fs afero.Fs) *Builder {
	if fs != nil {
		b.fs = fs
	}
	return b
}

// WithOutput sets the output directory.
func (b *Builder) WithOutput(dir string) *Builder {
	b.config.Output = dir
	return b
}

// WithSearch replaces the search roots.
func (b *Builder) WithSearch(roots ...string) *Builder {
	b.config.Search = append([]string(nil), roots...)
	return b
}

// WithPrefix sets the public URL prefix.
func (b *Builder) WithPrefix(prefix string) *Builder {
	b.config.Prefix = prefix
	return b
}

// WithBaseDir sets the directory relative paths resolve against.
func (b *Builder) WithBaseDir(dir string) *Builder {
	b.config.BaseDir = dir
	return b
}

// WithCharset sets the output encoding.
func (b *Builder) WithCharset(charset string) *Builder {
	b.config.Charset = charset
	return b
}

// WithWorkers bounds pack-all concurrency.
func (b *Builder) WithWorkers(n int) *Builder {
	b.config.Workers = n
	return b
}

// WithDefault sets the default chain for inputs with extension ext.
func (b *Builder) WithDefault(ext string, chain ...string) *Builder {
	if b.config.Defaults == nil {
		b.config.Defaults = make(map[string][]string)
	}
	b.config.Defaults[ext] = append([]string(nil), chain...)
	return b
}

// WithConcat sets the separator for assets with extension ext.
func (b *Builder) WithConcat(ext, sep string) *Builder {
	if b.config.Concat == nil {
		b.config.Concat = make(map[string]string)
	}
	b.config.Concat[ext] = sep
	return b
}

// WithAsset adds or replaces an asset. Each spec is a string, an asset.Spec or
// a single-entry mapping as accepted in config files.
func (b *Builder) WithAsset(name string, specs ...any) *Builder {
	if b.config.Assets == nil {
		b.config.Assets = make(map[string]any)
	}
	b.config.Assets[name] = append([]any(nil), specs...)
	return b
}

// WithRegister registers a processor from a reference string.
func (b *Builder) WithRegister(name, ref string) *Builder {
	if b.config.Register == nil {
		b.config.Register = make(map[string]string)
	}
	b.config.Register[name] = ref
	return b
}

// WithProcessor registers a Go processor value under name.
func (b *Builder) WithProcessor(name string, p processor.Processor) *Builder {
	b.processors[name] = p
	return b
}

// WithServer sets the dev server settings.
func (b *Builder) WithServer(server ServerConfig) *Builder {
	b.config.Server = server
	return b
}

// AddValidator adds a custom validation function
func (b *Builder) AddValidator(validator ValidatorFunc) *Builder {
	b.validators = append(b.validators, validator)
	return b
}

// Build validates the configuration and creates the Settings.
func (b *Builder) Build() (*Settings, error) {
	cfg := &b.config

	result := Validate(cfg)
	if result.HasErrors() {
		first := result.Errors[0]
		return nil, apperrors.NewConfigError(apperrors.ErrCodeConfigInvalid,
			fmt.Sprintf("configuration validation failed: %s", strings.TrimSpace(result.String()))).
			WithContext("field", first.Field)
	}

	s := &Settings{
		file:      cfg.File,
		prefix:    cfg.Prefix,
		rawOutput: cfg.Output,
		server:    cfg.Server,
		log:       cfg.Log,
	}
	for _, w := range result.Warnings {
		if w.Field == "output" || w.Field == "assets" {
			continue
		}
		s.warnings = append(s.warnings, w.Field+": "+w.Message)
	}
	for _, key := range cfg.UnknownKeys {
		s.warnings = append(s.warnings, "unknown configuration key "+key)
	}

	steps := []func(*Config, *Settings) error{
		b.buildBaseDir,
		b.buildRegistry,
		b.buildDefaults,
		b.buildConcat,
		b.buildSearch,
		b.buildAssets,
		b.buildCharset,
		b.buildRuntime,
		b.buildOutput,
	}
	for _, step := range steps {
		if err := step(cfg, s); err != nil {
			return nil, err
		}
	}

	for _, validator := range b.validators {
		if err := validator(s); err != nil {
			return nil, apperrors.WrapConfig(err, apperrors.ErrCodeConfigInvalid, "configuration validation failed")
		}
	}

	return s, nil
}

func (b *Builder) buildBaseDir(cfg *Config, s *Settings) error {
	base := cfg.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return apperrors.WrapIO(err, apperrors.ErrCodeInvalidPath, "cannot determine working directory")
		}
		base = wd
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return apperrors.ErrInvalidPath(base)
	}
	s.baseDir = abs
	return nil
}

func (b *Builder) buildRegistry(cfg *Config, s *Settings) error {
	reg := processor.NewRegistry()

	for _, name := range sortedKeys(cfg.Register) {
		if err := reg.RegisterRef(name, cfg.Register[name]); err != nil {
			return apperrors.WrapConfig(err, apperrors.ErrCodeConfigInvalid, "invalid processor registration").
				WithContext("processor", name)
		}
	}
	for _, name := range sortedKeys(b.processors) {
		if err := reg.Register(name, b.processors[name]); err != nil {
			return apperrors.WrapConfig(err, apperrors.ErrCodeConfigInvalid, "invalid processor registration").
				WithContext("processor", name)
		}
	}

	s.registry = reg
	return nil
}

func (b *Builder) buildDefaults(cfg *Config, s *Settings) error {
	s.defaults = make(map[string][]string, len(builtinDefaults)+len(cfg.Defaults))
	for ext, chain := range builtinDefaults {
		s.defaults[ext] = append([]string(nil), chain...)
	}
	for _, ext := range sortedKeys(cfg.Defaults) {
		chain := cfg.Defaults[ext]
		for _, name := range chain {
			if !s.registry.Has(name) {
				return apperrors.ErrUnknownProcessor(name).WithContext("defaults", ext)
			}
		}
		s.defaults[normalizeExt(ext)] = append([]string(nil), chain...)
	}
	return nil
}

func (b *Builder) buildConcat(cfg *Config, s *Settings) error {
	s.concat = make(map[string]string, len(builtinConcat)+len(cfg.Concat))
	for ext, sep := range builtinConcat {
		s.concat[ext] = sep
	}
	for ext, sep := range cfg.Concat {
		s.concat[normalizeExt(ext)] = sep
	}
	return nil
}

func (b *Builder) buildSearch(cfg *Config, s *Settings) error {
	roots := cfg.Search
	if len(roots) == 0 {
		roots = builtinSearch
	}
	s.rawSearch = append([]string(nil), roots...)

	for _, root := range roots {
		abs := s.resolve(root)
		if ok, err := afero.DirExists(b.fs, abs); err == nil && !ok {
			s.warnings = append(s.warnings, "search root "+root+" is not a directory")
		}
		s.search = append(s.search, abs)
	}
	return nil
}

func (b *Builder) buildAssets(cfg *Config, s *Settings) error {
	s.assets = make(map[string][]asset.Spec, len(cfg.Assets))

	for _, name := range asset.SortedNames(cfg.Assets) {
		specs, err := asset.NormalizeSpecs(cfg.Assets[name])
		if err != nil {
			return apperrors.AttachAsset(err, name)
		}
		for _, spec := range specs {
			chain, _, err := spec.Split()
			if err != nil {
				return apperrors.AttachAsset(err, name)
			}
			if err := spec.CheckDepends(); err != nil {
				return apperrors.AttachAsset(err, name)
			}
			for _, proc := range chain {
				if !s.registry.Has(proc) {
					return apperrors.ErrUnknownProcessor(proc).WithAsset(name)
				}
			}
		}
		s.assets[name] = specs
	}
	return nil
}

func (b *Builder) buildCharset(cfg *Config, s *Settings) error {
	charset := cfg.Charset
	if charset == "" {
		charset = DefaultCharset
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return apperrors.ErrEncoding(charset, err)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return apperrors.ErrEncoding(charset, err)
	}
	s.charset = name
	return nil
}

func (b *Builder) buildRuntime(cfg *Config, s *Settings) error {
	s.workers = cfg.Workers
	if s.workers == 0 {
		s.workers = runtime.GOMAXPROCS(0)
	}

	if s.server.Host == "" {
		s.server.Host = DefaultServerHost
	}
	if s.server.Port == 0 {
		s.server.Port = DefaultServerPort
	}
	if s.server.Root == "" {
		s.server.Root = "."
	}
	s.server.Root = s.resolve(s.server.Root)
	if s.log.File != "" {
		s.log.File = s.resolve(s.log.File)
	}
	return nil
}

// buildOutput runs last so a failed build never leaves a temporary directory behind.
func (b *Builder) buildOutput(cfg *Config, s *Settings) error {
	if cfg.Output != "" {
		s.output = s.resolve(cfg.Output)
		return nil
	}

	dir, err := afero.TempDir(b.fs, "", TempOutputPattern)
	if err != nil {
		return apperrors.WrapIO(err, apperrors.ErrCodeWriteFailed, "cannot create temporary output directory")
	}
	s.output = dir
	s.ephemeral = true
	return nil
}

func (s *Settings) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(s.baseDir, p)
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneConfig(cfg *Config) Config {
	out := *cfg
	out.Search = append([]string(nil), cfg.Search...)
	out.UnknownKeys = append([]string(nil), cfg.UnknownKeys...)
	if cfg.Register != nil {
		out.Register = make(map[string]string, len(cfg.Register))
		for k, v := range cfg.Register {
			out.Register[k] = v
		}
	}
	if cfg.Defaults != nil {
		out.Defaults = make(map[string][]string, len(cfg.Defaults))
		for k, v := range cfg.Defaults {
			out.Defaults[k] = append([]string(nil), v...)
		}
	}
	if cfg.Concat != nil {
		out.Concat = make(map[string]string, len(cfg.Concat))
		for k, v := range cfg.Concat {
			out.Concat[k] = v
		}
	}
	if cfg.Assets != nil {
		out.Assets = make(map[string]any, len(cfg.Assets))
		for k, v := range cfg.Assets {
			out.Assets[k] = v
		}
	}
	return out
}
