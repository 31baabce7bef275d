// Package finder exposes packed assets to static file collectors: lookups
// pack the requested asset on demand and listings pack everything first.
package finder

import (
	"context"
	"path"

	"github.com/conneroisu/assetpack/internal/pack"
	"github.com/spf13/afero"
)

// Entry is one listed asset and the storage it can be read from.
type Entry struct {
	Name    string
	Storage afero.Fs
}

// Warning is a non-fatal setup problem reported by Check.
type Warning struct {
	ID      string
	Message string
	Hint    string
}

func (w Warning) String() string {
	return w.ID + ": " + w.Message + " (" + w.Hint + ")"
}

// Finder resolves asset names to packed files.
type Finder struct {
	engine  *pack.Engine
	storage afero.Fs
}

// New returns a finder whose storage is the engine's output directory on fs.
func New(engine *pack.Engine, fs afero.Fs) *Finder {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Finder{
		engine:  engine,
		storage: afero.NewBasePathFs(fs, engine.Settings().Output()),
	}
}

// Storage returns the filesystem rooted at the output directory.
func (f *Finder) Storage() afero.Fs {
	return f.storage
}

// Find packs name if it is stale and returns its output path. ok is false for
// names that are not assets.
func (f *Finder) Find(ctx context.Context, name string) (string, bool, error) {
	if !f.engine.Has(name) {
		return "", false, nil
	}
	if _, err := f.engine.PackToDisk(ctx, name, false); err != nil {
		return "", true, err
	}
	return f.engine.OutputPath(name), true, nil
}

// FindAll is Find returning every match, which is at most one.
func (f *Finder) FindAll(ctx context.Context, name string) ([]string, error) {
	p, ok, err := f.Find(ctx, name)
	if err != nil || !ok {
		return nil, err
	}
	return []string{p}, nil
}

// List repacks every asset and returns those not matching ignorePatterns.
// A pattern matches the full asset name or its base name.
func (f *Finder) List(ctx context.Context, ignorePatterns []string) ([]Entry, []pack.Result, error) {
	results, err := f.engine.PackToDisk(ctx, "", true)
	if err != nil {
		return nil, results, err
	}

	entries := make([]Entry, 0, len(results))
	for _, name := range f.engine.Assets() {
		if Ignored(name, ignorePatterns) {
			continue
		}
		entries = append(entries, Entry{Name: name, Storage: f.storage})
	}
	return entries, results, nil
}

// Check reports configuration problems worth warning about.
func (f *Finder) Check() []Warning {
	var warnings []Warning
	if len(f.engine.Assets()) == 0 {
		warnings = append(warnings, Warning{
			ID:      "assetpack.W001",
			Message: "You have not specified any assets to pack.",
			Hint:    `Make sure you specify an "assets" mapping in your assetpack.yml.`,
		})
	}
	return warnings
}

// Ignored reports whether name matches any of patterns.
func Ignored(name string, patterns []string) bool {
	base := path.Base(name)
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
		if ok, _ := path.Match(p, base); ok {
			return true
		}
	}
	return false
}
