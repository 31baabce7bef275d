// Package resolver locates asset input files across an ordered list of search
// roots.
package resolver

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// Resolver maps input names to files. It only probes the filesystem and is safe
// for concurrent use.
type Resolver struct {
	fs    afero.Fs
	roots []string
}

// New returns a resolver that searches roots in order.
func New(fs afero.Fs, roots []string) *Resolver {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Resolver{
		fs:    fs,
		roots: append([]string(nil), roots...),
	}
}

// Roots returns a copy of the search roots.
func (r *Resolver) Roots() []string {
	return append([]string(nil), r.roots...)
}

// Resolve returns the path of the first root containing name. Absolute names
// are checked as given. Directories never match.
func (r *Resolver) Resolve(name string) (string, bool) {
	if name == "" {
		return "", false
	}

	if filepath.IsAbs(name) {
		if r.isFile(name) {
			return name, true
		}
		return "", false
	}

	for _, root := range r.roots {
		candidate := filepath.Join(root, filepath.FromSlash(name))
		if r.isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// Candidates lists every path Resolve would probe for name, in order.
func (r *Resolver) Candidates(name string) []string {
	if filepath.IsAbs(name) {
		return []string{name}
	}
	paths := make([]string, 0, len(r.roots))
	for _, root := range r.roots {
		paths = append(paths, filepath.Join(root, filepath.FromSlash(name)))
	}
	return paths
}

func (r *Resolver) isFile(path string) bool {
	info, err := r.fs.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
