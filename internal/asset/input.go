package asset

import (
	"path/filepath"

	apperrors "github.com/conneroisu/assetpack/internal/errors"
	"github.com/conneroisu/assetpack/internal/processor"
	"github.com/spf13/afero"
)

// Input is one resolved source file of an asset.
type Input struct {
	Name       string   `json:"name" yaml:"name"`
	Path       string   `json:"path" yaml:"path"`
	Processors []string `json:"processors,omitempty" yaml:"processors,omitempty"`
	Depends    []string `json:"depends,omitempty" yaml:"depends,omitempty"`
}

func (i Input) String() string {
	return i.Name
}

// Descriptor returns the view of the input handed to processors.
func (i Input) Descriptor() processor.Input {
	return processor.Input{Name: i.Name, Path: i.Path}
}

// DependencyPaths returns the files matched by dep within the input's directory.
func (i Input) DependencyPaths(fs afero.Fs, dep string) ([]string, error) {
	matches, err := afero.Glob(fs, filepath.Join(filepath.Dir(i.Path), filepath.FromSlash(dep)))
	if err != nil {
		return nil, apperrors.ErrInvalidDepends(dep, err).WithInput(i.Name)
	}
	return matches, nil
}

// Asset is a named output and its inputs in concatenation order.
type Asset struct {
	Name   string  `json:"name" yaml:"name"`
	Inputs []Input `json:"inputs" yaml:"inputs"`
}

// Ext returns the asset's lowercased extension.
func (a *Asset) Ext() string {
	return Ext(a.Name)
}

// InputNames lists the input names in order.
func (a *Asset) InputNames() []string {
	names := make([]string, len(a.Inputs))
	for i, in := range a.Inputs {
		names[i] = in.Name
	}
	return names
}
