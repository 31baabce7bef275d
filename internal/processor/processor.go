// Package processor holds the named text transformations an asset input runs
// through before it is concatenated.
//
// A Registry maps processor names to Processor values. Chains are applied
// front-to-back, each processor receiving the text returned by the previous one.
package processor

import (
	"context"
	"path/filepath"

	apperrors "github.com/conneroisu/assetpack/internal/errors"
)

// Input describes the source file being transformed.
type Input struct {
	// Name is the input name as written in the asset spec.
	Name string
	// Path is the resolved filesystem path.
	Path string
}

// Dir returns the directory holding the input file.
func (i Input) Dir() string {
	return filepath.Dir(i.Path)
}

// Env is the read-only engine context handed to every processor.
type Env struct {
	// Prefix is prepended to public URLs.
	Prefix string
	// BaseDir is the directory relative configuration paths resolve against.
	BaseDir string
}

// Processor transforms text.
type Processor interface {
	Process(ctx context.Context, text string, in Input, env Env) (string, error)
}

// Func adapts a plain function to the Processor interface.
type Func func(ctx context.Context, text string, in Input, env Env) (string, error)

// Process calls f.
func (f Func) Process(ctx context.Context, text string, in Input, env Env) (string, error) {
	return f(ctx, text, in, env)
}

// Apply runs text through the named chain in order. The first failing
// processor aborts the chain with a processor error.
func Apply(ctx context.Context, reg Catalog, chain []string, text string, in Input, env Env) (string, error) {
	for _, name := range chain {
		proc, ok := reg.Lookup(name)
		if !ok {
			return "", apperrors.ErrUnknownProcessor(name)
		}

		out, err := proc.Process(ctx, text, in, env)
		if err != nil {
			return "", apperrors.ErrProcessorFailed(name, in.Name, err)
		}
		text = out
	}

	return text, nil
}
