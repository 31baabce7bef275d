// Package pack builds assets: it derives each asset's inputs from Settings,
// runs their processor chains and concatenates the results, either into the
// output directory when the asset is stale or straight into a writer.
//
// Inputs are derived again on every call, so edits to the settings source
// take effect as soon as a new Engine is built from them.
package pack

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"time"

	"github.com/conneroisu/assetpack/internal/asset"
	"github.com/conneroisu/assetpack/internal/config"
	apperrors "github.com/conneroisu/assetpack/internal/errors"
	"github.com/conneroisu/assetpack/internal/logging"
	"github.com/conneroisu/assetpack/internal/processor"
	"github.com/conneroisu/assetpack/internal/resolver"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
)

// Engine packs the assets of one Settings value.
type Engine struct {
	settings *config.Settings
	fs       afero.Fs
	logger   logging.Logger
	metrics  *Metrics
	parser   *asset.Parser
	encoder  *encoding.Encoder
}

// Option configures an Engine.
type Option func(*Engine)

// WithFs sets the filesystem inputs are read from and outputs written to.
func WithFs(fs afero.Fs) Option {
	return func(e *Engine) {
		if fs != nil {
			e.fs = fs
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records every pack into m, which may be shared between engines.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// New returns an engine for settings.
func New(settings *config.Settings, opts ...Option) (*Engine, error) {
	e := &Engine{
		settings: settings,
		fs:       afero.NewOsFs(),
		logger:   logging.NewNop(),
		metrics:  NewMetrics(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithComponent("pack")

	enc, err := newEncoder(settings.Charset())
	if err != nil {
		return nil, err
	}
	e.encoder = enc

	res := resolver.New(e.fs, settings.SearchRoots())
	e.parser = asset.NewParser(res, settings.Registry(), settings.Defaults())
	return e, nil
}

// Settings returns the engine's settings.
func (e *Engine) Settings() *config.Settings {
	return e.settings
}

// Metrics returns the metrics the engine records into.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Assets lists the configured asset names, sorted.
func (e *Engine) Assets() []string {
	return e.settings.AssetNames()
}

// Has reports whether name is a configured asset.
func (e *Engine) Has(name string) bool {
	return e.settings.HasAsset(name)
}

// OutputPath returns where name is written by PackToDisk.
func (e *Engine) OutputPath(name string) string {
	return e.settings.OutputPath(name)
}

// Derive parses the named asset's specs. Missing inputs are left out of the
// asset and returned separately.
func (e *Engine) Derive(name string) (*asset.Asset, []error, error) {
	specs, ok := e.settings.Specs(name)
	if !ok {
		return nil, nil, apperrors.ErrAssetNotFound(name)
	}
	return e.parser.Parse(name, specs)
}

// PackToDisk writes the named asset, or every asset when name is empty, if it
// is stale or force is set. Unknown names pack nothing. Assets are packed
// concurrently up to the configured worker count and results are returned in
// sorted asset order. The first failure cancels assets not yet started.
func (e *Engine) PackToDisk(ctx context.Context, name string, force bool) ([]Result, error) {
	var names []string
	switch {
	case name == "":
		names = e.Assets()
	case e.Has(name):
		names = []string{name}
	default:
		e.logger.Debug(ctx, "No such asset, nothing to pack", "asset", name)
		return nil, nil
	}

	results := make([]Result, len(names))
	if len(names) == 1 {
		res, err := e.packOne(ctx, names[0], force)
		results[0] = res
		return results, err
	}

	op := logging.StartOperation(e.logger, "pack_all")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.settings.Workers(), 1))
	for i, n := range names {
		g.Go(func() error {
			res, err := e.packOne(gctx, n, force)
			results[i] = res
			return err
		})
	}
	err := g.Wait()
	op.End(ctx, "assets", len(names), "failed", err != nil)
	return results, err
}

// PackToStream writes the named asset to w without consulting or touching the
// output directory. Every processor runs on every call.
func (e *Engine) PackToStream(ctx context.Context, name string, w io.Writer) (Result, error) {
	start := time.Now()
	res := Result{Asset: name}

	a, missing, err := e.Derive(name)
	if err != nil {
		return e.finish(ctx, res, start, err)
	}
	res.Inputs = a.InputNames()
	res.Missing = missing

	out, closeOut := encodingWriter(w, e.encoder)
	if err := e.render(ctx, a, out); err != nil {
		return e.finish(ctx, res, start, err)
	}
	if err := closeOut(); err != nil {
		return e.finish(ctx, res, start, apperrors.ErrEncoding(e.settings.Charset(), err).WithAsset(name))
	}

	res.Packed = true
	return e.finish(ctx, res, start, nil)
}

func (e *Engine) packOne(ctx context.Context, name string, force bool) (Result, error) {
	start := time.Now()
	res := Result{Asset: name, Path: e.OutputPath(name)}

	if err := ctx.Err(); err != nil {
		return e.finish(ctx, res, start, err)
	}

	a, missing, err := e.Derive(name)
	if err != nil {
		return e.finish(ctx, res, start, err)
	}
	res.Inputs = a.InputNames()
	res.Missing = missing

	unlock := lockPath(res.Path)
	defer unlock()

	ref, err := e.modTime(res.Path)
	if err != nil {
		return e.finish(ctx, res, start, apperrors.AttachAsset(err, name))
	}

	if !force {
		stale, err := asset.IsStale(e.fs, a.Inputs, ref)
		if err != nil {
			return e.finish(ctx, res, start, apperrors.AttachAsset(err, name))
		}
		if !stale {
			e.logger.Debug(ctx, "Asset is up to date", "asset", name)
			return e.finish(ctx, res, start, nil)
		}
	}

	e.logger.Debug(ctx, "Packing asset", "asset", name, "inputs", res.Inputs)

	buf := getBuffer()
	defer putBuffer(buf)

	if err := e.render(ctx, a, buf); err != nil {
		return e.finish(ctx, res, start, err)
	}

	data, err := encodeBytes(e.encoder, buf.Bytes())
	if err != nil {
		return e.finish(ctx, res, start, apperrors.ErrEncoding(e.settings.Charset(), err).WithAsset(name))
	}

	if err := writeAtomic(e.fs, res.Path, data); err != nil {
		return e.finish(ctx, res, start, apperrors.AttachAsset(err, name))
	}

	res.Packed = true
	return e.finish(ctx, res, start, nil)
}

// render writes the processed inputs of a, separated by the separator for the
// asset's extension.
func (e *Engine) render(ctx context.Context, a *asset.Asset, w io.Writer) error {
	sep := e.settings.Separator(a.Ext())
	env := e.settings.Env()
	reg := e.settings.Registry()

	for i, in := range a.Inputs {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := afero.ReadFile(e.fs, in.Path)
		if err != nil {
			return apperrors.ErrReadFailed(in.Path, err).WithInput(in.Name).WithAsset(a.Name)
		}

		text, err := processor.Apply(ctx, reg, in.Processors, string(raw), in.Descriptor(), env)
		if err != nil {
			return apperrors.AttachAsset(err, a.Name)
		}

		if i > 0 {
			if _, err := io.WriteString(w, sep); err != nil {
				return apperrors.ErrWriteFailed(a.Name, err).WithAsset(a.Name)
			}
		}
		if _, err := io.WriteString(w, text); err != nil {
			return apperrors.ErrWriteFailed(a.Name, err).WithAsset(a.Name)
		}
	}
	return nil
}

// modTime returns the modification time of path, or the zero time when it does
// not exist.
func (e *Engine) modTime(path string) (time.Time, error) {
	info, err := e.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, nil
		}
		return time.Time{}, apperrors.ErrReadFailed(path, err)
	}
	return info.ModTime(), nil
}

func (e *Engine) finish(ctx context.Context, res Result, start time.Time, err error) (Result, error) {
	res.Duration = time.Since(start)
	res.Err = err
	e.metrics.Record(res)

	if err != nil {
		e.logger.Debug(ctx, "Pack failed", "asset", res.Asset, "error", err)
	}
	return res, err
}
