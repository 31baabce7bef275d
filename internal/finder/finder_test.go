package finder

import (
	"context"
	"testing"

	"github.com/conneroisu/assetpack/internal/config"
	"github.com/conneroisu/assetpack/internal/pack"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFinder(t *testing.T, b func(*config.Builder) *config.Builder) (*Finder, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/site/static/app.js", []byte("app"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/site/static/app.css", []byte("css"), 0o644))

	settings, err := b(config.NewBuilder().
		WithFs(fs).
		WithBaseDir("/site").
		WithSearch("static").
		WithOutput("public")).
		Build()
	require.NoError(t, err)

	engine, err := pack.New(settings, pack.WithFs(fs))
	require.NoError(t, err)
	return New(engine, fs), fs
}

func withAssets(b *config.Builder) *config.Builder {
	return b.
		WithAsset("js/site.js", "app.js").
		WithAsset("css/site.css", "app.css").
		WithAsset("css/site.css.map", "app.css")
}

func TestFind(t *testing.T) {
	f, fs := newFinder(t, withAssets)
	ctx := context.Background()

	p, ok, err := f.Find(ctx, "js/site.js")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/site/public/js/site.js", p)

	data, err := afero.ReadFile(fs, p)
	require.NoError(t, err)
	assert.Equal(t, "app", string(data))

	_, ok, err = f.Find(ctx, "app.js")
	require.NoError(t, err)
	assert.False(t, ok, "inputs are not assets")

	all, err := f.FindAll(ctx, "css/site.css")
	require.NoError(t, err)
	assert.Equal(t, []string{"/site/public/css/site.css"}, all)

	all, err = f.FindAll(ctx, "missing.css")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestList(t *testing.T) {
	f, _ := newFinder(t, withAssets)

	entries, results, err := f.List(context.Background(), []string{"*.map"})
	require.NoError(t, err)
	assert.Len(t, results, 3)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
		data, err := afero.ReadFile(e.Storage, e.Name)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}
	assert.Equal(t, []string{"css/site.css", "js/site.js"}, names)
}

func TestListForcesRepack(t *testing.T) {
	f, _ := newFinder(t, withAssets)
	ctx := context.Background()

	_, _, err := f.List(ctx, nil)
	require.NoError(t, err)
	_, results, err := f.List(ctx, nil)
	require.NoError(t, err)
	for _, r := range results {
		assert.True(t, r.Packed, r.Asset)
	}
}

func TestCheck(t *testing.T) {
	f, _ := newFinder(t, func(b *config.Builder) *config.Builder { return b })
	warnings := f.Check()
	require.Len(t, warnings, 1)
	assert.Equal(t, "assetpack.W001", warnings[0].ID)
	assert.Contains(t, warnings[0].String(), "not specified any assets")

	f, _ = newFinder(t, withAssets)
	assert.Empty(t, f.Check())
}

func TestIgnored(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		expected bool
	}{
		{"css/site.css.map", []string{"*.map"}, true},
		{"css/site.css", []string{"*.map"}, false},
		{"css/site.css", []string{"css/*"}, true},
		{"js/site.js", []string{"css/*", "*.txt"}, false},
		{"js/site.js", nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Ignored(tt.name, tt.patterns), tt.name)
	}
}
