package asset

import (
	"testing"
	"time"

	apperrors "github.com/conneroisu/assetpack/internal/errors"
	"github.com/conneroisu/assetpack/internal/processor"
	"github.com/conneroisu/assetpack/internal/resolver"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecSplit(t *testing.T) {
	tests := []struct {
		raw      string
		chain    []string
		name     string
		hasError bool
	}{
		{raw: "a.css", chain: []string{}, name: "a.css"},
		{raw: "cssmin:sass:foo.scss", chain: []string{"sass", "cssmin"}, name: "foo.scss"},
		{raw: "a:b:c:dir/x.js", chain: []string{"c", "b", "a"}, name: "dir/x.js"},
		{raw: "cssmin:", hasError: true},
		{raw: "", hasError: true},
		{raw: "a::b.css", hasError: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			chain, name, err := Spec{Raw: tt.raw}.Split()
			if tt.hasError {
				require.Error(t, err)
				assert.True(t, apperrors.IsConfigError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.chain, chain)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestNormalizeSpecs(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		expected []Spec
		hasError bool
	}{
		{name: "nil", raw: nil, expected: nil},
		{name: "string", raw: "a.js", expected: []Spec{{Raw: "a.js"}}},
		{name: "string list", raw: []string{"a.js", "b.js"}, expected: []Spec{{Raw: "a.js"}, {Raw: "b.js"}}},
		{
			name: "mixed list",
			raw: []any{
				"a.css",
				map[string]any{"sass:main.scss": []any{"_*.scss", "partials/*.scss"}},
			},
			expected: []Spec{
				{Raw: "a.css"},
				{Raw: "sass:main.scss", Depends: []string{"_*.scss", "partials/*.scss"}},
			},
		},
		{
			name:     "single mapping",
			raw:      map[string]any{"main.scss": "_vars.scss"},
			expected: []Spec{{Raw: "main.scss", Depends: []string{"_vars.scss"}}},
		},
		{
			name:     "yaml v2 style mapping",
			raw:      []any{map[any]any{"main.scss": []any{"*.scss"}}},
			expected: []Spec{{Raw: "main.scss", Depends: []string{"*.scss"}}},
		},
		{name: "multi entry mapping", raw: map[string]any{"a.css": nil, "b.css": nil}, hasError: true},
		{name: "number", raw: 42, hasError: true},
		{name: "number in list", raw: []any{"a.js", 3}, hasError: true},
		{name: "non string pattern", raw: []any{map[string]any{"a.scss": []any{1}}}, hasError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs, err := NormalizeSpecs(tt.raw)
			if tt.hasError {
				require.Error(t, err)
				assert.True(t, apperrors.IsConfigError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, specs)
		})
	}
}

func TestSpecValue(t *testing.T) {
	assert.Equal(t, "a.js", Spec{Raw: "a.js"}.Value())
	assert.Equal(t, map[string]any{"a.scss": []string{"*.scss"}}, Spec{Raw: "a.scss", Depends: []string{"*.scss"}}.Value())
}

func TestExt(t *testing.T) {
	assert.Equal(t, "css", Ext("dir/Style.CSS"))
	assert.Equal(t, "js", Ext("bundle.min.js"))
	assert.Equal(t, "", Ext("Makefile"))
}

func newParser(t *testing.T, fs afero.Fs, defaults map[string][]string) *Parser {
	t.Helper()
	reg := processor.NewRegistry()
	for _, name := range []string{"a", "b"} {
		require.NoError(t, reg.Register(name, processor.Func(nil)))
	}
	return NewParser(resolver.New(fs, []string{"/src", "/vendor"}), reg, defaults)
}

func TestParse(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, f := range []string{"/src/style.css", "/src/app.js", "/vendor/lib.js", "/src/main.scss"} {
		require.NoError(t, afero.WriteFile(fs, f, []byte("x"), 0o644))
	}
	p := newParser(t, fs, map[string][]string{"css": {"rewrite"}})

	specs := []Spec{
		{Raw: "lib.js"},
		{Raw: "a:b:app.js"},
		{Raw: "style.css"},
		{Raw: "sass:main.scss", Depends: []string{"_*.scss"}},
	}
	a, missing, err := p.Parse("bundle.js", specs)
	require.NoError(t, err)
	assert.Empty(t, missing)

	assert.Equal(t, "bundle.js", a.Name)
	assert.Equal(t, "js", a.Ext())
	assert.Equal(t, []string{"lib.js", "app.js", "style.css", "main.scss"}, a.InputNames())

	assert.Equal(t, "/vendor/lib.js", a.Inputs[0].Path)
	assert.Empty(t, a.Inputs[0].Processors)
	assert.Equal(t, []string{"b", "a"}, a.Inputs[1].Processors)
	assert.Equal(t, []string{"rewrite"}, a.Inputs[2].Processors, "defaults come from the input extension")
	assert.Equal(t, []string{"sass"}, a.Inputs[3].Processors)
	assert.Equal(t, []string{"_*.scss"}, a.Inputs[3].Depends)
}

func TestParseMissingInputIsReportable(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/present.js", []byte("x"), 0o644))
	p := newParser(t, fs, nil)

	a, missing, err := p.Parse("bundle.js", []Spec{{Raw: "absent.js"}, {Raw: "present.js"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"present.js"}, a.InputNames())
	require.Len(t, missing, 1)
	assert.True(t, apperrors.IsNotFound(missing[0]))

	ctx := apperrors.GetErrorContext(missing[0])
	assert.Equal(t, "absent.js", ctx["input"])
	assert.Equal(t, "bundle.js", ctx["asset"])
}

func TestParseUnknownProcessorIsFatal(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/a.css", []byte("x"), 0o644))

	t.Run("explicit", func(t *testing.T) {
		p := newParser(t, fs, nil)
		_, _, err := p.Parse("out.css", []Spec{{Raw: "a.css"}, {Raw: "nope:a.css"}})
		require.Error(t, err)
		assert.True(t, apperrors.IsConfigError(err))
		assert.Equal(t, "out.css", apperrors.GetErrorContext(err)["asset"])
	})

	t.Run("from defaults", func(t *testing.T) {
		p := newParser(t, fs, map[string][]string{"css": {"ghost"}})
		_, _, err := p.Parse("out.css", []Spec{{Raw: "a.css"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown processor: ghost")
	})

	t.Run("checked even when the input is missing", func(t *testing.T) {
		p := newParser(t, fs, nil)
		_, _, err := p.Parse("out.css", []Spec{{Raw: "nope:missing.css"}})
		assert.True(t, apperrors.IsConfigError(err))
	})
}

func TestParseDefaultChainIsCopied(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/a.css", []byte("x"), 0o644))
	defaults := map[string][]string{"css": {"rewrite"}}
	p := newParser(t, fs, defaults)

	a, _, err := p.Parse("out.css", []Spec{{Raw: "a.css"}})
	require.NoError(t, err)
	a.Inputs[0].Processors[0] = "changed"
	assert.Equal(t, []string{"rewrite"}, defaults["css"])
}

func TestIsStale(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ref := base.Add(time.Hour)

	setup := func(t *testing.T) afero.Fs {
		fs := afero.NewMemMapFs()
		for _, f := range []string{"/src/main.scss", "/src/_vars.scss", "/src/_mixins.scss", "/src/other.js"} {
			require.NoError(t, afero.WriteFile(fs, f, []byte("x"), 0o644))
			require.NoError(t, fs.Chtimes(f, base, base))
		}
		return fs
	}

	scss := Input{Name: "main.scss", Path: "/src/main.scss", Depends: []string{"_*.scss"}}
	js := Input{Name: "other.js", Path: "/src/other.js"}

	t.Run("zero reference", func(t *testing.T) {
		stale, err := IsStale(setup(t), []Input{js}, time.Time{})
		require.NoError(t, err)
		assert.True(t, stale)
	})

	t.Run("unchanged", func(t *testing.T) {
		stale, err := IsStale(setup(t), []Input{scss, js}, ref)
		require.NoError(t, err)
		assert.False(t, stale)
	})

	t.Run("input newer", func(t *testing.T) {
		fs := setup(t)
		later := ref.Add(time.Minute)
		require.NoError(t, fs.Chtimes("/src/other.js", later, later))
		stale, err := IsStale(fs, []Input{scss, js}, ref)
		require.NoError(t, err)
		assert.True(t, stale)
	})

	t.Run("dependency newer", func(t *testing.T) {
		fs := setup(t)
		later := ref.Add(time.Minute)
		require.NoError(t, fs.Chtimes("/src/_mixins.scss", later, later))
		stale, err := IsStale(fs, []Input{scss}, ref)
		require.NoError(t, err)
		assert.True(t, stale)
	})

	t.Run("same mtime is not newer", func(t *testing.T) {
		fs := setup(t)
		require.NoError(t, fs.Chtimes("/src/other.js", ref, ref))
		stale, err := IsStale(fs, []Input{js}, ref)
		require.NoError(t, err)
		assert.False(t, stale)
	})

	t.Run("newer input skips dependency globs", func(t *testing.T) {
		fs := setup(t)
		later := ref.Add(time.Minute)
		require.NoError(t, fs.Chtimes("/src/main.scss", later, later))
		broken := Input{Name: "main.scss", Path: "/src/main.scss", Depends: []string{"["}}
		stale, err := IsStale(fs, []Input{broken}, ref)
		require.NoError(t, err)
		assert.True(t, stale)
	})

	t.Run("malformed dependency pattern", func(t *testing.T) {
		broken := Input{Name: "main.scss", Path: "/src/main.scss", Depends: []string{"["}}
		_, err := IsStale(setup(t), []Input{broken}, ref)
		require.Error(t, err)
		assert.True(t, apperrors.IsConfigError(err))
		assert.False(t, apperrors.IsIOError(err))
	})

	t.Run("input removed", func(t *testing.T) {
		fs := setup(t)
		require.NoError(t, fs.Remove("/src/other.js"))
		_, err := IsStale(fs, []Input{js}, ref)
		require.Error(t, err)
		assert.True(t, apperrors.IsIOError(err))
	})
}

func TestDependencyPaths(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, f := range []string{"/src/main.scss", "/src/_a.scss", "/src/_b.scss", "/src/partials/c.scss"} {
		require.NoError(t, afero.WriteFile(fs, f, []byte("x"), 0o644))
	}

	in := Input{Name: "main.scss", Path: "/src/main.scss"}
	tests := []struct {
		dep      string
		expected []string
	}{
		{dep: "_*.scss", expected: []string{"/src/_a.scss", "/src/_b.scss"}},
		{dep: "partials/*.scss", expected: []string{"/src/partials/c.scss"}},
		{dep: "none/*.scss", expected: nil},
	}
	for _, tt := range tests {
		t.Run(tt.dep, func(t *testing.T) {
			paths, err := in.DependencyPaths(fs, tt.dep)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, paths)
		})
	}

	_, err := in.DependencyPaths(fs, "[")
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigError(err))
	assert.Contains(t, err.Error(), "input:main.scss")
}

func TestSpecCheckDepends(t *testing.T) {
	assert.NoError(t, Spec{Raw: "a.scss", Depends: []string{"_*.scss", "partials/**/x.scss"}}.CheckDepends())

	err := Spec{Raw: "a.scss", Depends: []string{"_*.scss", "["}}.CheckDepends()
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigError(err))
	assert.Contains(t, err.Error(), "[")
}
