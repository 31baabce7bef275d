package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectConfig = `output: out
search: src
assets:
  app.js:
    - a.js
    - b.js
  style.css: style.css
`

// newProject writes a project into a temporary working directory.
func newProject(t *testing.T, configYAML string) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	files := map[string]string{
		"assetpack.yml": configYAML,
		"src/a.js":      "var a;",
		"src/b.js":      "var b;",
		"src/style.css": "a{background:url(img/x.png)}",
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newApp(afero.NewOsFs(), &out, &errOut).rootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestPackCommand(t *testing.T) {
	dir := newProject(t, projectConfig)

	out, err := run(t, "pack")
	require.NoError(t, err)
	assert.Contains(t, out, "packed app.js")
	assert.Contains(t, out, "packed style.css")
	assert.Contains(t, out, "2 packed, 0 up to date, 0 failed")
	assert.Equal(t, "var a;\n;\nvar b;", readFile(t, filepath.Join(dir, "out", "app.js")))
	assert.Equal(t, `a{background:url("img/x.png")}`, readFile(t, filepath.Join(dir, "out", "style.css")))

	out, err = run(t, "pack")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date app.js")
	assert.Contains(t, out, "0 packed, 2 up to date")

	out, err = run(t, "pack", "app.js", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "packed app.js")
	assert.NotContains(t, out, "style.css")
}

func TestPackCommandOutputOverride(t *testing.T) {
	dir := newProject(t, projectConfig)

	_, err := run(t, "pack", "-o", "dist")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "dist", "app.js"))
	assert.NoFileExists(t, filepath.Join(dir, "out", "app.js"))
}

func TestPackCommandEnvOverride(t *testing.T) {
	dir := newProject(t, projectConfig)
	t.Setenv("ASSETPACK_OUTPUT", "from-env")

	_, err := run(t, "pack")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "from-env", "app.js"))
}

func TestPackCommandUnknownAsset(t *testing.T) {
	newProject(t, projectConfig)

	_, err := run(t, "pack", "nope.js")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "asset not found")
}

func TestPackCommandMissingInput(t *testing.T) {
	dir := newProject(t, "output: out\nsearch: src\nassets:\n  app.js: [a.js, gone.js]\n")

	out, err := run(t, "pack")
	require.NoError(t, err)
	assert.Contains(t, out, "missing")
	assert.Contains(t, out, "gone.js")
	assert.Equal(t, "var a;", readFile(t, filepath.Join(dir, "out", "app.js")))

	_, err = run(t, "pack", "--force", "--strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--strict")
}

func TestPackCommandEphemeralOutput(t *testing.T) {
	newProject(t, "search: src\nassets:\n  app.js: a.js\n")

	out, err := run(t, "pack")
	require.NoError(t, err)
	assert.Contains(t, out, "temporary directory")
}

func TestListCommand(t *testing.T) {
	dir := newProject(t, projectConfig)

	out, err := run(t, "list", "-f", "json")
	require.NoError(t, err)

	var entries []listEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "app.js", entries[0].Name)
	assert.Equal(t, filepath.Join(dir, "out", "app.js"), entries[0].Output)
	require.Len(t, entries[0].Inputs, 2)
	assert.Equal(t, "b.js", entries[0].Inputs[1].Name)
	assert.Equal(t, []string{"rewrite"}, entries[1].Inputs[0].Processors)
	assert.NoFileExists(t, filepath.Join(dir, "out", "app.js"))

	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ASSET")
	assert.Contains(t, out, "style.css")

	_, err = run(t, "list", "-f", "jsn")
	require.Error(t, err)
}

func TestConfigCommand(t *testing.T) {
	newProject(t, projectConfig)

	out, err := run(t, "config", "-f", "json", "-o", "dist")
	require.NoError(t, err)

	var exported map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &exported))
	assert.Equal(t, "dist", exported["output"])
	assert.Equal(t, []any{"src"}, exported["search"])
	assert.Equal(t, "style.css", exported["assets"].(map[string]any)["style.css"])
	assert.NotContains(t, exported, "defaults")

	out, err = run(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "output: out")
}

func TestCollectCommand(t *testing.T) {
	dir := newProject(t, projectConfig)

	out, err := run(t, "collect", "--dest", "build", "--ignore", "*.css")
	require.NoError(t, err)
	assert.Contains(t, out, "Collected 1 asset(s)")
	assert.Equal(t, "var a;\n;\nvar b;", readFile(t, filepath.Join(dir, "build", "app.js")))
	assert.NoFileExists(t, filepath.Join(dir, "build", "style.css"))

	_, err = run(t, "collect")
	require.Error(t, err)
}

func TestCheckCommand(t *testing.T) {
	newProject(t, "output: out\nsearch: src\n")

	out, err := run(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "assetpack.W001")

	_, err = run(t, "check", "--strict")
	require.Error(t, err)
}

func TestCheckCommandShowsSearchedPaths(t *testing.T) {
	dir := newProject(t, "output: out\nsearch: [src, vendor]\nassets:\n  app.js: [a.js, gone.js]\n")

	out, err := run(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "gone.js")
	assert.Contains(t, out, "searched "+filepath.Join(dir, "src", "gone.js")+", "+filepath.Join(dir, "vendor", "gone.js"))
}

func TestCheckCommandClean(t *testing.T) {
	newProject(t, projectConfig)

	out, err := run(t, "check", "--strict")
	require.NoError(t, err)
	assert.Contains(t, out, "ok 2 asset(s)")
}

func TestVersionCommandIgnoresConfig(t *testing.T) {
	newProject(t, "assets: [not, a, map]\n")

	out, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	out, err = run(t, "version", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"go_version"`)
}

func TestInvalidConfigFails(t *testing.T) {
	newProject(t, "assets:\n  /abs.js: a.js\n")

	_, err := run(t, "pack")
	require.Error(t, err)
}

func TestLogLevelValidation(t *testing.T) {
	newProject(t, projectConfig)

	_, err := run(t, "--log-level", "loud", "list")
	require.Error(t, err)
}

func TestLogFileIsAnnounced(t *testing.T) {
	dir := newProject(t, projectConfig+"log:\n  file: logs/assetpack.log\n")

	var out, errOut bytes.Buffer
	a := newApp(afero.NewOsFs(), &out, &errOut)
	root := a.rootCommand()
	root.SetArgs([]string{"--log-level", "debug", "list"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	require.NoError(t, a.close())

	assert.Contains(t, errOut.String(), "Logging to file")
	assert.Contains(t, errOut.String(), filepath.Join("logs", "assetpack.log"))
	assert.FileExists(t, filepath.Join(dir, "logs", "assetpack.log"))
}

func TestEngineFactoryReloadsConfig(t *testing.T) {
	dir := newProject(t, projectConfig)

	a := newApp(afero.NewOsFs(), &bytes.Buffer{}, &bytes.Buffer{})
	factory := a.engineFactory(filepath.Join(dir, "tmp-out"))

	engine, err := factory(context.Background())
	require.NoError(t, err)
	assert.False(t, engine.Has("extra.js"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "assetpack.yml"),
		[]byte(projectConfig+"  extra.js: a.js\n"), 0o644))

	engine, err = factory(context.Background())
	require.NoError(t, err)
	assert.True(t, engine.Has("extra.js"))
	assert.Equal(t, filepath.Join(dir, "out"), engine.Settings().Output())
}

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, validateFormat("json", listFormats))

	err := validateFormat("js", listFormats)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "json"`)

	err = validateFormat("xml", listFormats)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, validatePort("8000"))
	assert.Error(t, validatePort("http"))
	assert.Error(t, validatePort("70000"))
}
