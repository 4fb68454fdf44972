package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, []string{"."}, cfg.Paths)
	assert.Equal(t, uint32(15), cfg.MaxComplexityAllowed)
	assert.True(t, cfg.Gitignore)
	assert.Equal(t, "asc", cfg.Sort)
	assert.Equal(t, "auto", cfg.Color)
	assert.Equal(t, "noqa: cogmark", cfg.NoqaMarker)
	assert.Equal(t, "cogmark-snapshot.json", cfg.Snapshot.File)
	assert.False(t, cfg.Snapshot.Watermark)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, ".cogmark_cache", cfg.Cache.Dir)
	assert.NoError(t, cfg.Validate())
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cogmark.toml", `
paths = ["src", "tests"]
max_complexity_allowed = 10
exclude = ["migrations/", "*_pb2.py"]
sort = "desc"

[snapshot]
file = "baseline.json"
watermark = true

[output]
format = "json"
csv = "out.csv"

[cache]
enabled = false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"src", "tests"}, cfg.Paths)
	assert.Equal(t, uint32(10), cfg.MaxComplexityAllowed)
	assert.Equal(t, []string{"migrations/", "*_pb2.py"}, cfg.Exclude)
	assert.Equal(t, "desc", cfg.Sort)
	assert.Equal(t, "baseline.json", cfg.Snapshot.File)
	assert.True(t, cfg.Snapshot.Watermark)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "out.csv", cfg.Output.CSV)
	assert.False(t, cfg.Cache.Enabled)

	// Unset keys keep their defaults.
	assert.True(t, cfg.Gitignore)
	assert.Equal(t, "noqa: cogmark", cfg.NoqaMarker)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cogmark.yaml", `
max_complexity_allowed: 20
failed: true
output:
  format: markdown
log:
  file: cogmark.log
  compress: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(20), cfg.MaxComplexityAllowed)
	assert.True(t, cfg.Failed)
	assert.Equal(t, "markdown", cfg.Output.Format)
	assert.Equal(t, "cogmark.log", cfg.Log.File)
	assert.True(t, cfg.Log.Compress)
	assert.Equal(t, 10, cfg.Log.MaxSize)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cogmark.json", `{
  "max_complexity_allowed": 25,
  "color": "no",
  "workers": 4
}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(25), cfg.MaxComplexityAllowed)
	assert.Equal(t, "no", cfg.Color)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoadPyproject(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pyproject.toml", `
[project]
name = "demo"

[tool.cogmark]
max_complexity_allowed = 8
exclude = ["build/"]

[tool.cogmark.snapshot]
file = "cc.json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), cfg.MaxComplexityAllowed)
	assert.Equal(t, []string{"build/"}, cfg.Exclude)
	assert.Equal(t, "cc.json", cfg.Snapshot.File)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, dir, "broken.toml", "[snapshot\ninvalid toml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, dir, "bad-sort.toml", `sort = "random"`))
	assert.True(t, errors.Is(err, ErrInvalid))

	_, err = Load(writeFile(t, dir, "bad-format.toml", "[output]\nformat = \"xml\""))
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestFind_SearchOrder(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, Find(dir))

	// pyproject.toml without a cogmark table is not a config.
	writeFile(t, dir, "pyproject.toml", "[project]\nname = \"demo\"\n")
	assert.Empty(t, Find(dir))

	writeFile(t, dir, "pyproject.toml", "[tool.cogmark]\nfailed = true\n")
	assert.Equal(t, filepath.Join(dir, "pyproject.toml"), Find(dir))

	writeFile(t, dir, "cogmark.json", "{}")
	assert.Equal(t, filepath.Join(dir, "cogmark.json"), Find(dir))

	writeFile(t, dir, ".cogmark.toml", "")
	assert.Equal(t, filepath.Join(dir, ".cogmark.toml"), Find(dir))

	writeFile(t, dir, "cogmark.toml", "")
	assert.Equal(t, filepath.Join(dir, "cogmark.toml"), Find(dir))
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()

	cfg, path, err := LoadOrDefault(dir)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultConfig(), cfg)

	writeFile(t, dir, "cogmark.toml", "max_complexity_allowed = 999\n")
	cfg, path, err = LoadOrDefault(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cogmark.toml"), path)
	assert.Equal(t, uint32(999), cfg.MaxComplexityAllowed)
}

func TestSnapshotPath(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("proj", "cogmark-snapshot.json"), cfg.SnapshotPath("proj"))
	assert.Equal(t, "cogmark-snapshot.json", cfg.SnapshotPath(""))

	abs := filepath.Join(t.TempDir(), "snap.json")
	cfg.Snapshot.File = abs
	assert.Equal(t, abs, cfg.SnapshotPath("proj"))
}

func TestValidate_Workers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}
