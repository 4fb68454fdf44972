package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func relAll(t *testing.T, root string, files []string) []string {
	t.Helper()
	var out []string
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestScanDir_FindsOnlyPython(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"main.py":          "x = 1\n",
		"stubs/types.pyi":  "def f() -> int: ...\n",
		"util/helper.py":   "# helper\n",
		"README.md":        "# readme\n",
		"internal/core.rs": "fn main() {}\n",
	})

	result, err := NewScanner().ScanDir(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, []string{"main.py", "stubs/types.pyi", "util/helper.py"}, relAll(t, tmpDir, result))
}

func TestScanDir_LexicalOrder(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"c.py":     "",
		"a.py":     "",
		"b/z.py":   "",
		"b/a.py":   "",
		"aa/x.pyw": "",
	})

	first, err := NewScanner().ScanDir(tmpDir)
	require.NoError(t, err)
	second, err := NewScanner().ScanDir(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"a.py", "aa/x.pyw", "b/a.py", "b/z.py", "c.py"}, relAll(t, tmpDir, first))
}

func TestScanDir_Excludes(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"app.py":              "",
		"tests/test_app.py":   "",
		"venv/lib/site.py":    "",
		"pkg/generated_pb.py": "",
		"pkg/model.py":        "",
	})

	s := NewScanner(WithExcludes([]string{"tests/", "venv", "*_pb.py"}))
	result, err := s.ScanDir(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, []string{"app.py", "pkg/model.py"}, relAll(t, tmpDir, result))
}

func TestScanDir_Gitignore(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, ".git"), 0755))
	writeTree(t, tmpDir, map[string]string{
		".gitignore":     "build/\nscratch.py\n",
		"src/app.py":     "",
		"src/scratch.py": "",
		"build/gen.py":   "",
	})

	result, err := NewScanner(WithGitignore(true)).ScanDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/app.py"}, relAll(t, tmpDir, result))

	// Disabled, everything is scanned.
	result, err = NewScanner(WithGitignore(false)).ScanDir(tmpDir)
	require.NoError(t, err)
	assert.Len(t, result, 3)
}

func TestScanDir_GitignoreFromSubdirectory(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, ".git"), 0755))
	writeTree(t, tmpDir, map[string]string{
		".gitignore":        "src/legacy/\n",
		"src/app.py":        "",
		"src/legacy/old.py": "",
	})

	root := filepath.Join(tmpDir, "src")
	result, err := NewScanner(WithGitignore(true)).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py"}, relAll(t, root, result))
}

func TestScanDir_MissingRoot(t *testing.T) {
	_, err := NewScanner().ScanDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestScanDir_SymlinkOutsideRoot(t *testing.T) {
	outside := t.TempDir()
	writeTree(t, outside, map[string]string{"secret.py": ""})

	root := t.TempDir()
	writeTree(t, root, map[string]string{"inside.py": ""})
	if err := os.Symlink(filepath.Join(outside, "secret.py"), filepath.Join(root, "link.py")); err != nil {
		t.Skip("symlinks not supported")
	}

	result, err := NewScanner().ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"inside.py"}, relAll(t, root, result))
}

func TestExcludedFile(t *testing.T) {
	s := NewScanner(WithExcludes([]string{"migrations/", "*_test.py"}))

	assert.True(t, s.ExcludedFile("app/migrations/0001.py"))
	assert.True(t, s.ExcludedFile("app/models_test.py"))
	assert.False(t, s.ExcludedFile("app/models.py"))
	assert.False(t, NewScanner().ExcludedFile("anything.py"))
}

func TestIsWithinRoot(t *testing.T) {
	tests := []struct {
		path string
		root string
		want bool
	}{
		{"/a/b/c.py", "/a/b", true},
		{"/a/b", "/a/b", true},
		{"/a/bc/d.py", "/a/b", false},
		{"/x/y.py", "/a/b", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, isWithinRoot(tt.path, tt.root))
		})
	}
}

func TestFilterBySize(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"small.py": "x = 1\n",
		"large.py": string(make([]byte, 4096)),
	})
	files := []string{filepath.Join(tmpDir, "small.py"), filepath.Join(tmpDir, "large.py")}

	filtered, skipped := FilterBySize(files, 1024)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, files[:1], filtered)

	filtered, skipped = FilterBySize(files, 0)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, files, filtered)
}
