package complexity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/panbanda/cogmark/pkg/analyzer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNew(t *testing.T) {
	a := New()
	require.NotNil(t, a)
	assert.NotNil(t, a.parser)
	assert.Equal(t, []byte(DefaultMarker), a.marker)
	assert.True(t, a.gitignore)
	a.Close()
}

func TestNewWithOptions(t *testing.T) {
	a := New(WithMaxFileSize(1024), WithMarker("  Skip-Me "), WithRoot("/src"), WithWorkers(3), WithGitignore(false))
	defer a.Close()

	assert.Equal(t, int64(1024), a.maxFileSize)
	assert.Equal(t, []byte("skip-me"), a.marker)
	assert.Equal(t, "/src", a.root)
	assert.Equal(t, 3, a.workers)
	assert.False(t, a.gitignore)
}

func TestAnalyzeCode_FunctionsInSourceOrder(t *testing.T) {
	a := New()
	defer a.Close()

	cc, err := a.AnalyzeCode(dedent(`
def first():
	pass

class Outer:
	class Inner:
		def m(self):
			if self:
				pass

	def n(self):
		def helper():
			pass
		return helper

async def fetch(x):
	for i in x:
		pass
`))
	require.NoError(t, err)

	var names []string
	for _, fn := range cc.Functions {
		names = append(names, fn.Name)
	}
	assert.Equal(t, []string{"first", "Outer::Inner::m", "Outer::n", "helper", "fetch"}, names)
	assert.Equal(t, uint32(2), cc.Complexity())
}

func TestAnalyzeCode_LineSpans(t *testing.T) {
	a := New()
	defer a.Close()

	cc, err := a.AnalyzeCode("x = 1\n\n@dec\ndef f():\n    return 1\n\n\ndef g(): pass\n")
	require.NoError(t, err)
	require.Len(t, cc.Functions, 2)

	assert.Equal(t, uint32(4), cc.Functions[0].LineStart)
	assert.Equal(t, uint32(5), cc.Functions[0].LineEnd)
	assert.Equal(t, uint32(8), cc.Functions[1].LineStart)
	assert.Equal(t, uint32(8), cc.Functions[1].LineEnd)
}

func TestAnalyzeCode_Empty(t *testing.T) {
	a := New()
	defer a.Close()

	cc, err := a.AnalyzeCode("")
	require.NoError(t, err)
	assert.Empty(t, cc.Functions)
	assert.Equal(t, uint32(0), cc.Complexity())
}

func TestAnalyzeCode_ParseError(t *testing.T) {
	a := New()
	defer a.Close()

	cc, err := a.AnalyzeCode("def f(:\n    pass\n")
	require.Error(t, err)
	assert.Nil(t, cc)
	assert.True(t, errors.Is(err, ErrParse))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.Line)
}

func TestAnalyzeCode_ParseErrorLaterLine(t *testing.T) {
	a := New()
	defer a.Close()

	_, err := a.AnalyzeCode("x = 1\ny = 2\nif x\n    pass\n")
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.GreaterOrEqual(t, pe.Line, 1)
	assert.Contains(t, pe.Error(), "syntax error")
}

func TestAnalyzeFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "pkg/mod.py", dedent(`
def simple():
	return 42

def branchy(x):
	if x:
		for i in x:
			pass
`))

	a := New(WithRoot(tmpDir))
	defer a.Close()

	fc, err := a.AnalyzeFile(path)
	require.NoError(t, err)

	assert.Equal(t, "pkg/mod.py", fc.Path)
	assert.Equal(t, "mod.py", fc.FileName)
	require.Len(t, fc.Functions, 2)
	assert.Equal(t, uint32(0), fc.Functions[0].Complexity)
	assert.Equal(t, uint32(3), fc.Functions[1].Complexity)
	assert.Equal(t, uint32(3), fc.Complexity())
}

func TestAnalyzeFile_NotFound(t *testing.T) {
	a := New()
	defer a.Close()

	_, err := a.AnalyzeFile(filepath.Join(t.TempDir(), "missing.py"))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAnalyzeFile_OutsideRoot(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "a.py", "def f():\n    pass\n")

	a := New(WithRoot(filepath.Join(tmpDir, "elsewhere")))
	defer a.Close()

	fc, err := a.AnalyzeFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(path), fc.Path)
}

type mapSource map[string]string

func (m mapSource) Read(path string) ([]byte, error) {
	content, ok := m[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(content), nil
}

func TestAnalyzeFileFromSource(t *testing.T) {
	a := New()
	defer a.Close()

	src := mapSource{"lib/a.py": "def f(x):\n    return x if x else 0\n"}

	fc, err := a.AnalyzeFileFromSource(src, "lib/a.py")
	require.NoError(t, err)
	assert.Equal(t, "lib/a.py", fc.Path)
	assert.Equal(t, "a.py", fc.FileName)
	assert.Equal(t, uint32(1), fc.Complexity())

	_, err = a.AnalyzeFileFromSource(src, "lib/b.py")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAnalyzeBatch_PartialFailure(t *testing.T) {
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, "proj")
	writeFile(t, dir, "good.py", "def ok():\n    if x:\n        pass\n")
	writeFile(t, dir, "bad.py", "def broken(:\n    pass\n")
	writeFile(t, dir, "sub/other.py", "def other():\n    pass\n")
	writeFile(t, dir, "build/gen.py", "def gen():\n    pass\n")
	notes := writeFile(t, tmpDir, "notes.txt", "hello")
	missing := filepath.Join(tmpDir, "missing.py")

	a := New(WithRoot(dir), WithWorkers(2))
	defer a.Close()

	files, failed := a.AnalyzeBatch(context.Background(), []string{dir, missing, notes}, []string{"build/"})

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"good.py", "sub/other.py"}, paths)
	assert.Equal(t, []string{missing, notes, filepath.Join(dir, "bad.py")}, failed)
}

func TestAnalyzeBatch_DeterministicOrder(t *testing.T) {
	tmpDir := t.TempDir()
	var want []string
	for i := range 24 {
		name := fmt.Sprintf("m%02d.py", i)
		body := "def f():\n    pass\n"
		if i%3 == 0 {
			body = "def f(x):\n    for a in x:\n        for b in a:\n            if b and a:\n                pass\n"
		}
		writeFile(t, tmpDir, name, body)
		want = append(want, name)
	}

	a := New(WithRoot(tmpDir), WithWorkers(8))
	defer a.Close()

	for range 3 {
		files, failed := a.AnalyzeBatch(context.Background(), []string{tmpDir}, nil)
		require.Empty(t, failed)

		var got []string
		for _, f := range files {
			got = append(got, f.Path)
		}
		assert.Equal(t, want, got)
	}
}

func TestAnalyzeBatch_DuplicatePaths(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "a.py", "def f():\n    pass\n")

	a := New(WithRoot(tmpDir))
	defer a.Close()

	files, failed := a.AnalyzeBatch(context.Background(), []string{path, tmpDir}, nil)
	assert.Empty(t, failed)
	assert.Len(t, files, 1)
}

func TestAnalyzeBatch_ExcludedExplicitFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "gen_pb.py", "def f():\n    pass\n")

	a := New(WithRoot(tmpDir))
	defer a.Close()

	files, failed := a.AnalyzeBatch(context.Background(), []string{path}, []string{"*_pb.py"})
	assert.Empty(t, files)
	assert.Empty(t, failed)
}

func TestAnalyze_Cancelled(t *testing.T) {
	tmpDir := t.TempDir()
	var paths []string
	for i := range 5 {
		paths = append(paths, writeFile(t, tmpDir, fmt.Sprintf("f%d.py", i), "def f():\n    pass\n"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := New()
	defer a.Close()

	analysis, err := a.Analyze(ctx, paths)
	require.NoError(t, err)
	assert.Empty(t, analysis.Files)
	assert.Equal(t, paths, analysis.Failed)
}

func TestAnalyze_TracksProgress(t *testing.T) {
	tmpDir := t.TempDir()
	var paths []string
	for i := range 4 {
		paths = append(paths, writeFile(t, tmpDir, fmt.Sprintf("f%d.py", i), "def f():\n    pass\n"))
	}

	var ticks int
	tracker := analyzer.NewTracker(func(analyzer.Event) { ticks++ })
	ctx := analyzer.WithTracker(context.Background(), tracker)

	a := New(WithWorkers(1))
	defer a.Close()

	_, err := a.Analyze(ctx, paths)
	require.NoError(t, err)
	assert.Equal(t, 4, ticks)
	assert.Equal(t, 4, tracker.Total())
}

func TestAnalyze_SkipsLargeFiles(t *testing.T) {
	tmpDir := t.TempDir()
	small := writeFile(t, tmpDir, "small.py", "def f():\n    pass\n")
	big := writeFile(t, tmpDir, "big.py", "def g():\n    pass\n# "+strings.Repeat("x", 512)+"\n")

	a := New(WithMaxFileSize(100))
	defer a.Close()

	analysis, err := a.Analyze(context.Background(), []string{small, big})
	require.NoError(t, err)
	assert.Len(t, analysis.Files, 1)
	assert.Empty(t, analysis.Failed)
}
