package source

import (
	"context"
	"errors"
	"testing"

	"github.com/panbanda/cogmark/internal/testutil"
	"github.com/panbanda/cogmark/internal/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemSource(t *testing.T) {
	src := NewFilesystem()

	content, err := src.Read("../../go.mod")
	require.NoError(t, err)
	assert.Contains(t, string(content), "module github.com/panbanda/cogmark")

	_, err = src.Read("nonexistent.txt")
	assert.Error(t, err)
}

func TestRevisionSource(t *testing.T) {
	g := testutil.InitRepo(t)
	g.Commit("init", map[string]string{"app.py": "def f():\n    return 1\n"})
	testutil.WriteFile(t, g.Path("app.py"), "changed\n")

	repo, err := vcs.NewGitOpener().Open(g.Root)
	require.NoError(t, err)
	reader, err := vcs.NewRevisionReader(repo, "HEAD", 0)
	require.NoError(t, err)

	var src ContentSource = NewRevision(context.Background(), reader)
	content, err := src.Read(g.Path("app.py"))
	require.NoError(t, err)
	assert.Equal(t, "def f():\n    return 1\n", string(content))

	_, err = src.Read(g.Path("other.py"))
	assert.True(t, errors.Is(err, vcs.ErrFileNotFound))
}

func TestRevisionSource_CancelledContext(t *testing.T) {
	g := testutil.InitRepo(t)
	g.Commit("init", map[string]string{"app.py": "x = 1\n"})
	repo, err := vcs.NewGitOpener().Open(g.Root)
	require.NoError(t, err)
	reader, err := vcs.NewRevisionReader(repo, "HEAD", 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled read either wins the race or reports the cancellation.
	_, err = NewRevision(ctx, reader).Read(g.Path("app.py"))
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
