// Package testutil holds fixtures shared by cogmark's tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// WriteFile writes content to a file in the real filesystem.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// CreateFileTree creates multiple files from a map of path -> content.
func CreateFileTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		WriteFile(t, filepath.Join(root, filepath.FromSlash(name)), content)
	}
}

// Python turns a tab-indented fixture into Python source indented with four
// spaces, dropping the leading newline of a raw string literal.
func Python(src string) string {
	src = strings.TrimPrefix(src, "\n")
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, "\t")
		depth := len(line) - len(trimmed)
		lines[i] = strings.Repeat("    ", depth) + trimmed
	}
	return strings.Join(lines, "\n")
}

// GitRepo is a throwaway repository rooted in a test temp dir.
type GitRepo struct {
	t    *testing.T
	Root string
	Repo *git.Repository
}

// InitRepo creates an empty repository.
func InitRepo(t *testing.T) *GitRepo {
	t.Helper()
	root := t.TempDir()
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	repo, err := git.PlainInit(root, false)
	if err != nil {
		t.Fatalf("Failed to init repo: %v", err)
	}
	return &GitRepo{t: t, Root: root, Repo: repo}
}

// Path returns the absolute path of a repo-relative slash path.
func (g *GitRepo) Path(rel string) string {
	return filepath.Join(g.Root, filepath.FromSlash(rel))
}

// Commit writes files, stages them and commits. It returns the commit hash.
func (g *GitRepo) Commit(msg string, files map[string]string) string {
	g.t.Helper()
	CreateFileTree(g.t, g.Root, files)

	w, err := g.Repo.Worktree()
	if err != nil {
		g.t.Fatal(err)
	}
	for name := range files {
		if _, err := w.Add(name); err != nil {
			g.t.Fatalf("Add(%s) error: %v", name, err)
		}
	}
	hash, err := w.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		g.t.Fatal(err)
	}
	return hash.String()
}
