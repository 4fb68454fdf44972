// Package vcs provides version control system abstractions.
package vcs

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5/plumbing"
)

var (
	// ErrNotRepository is returned when no git repository encloses a path.
	ErrNotRepository = errors.New("not a git repository")
	// ErrUnknownRef is returned when a revision cannot be resolved.
	ErrUnknownRef = errors.New("unknown revision")
	// ErrFileNotFound is returned when a file does not exist in a tree.
	ErrFileNotFound = errors.New("file not found at revision")
	// ErrOutsideRepository is returned for paths outside the worktree.
	ErrOutsideRepository = errors.New("path is outside the repository")
	// ErrInvalidType is returned when a type assertion fails for vcs types.
	ErrInvalidType = errors.New("invalid type")
)

// Repository provides access to git repository operations.
type Repository interface {
	// Root returns the worktree root.
	Root() string
	// Head returns the current branch name, or the commit hash when detached.
	Head() (string, error)
	// Resolve returns the commit a revision (branch, tag, hash, HEAD~n) names.
	Resolve(rev string) (Commit, error)
}

// Commit represents a git commit.
type Commit interface {
	Hash() plumbing.Hash
	Tree() (Tree, error)
}

// Tree represents a git tree object.
type Tree interface {
	// File returns the content of the file at a slash-separated, repo-relative path.
	File(path string) ([]byte, error)
}

// Opener opens git repositories.
type Opener interface {
	// Open opens the repository enclosing path, searching parent directories.
	Open(path string) (Repository, error)
}

// FileReader reads files at a fixed revision, bounding each read by a timeout.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}
