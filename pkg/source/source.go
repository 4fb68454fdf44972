// Package source supplies file content to the analyzer from the working
// tree or from git history.
package source

import (
	"context"
	"os"

	"github.com/panbanda/cogmark/internal/vcs"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// RevisionSource reads working tree paths as they were at a git revision.
// It is safe for concurrent use by multiple goroutines.
type RevisionSource struct {
	ctx    context.Context
	reader vcs.FileReader
}

// NewRevision creates a source backed by reader. Reads are bound to ctx.
func NewRevision(ctx context.Context, reader vcs.FileReader) *RevisionSource {
	return &RevisionSource{ctx: ctx, reader: reader}
}

// Read implements ContentSource.
func (r *RevisionSource) Read(path string) ([]byte, error) {
	return r.reader.ReadFile(r.ctx, path)
}
