// Package analyzer holds the contracts shared by the cogmark analyzers.
package analyzer

import (
	"context"

	"github.com/panbanda/cogmark/pkg/models"
	"github.com/panbanda/cogmark/pkg/source"
)

// FileAnalyzer analyzes a batch of files.
type FileAnalyzer[T any] interface {
	// Analyze processes files concurrently. Cancelling ctx stops scheduling
	// new files; files that were not analyzed are reported as failed.
	Analyze(ctx context.Context, files []string) (T, error)

	// Close releases any resources held by the analyzer.
	Close()
}

// SourceAnalyzer scores a single file read through a content source.
type SourceAnalyzer interface {
	// Root is the directory result paths are relative to.
	Root() string
	AnalyzeFileFromSource(src source.ContentSource, path string) (*models.FileComplexity, error)
}

// CodeAnalyzer scores a snippet held in memory.
type CodeAnalyzer interface {
	AnalyzeCode(code string) (*models.CodeComplexity, error)
}
