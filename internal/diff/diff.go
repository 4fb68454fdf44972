// Package diff compares current complexity results with the same files at a
// git revision.
package diff

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/panbanda/cogmark/internal/vcs"
	"github.com/panbanda/cogmark/pkg/analyzer"
	"github.com/panbanda/cogmark/pkg/models"
	"github.com/panbanda/cogmark/pkg/source"
)

// Options configures a comparison.
type Options struct {
	// Ref is the revision compared against. Defaults to HEAD.
	Ref string
	// Opener opens the repository. Defaults to vcs.DefaultOpener().
	Opener vcs.Opener
	// Timeout bounds each file read. Zero uses vcs.DefaultReadTimeout.
	Timeout time.Duration
}

// Compare re-analyses each current file as it was at opts.Ref and classifies
// every function. Files absent at the revision make all their functions NEW.
// Files that cannot be read or parsed at the revision are skipped.
func Compare(ctx context.Context, a analyzer.SourceAnalyzer, current []models.FileComplexity, opts Options) (*models.DiffReport, error) {
	if opts.Ref == "" {
		opts.Ref = "HEAD"
	}
	if opts.Opener == nil {
		opts.Opener = vcs.DefaultOpener()
	}

	repo, err := opts.Opener.Open(a.Root())
	if err != nil {
		return nil, err
	}
	reader, err := vcs.NewRevisionReader(repo, opts.Ref, opts.Timeout)
	if err != nil {
		return nil, err
	}
	src := source.NewRevision(ctx, reader)

	report := &models.DiffReport{Ref: opts.Ref}
	for _, file := range current {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.FromSlash(file.Path)
		if !filepath.IsAbs(path) {
			path = filepath.Join(a.Root(), path)
		}
		old, err := a.AnalyzeFileFromSource(src, path)
		switch {
		case errors.Is(err, vcs.ErrFileNotFound):
			old = nil
		case err != nil:
			slog.Debug("skipping file in diff", "path", file.Path, "ref", opts.Ref, "error", err)
			continue
		}

		for _, e := range compareFile(file, old) {
			report.Add(e)
		}
	}
	return report, nil
}

// compareFile classifies the functions of one file. old is nil when the file
// did not exist at the revision. Entries are ordered by function name.
func compareFile(current models.FileComplexity, old *models.FileComplexity) []models.DiffEntry {
	now := functionMap(current.Functions)
	before := map[string]uint32{}
	if old != nil {
		before = functionMap(old.Functions)
	}

	names := make([]string, 0, len(now)+len(before))
	for name := range now {
		names = append(names, name)
	}
	for name := range before {
		if _, ok := now[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	entries := make([]models.DiffEntry, 0, len(names))
	for _, name := range names {
		after, hasAfter := now[name]
		prev, hasBefore := before[name]
		entries = append(entries, classify(current.Path, name, prev, hasBefore, after, hasAfter))
	}
	return entries
}

func classify(path, name string, before uint32, hasBefore bool, after uint32, hasAfter bool) models.DiffEntry {
	e := models.DiffEntry{Path: path, Function: name}
	if hasBefore {
		e.Before = &before
	}
	if hasAfter {
		e.After = &after
	}

	switch {
	case !hasBefore:
		e.Status = models.DiffNew
		e.Delta = int(after)
	case !hasAfter:
		e.Status = models.DiffRemoved
		e.Delta = -int(before)
	default:
		e.Delta = int(after) - int(before)
		switch {
		case e.Delta > 0:
			e.Status = models.DiffRegressed
		case e.Delta < 0:
			e.Status = models.DiffImproved
		default:
			e.Status = models.DiffUnchanged
		}
	}
	return e
}

// functionMap indexes functions by name. A repeated name keeps its last score.
func functionMap(fns []models.FunctionComplexity) map[string]uint32 {
	m := make(map[string]uint32, len(fns))
	for _, fn := range fns {
		m[fn.Name] = fn.Complexity
	}
	return m
}
