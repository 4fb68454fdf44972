// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/panbanda/cogmark/pkg/analyzer"
	"github.com/panbanda/cogmark/pkg/parser"
	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error

	index int
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.add(-1, path, err)
}

func (e *ProcessingErrors) add(index int, path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err, index: index})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Paths returns the failed paths in input order.
func (e *ProcessingErrors) Paths() []string {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	paths := make([]string, len(e.Errors))
	for i, pe := range e.Errors {
		paths[i] = pe.Path
	}
	return paths
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

func (e *ProcessingErrors) sortByInput() {
	e.mu.Lock()
	defer e.mu.Unlock()
	sort.SliceStable(e.Errors, func(i, j int) bool {
		return e.Errors[i].index < e.Errors[j].index
	})
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// DefaultWorkers returns the worker count used when none is configured.
func DefaultWorkers() int {
	return runtime.NumCPU() * DefaultWorkerMultiplier
}

// MapFiles processes files in parallel, calling fn for each file with a parser
// owned by the calling worker. Successful results are returned in the order
// of files, whatever order the workers finish in. Failed files are collected
// in the returned ProcessingErrors, also in input order; nil means no failures.
//
// Once ctx is cancelled no new file is started and every unstarted file is
// recorded as failed with the context error. A tracker carried by ctx is
// told about every file, failed or not.
// If maxWorkers is <= 0, defaults to 2x NumCPU.
func MapFiles[T any](ctx context.Context, files []string, maxWorkers int, fn func(*parser.Parser, string) (T, error)) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	if maxWorkers <= 0 {
		maxWorkers = DefaultWorkers()
	}
	if maxWorkers > len(files) {
		maxWorkers = len(files)
	}

	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.Add(len(files))
	}

	slots := make([]T, len(files))
	done := make([]bool, len(files))
	errs := &ProcessingErrors{}

	// Parsers are created lazily, at most one per worker, and returned to the
	// pool when a task finishes so the next task on any worker reuses them.
	parsers := make(chan *parser.Parser, maxWorkers)

	p := pool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			err := runOne(ctx, parsers, func(psr *parser.Parser) error {
				result, err := fn(psr, path)
				if err != nil {
					return err
				}
				slots[i] = result
				done[i] = true
				return nil
			})
			if err != nil {
				errs.add(i, path, err)
			}
			if tracker != nil {
				tracker.Done(path, err)
			}
			// Individual file errors never stop the pool.
			return nil
		})
	}
	_ = p.Wait()

	close(parsers)
	for psr := range parsers {
		psr.Close()
	}

	results := make([]T, 0, len(files))
	for i := range slots {
		if done[i] {
			results = append(results, slots[i])
		}
	}

	if !errs.HasErrors() {
		return results, nil
	}
	errs.sortByInput()
	return results, errs
}

// runOne borrows a parser from the pool, creating one when none is free, and
// runs fn with it unless ctx is already done.
func runOne(ctx context.Context, parsers chan *parser.Parser, fn func(*parser.Parser) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	var psr *parser.Parser
	select {
	case psr = <-parsers:
	default:
		psr = parser.New()
	}
	defer func() { parsers <- psr }()

	return fn(psr)
}
