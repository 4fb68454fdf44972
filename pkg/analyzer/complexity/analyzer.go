package complexity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/panbanda/cogmark/internal/fileproc"
	"github.com/panbanda/cogmark/internal/scanner"
	"github.com/panbanda/cogmark/pkg/analyzer"
	"github.com/panbanda/cogmark/pkg/models"
	"github.com/panbanda/cogmark/pkg/parser"
	"github.com/panbanda/cogmark/pkg/source"
	sitter "github.com/smacker/go-tree-sitter"
)

// Ensure Analyzer implements analyzer.FileAnalyzer.
var _ analyzer.FileAnalyzer[*Analysis] = (*Analyzer)(nil)

// Analysis is the outcome of a batch run.
type Analysis struct {
	Files  []models.FileComplexity
	Failed []string
}

// Analyzer computes cognitive complexity for Python sources.
type Analyzer struct {
	parser      *parser.Parser
	marker      []byte
	root        string
	maxFileSize int64
	workers     int
	gitignore   bool
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithMaxFileSize sets the maximum file size to analyze (0 = no limit).
// Larger files are skipped, not failed.
func WithMaxFileSize(maxSize int64) Option {
	return func(a *Analyzer) {
		a.maxFileSize = maxSize
	}
}

// WithMarker sets the suppression comment. An empty marker disables suppression.
func WithMarker(marker string) Option {
	return func(a *Analyzer) {
		a.marker = normalizeMarker(marker)
	}
}

// WithRoot sets the directory result paths are made relative to.
// Defaults to the working directory.
func WithRoot(root string) Option {
	return func(a *Analyzer) {
		a.root = root
	}
}

// WithWorkers bounds batch concurrency (0 = 2x NumCPU).
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// WithGitignore toggles .gitignore handling during directory discovery.
func WithGitignore(enabled bool) Option {
	return func(a *Analyzer) {
		a.gitignore = enabled
	}
}

// New creates a new complexity analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		parser:    parser.New(),
		marker:    normalizeMarker(DefaultMarker),
		gitignore: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.root == "" {
		if wd, err := os.Getwd(); err == nil {
			a.root = wd
		}
	}
	return a
}

// Root returns the directory result paths are relative to.
func (a *Analyzer) Root() string {
	return a.root
}

// Close releases analyzer resources.
func (a *Analyzer) Close() {
	a.parser.Close()
}

// AnalyzeCode scores an in-memory snippet.
func (a *Analyzer) AnalyzeCode(code string) (*models.CodeComplexity, error) {
	functions, err := a.analyzeSource(a.parser, []byte(code), "")
	if err != nil {
		return nil, err
	}
	cc := models.NewCodeComplexity(functions)
	return &cc, nil
}

// AnalyzeFile scores a single file.
func (a *Analyzer) AnalyzeFile(path string) (*models.FileComplexity, error) {
	return a.analyzeFile(a.parser, path)
}

// AnalyzeFileFromSource scores a file read from src. The path is reported as given.
func (a *Analyzer) AnalyzeFileFromSource(src source.ContentSource, path string) (*models.FileComplexity, error) {
	content, err := src.Read(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	}
	functions, err := a.analyzeSource(a.parser, content, path)
	if err != nil {
		return nil, err
	}
	fc := models.NewFileComplexity(filepath.ToSlash(path), filepath.Base(path), functions)
	return &fc, nil
}

// Analyze scores files in parallel. Failed files are listed in the result;
// the error is reserved for future whole-run failures and is always nil.
// Progress is tracked via context using analyzer.WithTracker.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Analysis, error) {
	files, skipped := scanner.FilterBySize(files, a.maxFileSize)
	if skipped > 0 {
		slog.Debug("skipped files over size limit", "count", skipped, "limit", a.maxFileSize)
	}

	results, errs := fileproc.MapFiles(ctx, files, a.workers, func(psr *parser.Parser, path string) (models.FileComplexity, error) {
		fc, err := a.analyzeFile(psr, path)
		if err != nil {
			return models.FileComplexity{}, err
		}
		return *fc, nil
	})

	analysis := &Analysis{Files: results}
	if errs.HasErrors() {
		for _, pe := range errs.Errors {
			slog.Debug("failed to analyze file", "path", pe.Path, "error", pe.Err)
		}
		analysis.Failed = errs.Paths()
	}
	if analysis.Files == nil {
		analysis.Files = []models.FileComplexity{}
	}
	return analysis, nil
}

// AnalyzeBatch expands paths (files or directories) into Python files,
// drops excluded ones and scores the rest. Paths that do not exist, are
// not Python, or fail to parse are returned in failed; the batch never
// aborts because of them. Results follow discovery order.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, paths []string, excludes []string) ([]models.FileComplexity, []string) {
	files, failed := a.Discover(paths, excludes)

	analysis, _ := a.Analyze(ctx, files)
	return analysis.Files, append(failed, analysis.Failed...)
}

// Discover expands paths into the ordered list of files to analyze and the
// paths that cannot be analyzed at all.
func (a *Analyzer) Discover(paths []string, excludes []string) (files []string, invalid []string) {
	sc := scanner.NewScanner(scanner.WithExcludes(excludes), scanner.WithGitignore(a.gitignore))
	seen := make(map[string]bool)

	add := func(path string) {
		key := filepath.Clean(path)
		if !seen[key] {
			seen[key] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			invalid = append(invalid, path)
			continue
		}

		if info.IsDir() {
			found, err := sc.ScanDir(path)
			if err != nil {
				invalid = append(invalid, path)
				continue
			}
			for _, f := range found {
				add(f)
			}
			continue
		}

		if !parser.IsPython(path) {
			invalid = append(invalid, path)
			continue
		}
		if sc.ExcludedFile(path) {
			continue
		}
		add(path)
	}
	return files, invalid
}

func (a *Analyzer) analyzeFile(psr *parser.Parser, path string) (*models.FileComplexity, error) {
	if !parser.IsPython(path) {
		return nil, fmt.Errorf("%w: %s", parser.ErrUnsupported, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	}

	functions, err := a.analyzeSource(psr, content, path)
	if err != nil {
		return nil, err
	}

	fc := models.NewFileComplexity(a.relative(path), filepath.Base(path), functions)
	return &fc, nil
}

// relative reports path relative to the analyzer root in slash form, or the
// cleaned path when it lies outside the root.
func (a *Analyzer) relative(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil || a.root == "" {
		return filepath.ToSlash(filepath.Clean(path))
	}
	rel, err := filepath.Rel(a.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(filepath.Clean(path))
	}
	return filepath.ToSlash(rel)
}

func (a *Analyzer) analyzeSource(psr *parser.Parser, source []byte, path string) ([]models.FunctionComplexity, error) {
	result, err := psr.Parse(context.Background(), source, path)
	if err != nil {
		return nil, &ParseError{Path: path, Line: 1}
	}
	defer result.Close()

	root := result.Root()
	if line := parser.FirstError(root); line > 0 {
		return nil, &ParseError{Path: path, Line: line}
	}

	c := &collector{
		source: result.Source,
		lines:  newLineIndex(result.Source),
		marker: a.marker,
	}
	c.visit(root, nil)
	if c.functions == nil {
		c.functions = []models.FunctionComplexity{}
	}
	return c.functions, nil
}

// collector enumerates function definitions in source order.
type collector struct {
	source    []byte
	lines     lineIndex
	marker    []byte
	functions []models.FunctionComplexity
}

// visit walks the tree keeping the enclosing class chain in scope. A
// function resets the scope, so functions nested in methods keep bare names.
func (c *collector) visit(node *sitter.Node, scope []string) {
	switch Classify(node.Type()) {
	case KindClass:
		name := parser.GetNodeText(node.ChildByFieldName("name"), c.source)
		scope = append(scope[:len(scope):len(scope)], name)
	case KindFunction:
		c.function(node, scope)
		scope = nil
	}

	for i := range int(node.ChildCount()) {
		c.visit(node.Child(i), scope)
	}
}

func (c *collector) function(fn *sitter.Node, scope []string) {
	if suppressed(fn, c.lines, c.marker) {
		return
	}

	name := parser.GetNodeText(fn.ChildByFieldName("name"), c.source)
	inMethod := len(scope) > 0 && isMethod(fn)
	if len(scope) > 0 {
		name = strings.Join(scope, "::") + "::" + name
	}

	c.functions = append(c.functions, models.FunctionComplexity{
		Name:       name,
		Complexity: scoreFunction(fn, c.source, inMethod),
		LineStart:  uint32(parser.StartLine(fn)),
		LineEnd:    uint32(parser.EndLine(fn)),
	})
}
