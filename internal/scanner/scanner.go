package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/cogmark/pkg/parser"
)

// Scanner finds Python source files in a directory tree.
type Scanner struct {
	excludes  []string
	gitignore bool
	matchers  []gitignore.Matcher
}

// Option is a functional option for configuring Scanner.
type Option func(*Scanner)

// WithExcludes adds gitignore-style exclusion patterns.
func WithExcludes(patterns []string) Option {
	return func(s *Scanner) {
		s.excludes = append(s.excludes, patterns...)
	}
}

// WithGitignore toggles honouring .gitignore files of the enclosing repository.
func WithGitignore(enabled bool) Option {
	return func(s *Scanner) {
		s.gitignore = enabled
	}
}

// NewScanner creates a new file scanner.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns builds the matchers for a scan rooted at root.
// Configured patterns are relative to root; .gitignore patterns are read
// from the repository root and matched against repository-relative paths.
func (s *Scanner) loadExcludePatterns(root string) {
	s.matchers = nil

	if len(s.excludes) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(parsePatterns(s.excludes)))
	}

	if !s.gitignore {
		return
	}
	gitRoot := findGitRoot(root)
	if gitRoot == "" {
		return
	}
	gitPatterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(gitPatterns) == 0 {
		return
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return
	}
	prefix, err := filepath.Rel(gitRoot, absRoot)
	if err != nil || prefix == "." {
		prefix = ""
	}
	s.matchers = append(s.matchers, &prefixedMatcher{
		prefix:  splitPath(prefix),
		matcher: gitignore.NewMatcher(gitPatterns),
	})
}

// prefixedMatcher rebases scan-relative paths onto the repository root.
type prefixedMatcher struct {
	prefix  []string
	matcher gitignore.Matcher
}

func (m *prefixedMatcher) Match(path []string, isDir bool) bool {
	full := make([]string, 0, len(m.prefix)+len(path))
	full = append(full, m.prefix...)
	full = append(full, path...)
	return m.matcher.Match(full, isDir)
}

func splitPath(path string) []string {
	path = filepath.ToSlash(filepath.Clean(path))
	if path == "." || path == "" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(path, "./"), "/")
}

// isExcluded checks if a root-relative path matches any exclusion pattern.
func (s *Scanner) isExcluded(relPath string, isDir bool) bool {
	if len(s.matchers) == 0 {
		return false
	}

	parts := splitPath(relPath)
	if len(parts) == 0 {
		return false
	}
	for _, m := range s.matchers {
		if m.Match(parts, isDir) {
			return true
		}
	}
	return false
}

// ScanDir recursively scans a directory for Python files in lexical order.
// Validates that all paths stay within the root directory to prevent traversal attacks.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 256)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(root)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if path != root && s.isExcluded(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(relPath, false) {
			return nil
		}
		if parser.IsPython(path) {
			files = append(files, path)
		}

		return nil
	})

	return files, walkErr
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative paths.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// ExcludedFile reports whether an explicitly named file matches the
// configured exclusion patterns, relative to the current directory.
func (s *Scanner) ExcludedFile(path string) bool {
	if len(s.excludes) == 0 {
		return false
	}
	rel := path
	if filepath.IsAbs(path) {
		if wd, err := os.Getwd(); err == nil {
			if r, err := filepath.Rel(wd, path); err == nil && !strings.HasPrefix(r, "..") {
				rel = r
			}
		}
	}
	m := gitignore.NewMatcher(parsePatterns(s.excludes))
	return m.Match(splitPath(rel), false)
}

func parsePatterns(raw []string) []gitignore.Pattern {
	patterns := make([]gitignore.Pattern, 0, len(raw))
	for _, p := range raw {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}
	return patterns
}

// FilterBySize filters files that exceed the configured maximum size.
// Returns the filtered list and the count of files that were skipped.
// If maxSize is 0, returns the original list unchanged.
func FilterBySize(files []string, maxSize int64) ([]string, int) {
	if maxSize <= 0 {
		return files, 0
	}

	filtered := make([]string, 0, len(files))
	skipped := 0

	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.Size() > maxSize {
			skipped++
			continue
		}
		filtered = append(filtered, f)
	}

	return filtered, skipped
}
