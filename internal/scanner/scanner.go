// Package scanner finds Python source files under a set of roots, skipping
// version-control metadata, caches, and installed-environment directories.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// skipDirs are directory names never descended into.
var skipDirs = map[string]struct{}{
	"__pycache__":   {},
	".git":          {},
	".hg":           {},
	"node_modules":  {},
	".tox":          {},
	".nox":          {},
	".mypy_cache":   {},
	".pytest_cache": {},
	".ruff_cache":   {},
	".eggs":         {},
}

// Scanner walks directories for Python source files.
type Scanner struct {
	useGitignore bool
	matchers     []gitignore.Matcher
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithGitignore enables .gitignore-based exclusion, reading patterns from
// the enclosing git repository when one exists.
func WithGitignore() Option {
	return func(s *Scanner) {
		s.useGitignore = true
	}
}

// WithExcludePatterns adds extra exclusion patterns in gitignore syntax.
func WithExcludePatterns(patterns []string) Option {
	return func(s *Scanner) {
		var parsed []gitignore.Pattern
		for _, p := range patterns {
			parsed = append(parsed, gitignore.ParsePattern(p, nil))
		}
		if len(parsed) > 0 {
			s.matchers = append(s.matchers, gitignore.NewMatcher(parsed))
		}
	}
}

// New creates a scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsEnvironmentRoot reports whether dir is the root of an installed Python
// environment. The marker file or an interpreter binary at a conventional
// subpath identifies the root; a library directory inside the environment
// (such as site-packages) has neither and is still indexable.
func IsEnvironmentRoot(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "pyvenv.cfg")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "bin", "python")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "Scripts", "python.exe")); err == nil {
		return true
	}
	return false
}

// shouldSkipDir reports whether a directory subtree is excluded from the
// walk entirely.
func shouldSkipDir(path string) bool {
	name := filepath.Base(path)
	if _, ok := skipDirs[name]; ok {
		return true
	}
	if strings.HasSuffix(name, ".egg-info") {
		return true
	}
	return IsEnvironmentRoot(path)
}

// isSourceFile reports whether the path has a Python source extension.
func isSourceFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw", ".pyi":
		return true
	}
	return false
}

// findGitRoot walks upward looking for a .git directory.
func findGitRoot(start string) string {
	dir := start
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

// loadGitignore reads all .gitignore files under the enclosing git root.
func (s *Scanner) loadGitignore(root string) {
	gitRoot := findGitRoot(root)
	if gitRoot == "" {
		return
	}
	bfs := osfs.New(gitRoot)
	if patterns, err := gitignore.ReadPatterns(bfs, nil); err == nil && len(patterns) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	}
}

func (s *Scanner) isExcluded(relPath string, isDir bool) bool {
	if len(s.matchers) == 0 {
		return false
	}
	parts := strings.Split(relPath, string(filepath.Separator))
	for _, m := range s.matchers {
		if m.Match(parts, isDir) {
			return true
		}
	}
	return false
}

// ScanDir returns every Python source file under root, sorted by the walk's
// lexical order. Walk errors on individual entries are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	if s.useGitignore {
		s.loadGitignore(root)
	}

	files := make([]string, 0, 256)
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			relPath = path
		}

		if d.IsDir() {
			if path != root && (shouldSkipDir(path) || s.isExcluded(relPath, true)) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isSourceFile(path) || s.isExcluded(relPath, false) {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, walkErr
}
