package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover expands pattern into regular files, sorted lexicographically for
// deterministic processing order. Files under any of the exclude
// directories are dropped so a second run never picks up its own output.
func Discover(pattern string, exclude ...string) ([]string, error) {
	if !doublestar.ValidatePathPattern(pattern) {
		return nil, fmt.Errorf("batch: invalid glob pattern %q", pattern)
	}
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("batch: glob %q: %w", pattern, err)
	}

	skip := NewMatcher(pattern, exclude...)
	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if skip.SkipDir(m) {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}

func underAny(path string, dirs []string) bool {
	if len(dirs) == 0 {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	sep := string(os.PathSeparator)
	for _, d := range dirs {
		if abs == d || strings.HasPrefix(abs, d+sep) {
			return true
		}
	}
	return false
}

// Matcher decides whether a path belongs to a run: it matches the glob
// pattern and lies outside every excluded directory.
type Matcher struct {
	pattern string
	exclude []string
}

// NewMatcher returns a Matcher for pattern. The pattern is cleaned the way
// FilepathGlob cleans it, so "./posts/*.md" matches what Discover returns.
// Exclude directories are resolved to absolute paths once.
func NewMatcher(pattern string, exclude ...string) Matcher {
	m := Matcher{pattern: filepath.ToSlash(filepath.Clean(pattern))}
	for _, dir := range exclude {
		if abs, err := filepath.Abs(dir); err == nil {
			m.exclude = append(m.exclude, abs)
		}
	}
	return m
}

// Match reports whether path is a source the pattern selects.
func (m Matcher) Match(path string) bool {
	ok, err := doublestar.PathMatch(filepath.FromSlash(m.pattern), filepath.Clean(path))
	return err == nil && ok && !underAny(path, m.exclude)
}

// SkipDir reports whether dir lies in an excluded tree.
func (m Matcher) SkipDir(dir string) bool {
	return underAny(dir, m.exclude)
}

// Root returns the static directory prefix of the pattern, the deepest
// directory that can contain every match.
func (m Matcher) Root() string {
	base, _ := doublestar.SplitPattern(m.pattern)
	if base == "" {
		return "."
	}
	return filepath.FromSlash(base)
}
