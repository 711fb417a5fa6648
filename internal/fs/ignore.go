package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lh-go/internal/lh"
)

// IgnoreFileName is the per-workspace file listing paths the watcher never archives.
const IgnoreFileName = ".lhignore"

// defaultIgnorePatterns are always applied by LoadIgnoreMatcher.
// ".tmp-*" covers the temp files CopyFile writes before renaming.
var defaultIgnorePatterns = []string{IgnoreFileName, lh.RepositoryFolder, ".git", ".tmp-*", "*~"}

type ignorePattern struct {
	pattern   string
	matchPath bool // match the relative path instead of the basename
}

// IgnoreMatcher decides which workspace paths are never archived.
// Patterns without '/' match any basename; patterns with '/' match the whole
// path relative to the workspace root.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher creates an IgnoreMatcher from raw pattern strings.
// Blank lines and '#' comments are skipped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		m.patterns = append(m.patterns, ignorePattern{
			pattern:   strings.TrimSuffix(raw, "/"),
			matchPath: strings.Contains(strings.TrimSuffix(raw, "/"), "/"),
		})
	}
	return m
}

// LoadIgnoreMatcher combines the default patterns, the configured ones and the
// workspace's .lhignore file.
func LoadIgnoreMatcher(workspaceRoot string, configured []string) (*IgnoreMatcher, error) {
	fromFile, err := ParseIgnoreFile(filepath.Join(workspaceRoot, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	all := append(append(append([]string{}, defaultIgnorePatterns...), configured...), fromFile...)
	return NewIgnoreMatcher(all), nil
}

// Match reports whether relativePath, or any directory on the way to it, is ignored.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	if len(m.patterns) == 0 || relativePath == "" {
		return false
	}

	normalized := filepath.ToSlash(filepath.Clean(relativePath))
	segments := strings.Split(normalized, "/")
	for i := range segments {
		if m.matchOne(strings.Join(segments[:i+1], "/"), segments[i]) {
			return true
		}
	}
	return false
}

func (m *IgnoreMatcher) matchOne(path, base string) bool {
	for _, p := range m.patterns {
		subject := base
		if p.matchPath {
			subject = path
		}
		// A bad pattern never matches.
		if ok, err := filepath.Match(p.pattern, subject); err == nil && ok {
			return true
		}
	}
	return false
}

// ParseIgnoreFile reads an ignore file and returns its raw lines.
// A missing file yields no patterns and no error.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return lines, nil
}
