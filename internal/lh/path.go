package lh

import (
	"fmt"
	"path/filepath"
	"strings"
)

// illegalPathChars may not appear anywhere in a path, except for the colon
// directly after a drive letter.
const illegalPathChars = `"<>|?*:`

// hasDrivePrefix reports whether p starts with a drive letter and colon ("C:").
func hasDrivePrefix(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func containsIllegal(s string) bool {
	for _, r := range s {
		if r < 0x20 || strings.ContainsRune(illegalPathChars, r) {
			return true
		}
	}
	return false
}

// IsValidPath reports whether path is non-blank and free of characters that are
// illegal in file-system paths. A leading drive prefix ("C:" or "C:\") is allowed.
func IsValidPath(path string) bool {
	p := strings.TrimSpace(path)
	if p == "" {
		return false
	}
	if hasDrivePrefix(p) {
		p = p[2:]
	}
	return !containsIllegal(p)
}

// IsValidFileName reports whether name can be used as a single file name.
// Exactly "." and ".." are rejected, as is any name ending in a dot; "..foo" is fine.
func IsValidFileName(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	if name == "." || name == ".." || strings.HasSuffix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return !containsIllegal(name)
}

// NormalizePath trims path, converts forward slashes to the host separator and
// resolves it to a clean absolute path.
func NormalizePath(path string) (string, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if !IsValidPath(p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	p = strings.ReplaceAll(p, "/", string(filepath.Separator))
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return abs, nil
}
