package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"lh-go/internal/lh"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	IsDirectory bool
	Hidden      bool
}

// MockFileSystem is an in-memory lh.FileSystem for testing.
// Paths are stored cleaned; parents are not required to exist unless MkdirAll is used.
type MockFileSystem struct {
	mu    sync.Mutex
	files map[string]*MockFile

	// RenameErr, CopyErr and ListErr make the corresponding operation fail when set.
	RenameErr error
	CopyErr   error
	ListErr   error
	HideErr   error
}

// NewMockFileSystem creates an empty mock filesystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{files: make(map[string]*MockFile)}
}

// AddFile adds a file, creating its parent directories.
func (m *MockFileSystem) AddFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.mkdirAll(filepath.Dir(path))
	m.files[path] = &MockFile{Content: content}
}

// AddDirectory adds a directory and its parents.
func (m *MockFileSystem) AddDirectory(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAll(filepath.Clean(path))
}

// Content returns the bytes stored at path.
func (m *MockFileSystem) Content(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[filepath.Clean(path)]
	if !ok || f.IsDirectory {
		return nil, false
	}
	return f.Content, true
}

// IsHidden reports whether Hide was called on path.
func (m *MockFileSystem) IsHidden(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[filepath.Clean(path)]
	return ok && f.Hidden
}

func (m *MockFileSystem) mkdirAll(path string) {
	for {
		if f, ok := m.files[path]; ok && f.IsDirectory {
			return
		}
		m.files[path] = &MockFile{IsDirectory: true}
		parent := filepath.Dir(path)
		if parent == path {
			return
		}
		path = parent
	}
}

func (m *MockFileSystem) IsFile(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[filepath.Clean(path)]
	return ok && !f.IsDirectory
}

func (m *MockFileSystem) IsDir(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[filepath.Clean(path)]
	return ok && f.IsDirectory
}

func (m *MockFileSystem) MkdirAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAll(filepath.Clean(path))
	return nil
}

func (m *MockFileSystem) CopyFile(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CopyErr != nil {
		return m.CopyErr
	}
	f, ok := m.files[filepath.Clean(src)]
	if !ok || f.IsDirectory {
		return fmt.Errorf("copying %s: %w", src, os.ErrNotExist)
	}
	content := append([]byte(nil), f.Content...)
	m.files[filepath.Clean(dst)] = &MockFile{Content: content}
	return nil
}

func (m *MockFileSystem) Rename(oldPath, newPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RenameErr != nil {
		return m.RenameErr
	}
	f, ok := m.files[filepath.Clean(oldPath)]
	if !ok {
		return fmt.Errorf("renaming %s: %w", oldPath, os.ErrNotExist)
	}
	delete(m.files, filepath.Clean(oldPath))
	m.files[filepath.Clean(newPath)] = f
	return nil
}

func (m *MockFileSystem) ListFiles(dir string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	dir = filepath.Clean(dir)
	if f, ok := m.files[dir]; !ok || !f.IsDirectory {
		return nil, fmt.Errorf("listing %s: %w", dir, os.ErrNotExist)
	}

	var paths []string
	for p, f := range m.files {
		if !f.IsDirectory && filepath.Dir(p) == dir {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (m *MockFileSystem) Hide(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.HideErr != nil {
		return m.HideErr
	}
	f, ok := m.files[filepath.Clean(path)]
	if !ok {
		return errors.New("hide: no such path")
	}
	f.Hidden = true
	return nil
}

// Compile-time check
var _ lh.FileSystem = (*MockFileSystem)(nil)
