package lh

// FileSystem is the set of file primitives the repository needs.
// It abstracts file access so failure paths can be tested without touching the real filesystem.
type FileSystem interface {
	// IsFile reports whether path exists and is a regular file.
	IsFile(path string) bool

	// IsDir reports whether path exists and is a directory.
	IsDir(path string) bool

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string) error

	// CopyFile copies the bytes of src to dst, replacing dst if it exists.
	CopyFile(src, dst string) error

	// Rename moves oldPath to newPath.
	Rename(oldPath, newPath string) error

	// ListFiles returns the full paths of the regular files directly inside dir.
	ListFiles(dir string) ([]string, error)

	// Hide marks path as hidden where the host supports it.
	Hide(path string) error
}
