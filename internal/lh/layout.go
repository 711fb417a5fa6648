package lh

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"lh-go/internal/codec"
)

// RepositoryFolder is the reserved folder under the workspace root that holds all archives.
const RepositoryFolder = ".localhistory"

// Hosts with drive letters fold the volume separator into the archive tree.
var driveLetters = runtime.GOOS == "windows"

// Paths on these hosts compare case-insensitively.
var caseInsensitivePaths = runtime.GOOS == "windows" || runtime.GOOS == "darwin"

const sep = string(filepath.Separator)

// Layout identifies the archive directory convention an archive was found under.
type Layout int

const (
	// LayoutCurrent mirrors the drive-folded absolute directory of the original file.
	LayoutCurrent Layout = iota + 1
	// LayoutLegacy mirrors the workspace-relative directory of the original file. Read only.
	LayoutLegacy
)

func (l Layout) String() string {
	switch l {
	case LayoutCurrent:
		return "current"
	case LayoutLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// RootRepositoryPath returns the archive root for a workspace.
func RootRepositoryPath(workspaceRoot string) (string, error) {
	if !IsValidPath(workspaceRoot) {
		return "", fmt.Errorf("%w: workspace root %q", ErrInvalidPath, workspaceRoot)
	}
	return filepath.Join(strings.TrimSpace(workspaceRoot), RepositoryFolder), nil
}

// RepositoryPathForFile returns the archive directory that holds the revisions of filePath.
// The file's directory is appended under the archive root with any drive volume
// folded into a plain segment ("C:\src" becomes "C_\src"). A file without a
// parent directory maps to the archive root itself.
func RepositoryPathForFile(filePath, workspaceRoot string) (string, error) {
	if !IsValidPath(filePath) {
		return "", fmt.Errorf("%w: file path %q", ErrInvalidPath, filePath)
	}
	root, err := RootRepositoryPath(workspaceRoot)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(strings.TrimSpace(filePath))
	if dir == "." {
		return root, nil
	}
	rel := strings.TrimLeft(foldVolume(dir), sep)
	if rel == "" {
		return root, nil
	}
	return root + sep + rel, nil
}

// foldVolume replaces the colon of a drive volume with an underscore.
func foldVolume(dir string) string {
	vol := filepath.VolumeName(dir)
	if len(vol) == 2 && hasDrivePrefix(vol) {
		return vol[:1] + "_" + dir[2:]
	}
	return dir
}

// unfoldDrive turns a folded segment ("C_") back into a drive root ("C:\").
func unfoldDrive(segment string) (string, bool) {
	if len(segment) != 2 || segment[1] != '_' || !hasDrivePrefix(segment[:1]+":") {
		return "", false
	}
	return segment[:1] + ":" + sep, true
}

func pathsEqual(a, b string) bool {
	if caseInsensitivePaths {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// trimPathPrefix returns p relative to prefix when p equals prefix or lies below it.
// Only whole segments match: "/a/bc" is not below "/a/b".
func trimPathPrefix(p, prefix string) (string, bool) {
	p = filepath.Clean(p)
	prefix = filepath.Clean(prefix)
	if pathsEqual(p, prefix) {
		return "", true
	}
	if !strings.HasSuffix(prefix, sep) {
		prefix += sep
	}
	if len(p) <= len(prefix) || !pathsEqual(p[:len(prefix)], prefix) {
		return "", false
	}
	return p[len(prefix):], true
}

func splitSegments(rel string) []string {
	var segments []string
	for _, s := range strings.Split(rel, sep) {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// Reconstruction is an archive file mapped back to the file it was copied from.
type Reconstruction struct {
	Fields            codec.Fields
	OriginalDirectory string
	Layout            Layout
}

// OriginalFullPath returns the path of the original file.
func (r *Reconstruction) OriginalFullPath() string {
	return filepath.Join(r.OriginalDirectory, r.Fields.FileName)
}

// Resolver maps archive files back to their original files.
type Resolver struct {
	fs    FileSystem
	codec codec.Codec
}

// NewResolver creates a Resolver that checks candidates against fsys.
func NewResolver(fsys FileSystem, c codec.Codec) *Resolver {
	return &Resolver{fs: fsys, codec: c}
}

// ReconstructOriginalPath decodes the archive file name and locates the original file.
// The current layout is tried first; the legacy layout only when the current one
// names a missing drive or a missing file.
func (r *Resolver) ReconstructOriginalPath(archiveFilePath, workspaceRoot string) (*Reconstruction, error) {
	if !IsValidPath(archiveFilePath) {
		return nil, fmt.Errorf("%w: archive path %q", ErrInvalidPath, archiveFilePath)
	}
	root, err := RootRepositoryPath(workspaceRoot)
	if err != nil {
		return nil, err
	}

	archiveFilePath = strings.TrimSpace(archiveFilePath)
	fields, err := r.codec.Decode(filepath.Base(archiveFilePath))
	if err != nil {
		return nil, err
	}

	rel, ok := trimPathPrefix(filepath.Dir(archiveFilePath), root)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not inside %s", ErrOriginalNotFound, archiveFilePath, root)
	}

	if dir, ok := r.currentLayoutDir(rel); ok && r.fs.IsFile(filepath.Join(dir, fields.FileName)) {
		return &Reconstruction{Fields: fields, OriginalDirectory: dir, Layout: LayoutCurrent}, nil
	}

	legacyDir := filepath.Join(strings.TrimSpace(workspaceRoot), rel)
	if r.fs.IsFile(filepath.Join(legacyDir, fields.FileName)) {
		return &Reconstruction{Fields: fields, OriginalDirectory: legacyDir, Layout: LayoutLegacy}, nil
	}

	return nil, fmt.Errorf("%w: no original for %s", ErrOriginalNotFound, archiveFilePath)
}

// currentLayoutDir rebuilds the absolute original directory from an archive-relative one.
func (r *Resolver) currentLayoutDir(rel string) (string, bool) {
	segments := splitSegments(rel)
	if !driveLetters {
		return sep + filepath.Join(segments...), true
	}
	if len(segments) == 0 {
		return "", false
	}
	drive, ok := unfoldDrive(segments[0])
	if !ok || !r.fs.IsDir(drive) {
		return "", false
	}
	return filepath.Join(append([]string{drive}, segments[1:]...)...), true
}
