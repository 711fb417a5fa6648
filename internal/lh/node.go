package lh

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"lh-go/internal/codec"
)

// DocumentNode is one archived revision of a tracked file.
//
// Two nodes are the same revision when they share original directory, file
// name and capture time; archive directory and label are not compared.
type DocumentNode struct {
	archiveDir  string
	originalDir string
	fileName    string
	unixTime    string
	time        time.Time
	label       string

	codec    codec.Codec
	fs       FileSystem
	observer LabelObserver
}

// NodeOption configures a DocumentNode at construction.
type NodeOption func(*DocumentNode)

// WithLabel sets the initial label. An empty label means none.
func WithLabel(label string) NodeOption {
	return func(n *DocumentNode) { n.label = label }
}

// WithFileSystem sets the file system used to rename the archive on label changes.
func WithFileSystem(fsys FileSystem) NodeOption {
	return func(n *DocumentNode) { n.fs = fsys }
}

// WithLabelObserver sets the observer notified after label changes.
func WithLabelObserver(o LabelObserver) NodeOption {
	return func(n *DocumentNode) { n.observer = o }
}

// WithCodec sets the codec that names the archive file.
func WithCodec(c codec.Codec) NodeOption {
	return func(n *DocumentNode) { n.codec = c }
}

// NewDocumentNode creates a node for a revision captured at t.
func NewDocumentNode(archiveDir, originalDir, fileName string, t time.Time, opts ...NodeOption) (*DocumentNode, error) {
	sec, err := ToUnixTime(t)
	if err != nil {
		return nil, err
	}
	return NewDocumentNodeFromUnix(archiveDir, originalDir, fileName, strconv.FormatInt(sec, 10), opts...)
}

// NewDocumentNodeFromUnix creates a node from the unix seconds text stored in an archive name.
func NewDocumentNodeFromUnix(archiveDir, originalDir, fileName, unixTime string, opts ...NodeOption) (*DocumentNode, error) {
	for _, arg := range []struct{ name, value string }{
		{"archive directory", archiveDir},
		{"original directory", originalDir},
		{"original file name", fileName},
		{"unix time", unixTime},
	} {
		if arg.value == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingArgument, arg.name)
		}
	}

	archiveDir, err := NormalizePath(archiveDir)
	if err != nil {
		return nil, fmt.Errorf("archive directory: %w", err)
	}
	originalDir, err = NormalizePath(originalDir)
	if err != nil {
		return nil, fmt.Errorf("original directory: %w", err)
	}
	if !IsValidFileName(fileName) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFileName, fileName)
	}

	sec, err := strconv.ParseInt(unixTime, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("%w: %s", ErrOutOfRange, unixTime)
		}
		return nil, fmt.Errorf("%w: unix time %q", ErrInvalidArgument, unixTime)
	}
	t, err := FromUnixTime(sec)
	if err != nil {
		return nil, err
	}

	n := &DocumentNode{
		archiveDir:  archiveDir,
		originalDir: originalDir,
		fileName:    fileName,
		unixTime:    unixTime,
		time:        t,
		codec:       codec.Default,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.label != "" && !n.validLabel(n.label) {
		return nil, fmt.Errorf("%w: label %q", ErrInvalidFileName, n.label)
	}
	return n, nil
}

// validLabel reports whether label can be stored in an archive name. A label
// may contain the separator but not start with it: the archive name would then
// read back as a file name ending in the separator.
func (n *DocumentNode) validLabel(label string) bool {
	return IsValidFileName(label) && !strings.HasPrefix(label, string(n.codec.Separator()))
}

func (n *DocumentNode) ArchiveDirectory() string { return n.archiveDir }

// OriginalPath returns the directory the tracked file lived in at capture time.
func (n *DocumentNode) OriginalPath() string { return n.originalDir }

func (n *DocumentNode) OriginalFileName() string { return n.fileName }

func (n *DocumentNode) OriginalFullPath() string {
	return filepath.Join(n.originalDir, n.fileName)
}

// UnixTime returns the capture time as stored in the archive name.
func (n *DocumentNode) UnixTime() string { return n.unixTime }

func (n *DocumentNode) Time() time.Time { return n.time }

func (n *DocumentNode) Label() string { return n.label }

func (n *DocumentNode) HasLabel() bool { return n.label != "" }

// ArchiveFileName returns the encoded name of the archive file.
func (n *DocumentNode) ArchiveFileName() string {
	return n.codec.Encode(n.unixTime, n.fileName, n.label)
}

func (n *DocumentNode) ArchiveFullPath() string {
	return filepath.Join(n.archiveDir, n.ArchiveFileName())
}

// DisplayTimestamp renders the capture time in local time, e.g. "2019-10-29 15:40:32".
func (n *DocumentNode) DisplayTimestamp() string {
	return n.time.Format(DisplayLayout)
}

// DisplayTimestampAndLabel is DisplayTimestamp followed by the label, if any.
func (n *DocumentNode) DisplayTimestampAndLabel() string {
	if !n.HasLabel() {
		return n.DisplayTimestamp()
	}
	return n.DisplayTimestamp() + " " + n.label
}

// Key returns a value usable as a map key with the same semantics as Equal.
func (n *DocumentNode) Key() string {
	return strings.ToLower(n.originalDir) + "\x00" + strings.ToLower(n.fileName) + "\x00" + strings.ToLower(n.unixTime)
}

// Equal reports whether both nodes are the same revision of the same file.
func (n *DocumentNode) Equal(other *DocumentNode) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n == other || n.Key() == other.Key()
}

func (n *DocumentNode) String() string {
	return n.ArchiveFullPath()
}

// AddLabel labels the revision, renaming its archive file to the labelled name.
func (n *DocumentNode) AddLabel(label string) error {
	if label == "" {
		return fmt.Errorf("%w: label", ErrMissingArgument)
	}
	if !n.validLabel(label) {
		return fmt.Errorf("%w: label %q", ErrInvalidFileName, label)
	}
	return n.relabel(label)
}

// RemoveLabel strips the label, renaming the archive file back to the unlabelled name.
func (n *DocumentNode) RemoveLabel() error {
	if !n.HasLabel() {
		return nil
	}
	return n.relabel("")
}

// relabel renames the archive first and commits the label only once the rename succeeded.
func (n *DocumentNode) relabel(label string) error {
	if n.fs == nil {
		return errors.New("document node has no file system")
	}

	oldPath := n.ArchiveFullPath()
	newPath := filepath.Join(n.archiveDir, n.codec.Encode(n.unixTime, n.fileName, label))

	renamed := false
	if oldPath != newPath && n.fs.IsFile(oldPath) {
		if n.fs.IsFile(newPath) {
			return fmt.Errorf("renaming %s: %w", newPath, os.ErrExist)
		}
		if err := n.fs.Rename(oldPath, newPath); err != nil {
			return fmt.Errorf("renaming archive: %w", err)
		}
		renamed = true
	}

	old := n.label
	n.label = label

	if n.observer != nil {
		n.observer.LabelChanged(LabelChange{
			Node:     n,
			OldLabel: old,
			NewLabel: label,
			OldPath:  oldPath,
			NewPath:  newPath,
			Renamed:  renamed,
		})
	}
	return nil
}
