package lh

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"lh-go/internal/codec"
)

// Repository creates and enumerates the archived revisions of the files in one workspace.
//
// All operations are synchronous. Nothing guards against two writers saving the
// same file at the same time: both copies race on the same archive path and the
// last one wins.
type Repository struct {
	workspaceRoot string
	rootPath      string
	fs            FileSystem
	resolver      *Resolver
	codec         codec.Codec
	logger        Logger
	clock         Clock
	observer      LabelObserver
}

// NewRepository creates a Repository for the workspace at workspaceRoot.
// The workspace must be an existing directory; the archive root is created and hidden.
// observer may be nil.
func NewRepository(workspaceRoot string, fsys FileSystem, c codec.Codec, logger Logger, clock Clock, observer LabelObserver) (*Repository, error) {
	if workspaceRoot == "" {
		return nil, fmt.Errorf("%w: workspace root", ErrMissingArgument)
	}
	root, err := NormalizePath(workspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}
	if !fsys.IsDir(root) {
		return nil, fmt.Errorf("%w: workspace %s is not a directory", ErrInvalidPath, root)
	}

	rootPath, err := RootRepositoryPath(root)
	if err != nil {
		return nil, err
	}
	if err := fsys.MkdirAll(rootPath); err != nil {
		return nil, fmt.Errorf("creating archive root: %w", err)
	}
	if err := fsys.Hide(rootPath); err != nil {
		logger.Warn("could not hide archive root", "path", rootPath, "error", err)
	}

	return &Repository{
		workspaceRoot: root,
		rootPath:      rootPath,
		fs:            fsys,
		resolver:      NewResolver(fsys, c),
		codec:         c,
		logger:        logger,
		clock:         clock,
		observer:      observer,
	}, nil
}

// WorkspaceRoot returns the normalized workspace root.
func (r *Repository) WorkspaceRoot() string { return r.workspaceRoot }

// RootPath returns the archive root, <workspace>/.localhistory.
func (r *Repository) RootPath() string { return r.rootPath }

func (r *Repository) nodeOptions(label string) []NodeOption {
	return []NodeOption{
		WithLabel(label),
		WithCodec(r.codec),
		WithFileSystem(r.fs),
		WithLabelObserver(r.observer),
	}
}

// CreateRevision copies filePath into the archive as a revision captured now.
// It never fails the caller: any problem is logged and nil is returned.
func (r *Repository) CreateRevision(filePath string) *DocumentNode {
	if strings.TrimSpace(filePath) == "" {
		return nil
	}

	path, err := NormalizePath(filePath)
	if err != nil {
		r.logger.Error("revision not created", "path", filePath, "error", err)
		return nil
	}

	node, err := r.CreateRevisionNode(path, r.clock.Now())
	if err != nil {
		r.logger.Error("revision not created", "path", path, "error", err)
		return nil
	}
	if node == nil {
		return nil
	}

	if err := r.fs.MkdirAll(node.ArchiveDirectory()); err != nil {
		r.logger.Error("creating archive directory", "path", node.ArchiveDirectory(), "error", err)
		return nil
	}
	if err := r.fs.CopyFile(path, node.ArchiveFullPath()); err != nil {
		r.logger.Error("copying revision", "path", path, "archive", node.ArchiveFullPath(), "error", err)
		return nil
	}

	r.logger.Info("revision created", "path", path, "archive", node.ArchiveFullPath())
	return node
}

// CreateRevisionNode builds the node for a revision of filePath captured at t
// without touching the disk. It returns nil for an empty path.
func (r *Repository) CreateRevisionNode(filePath string, t time.Time) (*DocumentNode, error) {
	if filePath == "" {
		return nil, nil
	}

	archiveDir, err := RepositoryPathForFile(filePath, r.workspaceRoot)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("archive directory resolved", "path", filePath, "archive_dir", archiveDir)

	return NewDocumentNode(archiveDir, filepath.Dir(filePath), filepath.Base(filePath), t, r.nodeOptions("")...)
}

// CreateDocumentNodeForArchivePath rebuilds the node for an existing archive file.
// It returns nil, after logging, when the name cannot be decoded or the original
// file cannot be found under either layout.
func (r *Repository) CreateDocumentNodeForArchivePath(archiveFilePath string) *DocumentNode {
	node, err := r.documentNodeForArchivePath(archiveFilePath)
	if err != nil {
		r.logger.Warn("skipping archive", "archive", archiveFilePath, "error", err)
		return nil
	}
	return node
}

func (r *Repository) documentNodeForArchivePath(archiveFilePath string) (*DocumentNode, error) {
	path, err := NormalizePath(archiveFilePath)
	if err != nil {
		return nil, err
	}

	rec, err := r.resolver.ReconstructOriginalPath(path, r.workspaceRoot)
	if err != nil {
		return nil, err
	}
	if rec.Layout == LayoutLegacy {
		r.logger.Debug("original resolved with legacy layout", "archive", path, "original", rec.OriginalFullPath())
	}

	return NewDocumentNodeFromUnix(
		filepath.Dir(path),
		rec.OriginalDirectory,
		rec.Fields.FileName,
		rec.Fields.Timestamp,
		r.nodeOptions(rec.Fields.Label)...,
	)
}

// candidateDirectories returns the current-layout archive directory for filePath
// and, for files inside the workspace, the legacy one.
func (r *Repository) candidateDirectories(filePath string) []string {
	var dirs []string
	if current, err := RepositoryPathForFile(filePath, r.workspaceRoot); err == nil {
		dirs = append(dirs, current)
	}
	if rel, ok := trimPathPrefix(filepath.Dir(filePath), r.workspaceRoot); ok {
		legacy := filepath.Join(r.rootPath, rel)
		if len(dirs) == 0 || !pathsEqual(filepath.Clean(dirs[0]), legacy) {
			dirs = append(dirs, legacy)
		}
	}
	return dirs
}

// GetRevisions returns every reconstructable revision of filePath, newest first.
// Entries that cannot be decoded or whose original is gone are skipped.
func (r *Repository) GetRevisions(filePath string) []*DocumentNode {
	revisions := []*DocumentNode{}
	if strings.TrimSpace(filePath) == "" {
		r.logger.Debug("empty path, no revisions")
		return revisions
	}

	path, err := NormalizePath(filePath)
	if err != nil {
		r.logger.Warn("listing revisions", "path", filePath, "error", err)
		return revisions
	}
	fileName := filepath.Base(path)

	seen := make(map[string]bool)
	var archives []string
	for _, dir := range r.candidateDirectories(path) {
		if !r.fs.IsDir(dir) {
			continue
		}
		r.logger.Debug("searching for revisions", "file", fileName, "dir", dir)
		files, err := r.fs.ListFiles(dir)
		if err != nil {
			r.logger.Warn("listing archive directory", "dir", dir, "error", err)
			continue
		}
		for _, f := range files {
			if !seen[f] {
				seen[f] = true
				archives = append(archives, f)
			}
		}
	}

	for _, archive := range archives {
		fields, err := r.codec.Decode(filepath.Base(archive))
		if err != nil {
			r.logger.Debug("ignoring undecodable archive", "archive", archive, "error", err)
			continue
		}
		// Save hooks may report the file name in a different case.
		if !strings.EqualFold(fields.FileName, fileName) {
			continue
		}
		node := r.CreateDocumentNodeForArchivePath(archive)
		if node == nil {
			continue
		}
		revisions = append(revisions, node)
	}

	sort.SliceStable(revisions, func(i, j int) bool {
		return revisions[i].Time().After(revisions[j].Time())
	})
	return revisions
}

// FindRevision returns the revision of filePath captured at when, given either as
// unix seconds or in DisplayLayout.
func (r *Repository) FindRevision(filePath, when string) (*DocumentNode, error) {
	when = strings.TrimSpace(when)
	if when == "" {
		return nil, fmt.Errorf("%w: revision time", ErrMissingArgument)
	}
	for _, node := range r.GetRevisions(filePath) {
		if node.UnixTime() == when || node.DisplayTimestamp() == when {
			return node, nil
		}
	}
	return nil, fmt.Errorf("%w: %s at %s", ErrRevisionNotFound, filePath, when)
}
