package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"lh-go/internal/codec"
	"lh-go/internal/config"
	"lh-go/internal/fs"
	"lh-go/internal/journal"
	"lh-go/internal/lh"
	"lh-go/internal/watch"
)

// LHApp is the application layer between the CLI and the revision repository.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and records activity in the journal.
type LHApp struct {
	cfg     *config.Config
	repo    *lh.Repository
	journal journal.Journal
	logger  lh.Logger
	session *Session
	logFile *os.File
}

type options struct {
	workspace string
	clock     lh.Clock
	ids       lh.IDGenerator
	console   io.Writer
}

// Option configures NewLHApp.
type Option func(*options)

// WithWorkspace overrides the configured workspace root.
func WithWorkspace(path string) Option {
	return func(o *options) { o.workspace = path }
}

// WithClock sets the clock used for revision and journal timestamps.
func WithClock(c lh.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithIDGenerator sets the journal event ID source.
func WithIDGenerator(g lh.IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithConsole sets where log lines are mirrored besides the log file. nil disables mirroring.
func WithConsole(w io.Writer) Option {
	return func(o *options) { o.console = w }
}

// NewLHApp creates a fully wired LHApp from the given config.
// command identifies the CLI command being run (e.g. "save", "watch").
// The caller must call Close when done.
func NewLHApp(cfg *config.Config, command string, opts ...Option) (*LHApp, error) {
	o := options{
		workspace: cfg.WorkspaceRoot,
		clock:     lh.RealClock{},
		ids:       lh.UUIDGenerator{},
		console:   os.Stderr,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if o.workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determining workspace: %w", err)
		}
		o.workspace = wd
	}

	sep, err := cfg.SeparatorRune()
	if err != nil {
		return nil, err
	}
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	session := NewSession(command, o.clock.Now())
	slogger, logFile, err := newLogger(cfg.LogDir, session.ID, level, o.console)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	j, err := journal.NewJournalFromConfig(cfg.Journal, o.clock, o.ids)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating journal: %w", err)
	}

	a := &LHApp{
		cfg:     cfg,
		journal: j,
		logger:  logger,
		session: session,
		logFile: logFile,
	}

	repo, err := lh.NewRepository(o.workspace, fs.NewOSFileSystem(), codec.New(sep), logger, o.clock, a)
	if err != nil {
		j.Close()
		logFile.Close()
		return nil, fmt.Errorf("opening repository: %w", err)
	}
	a.repo = repo

	logger.Debug("session started", "command", command, "workspace", repo.WorkspaceRoot())
	return a, nil
}

// Workspace returns the normalized workspace root.
func (a *LHApp) Workspace() string { return a.repo.WorkspaceRoot() }

// Repository exposes the underlying repository.
func (a *LHApp) Repository() *lh.Repository { return a.repo }

// SaveRevision archives the current content of rawPath and journals it.
func (a *LHApp) SaveRevision(ctx context.Context, rawPath string) (*lh.DocumentNode, error) {
	node := a.repo.CreateRevision(rawPath)
	if node == nil {
		return nil, fmt.Errorf("no revision created for %s (see %s)", rawPath, LogFileName)
	}
	if err := a.journal.Record(ctx, journal.RevisionEvent(node)); err != nil {
		a.logger.Warn("journal record failed", "error", err)
	}
	return node, nil
}

// Revisions returns the revisions of rawPath, newest first.
func (a *LHApp) Revisions(rawPath string) []*lh.DocumentNode {
	return a.repo.GetRevisions(rawPath)
}

// AddLabel labels the revision of rawPath captured at when (unix seconds or display timestamp).
func (a *LHApp) AddLabel(rawPath, when, label string) (*lh.DocumentNode, error) {
	node, err := a.repo.FindRevision(rawPath, when)
	if err != nil {
		return nil, err
	}
	if err := node.AddLabel(label); err != nil {
		return nil, fmt.Errorf("labelling %s: %w", node, err)
	}
	return node, nil
}

// RemoveLabel strips the label from the revision of rawPath captured at when.
func (a *LHApp) RemoveLabel(rawPath, when string) (*lh.DocumentNode, error) {
	node, err := a.repo.FindRevision(rawPath, when)
	if err != nil {
		return nil, err
	}
	if err := node.RemoveLabel(); err != nil {
		return nil, fmt.Errorf("removing label from %s: %w", node, err)
	}
	return node, nil
}

// History returns journal events, newest first. rawPath may be empty for all files.
func (a *LHApp) History(ctx context.Context, rawPath string, limit int) ([]journal.Event, error) {
	f := journal.Filter{Limit: limit}
	if rawPath != "" {
		p, err := lh.NormalizePath(rawPath)
		if err != nil {
			return nil, err
		}
		f.OriginalPath = p
	}
	return a.journal.List(ctx, f)
}

// Watch archives every settled write inside the workspace until ctx is done.
func (a *LHApp) Watch(ctx context.Context) error {
	ignore, err := fs.LoadIgnoreMatcher(a.Workspace(), a.cfg.Watch.Ignore)
	if err != nil {
		return fmt.Errorf("loading ignore patterns: %w", err)
	}

	debounce := time.Duration(a.cfg.Watch.DebounceMS) * time.Millisecond
	w, err := watch.New(a.Workspace(), ignore, debounce, a.logger)
	if err != nil {
		return err
	}

	a.logger.Info("watching workspace", "workspace", a.Workspace(), "debounce", debounce)
	return w.Run(ctx, func(path string) {
		if _, err := a.SaveRevision(ctx, path); err != nil {
			a.logger.Debug("save skipped", "path", path, "error", err)
		}
	})
}

// LabelChanged journals committed label changes.
func (a *LHApp) LabelChanged(change lh.LabelChange) {
	if err := a.journal.Record(context.Background(), journal.LabelEvent(change)); err != nil {
		a.logger.Warn("journal record failed", "error", err)
	}
}

// Close closes the journal and the log file.
func (a *LHApp) Close() error {
	var errs []error
	if err := a.journal.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing journal: %w", err))
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing log file: %w", err))
		}
	}
	return errors.Join(errs...)
}

var _ lh.LabelObserver = (*LHApp)(nil)
