package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lh-go/internal/app"
	"lh-go/internal/config"
	"lh-go/internal/journal"
	"lh-go/internal/lh"
	"lh-go/internal/testutil"
)

func newTestApp(t *testing.T, command string) (*app.LHApp, *config.Config) {
	t.Helper()
	ws := t.TempDir()
	base := t.TempDir()
	cfg := config.NewConfig(ws, base)
	cfg.Journal = config.JournalConfig{Type: "memory"}
	cfg.Watch.DebounceMS = 20

	a, err := app.NewLHApp(cfg, command,
		app.WithClock(testutil.FixedClock()),
		app.WithIDGenerator(testutil.NewStubIDGenerator()),
		app.WithConsole(nil),
	)
	if err != nil {
		t.Fatalf("NewLHApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, cfg
}

func writeWorkspaceFile(t *testing.T, a *app.LHApp, rel, content string) string {
	t.Helper()
	path := filepath.Join(a.Workspace(), rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLHApp_SaveAndLabel(t *testing.T) {
	ctx := context.Background()
	a, cfg := newTestApp(t, "save")
	file := writeWorkspaceFile(t, a, filepath.Join("docs", "plan.md"), "draft")

	node, err := a.SaveRevision(ctx, file)
	if err != nil {
		t.Fatalf("SaveRevision() error = %v", err)
	}
	if node.UnixTime() != "1572363632" {
		t.Errorf("UnixTime() = %s", node.UnixTime())
	}

	revs := a.Revisions(file)
	if len(revs) != 1 || !revs[0].Equal(node) {
		t.Fatalf("Revisions() = %v", revs)
	}

	labelled, err := a.AddLabel(file, "1572363632", "v1")
	if err != nil {
		t.Fatalf("AddLabel() error = %v", err)
	}
	if labelled.Label() != "v1" || !strings.HasSuffix(labelled.ArchiveFullPath(), testutil.ArchiveName("plan.md", "v1")) {
		t.Errorf("labelled = %s", labelled)
	}

	if _, err := a.RemoveLabel(file, labelled.DisplayTimestamp()); err != nil {
		t.Fatalf("RemoveLabel() error = %v", err)
	}

	events, err := a.History(ctx, file, 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	wantKinds := []journal.Kind{journal.KindLabelRemoved, journal.KindLabelAdded, journal.KindRevisionCreated}
	if len(events) != len(wantKinds) {
		t.Fatalf("History() returned %d events, want %d: %+v", len(events), len(wantKinds), events)
	}
	for i, k := range wantKinds {
		if events[i].Kind != k {
			t.Errorf("events[%d].Kind = %s, want %s", i, events[i].Kind, k)
		}
		if events[i].OriginalPath != file {
			t.Errorf("events[%d].OriginalPath = %s", i, events[i].OriginalPath)
		}
	}

	data, err := os.ReadFile(filepath.Join(cfg.LogDir, app.LogFileName))
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "revision created") {
		t.Errorf("log does not mention the revision: %q", data)
	}
}

func TestLHApp_Errors(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, "save")

	if _, err := a.SaveRevision(ctx, filepath.Join(a.Workspace(), "missing.txt")); err == nil {
		t.Error("SaveRevision() expected error for missing file")
	}

	file := writeWorkspaceFile(t, a, "a.txt", "x")
	if _, err := a.AddLabel(file, "1", "v1"); !errors.Is(err, lh.ErrRevisionNotFound) {
		t.Errorf("AddLabel() error = %v, want ErrRevisionNotFound", err)
	}
	if _, err := a.RemoveLabel(file, ""); !errors.Is(err, lh.ErrMissingArgument) {
		t.Errorf("RemoveLabel() error = %v, want ErrMissingArgument", err)
	}
}

func TestNewLHApp_InvalidConfig(t *testing.T) {
	ws := t.TempDir()
	cfg := config.NewConfig(ws, t.TempDir())
	cfg.Separator = "::"

	if _, err := app.NewLHApp(cfg, "save", app.WithConsole(nil)); err == nil {
		t.Error("NewLHApp() expected error for invalid separator")
	}

	cfg = config.NewConfig(filepath.Join(ws, "missing"), t.TempDir())
	cfg.Journal = config.JournalConfig{Type: "none"}
	if _, err := app.NewLHApp(cfg, "save", app.WithConsole(nil)); !errors.Is(err, lh.ErrInvalidPath) {
		t.Errorf("NewLHApp() error = %v, want ErrInvalidPath", err)
	}
}

func TestNewLHApp_CustomSeparator(t *testing.T) {
	ws := t.TempDir()
	cfg := config.NewConfig(ws, t.TempDir())
	cfg.Separator = "#"
	cfg.Journal = config.JournalConfig{Type: "none"}

	a, err := app.NewLHApp(cfg, "save", app.WithConsole(nil), app.WithClock(testutil.FixedClock()))
	if err != nil {
		t.Fatalf("NewLHApp() error = %v", err)
	}
	defer a.Close()

	file := writeWorkspaceFile(t, a, "a#b.txt", "x")
	node, err := a.SaveRevision(context.Background(), file)
	if err != nil {
		t.Fatalf("SaveRevision() error = %v", err)
	}
	if node.ArchiveFileName() != "1572363632#a##b.txt" {
		t.Errorf("ArchiveFileName() = %s", node.ArchiveFileName())
	}
	if revs := a.Revisions(file); len(revs) != 1 {
		t.Errorf("Revisions() = %v", revs)
	}
}

func TestLHApp_Watch(t *testing.T) {
	a, _ := newTestApp(t, "watch")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx) }()

	// Give the watcher time to register the workspace.
	time.Sleep(100 * time.Millisecond)
	file := writeWorkspaceFile(t, a, "watched.txt", "hello")

	deadline := time.Now().Add(5 * time.Second)
	for len(a.Revisions(file)) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for watched revision")
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch() did not stop")
	}
}
