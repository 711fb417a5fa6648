package lh_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lh-go/internal/codec"
	"lh-go/internal/fs"
	"lh-go/internal/lh"
	"lh-go/internal/testutil"
)

type repoFixture struct {
	ws       string
	repo     *lh.Repository
	clock    *testutil.StubClock
	logger   *testutil.RecordingLogger
	observer *testutil.RecordingObserver
}

func newRepoFixture(t *testing.T) *repoFixture {
	t.Helper()
	f := &repoFixture{
		ws:       t.TempDir(),
		clock:    testutil.FixedClock(),
		logger:   testutil.NewRecordingLogger(),
		observer: testutil.NewRecordingObserver(),
	}
	repo, err := lh.NewRepository(f.ws, fs.NewOSFileSystem(), codec.Default, f.logger, f.clock, f.observer)
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	f.repo = repo
	return f
}

func (f *repoFixture) writeFile(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(f.ws, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(b)
}

func TestNewRepository(t *testing.T) {
	t.Run("creates archive root", func(t *testing.T) {
		f := newRepoFixture(t)
		want := filepath.Join(f.ws, ".localhistory")
		if f.repo.RootPath() != want {
			t.Errorf("RootPath() = %s, want %s", f.repo.RootPath(), want)
		}
		if info, err := os.Stat(want); err != nil || !info.IsDir() {
			t.Errorf("archive root not created: %v", err)
		}
	})

	t.Run("missing workspace", func(t *testing.T) {
		_, err := lh.NewRepository("", testutil.NewMockFileSystem(), codec.Default, lh.NewNopLogger(), testutil.FixedClock(), nil)
		if !errors.Is(err, lh.ErrMissingArgument) {
			t.Errorf("error = %v, want ErrMissingArgument", err)
		}
	})

	t.Run("workspace is not a directory", func(t *testing.T) {
		_, err := lh.NewRepository(filepath.Join(t.TempDir(), "nope"), testutil.NewMockFileSystem(), codec.Default, lh.NewNopLogger(), testutil.FixedClock(), nil)
		if !errors.Is(err, lh.ErrInvalidPath) {
			t.Errorf("error = %v, want ErrInvalidPath", err)
		}
	})

	t.Run("hide failure is only a warning", func(t *testing.T) {
		ws := t.TempDir()
		fsys := testutil.NewMockFileSystem()
		fsys.AddDirectory(ws)
		fsys.HideErr = errors.New("attributes unsupported")
		logger := testutil.NewRecordingLogger()

		if _, err := lh.NewRepository(ws, fsys, codec.Default, logger, testutil.FixedClock(), nil); err != nil {
			t.Fatalf("NewRepository() error = %v", err)
		}
		if !logger.Contains("WARN", "could not hide") {
			t.Errorf("expected warning, got %v", logger.Entries())
		}
	})

	t.Run("hides archive root", func(t *testing.T) {
		ws := t.TempDir()
		fsys := testutil.NewMockFileSystem()
		fsys.AddDirectory(ws)
		repo, err := lh.NewRepository(ws, fsys, codec.Default, lh.NewNopLogger(), testutil.FixedClock(), nil)
		if err != nil {
			t.Fatalf("NewRepository() error = %v", err)
		}
		if !fsys.IsHidden(repo.RootPath()) {
			t.Error("archive root is not hidden")
		}
	})
}

func TestRepository_CreateRevision(t *testing.T) {
	f := newRepoFixture(t)
	file := f.writeFile(t, filepath.Join("src", "a.txt"), "v1")

	node := f.repo.CreateRevision(file)
	if node == nil {
		t.Fatalf("CreateRevision() = nil, log: %v", f.logger.Entries())
	}

	wantDir, err := lh.RepositoryPathForFile(file, f.ws)
	if err != nil {
		t.Fatalf("RepositoryPathForFile() error = %v", err)
	}
	if node.ArchiveDirectory() != wantDir {
		t.Errorf("ArchiveDirectory() = %s, want %s", node.ArchiveDirectory(), wantDir)
	}
	if node.ArchiveFileName() != testutil.ArchiveName("a.txt", "") {
		t.Errorf("ArchiveFileName() = %s", node.ArchiveFileName())
	}
	if node.OriginalFullPath() != file {
		t.Errorf("OriginalFullPath() = %s, want %s", node.OriginalFullPath(), file)
	}
	if got := readFile(t, node.ArchiveFullPath()); got != "v1" {
		t.Errorf("archive content = %q", got)
	}
	if !f.logger.Contains("INFO", "revision created") {
		t.Error("expected info log")
	}
}

func TestRepository_CreateRevision_Failures(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		f := newRepoFixture(t)
		if n := f.repo.CreateRevision("  "); n != nil {
			t.Errorf("CreateRevision() = %v, want nil", n)
		}
	})

	t.Run("invalid path", func(t *testing.T) {
		f := newRepoFixture(t)
		if n := f.repo.CreateRevision("a|b.txt"); n != nil {
			t.Errorf("CreateRevision() = %v, want nil", n)
		}
		if !f.logger.Contains("ERROR", "revision not created") {
			t.Errorf("expected error log, got %v", f.logger.Entries())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		f := newRepoFixture(t)
		if n := f.repo.CreateRevision(filepath.Join(f.ws, "missing.txt")); n != nil {
			t.Errorf("CreateRevision() = %v, want nil", n)
		}
		if !f.logger.Contains("ERROR", "copying revision") {
			t.Errorf("expected copy error, got %v", f.logger.Entries())
		}
	})

	t.Run("copy failure", func(t *testing.T) {
		ws := t.TempDir()
		fsys := testutil.NewMockFileSystem()
		fsys.AddDirectory(ws)
		fsys.AddFile(filepath.Join(ws, "a.txt"), []byte("x"))
		fsys.CopyErr = errors.New("disk full")
		logger := testutil.NewRecordingLogger()
		repo, err := lh.NewRepository(ws, fsys, codec.Default, logger, testutil.FixedClock(), nil)
		if err != nil {
			t.Fatalf("NewRepository() error = %v", err)
		}

		if n := repo.CreateRevision(filepath.Join(ws, "a.txt")); n != nil {
			t.Errorf("CreateRevision() = %v, want nil", n)
		}
		if !logger.Contains("ERROR", "copying revision") {
			t.Errorf("expected copy error, got %v", logger.Entries())
		}
	})
}

func TestRepository_CreateRevisionNode(t *testing.T) {
	f := newRepoFixture(t)

	n, err := f.repo.CreateRevisionNode("", time.Now())
	if n != nil || err != nil {
		t.Errorf("CreateRevisionNode(\"\") = %v, %v", n, err)
	}

	file := filepath.Join(f.ws, "never-written.txt")
	n, err = f.repo.CreateRevisionNode(file, time.Unix(1572363632, 0))
	if err != nil {
		t.Fatalf("CreateRevisionNode() error = %v", err)
	}
	if _, statErr := os.Stat(n.ArchiveFullPath()); !os.IsNotExist(statErr) {
		t.Error("CreateRevisionNode must not write the archive")
	}
}

func TestRepository_GetRevisions(t *testing.T) {
	f := newRepoFixture(t)
	file := f.writeFile(t, filepath.Join("src", "a.txt"), "v1")

	first := f.repo.CreateRevision(file)
	f.clock.Advance(time.Minute)
	f.writeFile(t, filepath.Join("src", "a.txt"), "v2")
	second := f.repo.CreateRevision(file)
	if first == nil || second == nil {
		t.Fatalf("CreateRevision() failed: %v", f.logger.Entries())
	}

	// Noise in the archive directory.
	other := f.writeFile(t, filepath.Join("src", "b.txt"), "b")
	f.repo.CreateRevision(other)
	if err := os.WriteFile(filepath.Join(first.ArchiveDirectory(), "junk"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	revs := f.repo.GetRevisions(file)
	if len(revs) != 2 {
		t.Fatalf("GetRevisions() returned %d revisions, want 2", len(revs))
	}
	if !revs[0].Equal(second) || !revs[1].Equal(first) {
		t.Errorf("revisions not newest first: %v", revs)
	}
	if got := readFile(t, revs[1].ArchiveFullPath()); got != "v1" {
		t.Errorf("oldest revision content = %q", got)
	}
	if got := readFile(t, revs[0].ArchiveFullPath()); got != "v2" {
		t.Errorf("newest revision content = %q", got)
	}
}

func TestRepository_GetRevisions_Empty(t *testing.T) {
	f := newRepoFixture(t)
	if revs := f.repo.GetRevisions(""); revs == nil || len(revs) != 0 {
		t.Errorf("GetRevisions(\"\") = %v, want empty non-nil", revs)
	}
	if revs := f.repo.GetRevisions(filepath.Join(f.ws, "nothing.txt")); len(revs) != 0 {
		t.Errorf("GetRevisions() = %v, want empty", revs)
	}
}

func TestRepository_GetRevisions_SkipsDeletedOriginal(t *testing.T) {
	f := newRepoFixture(t)
	file := f.writeFile(t, "gone.txt", "x")
	if f.repo.CreateRevision(file) == nil {
		t.Fatal("CreateRevision() = nil")
	}
	if err := os.Remove(file); err != nil {
		t.Fatal(err)
	}

	if revs := f.repo.GetRevisions(file); len(revs) != 0 {
		t.Errorf("GetRevisions() = %v, want empty", revs)
	}
	if !f.logger.Contains("WARN", "skipping archive") {
		t.Errorf("expected skip warning, got %v", f.logger.Entries())
	}
}

func TestRepository_GetRevisions_LegacyLayout(t *testing.T) {
	f := newRepoFixture(t)
	file := f.writeFile(t, filepath.Join("src", "a.txt"), "current")
	legacyDir := filepath.Join(f.repo.RootPath(), "src")
	f.writeFile(t, filepath.Join(".localhistory", "src", "1500000000$a.txt$old"), "legacy")

	f.clock.Advance(time.Hour)
	current := f.repo.CreateRevision(file)
	if current == nil {
		t.Fatal("CreateRevision() = nil")
	}

	revs := f.repo.GetRevisions(file)
	if len(revs) != 2 {
		t.Fatalf("GetRevisions() returned %d revisions, want 2", len(revs))
	}
	if !revs[0].Equal(current) {
		t.Errorf("newest = %v, want %v", revs[0], current)
	}
	legacy := revs[1]
	if legacy.ArchiveDirectory() != legacyDir {
		t.Errorf("legacy ArchiveDirectory() = %s, want %s", legacy.ArchiveDirectory(), legacyDir)
	}
	if legacy.OriginalFullPath() != file || legacy.Label() != "old" {
		t.Errorf("legacy node = %s label %q", legacy.OriginalFullPath(), legacy.Label())
	}

	if err := legacy.RemoveLabel(); err != nil {
		t.Fatalf("RemoveLabel() error = %v", err)
	}
	if got := readFile(t, filepath.Join(legacyDir, "1500000000$a.txt")); got != "legacy" {
		t.Errorf("renamed legacy archive content = %q", got)
	}
}

func TestRepository_Labels(t *testing.T) {
	f := newRepoFixture(t)
	file := f.writeFile(t, "notes.md", "hello")
	if f.repo.CreateRevision(file) == nil {
		t.Fatal("CreateRevision() = nil")
	}

	rev := f.repo.GetRevisions(file)[0]
	if err := rev.AddLabel("before refactor"); err != nil {
		t.Fatalf("AddLabel() error = %v", err)
	}

	revs := f.repo.GetRevisions(file)
	if len(revs) != 1 || revs[0].Label() != "before refactor" {
		t.Fatalf("GetRevisions() after label = %v", revs)
	}
	if got := readFile(t, revs[0].ArchiveFullPath()); got != "hello" {
		t.Errorf("labelled archive content = %q", got)
	}

	if err := revs[0].RemoveLabel(); err != nil {
		t.Fatalf("RemoveLabel() error = %v", err)
	}
	revs = f.repo.GetRevisions(file)
	if len(revs) != 1 || revs[0].HasLabel() {
		t.Fatalf("GetRevisions() after unlabel = %v", revs)
	}

	changes := f.observer.Changes()
	if len(changes) != 2 || changes[0].NewLabel != "before refactor" || changes[1].OldLabel != "before refactor" {
		t.Errorf("observer changes = %+v", changes)
	}
}

func TestRepository_SeparatorInNames(t *testing.T) {
	f := newRepoFixture(t)
	file := f.writeFile(t, filepath.Join("src", "$notes.txt"), "hello")

	node := f.repo.CreateRevision(file)
	if node == nil {
		t.Fatalf("CreateRevision() = nil: %v", f.logger.Entries())
	}
	if got := filepath.Base(node.ArchiveFullPath()); got != "1572363632$$$notes.txt" {
		t.Errorf("archive name = %s", got)
	}

	revs := f.repo.GetRevisions(file)
	if len(revs) != 1 || revs[0].OriginalFileName() != "$notes.txt" {
		t.Fatalf("GetRevisions() = %v, want the $notes.txt revision", revs)
	}

	if err := revs[0].AddLabel("$draft"); !errors.Is(err, lh.ErrInvalidFileName) {
		t.Errorf("AddLabel($draft) error = %v, want ErrInvalidFileName", err)
	}
	if err := revs[0].AddLabel("draft$1"); err != nil {
		t.Fatalf("AddLabel(draft$1) error = %v", err)
	}

	revs = f.repo.GetRevisions(file)
	if len(revs) != 1 || revs[0].Label() != "draft$1" {
		t.Fatalf("GetRevisions() after label = %v", revs)
	}
	if got := readFile(t, revs[0].ArchiveFullPath()); got != "hello" {
		t.Errorf("labelled archive content = %q", got)
	}
}

func TestRepository_FindRevision(t *testing.T) {
	f := newRepoFixture(t)
	file := f.writeFile(t, "a.txt", "x")
	created := f.repo.CreateRevision(file)
	if created == nil {
		t.Fatal("CreateRevision() = nil")
	}

	for _, when := range []string{f.clock.UnixText(), created.DisplayTimestamp()} {
		got, err := f.repo.FindRevision(file, when)
		if err != nil {
			t.Fatalf("FindRevision(%q) error = %v", when, err)
		}
		if !got.Equal(created) {
			t.Errorf("FindRevision(%q) = %v", when, got)
		}
	}

	if _, err := f.repo.FindRevision(file, "1"); !errors.Is(err, lh.ErrRevisionNotFound) {
		t.Errorf("error = %v, want ErrRevisionNotFound", err)
	}
	if _, err := f.repo.FindRevision(file, " "); !errors.Is(err, lh.ErrMissingArgument) {
		t.Errorf("error = %v, want ErrMissingArgument", err)
	}
}

func TestRepository_CreateDocumentNodeForArchivePath(t *testing.T) {
	f := newRepoFixture(t)
	file := f.writeFile(t, "a.txt", "x")
	created := f.repo.CreateRevision(file)
	if created == nil {
		t.Fatal("CreateRevision() = nil")
	}

	n := f.repo.CreateDocumentNodeForArchivePath(created.ArchiveFullPath())
	if n == nil || !n.Equal(created) {
		t.Errorf("CreateDocumentNodeForArchivePath() = %v, want %v", n, created)
	}

	if n := f.repo.CreateDocumentNodeForArchivePath(filepath.Join(f.repo.RootPath(), "not-an-archive")); n != nil {
		t.Errorf("expected nil for malformed name, got %v", n)
	}
}
