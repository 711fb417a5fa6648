//go:build windows

package lh_test

import (
	"errors"
	"testing"

	"lh-go/internal/codec"
	"lh-go/internal/lh"
	"lh-go/internal/testutil"
)

func TestRepositoryPathForFile_Windows(t *testing.T) {
	tests := []struct {
		filePath string
		want     string
	}{
		{`C:\file.txt`, `C:\dir\solution\.localhistory\C_\`},
		{`C:\src\a.txt`, `C:\dir\solution\.localhistory\C_\src`},
		{`d:\work\deep\b.cs`, `C:\dir\solution\.localhistory\d_\work\deep`},
		{`folder\file.txt`, `C:\dir\solution\.localhistory\folder`},
		{`file.txt`, `C:\dir\solution\.localhistory`},
	}

	for _, tt := range tests {
		t.Run(tt.filePath, func(t *testing.T) {
			got, err := lh.RepositoryPathForFile(tt.filePath, `C:\dir\solution`)
			if err != nil {
				t.Fatalf("RepositoryPathForFile() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RepositoryPathForFile(%q) = %s, want %s", tt.filePath, got, tt.want)
			}
		})
	}
}

func TestResolver_ReconstructOriginalPath_Windows(t *testing.T) {
	fsys := testutil.NewMockFileSystem()
	fsys.AddFile(`C:\proj\src\a.txt`, []byte("x"))
	fsys.AddFile(`C:\ws\legacy\b.txt`, []byte("x"))
	r := lh.NewResolver(fsys, codec.Default)

	rec, err := r.ReconstructOriginalPath(`C:\ws\.localhistory\C_\proj\src\1572363632$a.txt`, `C:\ws`)
	if err != nil {
		t.Fatalf("current layout: %v", err)
	}
	if rec.OriginalDirectory != `C:\proj\src` || rec.Layout != lh.LayoutCurrent {
		t.Errorf("current layout = %s (%s)", rec.OriginalDirectory, rec.Layout)
	}

	rec, err = r.ReconstructOriginalPath(`C:\ws\.localhistory\legacy\1572363632$b.txt`, `C:\ws`)
	if err != nil {
		t.Fatalf("legacy layout: %v", err)
	}
	if rec.OriginalDirectory != `C:\ws\legacy` || rec.Layout != lh.LayoutLegacy {
		t.Errorf("legacy layout = %s (%s)", rec.OriginalDirectory, rec.Layout)
	}

	_, err = r.ReconstructOriginalPath(`C:\ws\.localhistory\Z_\nope\1572363632$a.txt`, `C:\ws`)
	if !errors.Is(err, lh.ErrOriginalNotFound) {
		t.Errorf("missing drive error = %v, want ErrOriginalNotFound", err)
	}
}
