package journal

import (
	"fmt"
	"os"
	"path/filepath"

	"lh-go/internal/config"
	"lh-go/internal/lh"
)

// FileName is the journal database file inside journal.data_dir.
const FileName = "journal.db"

// NewJournalFromConfig creates a Journal implementation based on the journal config type.
// An empty type means sqlite.
func NewJournalFromConfig(cfg config.JournalConfig, clock lh.Clock, ids lh.IDGenerator) (Journal, error) {
	switch cfg.Type {
	case "sqlite", "":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite journal")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
		return openSQLite(filepath.Join(cfg.DataDir, FileName), clock, ids)
	case "memory":
		return openSQLite(":memory:", clock, ids)
	case "none":
		return NopJournal{}, nil
	default:
		return nil, fmt.Errorf("unknown journal type: %s", cfg.Type)
	}
}

// openSQLite keeps a failed open from becoming a non-nil Journal.
func openSQLite(path string, clock lh.Clock, ids lh.IDGenerator) (Journal, error) {
	j, err := NewSQLiteJournal(path, clock, ids)
	if err != nil {
		return nil, err
	}
	return j, nil
}
