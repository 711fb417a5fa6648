// Package journal records what the local history did: every archived revision
// and every label change, so `lh history` can show activity across files.
package journal

import (
	"context"
	"time"

	"lh-go/internal/lh"
)

// Kind is the type of a journal event.
type Kind string

const (
	KindRevisionCreated Kind = "revision_created"
	KindLabelAdded      Kind = "label_added"
	KindLabelRemoved    Kind = "label_removed"
)

// Event is one recorded action.
type Event struct {
	ID           string
	Kind         Kind
	OriginalPath string
	ArchivePath  string
	Label        string
	CreatedAt    time.Time
}

// Filter narrows List results. Zero values mean no restriction.
type Filter struct {
	OriginalPath string
	Limit        int
}

// Journal stores events.
type Journal interface {
	// Record stores an event, assigning ID and CreatedAt when they are empty.
	Record(ctx context.Context, e Event) error

	// List returns matching events, newest first.
	List(ctx context.Context, f Filter) ([]Event, error)

	Close() error
}

// RevisionEvent describes the archiving of node.
func RevisionEvent(node *lh.DocumentNode) Event {
	return Event{
		Kind:         KindRevisionCreated,
		OriginalPath: node.OriginalFullPath(),
		ArchivePath:  node.ArchiveFullPath(),
		Label:        node.Label(),
	}
}

// LabelEvent describes a committed label change.
func LabelEvent(change lh.LabelChange) Event {
	e := Event{
		Kind:         KindLabelAdded,
		OriginalPath: change.Node.OriginalFullPath(),
		ArchivePath:  change.NewPath,
		Label:        change.NewLabel,
	}
	if change.NewLabel == "" {
		e.Kind = KindLabelRemoved
		e.Label = change.OldLabel
	}
	return e
}

// NopJournal discards events. Used when the journal is disabled.
type NopJournal struct{}

func (NopJournal) Record(context.Context, Event) error           { return nil }
func (NopJournal) List(context.Context, Filter) ([]Event, error) { return nil, nil }
func (NopJournal) Close() error                                  { return nil }

var _ Journal = NopJournal{}
