package testutil

import (
	"sync"

	"lh-go/internal/lh"
)

// RecordingObserver collects label changes.
type RecordingObserver struct {
	mu      sync.Mutex
	changes []lh.LabelChange
}

func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{}
}

func (o *RecordingObserver) LabelChanged(change lh.LabelChange) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.changes = append(o.changes, change)
}

// Changes returns a copy of the recorded changes.
func (o *RecordingObserver) Changes() []lh.LabelChange {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]lh.LabelChange(nil), o.changes...)
}

var _ lh.LabelObserver = (*RecordingObserver)(nil)
