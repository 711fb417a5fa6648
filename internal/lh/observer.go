package lh

// LabelChange describes a committed label mutation on a DocumentNode.
type LabelChange struct {
	Node     *DocumentNode
	OldLabel string
	NewLabel string
	OldPath  string
	NewPath  string
	// Renamed is false when no archive file existed at OldPath.
	Renamed bool
}

// LabelObserver is notified after a label has been added or removed.
type LabelObserver interface {
	LabelChanged(change LabelChange)
}

// LabelObserverFunc adapts a function to LabelObserver.
type LabelObserverFunc func(change LabelChange)

func (f LabelObserverFunc) LabelChanged(change LabelChange) { f(change) }

// LabelObservers fans a notification out to every observer in order.
type LabelObservers []LabelObserver

func (o LabelObservers) LabelChanged(change LabelChange) {
	for _, obs := range o {
		if obs != nil {
			obs.LabelChanged(change)
		}
	}
}
