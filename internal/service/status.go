package service

import (
	"sync"

	"github.com/gofrs/uuid/v5"
)

// Status tracks one entity's most recent asynchronous operation. It replaces
// ad hoc loading booleans with a single queryable enum per project or section.
type Status int

const (
	StatusIdle Status = iota
	StatusInFlight
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusInFlight:
		return "in-flight"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ProjectState is the derived lifecycle position of a project.
type ProjectState int

const (
	// StateDraft: no section has content yet.
	StateDraft ProjectState = iota
	// StateGenerating: a bulk generation call is in flight.
	StateGenerating
	// StatePopulated: every section has content set at least once.
	StatePopulated
)

func (s ProjectState) String() string {
	switch s {
	case StateGenerating:
		return "generating"
	case StatePopulated:
		return "populated"
	default:
		return "draft"
	}
}

// tracker serializes operations per entity id: begin admits at most one
// in-flight operation per id, rejecting (never queueing) a second trigger.
type tracker struct {
	mu sync.Mutex
	m  map[uuid.UUID]Status
}

func newTracker() *tracker {
	return &tracker{m: make(map[uuid.UUID]Status)}
}

// begin marks id in-flight; returns false when an operation is already
// outstanding for it.
func (t *tracker) begin(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.m[id] == StatusInFlight {
		return false
	}
	t.m[id] = StatusInFlight
	return true
}

// finish records the terminal status for id.
func (t *tracker) finish(id uuid.UUID, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ok {
		t.m[id] = StatusSucceeded
	} else {
		t.m[id] = StatusFailed
	}
}

// status reports the current status for id.
func (t *tracker) status(id uuid.UUID) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m[id]
}
