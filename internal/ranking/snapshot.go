package ranking

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrNoActiveWeights is returned by weight stores when no trained vector
// has been persisted yet.
var ErrNoActiveWeights = errors.New("no active weight vector")

// Snapshot is one immutable, versioned weight vector. A ranking pass reads
// a single snapshot up front and uses it for every candidate, so training
// can never tear a pass between old and new weights.
type Snapshot struct {
	Weights   WeightVector `json:"weights"`
	Version   int64        `json:"version"`
	TrainedAt time.Time    `json:"trained_at"`
}

// Holder publishes the active snapshot to concurrent readers. Training
// replaces the whole snapshot with a pointer swap; readers never observe a
// partially updated vector.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder creates a holder publishing the given snapshot.
func NewHolder(s *Snapshot) *Holder {
	h := &Holder{}
	if s == nil {
		s = &Snapshot{Weights: DefaultWeights(), Version: 0}
	}
	h.current.Store(s)
	return h
}

// Current returns the active snapshot. The returned value must be treated
// as read-only.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Swap atomically replaces the active snapshot.
func (h *Holder) Swap(s *Snapshot) {
	h.current.Store(s)
}

// WeightStore is the persistence boundary for trained weight vectors.
type WeightStore interface {
	// LoadActive returns the currently active snapshot, or
	// ErrNoActiveWeights when none has been persisted.
	LoadActive(ctx context.Context) (*Snapshot, error)

	// ReplaceActive atomically replaces the active snapshot. After a
	// successful return, LoadActive observes the new snapshot; after a
	// failure, the previous snapshot remains authoritative.
	ReplaceActive(ctx context.Context, s *Snapshot) error
}
