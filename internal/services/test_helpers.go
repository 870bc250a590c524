package services

import (
	"sync"

	"boqscope/pkg/contracts/events"
)

// recordingBroadcaster captures every snapshot the service publishes so
// tests can assert on the phase sequence without a live hub.
type recordingBroadcaster struct {
	mu        sync.Mutex
	snapshots []events.ExtractionSnapshot
	traceIDs  []string
}

func (b *recordingBroadcaster) BroadcastSnapshotWithTrace(snapshot events.ExtractionSnapshot, traceID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snapshots = append(b.snapshots, snapshot)
	b.traceIDs = append(b.traceIDs, traceID)
}

// Snapshots returns a copy of everything broadcast so far.
func (b *recordingBroadcaster) Snapshots() []events.ExtractionSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.ExtractionSnapshot(nil), b.snapshots...)
}

// Phases returns the phase of each broadcast snapshot in order.
func (b *recordingBroadcaster) Phases() []events.Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	phases := make([]events.Phase, len(b.snapshots))
	for i, snap := range b.snapshots {
		phases[i] = snap.Phase
	}
	return phases
}
