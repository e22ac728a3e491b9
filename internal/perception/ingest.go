package perception

import (
	"sync/atomic"
	"time"

	"dronefollow/internal/snapshot"
)

// Ingest normalizes per-frame detector output into versioned snapshots.
// It is the single writer of its mailbox; the control cycle reads the
// latest snapshot without blocking the detector.
type Ingest struct {
	box snapshot.Mailbox[Snapshot]
	seq atomic.Uint64
}

// NewIngest returns an empty ingest.
func NewIngest() *Ingest {
	return &Ingest{}
}

// Publish filters non-person detections, stamps a sequence number, and
// publishes an immutable snapshot.
func (in *Ingest) Publish(dets []Detection, capturedAt time.Time) Snapshot {
	persons := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if !d.Person {
			continue
		}
		if d.CapturedAt.IsZero() {
			d.CapturedAt = capturedAt
		}
		persons = append(persons, d)
	}
	snap := Snapshot{
		Detections: persons,
		CapturedAt: capturedAt,
		Seq:        in.seq.Add(1),
	}
	in.box.Publish(snap)
	return snap
}

// Latest returns the most recent snapshot, or false before the first frame.
func (in *Ingest) Latest() (Snapshot, bool) {
	return in.box.Latest()
}
