// Package tracking selects one person to follow and turns its image-space
// state into body-frame velocity commands.
package tracking

import (
	"time"

	"github.com/google/uuid"

	"dronefollow/internal/perception"
)

// Target is the single person currently selected for following. Identity
// persists across frames through proximity matching, not through any
// per-frame identity from the detector.
type Target struct {
	ID         uuid.UUID
	Box        perception.Detection
	Misses     int // consecutive frames without a continuity match
	Lost       bool
	Seq        uint64 // detection snapshot the box came from
	AcquiredAt time.Time
	UpdatedAt  time.Time
}
