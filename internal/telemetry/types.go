// Telemetry snapshot types published by the sampler.
package telemetry

import "time"

// Snapshot is one immutable, versioned telemetry record. Superseded
// snapshots are discarded, never mutated in place.
type Snapshot struct {
	Battery    float64       `json:"battery"`
	Satellites int           `json:"satellites"`
	Altitude   float64       `json:"altitude"`
	Lat        float64       `json:"lat"`
	Lon        float64       `json:"lon"`
	SignalAge  time.Duration `json:"signal_age"`
	Armed      bool          `json:"armed"`
	CapturedAt time.Time     `json:"captured_at"`
	Seq        uint64        `json:"seq"`
}

// Age reports how long ago the snapshot was captured.
func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.CapturedAt)
}
