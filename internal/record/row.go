// Package record captures per-cycle controller status for operator
// situational awareness. Writers fan out to stdout, JSONL files, the TUI,
// or GreptimeDB.
package record

import (
	"os"
	"time"
)

// StatusRow is one control-cycle status record.
type StatusRow struct {
	VehicleID   string    `json:"vehicle_id"` // TAG
	State       string    `json:"state"`
	Verdict     string    `json:"verdict"`
	VerdictKind string    `json:"verdict_kind"`
	Forward     float64   `json:"forward"`
	Right       float64   `json:"right"`
	Up          float64   `json:"up"`
	YawRate     float64   `json:"yaw_rate"`
	Battery     float64   `json:"battery"`
	Satellites  int       `json:"satellites"`
	Altitude    float64   `json:"altitude"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	TargetID    string    `json:"target_id,omitempty"`
	TargetLost  bool      `json:"target_lost"`
	CommandSeq  uint64    `json:"command_seq"`
	Timestamp   time.Time `json:"ts"` // TIME INDEX
}

// StatusTableName holds the table name used when writing to GreptimeDB.
// It defaults to "flight_status" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var StatusTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "flight_status"
}()

// Writer is an interface to support different status outputs.
type Writer interface {
	Write(StatusRow) error
}

// Optional: writers can also support batch mode.
type batchWriter interface {
	WriteBatch([]StatusRow) error
}
