// Package safety classifies system state against the configured envelope.
// It never commands the vehicle; the flight state machine decides the
// behavioral consequences of its verdicts.
package safety

import "fmt"

// Severity orders verdict levels. Violation dominates Warning dominates OK.
type Severity int

const (
	OK Severity = iota
	Warning
	Violation
)

func (s Severity) String() string {
	switch s {
	case OK:
		return "OK"
	case Warning:
		return "WARNING"
	case Violation:
		return "VIOLATION"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Kind names the envelope check that produced a non-OK verdict.
type Kind int

const (
	KindNone Kind = iota
	LowBattery
	CriticalBattery
	AltitudeExceeded
	DistanceExceeded
	SpeedExceeded
	GpsLost
	TelemetryStale
	DetectionStale
	FlightTimeExceeded
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case LowBattery:
		return "low_battery"
	case CriticalBattery:
		return "critical_battery"
	case AltitudeExceeded:
		return "altitude_exceeded"
	case DistanceExceeded:
		return "distance_exceeded"
	case SpeedExceeded:
		return "speed_exceeded"
	case GpsLost:
		return "gps_lost"
	case TelemetryStale:
		return "telemetry_stale"
	case DetectionStale:
		return "detection_stale"
	case FlightTimeExceeded:
		return "flight_time_exceeded"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Verdict is the per-cycle safety classification. Derived, never stored;
// recomputed every control cycle.
type Verdict struct {
	Severity Severity
	Kind     Kind
}

// Ok is the all-clear verdict.
var Ok = Verdict{Severity: OK, Kind: KindNone}

func (v Verdict) String() string {
	if v.Severity == OK {
		return "OK"
	}
	return fmt.Sprintf("%s(%s)", v.Severity, v.Kind)
}

// worse returns the more severe of two verdicts; on equal severity the
// earlier one wins so check order stays deterministic.
func worse(a, b Verdict) Verdict {
	if b.Severity > a.Severity {
		return b
	}
	return a
}
