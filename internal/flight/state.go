// Package flight owns the failsafe state machine. It is the sole authority
// deciding which command source drives the vehicle.
package flight

import (
	"encoding/json"
	"fmt"
)

// State is the authoritative flight mode. Exactly one value holds at any
// instant.
type State int

const (
	Idle State = iota
	ManualOverride
	AutonomousTracking
	Hold
	ReturnToLaunch
	EmergencyLanding
	Fault
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ManualOverride:
		return "manual_override"
	case AutonomousTracking:
		return "autonomous_tracking"
	case Hold:
		return "hold"
	case ReturnToLaunch:
		return "return_to_launch"
	case EmergencyLanding:
		return "emergency_landing"
	case Fault:
		return "fault"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalJSON encodes the state by name for status consumers.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Signal is an external operator request. At most one is consumed per
// control cycle.
type Signal int

const (
	SignalNone Signal = iota
	SignalOverride
	SignalEngage
	SignalDisarm
	SignalReset
)

func (s Signal) String() string {
	switch s {
	case SignalNone:
		return "none"
	case SignalOverride:
		return "override"
	case SignalEngage:
		return "engage"
	case SignalDisarm:
		return "disarm"
	case SignalReset:
		return "reset"
	default:
		return fmt.Sprintf("Signal(%d)", int(s))
	}
}

// Source tags the component authorized to command the vehicle in a given
// state. The dispatcher pattern-matches on the tag, never on ad hoc flags.
type Source int

const (
	SourceNone Source = iota
	SourceTracking
	SourceHold
	SourceReturn
	SourceLand
	SourceManual
)

func (s Source) String() string {
	switch s {
	case SourceNone:
		return "none"
	case SourceTracking:
		return "tracking"
	case SourceHold:
		return "hold"
	case SourceReturn:
		return "return"
	case SourceLand:
		return "land"
	case SourceManual:
		return "manual"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// SourceFor maps the flight state to its command source.
func SourceFor(st State) Source {
	switch st {
	case AutonomousTracking:
		return SourceTracking
	case Hold:
		return SourceHold
	case ReturnToLaunch:
		return SourceReturn
	case EmergencyLanding:
		return SourceLand
	case ManualOverride:
		return SourceManual
	default:
		return SourceNone
	}
}
