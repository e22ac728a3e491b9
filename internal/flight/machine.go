package flight

import "dronefollow/internal/safety"

// Inputs is everything one transition step looks at. Transitions are total
// and deterministic: every (state, Inputs) pair has exactly one successor.
type Inputs struct {
	Verdict         safety.Verdict
	Signal          Signal
	TargetVisible   bool
	GPSFix          bool
	LandedDisarmed  bool
	DispatchFailure bool
}

// Machine holds the authoritative flight state. The monitor's verdict is
// advisory in ManualOverride and authoritative everywhere else.
type Machine struct {
	state State
}

// NewMachine starts in Idle.
func NewMachine() *Machine {
	return &Machine{state: Idle}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Step consumes one cycle's inputs and returns the successor state.
// Manual override wins from every non-terminal state before anything else
// is considered; Fault only yields to an explicit reset.
func (m *Machine) Step(in Inputs) State {
	if m.state == Fault {
		if in.Signal == SignalReset {
			m.state = Idle
		}
		return m.state
	}
	if in.Signal == SignalOverride {
		m.state = ManualOverride
		return m.state
	}

	switch m.state {
	case Idle:
		if in.Signal == SignalEngage && in.Verdict.Severity == safety.OK && in.GPSFix {
			m.state = AutonomousTracking
		}

	case ManualOverride:
		switch in.Signal {
		case SignalEngage:
			if in.Verdict.Severity == safety.OK {
				m.state = AutonomousTracking
			}
		case SignalDisarm:
			m.state = Idle
		}

	case AutonomousTracking, Hold:
		switch {
		case in.DispatchFailure || severe(in.Verdict):
			m.state = EmergencyLanding
		case escalating(in.Verdict):
			m.state = ReturnToLaunch
		case m.state == AutonomousTracking && !in.TargetVisible:
			m.state = Hold
		case m.state == Hold && in.TargetVisible:
			m.state = AutonomousTracking
		}

	case ReturnToLaunch:
		critical := in.Verdict.Severity == safety.Violation &&
			(in.Verdict.Kind == safety.CriticalBattery || in.Verdict.Kind == safety.TelemetryStale)
		switch {
		case in.DispatchFailure || critical:
			m.state = EmergencyLanding
		case in.LandedDisarmed:
			// Never resumes tracking automatically; re-engage from Idle.
			m.state = Idle
		}

	case EmergencyLanding:
		switch {
		case in.DispatchFailure:
			m.state = Fault
		case in.LandedDisarmed:
			m.state = Idle
		}
	}
	return m.state
}

// escalating verdicts trigger ReturnToLaunch: every warning, plus the
// violations the vehicle can still fly home through.
func escalating(v safety.Verdict) bool {
	if v.Severity == safety.Warning {
		return true
	}
	if v.Severity != safety.Violation {
		return false
	}
	return v.Kind == safety.GpsLost || v.Kind == safety.DetectionStale
}

// severe verdicts trigger EmergencyLanding.
func severe(v safety.Verdict) bool {
	return v.Severity == safety.Violation && !escalating(v)
}
