package safety

import (
	"math"
	"time"

	"dronefollow/internal/config"
)

// Input bundles everything one evaluation looks at. All fields are copies;
// Evaluate never reaches into live component state.
type Input struct {
	HaveTelemetry bool
	Battery       float64
	Satellites    int
	Altitude      float64
	TelemetryAge  time.Duration
	DetectionAge  time.Duration

	// commanded velocities, re-checked defensively
	Forward, Right, Up float64
	YawRate            float64

	HasTarget      bool
	TargetDistance float64 // meters, estimated from box area

	Tracking      bool // state is AutonomousTracking (detection staleness applies)
	FlightElapsed time.Duration

	Now time.Time
}

// Monitor evaluates the safety envelope every cycle. The only state it
// keeps is the first-breach timestamp for the following-distance grace
// period; every other check is recomputed from scratch.
type Monitor struct {
	limits      config.Limits
	breachSince time.Time
}

// NewMonitor creates a monitor for the given limits.
func NewMonitor(limits config.Limits) *Monitor {
	return &Monitor{limits: limits}
}

// Evaluate runs every check and returns the worst verdict. Checks ordered
// so that on equal severity the more urgent kind wins. Identical inputs
// always produce the identical verdict.
func (m *Monitor) Evaluate(in Input) Verdict {
	v := Ok
	v = worse(v, m.checkBattery(in))
	v = worse(v, m.checkTelemetryFreshness(in))
	v = worse(v, m.checkAltitude(in))
	v = worse(v, m.checkDistance(in))
	v = worse(v, m.checkSpeed(in))
	v = worse(v, m.checkGPS(in))
	v = worse(v, m.checkDetectionFreshness(in))
	v = worse(v, m.checkFlightTime(in))
	return v
}

func (m *Monitor) checkBattery(in Input) Verdict {
	if !in.HaveTelemetry {
		return Ok
	}
	if in.Battery < m.limits.CriticalBatteryThreshold {
		return Verdict{Violation, CriticalBattery}
	}
	if in.Battery < m.limits.LowBatteryThreshold {
		return Verdict{Warning, LowBattery}
	}
	return Ok
}

func (m *Monitor) checkTelemetryFreshness(in Input) Verdict {
	if !in.HaveTelemetry || in.TelemetryAge > m.limits.TelemetryStaleTimeout.Std() {
		return Verdict{Violation, TelemetryStale}
	}
	return Ok
}

func (m *Monitor) checkAltitude(in Input) Verdict {
	if !in.HaveTelemetry {
		return Ok
	}
	if in.Altitude < m.limits.MinAltitude || in.Altitude > m.limits.MaxAltitude {
		return Verdict{Violation, AltitudeExceeded}
	}
	return Ok
}

// checkDistance tolerates transient estimation noise: the band must be
// breached continuously for the grace period before it violates.
func (m *Monitor) checkDistance(in Input) Verdict {
	if !in.HasTarget {
		m.breachSince = time.Time{}
		return Ok
	}
	breached := in.TargetDistance > m.limits.MaxFollowingDistance ||
		in.TargetDistance < m.limits.MinSafeDistance
	if !breached {
		m.breachSince = time.Time{}
		return Ok
	}
	if m.breachSince.IsZero() {
		m.breachSince = in.Now
	}
	if in.Now.Sub(m.breachSince) >= m.limits.DistanceGracePeriod.Std() {
		return Verdict{Violation, DistanceExceeded}
	}
	return Ok
}

func (m *Monitor) checkSpeed(in Input) Verdict {
	v := m.limits.MaxVelocity + speedTolerance
	if math.Abs(in.Forward) > v || math.Abs(in.Right) > v || math.Abs(in.Up) > v {
		return Verdict{Violation, SpeedExceeded}
	}
	if math.Abs(in.YawRate) > m.limits.MaxYawRate+speedTolerance {
		return Verdict{Violation, SpeedExceeded}
	}
	return Ok
}

// speedTolerance absorbs float rounding from the smoothing filter.
const speedTolerance = 1e-9

func (m *Monitor) checkGPS(in Input) Verdict {
	if !in.HaveTelemetry {
		return Ok
	}
	if in.Satellites < m.limits.MinGPSSatellites {
		return Verdict{Violation, GpsLost}
	}
	return Ok
}

func (m *Monitor) checkDetectionFreshness(in Input) Verdict {
	if !in.Tracking {
		return Ok
	}
	if in.DetectionAge > m.limits.DetectionStaleTimeout.Std() {
		return Verdict{Violation, DetectionStale}
	}
	return Ok
}

func (m *Monitor) checkFlightTime(in Input) Verdict {
	if m.limits.MaxFlightTime > 0 && in.FlightElapsed > m.limits.MaxFlightTime.Std() {
		return Verdict{Warning, FlightTimeExceeded}
	}
	return Ok
}
