package vehicle

import (
	"context"
	"math"
	"sync"
	"time"
)

const metersPerDegree = 111000.0

// Sim is a scripted flight controller used by the simulate command and the
// test suites. It integrates velocity commands into a local position,
// drains the battery per tick, and models RTL/landing descent. Failure
// injection switches let tests exercise the dispatcher's error paths.
type Sim struct {
	mu sync.Mutex

	homeLat, homeLon float64
	x, y             float64 // meters east/north of home
	alt              float64
	headingDeg       float64
	battery          float64
	satellites       int
	armed            bool

	// last commanded body velocities
	vForward, vRight, vUp, yawRate float64

	returning bool
	landing   bool

	drainPerSecond float64
	descentRate    float64 // m/s while returning or landing

	rejectCommands bool
	linkDown       bool
}

// NewSim returns an armed simulated vehicle hovering at the given altitude.
func NewSim(homeLat, homeLon, alt float64) *Sim {
	return &Sim{
		homeLat:        homeLat,
		homeLon:        homeLon,
		alt:            alt,
		battery:        100,
		satellites:     9,
		armed:          true,
		drainPerSecond: 0.05,
		descentRate:    1.0,
	}
}

// Tick advances the simulated physics by dt.
func (s *Sim) Tick(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec := dt.Seconds()
	s.battery = math.Max(0, s.battery-s.drainPerSecond*sec)

	if !s.armed {
		return
	}

	switch {
	case s.landing:
		s.alt = math.Max(0, s.alt-s.descentRate*sec)
		if s.alt == 0 {
			s.armed = false
		}
	case s.returning:
		dist := math.Hypot(s.x, s.y)
		if dist > 0.5 {
			step := math.Min(dist, 2.0*sec)
			s.x -= s.x / dist * step
			s.y -= s.y / dist * step
		} else {
			s.alt = math.Max(0, s.alt-s.descentRate*sec)
			if s.alt == 0 {
				s.armed = false
			}
		}
	default:
		h := s.headingDeg * math.Pi / 180
		s.y += (s.vForward*math.Cos(h) - s.vRight*math.Sin(h)) * sec
		s.x += (s.vForward*math.Sin(h) + s.vRight*math.Cos(h)) * sec
		s.alt = math.Max(0, s.alt+s.vUp*sec)
		s.headingDeg += s.yawRate * sec
	}
}

// Telemetry implements Link.
func (s *Sim) Telemetry(ctx context.Context) (Telemetry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.linkDown {
		return Telemetry{}, ErrNotConnected
	}
	return Telemetry{
		Battery:    s.battery,
		Satellites: s.satellites,
		Altitude:   s.alt,
		Lat:        s.homeLat + s.y/metersPerDegree,
		Lon:        s.homeLon + s.x/(metersPerDegree*math.Cos(s.homeLat*math.Pi/180)),
		Armed:      s.armed,
		SignalAge:  0,
	}, nil
}

// SetVelocity implements Link.
func (s *Sim) SetVelocity(ctx context.Context, forward, right, up, yawRate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.linkDown {
		return ErrNotConnected
	}
	if s.rejectCommands {
		return ErrCommandRejected
	}
	s.vForward, s.vRight, s.vUp, s.yawRate = forward, right, up, yawRate
	return nil
}

// ReturnToLaunch implements Link.
func (s *Sim) ReturnToLaunch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.linkDown {
		return ErrNotConnected
	}
	if s.rejectCommands {
		return ErrCommandRejected
	}
	s.returning = true
	s.landing = false
	s.vForward, s.vRight, s.vUp, s.yawRate = 0, 0, 0, 0
	return nil
}

// Land implements Link.
func (s *Sim) Land(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.linkDown {
		return ErrNotConnected
	}
	if s.rejectCommands {
		return ErrCommandRejected
	}
	s.landing = true
	s.returning = false
	s.vForward, s.vRight, s.vUp, s.yawRate = 0, 0, 0, 0
	return nil
}

// Armed implements Link.
func (s *Sim) Armed(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.linkDown {
		return false, ErrNotConnected
	}
	return s.armed, nil
}

// SetBattery overrides the battery percentage.
func (s *Sim) SetBattery(pct float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.battery = pct
}

// SetSatellites overrides the GPS satellite count.
func (s *Sim) SetSatellites(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.satellites = n
}

// SetAltitude overrides the current altitude.
func (s *Sim) SetAltitude(m float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alt = m
}

// RejectCommands toggles autopilot command rejection.
func (s *Sim) RejectCommands(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectCommands = reject
}

// CutLink toggles link loss; all calls fail while the link is down.
func (s *Sim) CutLink(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkDown = down
}

// Landed reports whether the vehicle is on the ground and disarmed.
func (s *Sim) Landed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alt == 0 && !s.armed
}
