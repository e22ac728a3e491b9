// Package vehicle defines the boundary to the external flight-controller
// collaborator. The control core only talks to the autopilot through Link;
// everything behind it (MAVLink transport, firmware, attitude control) is
// out of scope.
package vehicle

import (
	"context"
	"errors"
	"time"
)

// Telemetry is the raw vehicle state returned by one query.
type Telemetry struct {
	Battery    float64       // percent remaining
	Satellites int           // GPS satellites in the fix
	Altitude   float64       // meters above launch
	Lat        float64       // degrees
	Lon        float64       // degrees
	Armed      bool
	SignalAge  time.Duration // age of the autopilot's last heartbeat
}

// Link is the command/query surface of the flight controller. Every call
// is fallible: the connection can drop or the autopilot can reject a
// command at any time.
type Link interface {
	Telemetry(ctx context.Context) (Telemetry, error)
	SetVelocity(ctx context.Context, forward, right, up, yawRate float64) error
	ReturnToLaunch(ctx context.Context) error
	Land(ctx context.Context) error
	Armed(ctx context.Context) (bool, error)
}

// Sentinel errors reported by Link implementations.
var (
	ErrNotConnected    = errors.New("vehicle: link not connected")
	ErrCommandRejected = errors.New("vehicle: command rejected by autopilot")
)
