package tracking

import (
	"math"
	"time"

	"dronefollow/internal/config"
)

// Command is a body-frame velocity command. Velocities are m/s, yaw rate
// is deg/s (positive clockwise). Immutable; produced fresh each cycle.
type Command struct {
	Forward     float64   `json:"forward"`
	Right       float64   `json:"right"`
	Up          float64   `json:"up"`
	YawRate     float64   `json:"yaw_rate"`
	Seq         uint64    `json:"seq"` // detection snapshot it derives from
	GeneratedAt time.Time `json:"generated_at"`
}

// IsZero reports whether all motion components are zero.
func (c Command) IsZero() bool {
	return c.Forward == 0 && c.Right == 0 && c.Up == 0 && c.YawRate == 0
}

// Generator converts the selected target's image-space state into bounded
// velocity commands. Output magnitudes stay within the configured limits
// before any downstream clamp; the dispatcher clamps again independently.
type Generator struct {
	cfg      config.Control
	limits   config.Limits
	prev     Command
	havePrev bool
}

// NewGenerator creates a generator with the given tuning and limits.
func NewGenerator(cfg config.Control, limits config.Limits) *Generator {
	return &Generator{cfg: cfg, limits: limits}
}

// Next produces the command for the current cycle. When no target is
// active it returns the zero command and false, resetting the smoothing
// state; the state machine uses that flag to enter Hold.
func (g *Generator) Next(tgt Target, active bool, now time.Time) (Command, bool) {
	if !active {
		g.prev = Command{}
		g.havePrev = false
		return Command{GeneratedAt: now}, false
	}

	raw := g.raw(tgt)
	out := raw
	if g.havePrev {
		a := g.cfg.CommandSmoothingFactor
		out.Forward = a*raw.Forward + (1-a)*g.prev.Forward
		out.Right = a*raw.Right + (1-a)*g.prev.Right
		out.Up = a*raw.Up + (1-a)*g.prev.Up
		out.YawRate = a*raw.YawRate + (1-a)*g.prev.YawRate
	}
	out = g.clampCommand(out)
	out.Seq = tgt.Seq
	out.GeneratedAt = now

	g.prev = out
	g.havePrev = true
	return out, true
}

// raw computes the unsmoothed proportional command.
func (g *Generator) raw(tgt Target) Command {
	var cmd Command

	// Forward/back from the signed gap between estimated and desired
	// following distance.
	dist := g.Distance(tgt.Box.Area())
	cmd.Forward = g.cfg.ForwardGain * (dist - g.cfg.FollowingDistance)

	// Lateral and yaw from the horizontal center offset, with a deadband
	// to suppress jitter around dead center. Gains above one overdrive
	// large offsets into the clamp, so an edge-hugging target commands
	// the full configured rate.
	xOff := (tgt.Box.CenterX() - 0.5) * 2
	if math.Abs(xOff) < g.cfg.Deadband {
		xOff = 0
	}
	cmd.Right = g.cfg.LateralGain * xOff * g.limits.MaxVelocity
	cmd.YawRate = g.cfg.YawGain * xOff * g.limits.MaxYawRate

	// Vertical from the offset against the configured frame position.
	yOff := (tgt.Box.CenterY() - g.cfg.TargetVerticalPosition) * 2
	if math.Abs(yOff) < g.cfg.Deadband {
		yOff = 0
	}
	cmd.Up = -g.cfg.VerticalGain * yOff * g.limits.MaxVelocity

	return g.clampCommand(cmd)
}

// Distance estimates the range to a target from its normalized box area
// using the inverse-size relation calibrated by reference_area and
// reference_distance. Degenerate boxes read as far away.
func (g *Generator) Distance(area float64) float64 {
	if area <= 0 {
		return g.cfg.ReferenceDistance * maxDistanceRatio
	}
	d := g.cfg.ReferenceDistance * math.Sqrt(g.cfg.ReferenceArea/area)
	return math.Min(d, g.cfg.ReferenceDistance*maxDistanceRatio)
}

// maxDistanceRatio caps the estimate for vanishing boxes.
const maxDistanceRatio = 10

func (g *Generator) clampCommand(c Command) Command {
	v := g.limits.MaxVelocity
	c.Forward = clamp(c.Forward, -v, v)
	c.Right = clamp(c.Right, -v, v)
	c.Up = clamp(c.Up, -v, v)
	c.YawRate = clamp(c.YawRate, -g.limits.MaxYawRate, g.limits.MaxYawRate)
	return c
}

// clamp keeps value inside [lo, hi].
func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
