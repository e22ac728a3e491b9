// Package dispatch forwards the active command source's output to the
// flight controller at a fixed cadence, clamping every component as a
// second enforcement layer behind the generator.
package dispatch

import (
	"context"
	"time"

	"dronefollow/internal/config"
	"dronefollow/internal/flight"
	"dronefollow/internal/logging"
	"dronefollow/internal/tracking"
	"dronefollow/internal/vehicle"
)

// Dispatcher issues commands for the current flight state. It re-reads the
// state every cycle, never a cached decision; RTL and landing preempt
// whatever velocity command was in flight.
type Dispatcher struct {
	link   vehicle.Link
	limits config.Limits
	rates  config.Rates

	last     tracking.Command
	haveLast bool
	seq      uint64

	prevSource   flight.Source
	acked        bool
	failingSince time.Time
}

// NewDispatcher creates a dispatcher for the given link and limits.
func NewDispatcher(link vehicle.Link, limits config.Limits, rates config.Rates) *Dispatcher {
	return &Dispatcher{link: link, limits: limits, rates: rates}
}

// Dispatch issues the command implied by st and reports whether the link
// has failed to acknowledge past the configured timeout. The cmd argument
// is the generator's latest output; its GeneratedAt timestamp drives the
// reuse/degrade policy.
func (d *Dispatcher) Dispatch(ctx context.Context, st flight.State, cmd tracking.Command, now time.Time) bool {
	source := flight.SourceFor(st)
	if source != d.prevSource {
		d.prevSource = source
		d.acked = false
		d.failingSince = time.Time{}
	}

	switch source {
	case flight.SourceTracking, flight.SourceHold:
		d.send(ctx, d.velocityFor(cmd, now), now)
	case flight.SourceReturn:
		if !d.acked {
			d.call(ctx, now, d.link.ReturnToLaunch, "return_to_launch")
		}
	case flight.SourceLand:
		if !d.acked {
			d.call(ctx, now, d.link.Land, "emergency_land")
		}
	default:
		// Manual or idle: this core issues nothing.
		d.failingSince = time.Time{}
	}

	return !d.failingSince.IsZero() && now.Sub(d.failingSince) > d.rates.CommandAckTimeout.Std()
}

// velocityFor applies the reuse/degrade policy: a fresh command is used as
// is, a recent one is reused unmodified, and anything older degrades to
// zero so a silent generator cannot keep the vehicle moving.
func (d *Dispatcher) velocityFor(cmd tracking.Command, now time.Time) tracking.Command {
	age := now.Sub(cmd.GeneratedAt)
	switch {
	case age <= d.rates.CommandReuseInterval.Std():
		d.last = cmd
		d.haveLast = true
		return cmd
	case d.haveLast && now.Sub(d.last.GeneratedAt) <= d.rates.CommandDegradeInterval.Std():
		return d.last
	default:
		d.haveLast = false
		return tracking.Command{GeneratedAt: now}
	}
}

func (d *Dispatcher) send(ctx context.Context, cmd tracking.Command, now time.Time) {
	v := d.limits.MaxVelocity
	forward := clamp(cmd.Forward, -v, v)
	right := clamp(cmd.Right, -v, v)
	up := clamp(cmd.Up, -v, v)
	yawRate := clamp(cmd.YawRate, -d.limits.MaxYawRate, d.limits.MaxYawRate)

	d.seq++
	if err := d.link.SetVelocity(ctx, forward, right, up, yawRate); err != nil {
		logging.FromContext(ctx).Warn("velocity command failed", "seq", d.seq, "err", err)
		if d.failingSince.IsZero() {
			d.failingSince = now
		}
		return
	}
	d.failingSince = time.Time{}
}

func (d *Dispatcher) call(ctx context.Context, now time.Time, fn func(context.Context) error, name string) {
	d.seq++
	if err := fn(ctx); err != nil {
		logging.FromContext(ctx).Warn("mode command failed", "command", name, "seq", d.seq, "err", err)
		if d.failingSince.IsZero() {
			d.failingSince = now
		}
		return
	}
	d.acked = true
	d.failingSince = time.Time{}
}

// Seq returns the outbound command sequence number.
func (d *Dispatcher) Seq() uint64 {
	return d.seq
}

func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
