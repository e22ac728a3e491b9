// Package core runs the control cycle: selector, generator, safety
// monitor, state machine, and dispatcher, in that order, at a fixed
// cadence decoupled from detection arrival.
package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"dronefollow/internal/config"
	"dronefollow/internal/dispatch"
	"dronefollow/internal/flight"
	"dronefollow/internal/logging"
	"dronefollow/internal/perception"
	"dronefollow/internal/record"
	"dronefollow/internal/safety"
	"dronefollow/internal/telemetry"
	"dronefollow/internal/tracking"
	"dronefollow/internal/vehicle"
)

// Status is the observable controller state for operators. Updated once
// per control cycle.
type Status struct {
	State         flight.State       `json:"state"`
	Verdict       string             `json:"verdict"`
	VerdictKind   string             `json:"verdict_kind"`
	Command       tracking.Command   `json:"command"`
	TargetID      string             `json:"target_id,omitempty"`
	TargetVisible bool               `json:"target_visible"`
	Telemetry     telemetry.Snapshot `json:"telemetry"`
	HaveTelemetry bool               `json:"have_telemetry"`
	CommandSeq    uint64             `json:"command_seq"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// Controller owns the snapshot mailboxes' consumers and the sole authority
// chain that commands the vehicle.
type Controller struct {
	cfg       *config.Config
	vehicleID string

	ingest     *perception.Ingest
	sampler    *telemetry.Sampler
	selector   *tracking.Selector
	generator  *tracking.Generator
	monitor    *safety.Monitor
	machine    *flight.Machine
	dispatcher *dispatch.Dispatcher
	writer     record.Writer

	sigMu   sync.Mutex
	pending flight.Signal

	dispatchFailed bool
	flightStart    time.Time

	status atomic.Pointer[Status]
	now    func() time.Time
}

// New wires a controller. writer may be nil to disable status records.
func New(cfg *config.Config, vehicleID string, link vehicle.Link, ingest *perception.Ingest, sampler *telemetry.Sampler, writer record.Writer) *Controller {
	c := &Controller{
		cfg:        cfg,
		vehicleID:  vehicleID,
		ingest:     ingest,
		sampler:    sampler,
		selector:   tracking.NewSelector(cfg.Selection, cfg.Control.ReferenceArea, cfg.Limits.DetectionStaleTimeout.Std()),
		generator:  tracking.NewGenerator(cfg.Control, cfg.Limits),
		monitor:    safety.NewMonitor(cfg.Limits),
		machine:    flight.NewMachine(),
		dispatcher: dispatch.NewDispatcher(link, cfg.Limits, cfg.Rates),
		writer:     writer,
		now:        time.Now,
	}
	c.status.Store(&Status{State: flight.Idle, Verdict: safety.Ok.Severity.String(), VerdictKind: safety.Ok.Kind.String()})
	return c
}

// Run executes the control loop until the context is done.
func (c *Controller) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	interval := time.Duration(float64(time.Second) / c.cfg.Rates.ControlRateHz)
	log.Info("starting control cycle", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Cycle(ctx)
		case <-ctx.Done():
			log.Info("stopping control cycle")
			return
		}
	}
}

// Cycle runs one control iteration. It never blocks on perception or
// telemetry: the latest snapshots plus their ages are all it reads.
func (c *Controller) Cycle(ctx context.Context) {
	now := c.now()

	detSnap, haveDet := c.ingest.Latest()
	telSnap, haveTel := c.sampler.Latest()

	target, active := c.selector.Update(detSnap, haveDet, now)
	cmd, _ := c.generator.Next(target, active, now)

	verdict := c.monitor.Evaluate(c.safetyInput(detSnap, haveDet, telSnap, haveTel, cmd, target, active, now))

	landed := haveTel && !telSnap.Armed &&
		telSnap.Altitude <= c.cfg.Limits.EmergencyLandingAltitude
	prev := c.machine.State()
	state := c.machine.Step(flight.Inputs{
		Verdict:         verdict,
		Signal:          c.consumeSignal(),
		TargetVisible:   active,
		GPSFix:          haveTel && telSnap.Satellites >= c.cfg.Limits.MinGPSSatellites,
		LandedDisarmed:  landed,
		DispatchFailure: c.dispatchFailed,
	})
	if state != prev {
		logging.FromContext(ctx).Info("flight state changed",
			"from", prev.String(), "to", state.String(), "verdict", verdict.String())
		if prev == flight.Idle {
			c.flightStart = now
		}
		if state == flight.Idle {
			c.flightStart = time.Time{}
		}
	}

	// The dispatcher sees the state decided this cycle, never a cached
	// one; a failure report feeds the next step as a violation-class
	// event.
	c.dispatchFailed = c.dispatcher.Dispatch(ctx, state, cmd, now)

	st := Status{
		State:         state,
		Verdict:       verdict.Severity.String(),
		VerdictKind:   verdict.Kind.String(),
		Command:       cmd,
		TargetVisible: active,
		Telemetry:     telSnap,
		HaveTelemetry: haveTel,
		CommandSeq:    c.dispatcher.Seq(),
		UpdatedAt:     now,
	}
	if active {
		st.TargetID = target.ID.String()
	}
	c.status.Store(&st)

	if c.writer != nil {
		if err := c.writer.Write(c.statusRow(st, now)); err != nil {
			logging.FromContext(ctx).Warn("status write failed", "err", err)
		}
	}
}

func (c *Controller) safetyInput(detSnap perception.Snapshot, haveDet bool, telSnap telemetry.Snapshot, haveTel bool, cmd tracking.Command, target tracking.Target, active bool, now time.Time) safety.Input {
	in := safety.Input{
		HaveTelemetry: haveTel,
		Forward:       cmd.Forward,
		Right:         cmd.Right,
		Up:            cmd.Up,
		YawRate:       cmd.YawRate,
		Tracking:      c.machine.State() == flight.AutonomousTracking,
		Now:           now,
	}
	if haveTel {
		in.Battery = telSnap.Battery
		in.Satellites = telSnap.Satellites
		in.Altitude = telSnap.Altitude
		in.TelemetryAge = telSnap.Age(now) + telSnap.SignalAge
	}
	if haveDet {
		in.DetectionAge = detSnap.Age(now)
	} else {
		in.DetectionAge = c.cfg.Limits.DetectionStaleTimeout.Std() + time.Second
	}
	if active {
		in.HasTarget = true
		in.TargetDistance = c.generator.Distance(target.Box.Area())
	}
	if !c.flightStart.IsZero() {
		in.FlightElapsed = now.Sub(c.flightStart)
	}
	return in
}

func (c *Controller) statusRow(st Status, now time.Time) record.StatusRow {
	return record.StatusRow{
		VehicleID:   c.vehicleID,
		State:       st.State.String(),
		Verdict:     st.Verdict,
		VerdictKind: st.VerdictKind,
		Forward:     st.Command.Forward,
		Right:       st.Command.Right,
		Up:          st.Command.Up,
		YawRate:     st.Command.YawRate,
		Battery:     st.Telemetry.Battery,
		Satellites:  st.Telemetry.Satellites,
		Altitude:    st.Telemetry.Altitude,
		Lat:         st.Telemetry.Lat,
		Lon:         st.Telemetry.Lon,
		TargetID:    st.TargetID,
		TargetLost:  !st.TargetVisible,
		CommandSeq:  st.CommandSeq,
		Timestamp:   now.UTC(),
	}
}

// Status returns the latest observable state.
func (c *Controller) Status() Status {
	return *c.status.Load()
}

// RequestManualOverride hands authority to the pilot. Honored within one
// control cycle from every non-terminal state and never displaced by a
// later signal.
func (c *Controller) RequestManualOverride() {
	c.request(flight.SignalOverride)
}

// RequestAutonomousEngage asks to start tracking; requires an OK verdict
// and a GPS fix.
func (c *Controller) RequestAutonomousEngage() {
	c.request(flight.SignalEngage)
}

// RequestDisarm returns a manual flight to Idle.
func (c *Controller) RequestDisarm() {
	c.request(flight.SignalDisarm)
}

// AcknowledgeFault clears a terminal Fault after external intervention.
func (c *Controller) AcknowledgeFault() {
	c.request(flight.SignalReset)
}

func (c *Controller) request(sig flight.Signal) {
	c.sigMu.Lock()
	defer c.sigMu.Unlock()
	if c.pending == flight.SignalOverride {
		return
	}
	if sig == flight.SignalOverride || c.pending == flight.SignalNone {
		c.pending = sig
	}
}

func (c *Controller) consumeSignal() flight.Signal {
	c.sigMu.Lock()
	defer c.sigMu.Unlock()
	sig := c.pending
	c.pending = flight.SignalNone
	return sig
}
