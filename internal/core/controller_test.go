package core

import (
	"context"
	"testing"
	"time"

	"dronefollow/internal/config"
	"dronefollow/internal/flight"
	"dronefollow/internal/perception"
	"dronefollow/internal/record"
	"dronefollow/internal/telemetry"
	"dronefollow/internal/vehicle"
)

// mockWriter collects status rows for validation.
type mockWriter struct {
	rows []record.StatusRow
}

func (w *mockWriter) Write(row record.StatusRow) error {
	w.rows = append(w.rows, row)
	return nil
}

type harness struct {
	cfg        *config.Config
	link       *vehicle.Sim
	ingest     *perception.Ingest
	sampler    *telemetry.Sampler
	writer     *mockWriter
	controller *Controller
	ctx        context.Context
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	link := vehicle.NewSim(48.2, 16.4, 10)
	ingest := perception.NewIngest()
	sampler := telemetry.NewSampler(link, cfg.Rates.TelemetryRateHz)
	writer := &mockWriter{}
	return &harness{
		cfg:        cfg,
		link:       link,
		ingest:     ingest,
		sampler:    sampler,
		writer:     writer,
		controller: New(cfg, "test-01", link, ingest, sampler, writer),
		ctx:        context.Background(),
	}
}

// referenceDetection is a centered person box whose estimated distance
// equals the configured following distance.
func referenceDetection() perception.Detection {
	return perception.Detection{X: 0.375, Y: 0.24, W: 0.25, H: 0.52, Confidence: 0.9, Person: true}
}

func (h *harness) publishFrame() {
	h.ingest.Publish([]perception.Detection{referenceDetection()}, time.Now())
}

func (h *harness) engage(t *testing.T) {
	t.Helper()
	h.publishFrame()
	h.sampler.Sample(h.ctx)
	h.controller.RequestAutonomousEngage()
	h.controller.Cycle(h.ctx)
	if st := h.controller.Status().State; st != flight.AutonomousTracking {
		t.Fatalf("engage failed, state %v", st)
	}
}

func TestController_StaysIdleWithoutSignals(t *testing.T) {
	h := newHarness(t, nil)
	h.publishFrame()
	h.sampler.Sample(h.ctx)
	h.controller.Cycle(h.ctx)

	st := h.controller.Status()
	if st.State != flight.Idle {
		t.Errorf("state = %v, want idle", st.State)
	}
	if len(h.writer.rows) != 1 {
		t.Errorf("expected one status row per cycle, got %d", len(h.writer.rows))
	}
}

func TestController_EngageStartsTracking(t *testing.T) {
	h := newHarness(t, nil)
	h.engage(t)

	st := h.controller.Status()
	if !st.TargetVisible || st.TargetID == "" {
		t.Errorf("expected a visible target with an identity, got %+v", st)
	}
	if st.Verdict != "OK" {
		t.Errorf("verdict = %s, want OK", st.Verdict)
	}
	row := h.writer.rows[len(h.writer.rows)-1]
	if row.State != "autonomous_tracking" || row.VehicleID != "test-01" {
		t.Errorf("unexpected status row: %+v", row)
	}
}

func TestController_EngageWithoutGPSFixRefused(t *testing.T) {
	h := newHarness(t, nil)
	h.link.SetSatellites(3)
	h.publishFrame()
	h.sampler.Sample(h.ctx)
	h.controller.RequestAutonomousEngage()
	h.controller.Cycle(h.ctx)

	if st := h.controller.Status().State; st != flight.Idle {
		t.Errorf("engage without fix must be refused, state %v", st)
	}
}

func TestController_OverrideDisplacesOtherSignals(t *testing.T) {
	h := newHarness(t, nil)
	h.engage(t)

	h.controller.RequestAutonomousEngage()
	h.controller.RequestManualOverride()
	h.publishFrame()
	h.controller.Cycle(h.ctx)

	if st := h.controller.Status().State; st != flight.ManualOverride {
		t.Errorf("override must win over a queued signal, state %v", st)
	}
}

func TestController_TargetLossEntersHold(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Selection.TargetLostFrameCount = 1
	})
	h.engage(t)

	// No new frames: the selector re-reads the consumed snapshot and
	// counts misses until the target drops.
	h.controller.Cycle(h.ctx)
	h.controller.Cycle(h.ctx)

	st := h.controller.Status()
	if st.State != flight.Hold {
		t.Fatalf("state = %v, want hold", st.State)
	}
	if st.TargetVisible {
		t.Errorf("lost target must not be reported visible")
	}

	// Reacquisition resumes tracking.
	h.publishFrame()
	h.controller.Cycle(h.ctx)
	if st := h.controller.Status().State; st != flight.AutonomousTracking {
		t.Errorf("reacquisition: state %v, want autonomous_tracking", st)
	}
}

func TestController_CriticalBatteryLands(t *testing.T) {
	h := newHarness(t, nil)
	h.engage(t)

	h.link.SetBattery(5)
	h.sampler.Sample(h.ctx)
	h.publishFrame()
	h.controller.Cycle(h.ctx)

	st := h.controller.Status()
	if st.State != flight.EmergencyLanding {
		t.Errorf("state = %v, want emergency_landing", st.State)
	}
	if st.VerdictKind != "critical_battery" {
		t.Errorf("verdict kind = %s, want critical_battery", st.VerdictKind)
	}
}

func TestController_LowBatteryReturns(t *testing.T) {
	h := newHarness(t, nil)
	h.engage(t)

	h.link.SetBattery(15)
	h.sampler.Sample(h.ctx)
	h.publishFrame()
	h.controller.Cycle(h.ctx)

	if st := h.controller.Status().State; st != flight.ReturnToLaunch {
		t.Errorf("state = %v, want return_to_launch", st)
	}
}

func TestController_LandingDispatchFailureFaultsAndResets(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Rates.CommandAckTimeout = 0
	})
	h.engage(t)

	h.link.SetBattery(5)
	h.link.RejectCommands(true)
	h.sampler.Sample(h.ctx)

	h.publishFrame()
	h.controller.Cycle(h.ctx) // enters emergency landing, land command rejected
	time.Sleep(time.Millisecond)
	h.publishFrame()
	h.controller.Cycle(h.ctx) // failure window exceeded
	h.publishFrame()
	h.controller.Cycle(h.ctx) // failure observed by the state machine

	if st := h.controller.Status().State; st != flight.Fault {
		t.Fatalf("state = %v, want fault", st)
	}

	h.controller.AcknowledgeFault()
	h.controller.Cycle(h.ctx)
	if st := h.controller.Status().State; st != flight.Idle {
		t.Errorf("reset: state = %v, want idle", st)
	}
}

func TestController_StatusReflectsTelemetry(t *testing.T) {
	h := newHarness(t, nil)
	h.link.SetAltitude(12)
	h.sampler.Sample(h.ctx)
	h.controller.Cycle(h.ctx)

	st := h.controller.Status()
	if !st.HaveTelemetry || st.Telemetry.Altitude != 12 {
		t.Errorf("status must carry the latest telemetry, got %+v", st)
	}
}
