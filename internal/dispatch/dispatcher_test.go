package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dronefollow/internal/config"
	"dronefollow/internal/flight"
	"dronefollow/internal/tracking"
	"dronefollow/internal/vehicle"
)

type velocityCall struct {
	forward, right, up, yawRate float64
}

// fakeLink records every call so tests can assert on the exact wire traffic.
type fakeLink struct {
	velocities []velocityCall
	rtlCalls   int
	landCalls  int
	err        error
}

func (f *fakeLink) Telemetry(ctx context.Context) (vehicle.Telemetry, error) {
	return vehicle.Telemetry{}, nil
}

func (f *fakeLink) SetVelocity(ctx context.Context, forward, right, up, yawRate float64) error {
	if f.err != nil {
		return f.err
	}
	f.velocities = append(f.velocities, velocityCall{forward, right, up, yawRate})
	return nil
}

func (f *fakeLink) ReturnToLaunch(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.rtlCalls++
	return nil
}

func (f *fakeLink) Land(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.landCalls++
	return nil
}

func (f *fakeLink) Armed(ctx context.Context) (bool, error) { return true, nil }

func newTestDispatcher(link vehicle.Link) *Dispatcher {
	cfg := config.Default()
	return NewDispatcher(link, cfg.Limits, cfg.Rates)
}

func TestDispatcher_SendsFreshTrackingCommand(t *testing.T) {
	link := &fakeLink{}
	d := newTestDispatcher(link)
	now := time.Now()

	cmd := tracking.Command{Forward: 1.5, Right: -0.5, YawRate: 10, GeneratedAt: now}
	failed := d.Dispatch(context.Background(), flight.AutonomousTracking, cmd, now)

	require.False(t, failed)
	require.Len(t, link.velocities, 1)
	require.Equal(t, velocityCall{1.5, -0.5, 0, 10}, link.velocities[0])
}

func TestDispatcher_ClampsBeforeSending(t *testing.T) {
	link := &fakeLink{}
	d := newTestDispatcher(link)
	now := time.Now()

	cmd := tracking.Command{Forward: 99, Right: -99, Up: 99, YawRate: -999, GeneratedAt: now}
	d.Dispatch(context.Background(), flight.AutonomousTracking, cmd, now)

	require.Len(t, link.velocities, 1)
	require.Equal(t, velocityCall{3, -3, 3, -45}, link.velocities[0])
}

func TestDispatcher_ReusesRecentCommand(t *testing.T) {
	link := &fakeLink{}
	d := newTestDispatcher(link)
	now := time.Now()

	cmd := tracking.Command{Forward: 2, GeneratedAt: now}
	d.Dispatch(context.Background(), flight.AutonomousTracking, cmd, now)

	// Same command half a second later: older than the reuse interval but
	// inside the degrade window, so the last value is reused.
	later := now.Add(500 * time.Millisecond)
	d.Dispatch(context.Background(), flight.AutonomousTracking, cmd, later)

	require.Len(t, link.velocities, 2)
	require.Equal(t, 2.0, link.velocities[1].forward)
}

func TestDispatcher_DegradesToZeroWhenGeneratorSilent(t *testing.T) {
	link := &fakeLink{}
	d := newTestDispatcher(link)
	now := time.Now()

	cmd := tracking.Command{Forward: 2, GeneratedAt: now}
	d.Dispatch(context.Background(), flight.AutonomousTracking, cmd, now)

	later := now.Add(2 * time.Second) // past command_degrade_interval
	d.Dispatch(context.Background(), flight.AutonomousTracking, cmd, later)

	require.Len(t, link.velocities, 2)
	require.Equal(t, velocityCall{}, link.velocities[1])
}

func TestDispatcher_ReturnIssuedOnceUntilAcked(t *testing.T) {
	link := &fakeLink{}
	d := newTestDispatcher(link)
	now := time.Now()

	for i := 0; i < 5; i++ {
		d.Dispatch(context.Background(), flight.ReturnToLaunch, tracking.Command{}, now.Add(time.Duration(i)*50*time.Millisecond))
	}
	require.Equal(t, 1, link.rtlCalls)
}

func TestDispatcher_RetriesModeCommandUntilAcked(t *testing.T) {
	link := &fakeLink{err: vehicle.ErrCommandRejected}
	d := newTestDispatcher(link)
	now := time.Now()

	d.Dispatch(context.Background(), flight.EmergencyLanding, tracking.Command{}, now)
	require.Equal(t, 0, link.landCalls)

	link.err = nil
	d.Dispatch(context.Background(), flight.EmergencyLanding, tracking.Command{}, now.Add(50*time.Millisecond))
	require.Equal(t, 1, link.landCalls)
}

func TestDispatcher_ReportsFailureAfterAckTimeout(t *testing.T) {
	link := &fakeLink{err: errors.New("link down")}
	d := newTestDispatcher(link)
	now := time.Now()

	cmd := tracking.Command{Forward: 1, GeneratedAt: now}
	require.False(t, d.Dispatch(context.Background(), flight.AutonomousTracking, cmd, now))

	// Still failing inside the ack window.
	require.False(t, d.Dispatch(context.Background(), flight.AutonomousTracking, cmd, now.Add(time.Second)))

	// Past command_ack_timeout the failure is reported.
	require.True(t, d.Dispatch(context.Background(), flight.AutonomousTracking, cmd, now.Add(4*time.Second)))
}

func TestDispatcher_RecoveryClearsFailureWindow(t *testing.T) {
	link := &fakeLink{err: errors.New("link down")}
	d := newTestDispatcher(link)
	now := time.Now()

	cmd := tracking.Command{Forward: 1, GeneratedAt: now}
	d.Dispatch(context.Background(), flight.AutonomousTracking, cmd, now)

	link.err = nil
	cmd.GeneratedAt = now.Add(time.Second)
	require.False(t, d.Dispatch(context.Background(), flight.AutonomousTracking, cmd, now.Add(time.Second)))

	link.err = errors.New("link down again")
	cmd.GeneratedAt = now.Add(2 * time.Second)
	// Fresh failure window: not reported yet even though the first failure
	// was long ago.
	require.False(t, d.Dispatch(context.Background(), flight.AutonomousTracking, cmd, now.Add(4*time.Second)))
}

func TestDispatcher_IdleAndManualSendNothing(t *testing.T) {
	link := &fakeLink{}
	d := newTestDispatcher(link)
	now := time.Now()

	cmd := tracking.Command{Forward: 2, GeneratedAt: now}
	d.Dispatch(context.Background(), flight.Idle, cmd, now)
	d.Dispatch(context.Background(), flight.ManualOverride, cmd, now)
	d.Dispatch(context.Background(), flight.Fault, cmd, now)

	require.Empty(t, link.velocities)
	require.Zero(t, link.rtlCalls)
	require.Zero(t, link.landCalls)
}

func TestDispatcher_StateChangeResetsAck(t *testing.T) {
	link := &fakeLink{}
	d := newTestDispatcher(link)
	now := time.Now()

	d.Dispatch(context.Background(), flight.ReturnToLaunch, tracking.Command{}, now)
	d.Dispatch(context.Background(), flight.EmergencyLanding, tracking.Command{}, now.Add(50*time.Millisecond))

	require.Equal(t, 1, link.rtlCalls)
	require.Equal(t, 1, link.landCalls, "landing must be issued even though return was already acked")
}
