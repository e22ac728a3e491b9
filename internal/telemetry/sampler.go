package telemetry

import (
	"context"
	"time"

	"dronefollow/internal/logging"
	"dronefollow/internal/snapshot"
	"dronefollow/internal/vehicle"
)

// Sampler polls the vehicle link on a fixed cadence and publishes
// normalized snapshots. It is the single writer of its mailbox; the
// control cycle never blocks on it. Query failures are logged and skipped,
// leaving staleness detection to the safety monitor.
type Sampler struct {
	link     vehicle.Link
	interval time.Duration
	box      snapshot.Mailbox[Snapshot]
	seq      uint64
	now      func() time.Time
}

// NewSampler creates a sampler polling at the given rate.
func NewSampler(link vehicle.Link, rateHz float64) *Sampler {
	if rateHz <= 0 {
		rateHz = 1
	}
	return &Sampler{
		link:     link,
		interval: time.Duration(float64(time.Second) / rateHz),
		now:      time.Now,
	}
}

// Run polls until the context is done.
func (s *Sampler) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting telemetry sampler", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sample(ctx)
		case <-ctx.Done():
			log.Info("stopping telemetry sampler")
			return
		}
	}
}

// Sample queries the vehicle once and publishes the result.
func (s *Sampler) Sample(ctx context.Context) {
	raw, err := s.link.Telemetry(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("telemetry query failed", "err", err)
		return
	}
	s.seq++
	s.box.Publish(Snapshot{
		Battery:    raw.Battery,
		Satellites: raw.Satellites,
		Altitude:   raw.Altitude,
		Lat:        raw.Lat,
		Lon:        raw.Lon,
		SignalAge:  raw.SignalAge,
		Armed:      raw.Armed,
		CapturedAt: s.now(),
		Seq:        s.seq,
	})
}

// Latest returns the most recent snapshot, or false before the first poll.
func (s *Sampler) Latest() (Snapshot, bool) {
	return s.box.Latest()
}
