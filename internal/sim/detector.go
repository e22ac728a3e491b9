// Package sim provides a scripted detection source for running the control
// core without a camera: a person walking a slow weave across the frame,
// plus occasional distractors to exercise target selection.
package sim

import (
	"context"
	"math"
	"math/rand"
	"time"

	"dronefollow/internal/logging"
	"dronefollow/internal/perception"
)

// Detector publishes synthetic person detections at a fixed frame rate.
type Detector struct {
	ingest *perception.Ingest
	rateHz float64
	rng    *rand.Rand

	t float64
}

// NewDetector creates a scripted detector feeding the given ingest.
func NewDetector(ingest *perception.Ingest, rateHz float64) *Detector {
	return &Detector{
		ingest: ingest,
		rateHz: rateHz,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run publishes frames until the context is done.
func (d *Detector) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	interval := time.Duration(float64(time.Second) / d.rateHz)
	log.Info("starting scripted detector", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.ingest.Publish(d.frame(), time.Now())
		case <-ctx.Done():
			log.Info("stopping scripted detector")
			return
		}
	}
}

// frame advances the script by one frame and returns its detections.
func (d *Detector) frame() []perception.Detection {
	d.t += 1.0 / d.rateHz

	// The subject weaves laterally and drifts slowly closer and further,
	// which shows up as the box growing and shrinking.
	w := 0.12 + 0.05*math.Sin(0.15*d.t)
	h := w * 2.2
	cx := 0.5 + 0.25*math.Sin(0.4*d.t)
	cy := 0.55 + 0.03*math.Sin(0.9*d.t)

	subject := perception.Detection{
		X:          cx - w/2,
		Y:          cy - h/2,
		W:          w,
		H:          h,
		Confidence: 0.82 + 0.1*d.rng.Float64(),
		Person:     true,
	}

	dets := []perception.Detection{subject}

	// A second person wanders through the edge of the frame now and then
	// with lower confidence, so continuity matching has something to hold
	// against.
	if math.Sin(0.07*d.t) > 0.6 {
		dets = append(dets, perception.Detection{
			X:          0.05,
			Y:          0.5,
			W:          0.08,
			H:          0.18,
			Confidence: 0.55 + 0.05*d.rng.Float64(),
			Person:     true,
		})
	}

	// Non-person clutter the ingest boundary must drop.
	if d.rng.Float64() < 0.1 {
		dets = append(dets, perception.Detection{
			X:          d.rng.Float64() * 0.8,
			Y:          d.rng.Float64() * 0.8,
			W:          0.1,
			H:          0.1,
			Confidence: 0.9,
			Person:     false,
		})
	}

	return dets
}
