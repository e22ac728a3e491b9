package sim

import (
	"context"
	"testing"
	"time"

	"dronefollow/internal/perception"
)

func TestDetector_FramesAlwaysContainTheSubject(t *testing.T) {
	d := NewDetector(perception.NewIngest(), 10)

	for i := 0; i < 200; i++ {
		dets := d.frame()
		if len(dets) == 0 {
			t.Fatalf("frame %d is empty", i)
		}
		subject := dets[0]
		if !subject.Person {
			t.Fatalf("frame %d: subject not flagged as person", i)
		}
		if subject.Confidence < 0.8 {
			t.Errorf("frame %d: subject confidence %v too low", i, subject.Confidence)
		}
		if subject.W <= 0 || subject.H <= 0 {
			t.Errorf("frame %d: degenerate subject box %+v", i, subject)
		}
		cx := subject.CenterX()
		if cx < 0.2 || cx > 0.8 {
			t.Errorf("frame %d: subject center %v left the scripted weave", i, cx)
		}
	}
}

func TestDetector_RunPublishesThroughIngest(t *testing.T) {
	ingest := perception.NewIngest()
	d := NewDetector(ingest, 100)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	d.Run(ctx)

	snap, ok := ingest.Latest()
	if !ok {
		t.Fatalf("expected at least one published frame")
	}
	if len(snap.Detections) == 0 {
		t.Fatalf("published frame has no detections")
	}
	for _, det := range snap.Detections {
		if !det.Person {
			t.Errorf("non-person detection survived ingest: %+v", det)
		}
	}
}
