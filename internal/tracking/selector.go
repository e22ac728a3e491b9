package tracking

import (
	"math"
	"time"

	"github.com/google/uuid"

	"dronefollow/internal/config"
	"dronefollow/internal/perception"
)

// Selector chooses one tracked person per control cycle and maintains
// continuity across frames. It owns the Target exclusively; consumers get
// a copy.
type Selector struct {
	cfg        config.Selection
	refArea    float64
	staleAfter time.Duration
	target     *Target
	lastSeq    uint64
}

// NewSelector creates a selector with the given tuning. referenceArea is
// the normalized box area that saturates the size term; it is the same
// calibration constant the generator's distance estimate uses, so tuning
// it moves selection and distance together.
func NewSelector(cfg config.Selection, referenceArea float64, staleAfter time.Duration) *Selector {
	if referenceArea <= 0 {
		referenceArea = 1
	}
	return &Selector{cfg: cfg, refArea: referenceArea, staleAfter: staleAfter}
}

// Update consumes the latest detection snapshot and returns the current
// target. The second return is false when no target is active. A stale or
// already-consumed snapshot counts as a missed frame; hysteresis keeps the
// target alive for target_lost_frame_count misses before dropping it.
func (s *Selector) Update(snap perception.Snapshot, have bool, now time.Time) (Target, bool) {
	if !have || snap.Seq == s.lastSeq || snap.Age(now) > s.staleAfter {
		s.miss()
		return s.current()
	}
	s.lastSeq = snap.Seq

	best, ok := s.pick(snap.Detections)
	if !ok {
		s.miss()
		return s.current()
	}

	if s.target != nil && !s.target.Lost && s.withinMatchRadius(best) {
		// Continuity match keeps the identity token.
		s.target.Box = best
		s.target.Misses = 0
		s.target.Seq = snap.Seq
		s.target.UpdatedAt = now
	} else {
		s.target = &Target{
			ID:         uuid.New(),
			Box:        best,
			Seq:        snap.Seq,
			AcquiredAt: now,
			UpdatedAt:  now,
		}
	}
	return s.current()
}

// Current returns the target state without consuming a snapshot.
func (s *Selector) Current() (Target, bool) {
	return s.current()
}

func (s *Selector) current() (Target, bool) {
	if s.target == nil || s.target.Lost {
		return Target{}, false
	}
	return *s.target, true
}

func (s *Selector) miss() {
	if s.target == nil || s.target.Lost {
		return
	}
	s.target.Misses++
	if s.target.Misses > s.cfg.TargetLostFrameCount {
		s.target.Lost = true
	}
}

// pick scores every qualifying detection and applies the continuity rule.
func (s *Selector) pick(dets []perception.Detection) (perception.Detection, bool) {
	type scored struct {
		det        perception.Detection
		score      float64
		continuity bool
	}
	var candidates []scored
	for _, d := range dets {
		if d.Confidence < s.cfg.MinConfidence {
			continue
		}
		sc := scored{det: d, score: s.score(d)}
		if s.target != nil && !s.target.Lost && s.withinMatchRadius(d) {
			sc.continuity = true
			sc.score += s.cfg.ContinuityBonus
		}
		candidates = append(candidates, sc)
	}
	if len(candidates) == 0 {
		return perception.Detection{}, false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if better(c.score, c.det, best.score, best.det) {
			best = c
		}
	}

	// A farther detection outranks the continuity match only when its
	// confidence lead exceeds the configured margin.
	if best.continuity {
		rival := perception.Detection{Confidence: -1}
		haveRival := false
		for _, c := range candidates {
			if !c.continuity && c.det.Confidence > rival.Confidence {
				rival = c.det
				haveRival = true
			}
		}
		if haveRival && rival.Confidence-best.det.Confidence > s.cfg.ConfidenceMargin {
			return rival, true
		}
	}
	return best.det, true
}

// score is the weighted sum of confidence, box size (proximity proxy), and
// centrality.
func (s *Selector) score(d perception.Detection) float64 {
	size := d.Area() / s.refArea
	if size > 1 {
		size = 1
	}
	dx := d.CenterX() - 0.5
	dy := d.CenterY() - 0.5
	centerDist := math.Hypot(dx, dy)
	if centerDist > 1 {
		centerDist = 1
	}
	return s.cfg.ConfidenceWeight*d.Confidence +
		s.cfg.SizeWeight*size +
		s.cfg.CenterWeight*(1-centerDist)
}


func (s *Selector) withinMatchRadius(d perception.Detection) bool {
	dx := d.CenterX() - s.target.Box.CenterX()
	dy := d.CenterY() - s.target.Box.CenterY()
	return math.Hypot(dx, dy) <= s.cfg.TargetMatchRadius
}

// better breaks score ties by confidence, then by box area.
func better(score float64, det perception.Detection, bestScore float64, bestDet perception.Detection) bool {
	if score != bestScore {
		return score > bestScore
	}
	if det.Confidence != bestDet.Confidence {
		return det.Confidence > bestDet.Confidence
	}
	return det.Area() > bestDet.Area()
}
