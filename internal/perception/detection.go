// Detection types published by the external detector collaborator.
package perception

import "time"

// Detection is one bounding-box observation of a candidate person in a
// single camera frame. Coordinates are normalized to [0,1] with the origin
// at the top-left corner of the frame.
type Detection struct {
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	W          float64   `json:"w"`
	H          float64   `json:"h"`
	Confidence float64   `json:"confidence"`
	Person     bool      `json:"person"`
	CapturedAt time.Time `json:"captured_at"`
}

// CenterX returns the horizontal box center in frame units.
func (d Detection) CenterX() float64 { return d.X + d.W/2 }

// CenterY returns the vertical box center in frame units.
func (d Detection) CenterY() float64 { return d.Y + d.H/2 }

// Area returns the normalized box area.
func (d Detection) Area() float64 { return d.W * d.H }

// Snapshot is an immutable, versioned batch of detections from one frame.
type Snapshot struct {
	Detections []Detection `json:"detections"`
	CapturedAt time.Time   `json:"captured_at"`
	Seq        uint64      `json:"seq"`
}

// Age reports how long ago the frame was captured.
func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.CapturedAt)
}
