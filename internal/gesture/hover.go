package gesture

// KeyRect is an on-screen key in canvas pixel coordinates.
type KeyRect struct {
	Key    string  `json:"key"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether (x, y) lies inside the rectangle, edges included.
func (r KeyRect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// HoverState is the dwell progress on the currently pointed-at key.
// The zero value is Idle.
type HoverState struct {
	Key         string `json:"key,omitempty"`
	DwellFrames int    `json:"dwell_frames"`
	Confidence  int    `json:"confidence"` // 0..100
}

// Idle reports whether no key is hovered.
func (s HoverState) Idle() bool {
	return s.Key == ""
}

// HoverDetector tracks a pointing fingertip over a key layout and emits a
// key press once the same key has been hovered for the dwell threshold.
type HoverDetector struct {
	threshold int
	layout    []KeyRect
	state     HoverState
}

// NewHoverDetector creates a detector that fires after threshold frames.
// Non-positive thresholds fall back to DefaultDwellThreshold.
func NewHoverDetector(threshold int) *HoverDetector {
	if threshold <= 0 {
		threshold = DefaultDwellThreshold
	}
	return &HoverDetector{threshold: threshold}
}

// SetLayout replaces the key layout. Order matters: the first rectangle
// containing the fingertip wins.
func (d *HoverDetector) SetLayout(keys []KeyRect) {
	d.layout = append([]KeyRect(nil), keys...)
}

// Layout returns a copy of the current key layout.
func (d *HoverDetector) Layout() []KeyRect {
	return append([]KeyRect(nil), d.layout...)
}

// SetThreshold changes the dwell threshold without touching the hover state.
func (d *HoverDetector) SetThreshold(threshold int) {
	if threshold > 0 {
		d.threshold = threshold
	}
}

// State returns the current hover state.
func (d *HoverDetector) State() HoverState {
	return d.state
}

// Reset returns the detector to Idle.
func (d *HoverDetector) Reset() {
	d.state = HoverState{}
}

// KeyAt returns the first key containing the canvas point, or "".
func (d *HoverDetector) KeyAt(x, y float64) string {
	for _, r := range d.layout {
		if r.Contains(x, y) {
			return r.Key
		}
	}
	return ""
}

// Update advances the state machine by one frame. tip is the index fingertip
// in canvas pixels; ok is false when no fingertip is available. It returns
// the key to type, or "" when nothing fires this frame.
func (d *HoverDetector) Update(label Label, tip Position, ok bool) string {
	if !ok || label != LabelPoint {
		d.Reset()
		return ""
	}

	key := d.KeyAt(tip.X, tip.Y)
	if key == "" {
		d.Reset()
		return ""
	}

	if key == d.state.Key {
		d.state.DwellFrames++
	} else {
		d.state = HoverState{Key: key, DwellFrames: 1}
	}
	d.state.Confidence = confidence(d.state.DwellFrames, d.threshold)

	if d.state.DwellFrames >= d.threshold {
		d.Reset()
		return key
	}
	return ""
}

func confidence(frames, threshold int) int {
	c := 100 * frames / threshold
	if c > 100 {
		return 100
	}
	return c
}
