package gesture

import "time"

// FrameResult is the per-frame view of the pipeline, recomputed every frame
// for overlays.
type FrameResult struct {
	Mode         Mode      `json:"mode"`
	Gesture      Label     `json:"gesture"`
	Changed      bool      `json:"changed"`
	HandDetected bool      `json:"hand_detected"`
	Finger       *Position `json:"finger,omitempty"` // index tip, canvas pixels
	Hand         *Position `json:"hand,omitempty"`   // hand center, canvas pixels
	HoveredKey   string    `json:"hovered_key,omitempty"`
	Progress     int       `json:"progress"` // 0..100
	Timestamp    time.Time `json:"timestamp"`
}

// Tracker composes the classifier with the hover detector and debouncers.
// It is not safe for concurrent use; one goroutine should own it.
type Tracker struct {
	cfg      Config
	mode     Mode
	last     Label
	hover    *HoverDetector
	keyboard *KeyboardDebouncer
	browser  *BrowserDebouncer
}

// NewTracker creates a tracker in the given mode. Unknown modes fall back
// to ModeKeyboard.
func NewTracker(cfg Config, mode Mode) *Tracker {
	cfg = cfg.WithDefaults()
	if !mode.Valid() {
		mode = ModeKeyboard
	}
	return &Tracker{
		cfg:      cfg,
		mode:     mode,
		last:     LabelNone,
		hover:    NewHoverDetector(cfg.DwellThreshold),
		keyboard: NewKeyboardDebouncer(cfg),
		browser:  NewBrowserDebouncer(cfg),
	}
}

// Mode returns the active mode.
func (t *Tracker) Mode() Mode {
	return t.mode
}

// Config returns the active tuning.
func (t *Tracker) Config() Config {
	return t.cfg
}

// SetMode switches between keyboard and browser handling. Switching resets
// all state so no dwell or hold carries across modes.
func (t *Tracker) SetMode(m Mode) bool {
	if !m.Valid() {
		return false
	}
	if m != t.mode {
		t.mode = m
		t.Reset()
	}
	return true
}

// SetConfig replaces the tuning. The key layout is kept; everything else
// starts over.
func (t *Tracker) SetConfig(cfg Config) {
	layout := t.hover.Layout()
	t.cfg = cfg.WithDefaults()
	t.hover = NewHoverDetector(t.cfg.DwellThreshold)
	t.hover.SetLayout(layout)
	t.keyboard = NewKeyboardDebouncer(t.cfg)
	t.browser = NewBrowserDebouncer(t.cfg)
	t.last = LabelNone
}

// SetLayout replaces the on-screen key layout.
func (t *Tracker) SetLayout(keys []KeyRect) {
	t.hover.SetLayout(keys)
}

// Layout returns the current key layout.
func (t *Tracker) Layout() []KeyRect {
	return t.hover.Layout()
}

// Hover returns the current hover state.
func (t *Tracker) Hover() HoverState {
	return t.hover.State()
}

// KeyboardTimers returns the keyboard debouncer state.
func (t *Tracker) KeyboardTimers() KeyboardTimers {
	return t.keyboard.Timers()
}

// BrowserTimers returns the browser debouncer state.
func (t *Tracker) BrowserTimers() BrowserTimers {
	return t.browser.Timers()
}

// LastGesture returns the label classified on the previous frame.
func (t *Tracker) LastGesture() Label {
	return t.last
}

// Reset returns hover, timers and the label memo to their initial values.
func (t *Tracker) Reset() {
	t.hover.Reset()
	t.keyboard.Reset()
	t.browser.Reset()
	t.last = LabelNone
}

// Process classifies one frame and advances the active state machine.
// It returns the overlay view and the events fired on this frame.
func (t *Tracker) Process(f Frame) (FrameResult, []Event) {
	now := f.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	label := Classify(f.Landmarks)
	res := FrameResult{
		Mode:      t.mode,
		Gesture:   label,
		Changed:   label != t.last,
		Timestamp: now,
	}
	t.last = label

	tip, hasTip := FingerTip(f.Landmarks, Index)
	center, hasHand := HandCenter(f.Landmarks)
	res.HandDetected = hasHand

	if hasTip {
		res.Finger = &Position{X: tip.X * f.Width, Y: tip.Y * f.Height}
	}
	if hasHand {
		res.Hand = &Position{X: center.X * f.Width, Y: center.Y * f.Height}
	}

	var events []Event

	switch t.mode {
	case ModeKeyboard:
		if ev, ok := t.keyboard.Update(label, now); ok {
			events = append(events, ev)
		}

		var pixel Position
		if res.Finger != nil {
			pixel = *res.Finger
		}
		if key := t.hover.Update(label, pixel, hasTip); key != "" {
			events = append(events, Event{Action: ActionTypeKey, Key: key, Gesture: label, At: now})
		}

		state := t.hover.State()
		res.HoveredKey = state.Key
		res.Progress = state.Confidence

	case ModeBrowser:
		if ev, ok := t.browser.Update(label, center, now); ok {
			events = append(events, ev)
		}
	}

	return res, events
}
