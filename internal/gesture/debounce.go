package gesture

import "time"

// KeyboardTimers holds the last firing time of each keyboard gesture action.
// Zero times mean the action has never fired.
type KeyboardTimers struct {
	LastBackspace time.Time `json:"last_backspace"`
	LastSpace     time.Time `json:"last_space"`
}

// KeyboardDebouncer maps fist to Backspace and peace to Space, each with its
// own minimum interval.
type KeyboardDebouncer struct {
	backspaceEvery time.Duration
	spaceEvery     time.Duration
	timers         KeyboardTimers
}

// NewKeyboardDebouncer creates a keyboard debouncer from cfg.
func NewKeyboardDebouncer(cfg Config) *KeyboardDebouncer {
	cfg = cfg.WithDefaults()
	return &KeyboardDebouncer{
		backspaceEvery: cfg.BackspaceInterval,
		spaceEvery:     cfg.SpaceInterval,
	}
}

// Timers returns the current timer state.
func (d *KeyboardDebouncer) Timers() KeyboardTimers {
	return d.timers
}

// Reset forgets all firing times.
func (d *KeyboardDebouncer) Reset() {
	d.timers = KeyboardTimers{}
}

// Update consumes one classified frame and returns the action to fire, if any.
func (d *KeyboardDebouncer) Update(label Label, now time.Time) (Event, bool) {
	switch label {
	case LabelFist:
		if elapsed(d.timers.LastBackspace, now, d.backspaceEvery) {
			d.timers.LastBackspace = now
			return Event{Action: ActionBackspace, Gesture: label, At: now}, true
		}
	case LabelPeace:
		if elapsed(d.timers.LastSpace, now, d.spaceEvery) {
			d.timers.LastSpace = now
			return Event{Action: ActionSpace, Gesture: label, At: now}, true
		}
	}
	return Event{}, false
}

// BrowserTimers is the cross-frame memory of the browser debouncer.
type BrowserTimers struct {
	// LastFired is when any browser action last fired.
	LastFired time.Time `json:"last_fired"`
	// Current is the label seen on the previous frame.
	Current Label `json:"current"`
	// ChangedAt is when Current last changed; the hold starts here.
	ChangedAt time.Time `json:"changed_at"`
	// BackFired is set once GoBack has fired for the current fist hold.
	BackFired bool `json:"back_fired"`
}

// BrowserDebouncer maps gestures to browser actions under one shared rate
// limit. A fist held past GoBackHold navigates back once; shorter fists zoom
// out. An open hand scrolls by its vertical position.
type BrowserDebouncer struct {
	cfg    Config
	timers BrowserTimers
}

// NewBrowserDebouncer creates a browser debouncer from cfg.
func NewBrowserDebouncer(cfg Config) *BrowserDebouncer {
	return &BrowserDebouncer{cfg: cfg.WithDefaults()}
}

// Timers returns the current timer state.
func (d *BrowserDebouncer) Timers() BrowserTimers {
	return d.timers
}

// Reset forgets the label memo and all firing times.
func (d *BrowserDebouncer) Reset() {
	d.timers = BrowserTimers{}
}

// Update consumes one classified frame. center is the normalized hand
// reference point and is only read for open-hand scrolling.
func (d *BrowserDebouncer) Update(label Label, center Position, now time.Time) (Event, bool) {
	if label != d.timers.Current {
		d.timers.Current = label
		d.timers.ChangedAt = now
		d.timers.BackFired = false
	}

	if !elapsed(d.timers.LastFired, now, d.cfg.BrowserInterval) {
		return Event{}, false
	}

	var action Action
	switch label {
	case LabelOpenHand:
		switch {
		case center.Y < d.cfg.ScrollUpBelow:
			action = ActionScrollUp
		case center.Y > d.cfg.ScrollDownAbove:
			action = ActionScrollDown
		default:
			return Event{}, false
		}
	case LabelThumbsUp:
		action = ActionZoomIn
	case LabelFist:
		if now.Sub(d.timers.ChangedAt) > d.cfg.GoBackHold {
			if d.timers.BackFired {
				return Event{}, false
			}
			d.timers.BackFired = true
			action = ActionGoBack
		} else {
			action = ActionZoomOut
		}
	case LabelPeace:
		action = ActionZoomReset
	default:
		return Event{}, false
	}

	d.timers.LastFired = now
	return Event{Action: action, Gesture: label, At: now}, true
}

// elapsed reports whether at least every has passed since last.
func elapsed(last, now time.Time, every time.Duration) bool {
	return last.IsZero() || now.Sub(last) >= every
}
