package gesture

import (
	"time"

	"github.com/ayusman/airboard/internal/detector"
)

// Action is a discrete workspace command produced by the state machines.
type Action string

const (
	ActionTypeKey    Action = "type_key"
	ActionBackspace  Action = "backspace"
	ActionSpace      Action = "space"
	ActionScrollUp   Action = "scroll_up"
	ActionScrollDown Action = "scroll_down"
	ActionZoomIn     Action = "zoom_in"
	ActionZoomOut    Action = "zoom_out"
	ActionZoomReset  Action = "zoom_reset"
	ActionGoBack     Action = "go_back"
)

// Actions lists every action kind, in a stable order.
func Actions() []Action {
	return []Action{
		ActionTypeKey, ActionBackspace, ActionSpace,
		ActionScrollUp, ActionScrollDown,
		ActionZoomIn, ActionZoomOut, ActionZoomReset, ActionGoBack,
	}
}

// Valid reports whether a is a known action kind.
func (a Action) Valid() bool {
	for _, known := range Actions() {
		if a == known {
			return true
		}
	}
	return false
}

// Event is one emitted action. Key is set only for ActionTypeKey.
type Event struct {
	Action  Action    `json:"action"`
	Key     string    `json:"key,omitempty"`
	Gesture Label     `json:"gesture"`
	At      time.Time `json:"at"`
}

// Mode selects which state machine consumes the classified gesture.
type Mode string

const (
	ModeKeyboard Mode = "keyboard"
	ModeBrowser  Mode = "browser"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeKeyboard || m == ModeBrowser
}

// Frame is one landmark sample from a source. Landmarks is empty when no
// hand is visible. Width and Height are the canvas size in pixels.
type Frame struct {
	Landmarks []detector.Point3D
	Width     float64
	Height    float64
	Timestamp time.Time
}
