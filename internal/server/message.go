package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/airboard/internal/app"
	"github.com/ayusman/airboard/internal/detector"
	"github.com/ayusman/airboard/internal/gesture"
	"github.com/ayusman/airboard/internal/keyboard"
)

// ErrInvalidLayout is returned for a layout payload that cannot be applied.
var ErrInvalidLayout = errors.New("invalid layout")

// MessageType identifies a websocket message.
type MessageType string

const (
	// Client -> server
	TypeFrame    MessageType = "frame"
	TypeLayout   MessageType = "layout"
	TypeMode     MessageType = "mode"
	TypeTracking MessageType = "tracking"

	// Server -> client
	TypeState  MessageType = "state"
	TypeStatus MessageType = "status"
	TypeAction MessageType = "action"
	TypeError  MessageType = "error"
)

// Message is the websocket envelope. Data holds the type-specific payload.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"timestamp"` // unix millis
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage wraps data in an envelope stamped with the current time.
func NewMessage(t MessageType, data any) (*Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return &Message{
		Type:      t,
		Timestamp: time.Now().UnixMilli(),
		Data:      raw,
	}, nil
}

// ParseData decodes the payload into v.
func (m *Message) ParseData(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s message has no data", m.Type)
	}
	return json.Unmarshal(m.Data, v)
}

// FrameData is one browser-detected hand. Landmarks is empty when no hand is
// visible.
type FrameData struct {
	Landmarks []detector.Point3D `json:"landmarks"`
	Width     float64            `json:"width"`
	Height    float64            `json:"height"`
}

// Frame converts the payload for the pipeline, stamped with at.
func (d FrameData) Frame(at time.Time) gesture.Frame {
	return gesture.Frame{
		Landmarks: d.Landmarks,
		Width:     d.Width,
		Height:    d.Height,
		Timestamp: at,
	}
}

// LayoutData carries either explicit keys or a generated keyboard size.
type LayoutData struct {
	Keys  []gesture.KeyRect `json:"keys,omitempty"`
	Size  string            `json:"size,omitempty"`
	Width float64           `json:"width,omitempty"`
}

// Resolve returns the key rectangles the payload describes. A size takes
// precedence over explicit keys.
func (d LayoutData) Resolve() ([]gesture.KeyRect, error) {
	if d.Size != "" {
		if d.Width <= 0 {
			return nil, fmt.Errorf("%w: width must be positive", ErrInvalidLayout)
		}
		keys, err := keyboard.Layout(keyboard.Size(d.Size), d.Width)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
		}
		return keys, nil
	}

	for i, k := range d.Keys {
		if k.Key == "" {
			return nil, fmt.Errorf("%w: key %d has no name", ErrInvalidLayout, i)
		}
		if k.Width <= 0 || k.Height <= 0 {
			return nil, fmt.Errorf("%w: key %q has no area", ErrInvalidLayout, k.Key)
		}
	}
	return d.Keys, nil
}

// ModeData selects the pipeline mode.
type ModeData struct {
	Mode gesture.Mode `json:"mode"`
}

// TrackingData toggles tracking.
type TrackingData struct {
	Enabled bool `json:"enabled"`
}

// ErrorData reports a rejected client message.
type ErrorData struct {
	Error string `json:"error"`
}

// NewStateMessage wraps a per-frame overlay view.
func NewStateMessage(res gesture.FrameResult) (*Message, error) {
	return NewMessage(TypeState, res)
}

// NewStatusMessage wraps a pipeline status snapshot.
func NewStatusMessage(st app.Status) (*Message, error) {
	return NewMessage(TypeStatus, st)
}

// NewActionMessage wraps an emitted event.
func NewActionMessage(ev gesture.Event) (*Message, error) {
	return NewMessage(TypeAction, ev)
}

// NewErrorMessage wraps an error for the client.
func NewErrorMessage(err error) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Error: err.Error()})
}
