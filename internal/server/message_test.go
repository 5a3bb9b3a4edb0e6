package server

import (
	"errors"
	"testing"
	"time"

	"github.com/ayusman/airboard/internal/detector"
	"github.com/ayusman/airboard/internal/gesture"
)

func TestNewMessage(t *testing.T) {
	before := time.Now().UnixMilli()
	msg, err := NewMessage(TypeMode, ModeData{Mode: gesture.ModeBrowser})
	if err != nil {
		t.Fatal(err)
	}
	if msg.Type != TypeMode || msg.Timestamp < before {
		t.Errorf("unexpected envelope %+v", msg)
	}

	var data ModeData
	if err := msg.ParseData(&data); err != nil {
		t.Fatal(err)
	}
	if data.Mode != gesture.ModeBrowser {
		t.Errorf("Mode = %q, want browser", data.Mode)
	}
}

func TestMessage_ParseDataEmpty(t *testing.T) {
	msg := &Message{Type: TypeTracking}

	var data TrackingData
	if err := msg.ParseData(&data); err == nil {
		t.Error("expected an error for a message without data")
	}
}

func TestFrameData_Frame(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	points := detector.FistLandmarks().Slice()

	f := FrameData{Landmarks: points, Width: 640, Height: 480}.Frame(at)
	if len(f.Landmarks) != detector.NumLandmarks || f.Width != 640 || f.Height != 480 {
		t.Errorf("unexpected frame %+v", f)
	}
	if !f.Timestamp.Equal(at) {
		t.Errorf("Timestamp = %v, want %v", f.Timestamp, at)
	}
}

func TestLayoutData_Resolve(t *testing.T) {
	explicit := []gesture.KeyRect{{Key: "a", X: 0, Y: 0, Width: 40, Height: 40}}

	tests := []struct {
		name    string
		data    LayoutData
		keys    int
		wantErr bool
	}{
		{"generated size", LayoutData{Size: "small", Width: 800}, 29, false},
		{"size wins over keys", LayoutData{Size: "large", Width: 1200, Keys: explicit}, 29, false},
		{"explicit keys", LayoutData{Keys: explicit}, 1, false},
		{"empty layout", LayoutData{}, 0, false},
		{"unknown size", LayoutData{Size: "tiny", Width: 800}, 0, true},
		{"missing width", LayoutData{Size: "small"}, 0, true},
		{"unnamed key", LayoutData{Keys: []gesture.KeyRect{{Width: 1, Height: 1}}}, 0, true},
		{"zero area", LayoutData{Keys: []gesture.KeyRect{{Key: "b", Width: 10}}}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, err := tt.data.Resolve()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLayout) {
					t.Errorf("Resolve() error = %v, want ErrInvalidLayout", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if len(keys) != tt.keys {
				t.Errorf("expected %d keys, got %d", tt.keys, len(keys))
			}
		})
	}
}

func TestNewErrorMessage(t *testing.T) {
	msg, err := NewErrorMessage(errors.New("boom"))
	if err != nil {
		t.Fatal(err)
	}

	var data ErrorData
	if err := msg.ParseData(&data); err != nil {
		t.Fatal(err)
	}
	if msg.Type != TypeError || data.Error != "boom" {
		t.Errorf("unexpected error message %+v %+v", msg, data)
	}
}
