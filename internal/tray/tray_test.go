package tray

import (
	"context"
	"errors"
	"testing"

	"github.com/ayusman/airboard/internal/app"
	"github.com/ayusman/airboard/internal/gesture"
)

type fakeController struct {
	tracking []bool
	modes    []gesture.Mode
	err      error
}

func (f *fakeController) SetTracking(on bool) error {
	f.tracking = append(f.tracking, on)
	return f.err
}

func (f *fakeController) SetMode(m gesture.Mode) error {
	f.modes = append(f.modes, m)
	return f.err
}

func TestTray_Defaults(t *testing.T) {
	tr := New(&fakeController{})

	if tr.Tracking() {
		t.Error("expected tracking off by default")
	}
	if tr.Mode() != gesture.ModeKeyboard {
		t.Errorf("Mode() = %q, want keyboard", tr.Mode())
	}
	if tr.LastAction() != "" {
		t.Errorf("LastAction() = %q, want empty", tr.LastAction())
	}
}

func TestTray_PublishStatus(t *testing.T) {
	tr := New(&fakeController{})

	tr.PublishStatus(app.Status{Tracking: true, Mode: gesture.ModeBrowser})
	if !tr.Tracking() || tr.Mode() != gesture.ModeBrowser {
		t.Errorf("state not mirrored: tracking=%v mode=%q", tr.Tracking(), tr.Mode())
	}

	tr.PublishState(gesture.FrameResult{Mode: gesture.ModeKeyboard})
	if tr.Mode() != gesture.ModeBrowser {
		t.Error("PublishState should not change the menu")
	}
}

func TestTray_ToggleAsksController(t *testing.T) {
	ctrl := &fakeController{}
	tr := New(ctrl)

	tr.handleToggle()
	tr.PublishStatus(app.Status{Tracking: true, Mode: gesture.ModeKeyboard})
	tr.handleToggle()

	if len(ctrl.tracking) != 2 || !ctrl.tracking[0] || ctrl.tracking[1] {
		t.Errorf("SetTracking calls = %v, want [true false]", ctrl.tracking)
	}
}

func TestTray_ModeErrorKeepsState(t *testing.T) {
	ctrl := &fakeController{err: errors.New("not running")}
	tr := New(ctrl)

	tr.handleMode(gesture.ModeBrowser)
	if len(ctrl.modes) != 1 || ctrl.modes[0] != gesture.ModeBrowser {
		t.Errorf("SetMode calls = %v", ctrl.modes)
	}
	if tr.Mode() != gesture.ModeKeyboard {
		t.Errorf("Mode() = %q, want keyboard after a failed switch", tr.Mode())
	}
}

func TestTray_Deliver(t *testing.T) {
	tr := New(&fakeController{})

	if err := tr.Deliver(context.Background(), gesture.Event{Action: gesture.ActionTypeKey, Key: "w"}); err != nil {
		t.Fatal(err)
	}
	if got := tr.LastAction(); got != "type_key w" {
		t.Errorf("LastAction() = %q, want %q", got, "type_key w")
	}

	tr.Deliver(context.Background(), gesture.Event{Action: gesture.ActionZoomIn})
	if got := tr.LastAction(); got != "zoom_in" {
		t.Errorf("LastAction() = %q, want %q", got, "zoom_in")
	}
}

func TestTitles(t *testing.T) {
	if toggleTitle(true) == toggleTitle(false) {
		t.Error("toggle titles should differ by state")
	}
	if got := lastTitle(""); got != "Last: none" {
		t.Errorf("lastTitle(\"\") = %q", got)
	}
	if got := lastTitle("space"); got != "Last: space" {
		t.Errorf("lastTitle(space) = %q", got)
	}
}
