// Package tray provides the AirBoard system tray menu.
package tray

import (
	"context"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/airboard/internal/app"
	"github.com/ayusman/airboard/internal/gesture"
	"github.com/ayusman/airboard/internal/log"
)

// Controller is the part of the pipeline the menu drives.
type Controller interface {
	SetTracking(on bool) error
	SetMode(m gesture.Mode) error
}

// Tray is the system tray menu. It listens to pipeline status so the menu
// follows changes made from the browser, and it is a sink so it can show the
// last emitted action.
type Tray struct {
	ctrl   Controller
	onOpen func()
	onQuit func()

	mu         sync.RWMutex
	tracking   bool
	mode       gesture.Mode
	lastAction string

	// Menu items, nil until the tray is ready
	menuToggle   *systray.MenuItem
	menuKeyboard *systray.MenuItem
	menuBrowser  *systray.MenuItem
	menuLast     *systray.MenuItem
}

var (
	_ app.Listener = (*Tray)(nil)
	_ app.Sink     = (*Tray)(nil)
)

// New creates a Tray driving ctrl. Tracking starts off in keyboard mode.
func New(ctrl Controller) *Tray {
	return &Tray{
		ctrl: ctrl,
		mode: gesture.ModeKeyboard,
	}
}

// OnOpen sets the callback for the "Open Workspace" item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback for the "Quit" item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It blocks until Quit is called and must run on
// the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("AirBoard")
	systray.SetTooltip("AirBoard gesture workspace")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.tracking), "Toggle hand tracking")
	systray.AddSeparator()
	t.menuKeyboard = systray.AddMenuItemCheckbox("Keyboard mode", "Type by hovering over keys", t.mode == gesture.ModeKeyboard)
	t.menuBrowser = systray.AddMenuItemCheckbox("Browser mode", "Scroll and zoom with gestures", t.mode == gesture.ModeBrowser)
	systray.AddSeparator()
	t.menuLast = systray.AddMenuItem(lastTitle(t.lastAction), "Last emitted action")
	t.menuLast.Disable()
	systray.AddSeparator()
	menuOpen := systray.AddMenuItem("Open Workspace...", "Open the workspace in a browser")
	menuQuit := systray.AddMenuItem("Quit", "Quit AirBoard")
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuKeyboard.ClickedCh:
				t.handleMode(gesture.ModeKeyboard)
			case <-t.menuBrowser.ClickedCh:
				t.handleMode(gesture.ModeBrowser)
			case <-menuOpen.ClickedCh:
				t.call(t.onOpen)
			case <-menuQuit.ClickedCh:
				t.call(t.onQuit)
				systray.Quit()
				return
			}
		}
	}()
}

// handleToggle flips tracking. The menu title follows through PublishStatus.
func (t *Tray) handleToggle() {
	if err := t.ctrl.SetTracking(!t.Tracking()); err != nil {
		log.Warn("tray: failed to toggle tracking", "error", err)
	}
}

func (t *Tray) handleMode(m gesture.Mode) {
	if err := t.ctrl.SetMode(m); err != nil {
		log.Warn("tray: failed to switch mode", "mode", m, "error", err)
	}
	// Checkbox items toggle themselves on click; redraw from state.
	t.mu.RLock()
	t.refreshModeLocked()
	t.mu.RUnlock()
}

func (t *Tray) call(fn func()) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if fn != nil {
		go fn()
	}
}

// PublishStatus mirrors tracking and mode into the menu.
func (t *Tray) PublishStatus(st app.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tracking = st.Tracking
	t.mode = st.Mode
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(t.tracking))
	}
	t.refreshModeLocked()
}

// PublishState is a no-op; the menu does not follow individual frames.
func (t *Tray) PublishState(gesture.FrameResult) {}

// Deliver records ev as the last action.
func (t *Tray) Deliver(_ context.Context, ev gesture.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastAction = Describe(ev)
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(t.lastAction))
	}
	return nil
}

func (t *Tray) refreshModeLocked() {
	if t.menuKeyboard == nil || t.menuBrowser == nil {
		return
	}
	setChecked(t.menuKeyboard, t.mode == gesture.ModeKeyboard)
	setChecked(t.menuBrowser, t.mode == gesture.ModeBrowser)
}

// Tracking reports whether the menu shows tracking as on.
func (t *Tray) Tracking() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tracking
}

// Mode returns the mode the menu shows.
func (t *Tray) Mode() gesture.Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

// LastAction returns the description of the last delivered action.
func (t *Tray) LastAction() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastAction
}

// Describe renders an event for the menu, e.g. "type_key q".
func Describe(ev gesture.Event) string {
	if ev.Key != "" {
		return string(ev.Action) + " " + ev.Key
	}
	return string(ev.Action)
}

func toggleTitle(tracking bool) string {
	if tracking {
		return "● Tracking"
	}
	return "○ Tracking off"
}

func lastTitle(action string) string {
	if action == "" {
		return "Last: none"
	}
	return "Last: " + action
}

func setChecked(item *systray.MenuItem, on bool) {
	if on {
		item.Check()
	} else {
		item.Uncheck()
	}
}
