package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/airboard/internal/app"
	"github.com/ayusman/airboard/internal/detector"
	"github.com/ayusman/airboard/internal/gesture"
	"github.com/ayusman/airboard/internal/notepad"
)

// sessionFixture is a running server with a hub, an app and a notepad wired
// the way the binary wires them.
type sessionFixture struct {
	srv *httptest.Server
	hub *Hub
	app *app.App
	pad *notepad.Buffer
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub()
	go hub.Run(ctx)

	st := newTestStore(t)
	pad := notepad.New(st.Notes())

	d := app.NewDispatcher(time.Second)
	d.Register("hub", hub)
	d.Register("notepad", pad)

	a := app.New(app.Config{
		FrameBuffer: 64,
		Tuning:      gesture.Config{DwellThreshold: 5},
		Dispatcher:  d,
		Listeners:   []app.Listener{hub},
	})
	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(a.Stop)

	srv := httptest.NewServer(New(Config{Store: st, App: a, Hub: hub, Notepad: pad}))
	t.Cleanup(srv.Close)

	return &sessionFixture{srv: srv, hub: hub, app: a, pad: pad}
}

func (f *sessionFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/api/session"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ MessageType, data any) {
	t.Helper()

	msg, err := NewMessage(typ, data)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil reads messages until match accepts one or the deadline passes.
func readUntil(t *testing.T, conn *websocket.Conn, what string, match func(*Message) bool) *Message {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", what, err)
		}
		if match(&msg) {
			return &msg
		}
	}
}

func TestSession_TypesKeyIntoNotepad(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping websocket integration test in short mode")
	}

	f := newSessionFixture(t)
	conn := f.dial(t)

	first := readUntil(t, conn, "initial status", func(m *Message) bool { return true })
	if first.Type != TypeStatus {
		t.Fatalf("first message type = %q, want status", first.Type)
	}
	var st app.Status
	if err := first.ParseData(&st); err != nil {
		t.Fatal(err)
	}
	if st.Tracking {
		t.Error("tracking should start disabled")
	}

	send(t, conn, TypeTracking, TrackingData{Enabled: true})
	readUntil(t, conn, "tracking status", func(m *Message) bool {
		var st app.Status
		return m.Type == TypeStatus && m.ParseData(&st) == nil && st.Tracking
	})

	// Sits under the index tip of detector.PointLandmarks on a 1000x500 canvas.
	send(t, conn, TypeLayout, LayoutData{Keys: []gesture.KeyRect{{Key: "q", X: 500, Y: 150, Width: 100, Height: 50}}})
	readUntil(t, conn, "layout status", func(m *Message) bool {
		var st app.Status
		return m.Type == TypeStatus && m.ParseData(&st) == nil && st.Keys == 1
	})

	point := detector.PointLandmarks().Slice()
	for i := 0; i < 5; i++ {
		send(t, conn, TypeFrame, FrameData{Landmarks: point, Width: 1000, Height: 500})
	}

	action := readUntil(t, conn, "type_key action", func(m *Message) bool { return m.Type == TypeAction })
	var ev gesture.Event
	if err := action.ParseData(&ev); err != nil {
		t.Fatal(err)
	}
	if ev.Action != gesture.ActionTypeKey || ev.Key != "q" {
		t.Errorf("unexpected action %+v", ev)
	}

	deadline := time.Now().Add(2 * time.Second)
	for f.pad.Text() != "q" {
		if time.Now().After(deadline) {
			t.Fatalf("notepad text = %q, want %q", f.pad.Text(), "q")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSession_RejectsBadMessages(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping websocket integration test in short mode")
	}

	f := newSessionFixture(t)
	conn := f.dial(t)
	readUntil(t, conn, "initial status", func(m *Message) bool { return m.Type == TypeStatus })

	tests := []struct {
		name string
		send func(t *testing.T)
	}{
		{"invalid JSON", func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte("{nope")); err != nil {
				t.Fatal(err)
			}
		}},
		{"unknown type", func(t *testing.T) { send(t, conn, "dance", struct{}{}) }},
		{"invalid mode", func(t *testing.T) { send(t, conn, TypeMode, ModeData{Mode: "piano"}) }},
		{"invalid layout", func(t *testing.T) { send(t, conn, TypeLayout, LayoutData{Size: "huge", Width: 100}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.send(t)
			msg := readUntil(t, conn, "error reply", func(m *Message) bool { return m.Type == TypeError })
			var data ErrorData
			if err := msg.ParseData(&data); err != nil || data.Error == "" {
				t.Errorf("unexpected error payload %s", msg.Data)
			}
		})
	}

	// Frames while tracking is off are ignored without a reply.
	send(t, conn, TypeFrame, FrameData{Width: 1000, Height: 500})
	send(t, conn, TypeMode, ModeData{Mode: gesture.ModeBrowser})
	msg := readUntil(t, conn, "mode status", func(m *Message) bool { return m.Type != TypeState })
	if msg.Type != TypeStatus {
		t.Errorf("expected status after ignored frame, got %q: %s", msg.Type, msg.Data)
	}
}

func TestSession_HubTracksClients(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping websocket integration test in short mode")
	}

	f := newSessionFixture(t)
	conn := f.dial(t)
	readUntil(t, conn, "initial status", func(m *Message) bool { return m.Type == TypeStatus })

	waitClients(t, f.hub, 1)
	conn.Close()
	waitClients(t, f.hub, 0)
}

func waitClients(t *testing.T, hub *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != want {
		if time.Now().After(deadline) {
			t.Fatalf("Clients() = %d, want %d", hub.Clients(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
