package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/airboard/internal/app"
	"github.com/ayusman/airboard/internal/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// SessionHandler serves /api/session. Browsers stream landmark frames and
// control messages in; the hub pushes state, status and action messages out.
type SessionHandler struct {
	hub *Hub
	app Controller
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(hub *Hub, ctrl Controller) *SessionHandler {
	return &SessionHandler{hub: hub, app: ctrl}
}

// ServeHTTP upgrades the connection and runs the client until it closes.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := newClient(h.hub, conn)
	if !h.hub.attach(c) {
		conn.Close()
		return
	}

	if st, err := h.app.Status(); err == nil {
		if msg, err := NewStatusMessage(st); err == nil {
			c.Send(msg)
		}
	}

	go c.writePump()
	c.readPump(h.handle)
}

// handle applies one client message. Rejected messages are answered with an
// error message to the sender only.
func (h *SessionHandler) handle(c *Client, msg *Message) {
	if err := h.apply(msg); err != nil {
		if reply, err := NewErrorMessage(err); err == nil {
			c.Send(reply)
		}
	}
}

func (h *SessionHandler) apply(msg *Message) error {
	switch msg.Type {
	case TypeFrame:
		var data FrameData
		if err := msg.ParseData(&data); err != nil {
			return fmt.Errorf("frame: %w", err)
		}
		err := h.app.Submit(data.Frame(time.Now()))
		if errors.Is(err, app.ErrNotTracking) || errors.Is(err, app.ErrFrameDropped) {
			return nil
		}
		return err

	case TypeLayout:
		var data LayoutData
		if err := msg.ParseData(&data); err != nil {
			return fmt.Errorf("layout: %w", err)
		}
		keys, err := data.Resolve()
		if err != nil {
			return err
		}
		return h.app.SetLayout(keys)

	case TypeMode:
		var data ModeData
		if err := msg.ParseData(&data); err != nil {
			return fmt.Errorf("mode: %w", err)
		}
		return h.app.SetMode(data.Mode)

	case TypeTracking:
		var data TrackingData
		if err := msg.ParseData(&data); err != nil {
			return fmt.Errorf("tracking: %w", err)
		}
		return h.app.SetTracking(data.Enabled)

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}
