package server

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/airboard/internal/app"
	"github.com/ayusman/airboard/internal/gesture"
	"github.com/ayusman/airboard/internal/log"
)

const (
	// writeWait is how long to wait for a write to complete
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong response
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound messages; a frame of 21 landmarks is
	// well under 4KB
	maxMessageSize = 64 * 1024

	clientBuffer    = 256
	broadcastBuffer = 256
)

// Hub maintains the set of active websocket clients and broadcasts messages
// to them. It is an app.Listener for per-frame state and an app.Sink for
// emitted actions.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu      sync.RWMutex
	count   atomic.Int64
	dropped atomic.Int64
}

var (
	_ app.Listener = (*Hub)(nil)
	_ app.Sink     = (*Hub)(nil)
)

// NewHub creates a hub. Run must be called for it to deliver anything.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns when ctx is done, disconnecting
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				c.close()
			}
			h.mu.Unlock()
			h.count.Store(0)
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.count.Store(int64(n))
			log.Info("websocket client connected", "clients", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.close()
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.count.Store(int64(n))
			log.Info("websocket client disconnected", "clients", n)

		case data := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if !c.enqueue(data) {
					// Too slow to keep up with the frame rate.
					delete(h.clients, c)
					c.close()
					log.Warn("dropped slow websocket client")
				}
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.count.Store(int64(n))
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// Dropped counts broadcasts lost because the hub was saturated.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Broadcast queues msg for every client without blocking.
func (h *Hub) Broadcast(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to encode broadcast", "type", msg.Type, "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.dropped.Add(1)
		log.Warn("broadcast channel full, dropping message", "type", msg.Type)
	}
}

// PublishState broadcasts a per-frame overlay view.
func (h *Hub) PublishState(res gesture.FrameResult) {
	if h.Clients() == 0 {
		return
	}
	if msg, err := NewStateMessage(res); err == nil {
		h.Broadcast(msg)
	}
}

// PublishStatus broadcasts a pipeline status change.
func (h *Hub) PublishStatus(st app.Status) {
	if msg, err := NewStatusMessage(st); err == nil {
		h.Broadcast(msg)
	}
}

// Deliver broadcasts an emitted action.
func (h *Hub) Deliver(_ context.Context, ev gesture.Event) error {
	msg, err := NewActionMessage(ev)
	if err != nil {
		return err
	}
	h.Broadcast(msg)
	return nil
}

// attach registers c. It reports false when the hub has stopped.
func (h *Hub) attach(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Client is a single websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}
}

// Send queues msg for this client only. It reports false when the client
// is gone or its buffer is full.
func (c *Client) Send(msg *Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	return c.enqueue(data)
}

func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump reads messages until the connection closes and hands each to
// handle.
func (c *Client) readPump(handle func(*Client, *Message)) {
	defer func() {
		c.hub.detach(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("websocket read error", "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			if reply, err := NewErrorMessage(err); err == nil {
				c.Send(reply)
			}
			continue
		}
		handle(c, &msg)
	}
}

// writePump is the only goroutine that writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
