package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ayusman/airboard/internal/gesture"
)

func runHub(t *testing.T) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

// receive waits for the next message queued for c.
func receive(t *testing.T, c *Client) (*Message, bool) {
	t.Helper()

	select {
	case data, ok := <-c.send:
		if !ok {
			return nil, false
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad message %q: %v", data, err)
		}
		return &msg, true
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
		return nil, false
	}
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	h := runHub(t)

	a, b := newClient(h, nil), newClient(h, nil)
	if !h.attach(a) || !h.attach(b) {
		t.Fatal("attach failed")
	}
	waitClients(t, h, 2)

	ev := gesture.Event{Action: gesture.ActionBackspace, Gesture: gesture.LabelFist, At: time.Now()}
	if err := h.Deliver(context.Background(), ev); err != nil {
		t.Fatal(err)
	}

	for _, c := range []*Client{a, b} {
		msg, ok := receive(t, c)
		if !ok || msg.Type != TypeAction {
			t.Fatalf("expected action message, got %+v", msg)
		}
		var got gesture.Event
		if err := msg.ParseData(&got); err != nil || got.Action != gesture.ActionBackspace {
			t.Errorf("unexpected event %+v, %v", got, err)
		}
	}
}

func TestHub_DetachClosesClient(t *testing.T) {
	h := runHub(t)

	c := newClient(h, nil)
	h.attach(c)
	waitClients(t, h, 1)

	h.detach(c)
	waitClients(t, h, 0)

	if _, ok := <-c.send; ok {
		t.Error("expected send channel to be closed")
	}
	if c.enqueue([]byte("{}")) {
		t.Error("enqueue on a closed client should fail")
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := runHub(t)

	slow := newClient(h, nil)
	h.attach(slow)
	waitClients(t, h, 1)

	for i := 0; i < clientBuffer; i++ {
		if !slow.enqueue([]byte("{}")) {
			t.Fatalf("enqueue %d failed before the buffer filled", i)
		}
	}

	h.PublishState(gesture.FrameResult{Mode: gesture.ModeKeyboard})
	waitClients(t, h, 0)
}

func TestHub_PublishStateWithoutClients(t *testing.T) {
	h := NewHub()

	h.PublishState(gesture.FrameResult{})
	if n := len(h.broadcast); n != 0 {
		t.Errorf("expected no queued broadcast, got %d", n)
	}
}

func TestHub_BroadcastDropsWhenSaturated(t *testing.T) {
	h := NewHub() // not running, so nothing drains

	msg, err := NewMessage(TypeStatus, struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < broadcastBuffer+3; i++ {
		h.Broadcast(msg)
	}
	if got := h.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
}

func TestHub_StopRejectsAttach(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	go h.Run(ctx)

	c := newClient(h, nil)
	h.attach(c)
	cancel()
	<-h.done

	if h.attach(newClient(h, nil)) {
		t.Error("attach after stop should fail")
	}
	if _, ok := <-c.send; ok {
		t.Error("expected clients to be closed on stop")
	}
}
