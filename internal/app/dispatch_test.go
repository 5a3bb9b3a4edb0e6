package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ayusman/airboard/internal/gesture"
)

func TestDispatcher_DeliversInOrder(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	d := NewDispatcher(time.Second)
	d.Register("a", a)
	d.Register("b", b)

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	keys := []string{"h", "e", "l", "l", "o"}
	for _, k := range keys {
		d.Dispatch(gesture.Event{Action: gesture.ActionTypeKey, Key: k})
	}

	waitFor(t, "deliveries", func() bool { return d.Delivered() == int64(2*len(keys)) })
	cancel()
	d.Wait()

	for name, sink := range map[string]*recordingSink{"a": a, "b": b} {
		got := sink.snapshot()
		if len(got) != len(keys) {
			t.Fatalf("sink %s got %d events", name, len(got))
		}
		for i, ev := range got {
			if ev.Key != keys[i] {
				t.Errorf("sink %s event %d = %q, want %q", name, i, ev.Key, keys[i])
			}
		}
	}

	if got := d.Sinks(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Sinks() = %v", got)
	}
}

func TestDispatcher_FailureDoesNotStopOthers(t *testing.T) {
	good := &recordingSink{}
	d := NewDispatcher(time.Second)
	d.Register("broken", SinkFunc(func(context.Context, gesture.Event) error {
		return errors.New("plugin exited 1")
	}))
	d.Register("good", good)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Dispatch(gesture.Event{Action: gesture.ActionZoomIn})
	d.Dispatch(gesture.Event{Action: gesture.ActionZoomOut})

	waitFor(t, "deliveries", func() bool { return d.Failed() == 2 && d.Delivered() == 2 })

	if got := good.snapshot(); len(got) != 2 {
		t.Errorf("healthy sink got %d events", len(got))
	}
}

func TestDispatcher_SlowSinkDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	fast := &recordingSink{}

	d := NewDispatcher(10 * time.Second)
	d.Register("slow", SinkFunc(func(ctx context.Context, _ gesture.Event) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}))
	d.Register("fast", fast)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	// One in flight plus a full queue, then overflow.
	total := DefaultSinkQueue + 5
	for i := 0; i < total; i++ {
		d.Dispatch(gesture.Event{Action: gesture.ActionSpace})
		waitFor(t, "fast sink", func() bool { return len(fast.snapshot()) == i+1 })
	}

	if d.Dropped() == 0 {
		t.Error("expected the slow sink to drop overflow events")
	}
	close(release)
}

func TestDispatcher_TimeoutBoundsDelivery(t *testing.T) {
	d := NewDispatcher(20 * time.Millisecond)
	d.Register("stuck", SinkFunc(func(ctx context.Context, _ gesture.Event) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Dispatch(gesture.Event{Action: gesture.ActionGoBack})
	waitFor(t, "timed out delivery", func() bool { return d.Failed() == 1 })
}

func TestDispatcher_RegisterAfterStart(t *testing.T) {
	d := NewDispatcher(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Register("late", &recordingSink{})
	if len(d.Sinks()) != 0 {
		t.Error("late registration should be ignored")
	}
}
