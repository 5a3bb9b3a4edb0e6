package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/airboard/internal/gesture"
	"github.com/ayusman/airboard/internal/log"
)

// Dispatcher defaults.
const (
	DefaultSinkQueue      = 64
	DefaultDeliverTimeout = 10 * time.Second
)

// Sink receives the events the pipeline emits.
type Sink interface {
	Deliver(ctx context.Context, ev gesture.Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev gesture.Event) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, ev gesture.Event) error {
	return f(ctx, ev)
}

type sinkWorker struct {
	name  string
	sink  Sink
	queue chan gesture.Event
}

// Dispatcher fans events out to registered sinks. Each sink has its own
// queue and goroutine: a slow sink never holds up the others, and every
// sink sees events in emission order. Failures are logged and dropped.
type Dispatcher struct {
	timeout time.Duration

	mu      sync.Mutex
	workers []*sinkWorker
	started bool
	wg      sync.WaitGroup

	delivered atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// NewDispatcher creates a dispatcher that bounds each delivery by timeout.
// A non-positive timeout uses DefaultDeliverTimeout.
func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultDeliverTimeout
	}
	return &Dispatcher{timeout: timeout}
}

// Register adds a named sink. Sinks registered after Start are ignored.
func (d *Dispatcher) Register(name string, s Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		log.Warn("sink registered after start, ignoring", "sink", name)
		return
	}
	d.workers = append(d.workers, &sinkWorker{
		name:  name,
		sink:  s,
		queue: make(chan gesture.Event, DefaultSinkQueue),
	})
}

// Sinks returns the registered sink names in registration order.
func (d *Dispatcher) Sinks() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, len(d.workers))
	for i, w := range d.workers {
		names[i] = w.name
	}
	return names
}

// Start launches one goroutine per sink. They exit when ctx is done.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return
	}
	d.started = true

	for _, w := range d.workers {
		d.wg.Add(1)
		go d.run(ctx, w)
	}
}

// Wait blocks until every sink goroutine has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Dispatch queues ev for every sink without blocking. A sink whose queue is
// full misses the event.
func (d *Dispatcher) Dispatch(ev gesture.Event) {
	d.mu.Lock()
	workers := d.workers
	d.mu.Unlock()

	for _, w := range workers {
		select {
		case w.queue <- ev:
		default:
			d.dropped.Add(1)
			log.Warn("sink queue full, event dropped", "sink", w.name, "action", ev.Action)
		}
	}
}

// Delivered counts successful deliveries.
func (d *Dispatcher) Delivered() int64 { return d.delivered.Load() }

// Failed counts deliveries that returned an error.
func (d *Dispatcher) Failed() int64 { return d.failed.Load() }

// Dropped counts events lost to full queues.
func (d *Dispatcher) Dropped() int64 { return d.dropped.Load() }

func (d *Dispatcher) run(ctx context.Context, w *sinkWorker) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-w.queue:
			d.deliver(ctx, w, ev)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, w *sinkWorker, ev gesture.Event) {
	dctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := w.sink.Deliver(dctx, ev); err != nil {
		d.failed.Add(1)
		log.Warn("sink delivery failed",
			"sink", w.name,
			"action", ev.Action,
			"key", ev.Key,
			"error", err,
		)
		return
	}
	d.delivered.Add(1)
	log.Debug("event delivered", "sink", w.name, "action", ev.Action, "key", ev.Key)
}
