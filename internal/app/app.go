// Package app wires landmark sources, the gesture tracker and the action
// sinks into the AirBoard pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ayusman/airboard/internal/capture"
	"github.com/ayusman/airboard/internal/detector"
	"github.com/ayusman/airboard/internal/gesture"
	"github.com/ayusman/airboard/internal/log"
)

// DefaultFrameBuffer is the capacity of the frame channel. Frames arriving
// while it is full are dropped.
const DefaultFrameBuffer = 4

var (
	ErrNotRunning   = errors.New("app is not running")
	ErrNotTracking  = errors.New("tracking is disabled")
	ErrFrameDropped = errors.New("frame dropped")
	ErrInvalidMode  = errors.New("invalid mode")
)

// SourceFactory creates a fresh landmark source each time tracking is
// turned on.
type SourceFactory func() (capture.Source, error)

// Listener observes the pipeline. Implementations must not block.
type Listener interface {
	// PublishState is called with the overlay view of every frame.
	PublishState(res gesture.FrameResult)
	// PublishStatus is called after tracking, mode, layout or tuning change.
	PublishStatus(st Status)
}

// Previewer is implemented by sources that keep a JPEG of the latest camera
// frame.
type Previewer interface {
	Preview() []byte
}

// dropCounter is implemented by sources that count frames they could not
// hand to the pipeline.
type dropCounter interface {
	Dropped() int64
}

// Config holds configuration options for the application.
type Config struct {
	Mode        gesture.Mode
	Tuning      gesture.Config
	FrameBuffer int

	// NewSource builds the local landmark source. When nil, frames only
	// arrive through Submit.
	NewSource SourceFactory

	Dispatcher *Dispatcher
	Listeners  []Listener
}

// Status is a snapshot of the pipeline.
type Status struct {
	Tracking  bool               `json:"tracking"`
	Mode      gesture.Mode       `json:"mode"`
	Gesture   gesture.Label      `json:"gesture"`
	Hover     gesture.HoverState `json:"hover"`
	Keys      int                `json:"keys"`
	Tuning    gesture.Config     `json:"tuning"`
	Source    bool               `json:"source"`
	Processed int64              `json:"processed"`
	Dropped   int64              `json:"dropped"`
}

// App owns the pipeline goroutine, the landmark source lifecycle and the
// event dispatcher.
type App struct {
	config     Config
	dispatcher *Dispatcher

	frames chan gesture.Frame
	ctrl   chan func(*pipeline)
	quit   chan struct{}
	done   chan struct{}

	running      atomic.Bool
	tracking     atomic.Bool
	sourceActive atomic.Bool
	previewer    atomic.Pointer[Previewer]
	sourceDrops  atomic.Pointer[dropCounter]
	processed    atomic.Int64
	dropped      atomic.Int64
	// retiredDrops holds the drop counts of sources already closed.
	retiredDrops atomic.Int64

	// mu serializes lifecycle changes: start/stop and source toggling.
	mu         sync.Mutex
	runCtx     context.Context
	cancelRun  context.CancelFunc
	stopOnce   sync.Once
	source     capture.Source
	stopSource context.CancelFunc
	sourceDone chan struct{}
}

// New creates an App. Call Start before using it.
func New(config Config) *App {
	if config.FrameBuffer <= 0 {
		config.FrameBuffer = DefaultFrameBuffer
	}
	if !config.Mode.Valid() {
		config.Mode = gesture.ModeKeyboard
	}
	config.Tuning = config.Tuning.WithDefaults()

	d := config.Dispatcher
	if d == nil {
		d = NewDispatcher(0)
	}

	return &App{
		config:     config,
		dispatcher: d,
		frames:     make(chan gesture.Frame, config.FrameBuffer),
		ctrl:       make(chan func(*pipeline)),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// NewCameraSourceFactory returns a factory for camera-backed sources. It
// uses the MediaPipe detector when available and falls back to the mock.
func NewCameraSourceFactory(cameraID, fps int) SourceFactory {
	return func() (capture.Source, error) {
		var det detector.Detector
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			det = mp
			log.Info("using MediaPipe hand detection")
		} else {
			log.Warn("MediaPipe not available, using mock detector", "error", err)
			det = detector.NewMockDetector()
		}
		return capture.NewCameraSource(capture.NewCamera(cameraID), det, fps), nil
	}
}

// Start launches the pipeline and dispatcher. Tracking starts disabled.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running.Load() {
		return nil
	}
	select {
	case <-a.quit:
		return ErrNotRunning
	default:
	}

	a.runCtx, a.cancelRun = context.WithCancel(ctx)
	a.dispatcher.Start(a.runCtx)

	p := newPipeline(a.config.Tuning, a.config.Mode)
	go a.runPipeline(p)
	a.running.Store(true)

	log.Info("pipeline started",
		"mode", a.config.Mode,
		"sinks", a.dispatcher.Sinks(),
		"camera_source", a.config.NewSource != nil,
	)
	a.publishStatus()
	return nil
}

// Stop releases the source and stops the pipeline and dispatcher. An App
// cannot be restarted.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopOnce.Do(func() {
		a.stopSourceLocked()
		a.tracking.Store(false)
		close(a.quit)

		if a.running.Load() {
			<-a.done
			a.cancelRun()
			a.dispatcher.Wait()
		}
		a.running.Store(false)
		log.Info("pipeline stopped", "processed", a.processed.Load(), "dropped", a.Dropped())
	})
}

// Dispatcher returns the event dispatcher.
func (a *App) Dispatcher() *Dispatcher {
	return a.dispatcher
}

// Tracking reports whether tracking is enabled.
func (a *App) Tracking() bool {
	return a.tracking.Load()
}

// Processed counts frames run through the tracker.
func (a *App) Processed() int64 {
	return a.processed.Load()
}

// Dropped counts frames lost to a full frame channel, both submitted ones
// and those from local landmark sources.
func (a *App) Dropped() int64 {
	n := a.dropped.Load() + a.retiredDrops.Load()
	if dc := a.sourceDrops.Load(); dc != nil {
		n += (*dc).Dropped()
	}
	return n
}

// Preview returns the latest camera frame as JPEG when the active source
// provides one.
func (a *App) Preview() ([]byte, bool) {
	p := a.previewer.Load()
	if p == nil {
		return nil, false
	}
	jpeg := (*p).Preview()
	return jpeg, jpeg != nil
}

// Submit queues a frame from an external source, such as a browser session.
// It never blocks: a frame that does not fit is dropped with
// ErrFrameDropped.
func (a *App) Submit(f gesture.Frame) error {
	if !a.running.Load() {
		return ErrNotRunning
	}
	if !a.tracking.Load() {
		return ErrNotTracking
	}
	select {
	case a.frames <- f:
		return nil
	default:
		a.dropped.Add(1)
		return ErrFrameDropped
	}
}

// SetTracking turns tracking on or off. Both directions reset the hover
// state, debounce timers and label memo. Turning it on creates a fresh
// landmark source; turning it off closes it.
func (a *App) SetTracking(on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if on == a.tracking.Load() {
		return nil
	}

	if !on {
		a.tracking.Store(false)
		a.stopSourceLocked()
		if err := a.do(func(p *pipeline) {
			p.tracking = false
			a.drainFrames()
			p.tracker.Reset()
		}); err != nil {
			return err
		}
		log.Info("tracking disabled")
		a.publishStatus()
		return nil
	}

	if err := a.do(func(p *pipeline) {
		p.tracker.Reset()
		p.tracking = true
	}); err != nil {
		return err
	}
	a.tracking.Store(true)

	if err := a.startSourceLocked(); err != nil {
		a.tracking.Store(false)
		_ = a.do(func(p *pipeline) {
			p.tracking = false
			p.tracker.Reset()
		})
		return fmt.Errorf("start landmark source: %w", err)
	}

	log.Info("tracking enabled", "camera_source", a.sourceActive.Load())
	a.publishStatus()
	return nil
}

// SetMode switches between keyboard and browser handling.
func (a *App) SetMode(m gesture.Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, m)
	}

	var changed bool
	if err := a.do(func(p *pipeline) {
		changed = p.tracker.Mode() != m
		p.tracker.SetMode(m)
	}); err != nil {
		return err
	}

	if changed {
		log.Info("mode changed", "mode", m)
		a.publishStatus()
	}
	return nil
}

// SetLayout replaces the on-screen key layout. An empty layout disables
// hover typing.
func (a *App) SetLayout(keys []gesture.KeyRect) error {
	keys = append([]gesture.KeyRect(nil), keys...)
	if err := a.do(func(p *pipeline) { p.tracker.SetLayout(keys) }); err != nil {
		return err
	}
	log.Debug("layout updated", "keys", len(keys))
	a.publishStatus()
	return nil
}

// Layout returns a copy of the current key layout.
func (a *App) Layout() ([]gesture.KeyRect, error) {
	var keys []gesture.KeyRect
	err := a.do(func(p *pipeline) {
		keys = append([]gesture.KeyRect(nil), p.tracker.Layout()...)
	})
	return keys, err
}

// SetTuning replaces the thresholds and intervals. The layout is kept.
func (a *App) SetTuning(cfg gesture.Config) error {
	if err := a.do(func(p *pipeline) { p.tracker.SetConfig(cfg) }); err != nil {
		return err
	}
	log.Info("tuning updated", "dwell_threshold", cfg.WithDefaults().DwellThreshold)
	a.publishStatus()
	return nil
}

// Tuning returns the active thresholds and intervals.
func (a *App) Tuning() (gesture.Config, error) {
	var cfg gesture.Config
	err := a.do(func(p *pipeline) { cfg = p.tracker.Config() })
	return cfg, err
}

// Reset clears hover, timers and the label memo without touching tracking.
func (a *App) Reset() error {
	if err := a.do(func(p *pipeline) { p.tracker.Reset() }); err != nil {
		return err
	}
	a.publishStatus()
	return nil
}

// Status returns a snapshot of the pipeline.
func (a *App) Status() (Status, error) {
	var st Status
	err := a.do(func(p *pipeline) { st = a.statusOf(p) })
	return st, err
}

// do runs fn on the pipeline goroutine and waits for it to finish.
func (a *App) do(fn func(p *pipeline)) error {
	if !a.running.Load() {
		return ErrNotRunning
	}

	done := make(chan struct{})
	op := func(p *pipeline) {
		defer close(done)
		fn(p)
	}

	select {
	case a.ctrl <- op:
	case <-a.quit:
		return ErrNotRunning
	}
	<-done
	return nil
}

func (a *App) statusOf(p *pipeline) Status {
	return Status{
		Tracking:  p.tracking,
		Mode:      p.tracker.Mode(),
		Gesture:   p.tracker.LastGesture(),
		Hover:     p.tracker.Hover(),
		Keys:      len(p.tracker.Layout()),
		Tuning:    p.tracker.Config(),
		Source:    a.sourceActive.Load(),
		Processed: a.processed.Load(),
		Dropped:   a.Dropped(),
	}
}

func (a *App) publishStatus() {
	if len(a.config.Listeners) == 0 {
		return
	}
	st, err := a.Status()
	if err != nil {
		return
	}
	for _, l := range a.config.Listeners {
		l.PublishStatus(st)
	}
}

// drainFrames discards queued frames. Called on the pipeline goroutine.
func (a *App) drainFrames() {
	for {
		select {
		case <-a.frames:
		default:
			return
		}
	}
}

func (a *App) startSourceLocked() error {
	if a.config.NewSource == nil {
		return nil
	}

	src, err := a.config.NewSource()
	if err != nil {
		return err
	}

	a.sourceActive.Store(true)
	if pv, ok := src.(Previewer); ok {
		a.previewer.Store(&pv)
	}
	if dc, ok := src.(dropCounter); ok {
		a.sourceDrops.Store(&dc)
	}

	ctx, cancel := context.WithCancel(a.runCtx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := src.Run(ctx, a.frames)
		if ctx.Err() != nil {
			return
		}
		// The source ended on its own. Tracking stays on so browser frames
		// keep flowing; toggling tracking creates a new source.
		if err != nil {
			log.Warn("landmark source stopped", "error", err)
		} else {
			log.Info("landmark source finished")
		}
		a.sourceActive.Store(false)
		a.previewer.Store(nil)
		a.publishStatus()
	}()

	a.source = src
	a.stopSource = cancel
	a.sourceDone = done
	return nil
}

func (a *App) stopSourceLocked() {
	if a.source == nil {
		return
	}

	a.stopSource()
	<-a.sourceDone
	if err := a.source.Close(); err != nil {
		log.Warn("failed to close landmark source", "error", err)
	}

	a.source = nil
	a.stopSource = nil
	a.sourceDone = nil
	a.sourceActive.Store(false)
	a.previewer.Store(nil)
	if dc := a.sourceDrops.Swap(nil); dc != nil {
		a.retiredDrops.Add((*dc).Dropped())
	}
}
