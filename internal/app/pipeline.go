package app

import (
	"github.com/ayusman/airboard/internal/gesture"
	"github.com/ayusman/airboard/internal/log"
)

// pipeline is the state owned by the pipeline goroutine. Nothing else
// touches the tracker.
type pipeline struct {
	tracker  *gesture.Tracker
	tracking bool
}

func newPipeline(cfg gesture.Config, mode gesture.Mode) *pipeline {
	return &pipeline{tracker: gesture.NewTracker(cfg, mode)}
}

// runPipeline is the single consumer of the frame and control channels.
//
// Per frame:
//  1. Drop it if tracking is off (it was queued before the toggle)
//  2. Classify and advance the active state machine
//  3. Publish the overlay view to listeners
//  4. Hand emitted events to the dispatcher
//
// Control operations run between frames, so layout, mode and reset changes
// never interleave with a Process call.
func (a *App) runPipeline(p *pipeline) {
	defer close(a.done)

	for {
		select {
		case <-a.quit:
			return

		case op := <-a.ctrl:
			op(p)

		case f := <-a.frames:
			if !p.tracking {
				continue
			}

			res, events := p.tracker.Process(f)
			a.processed.Add(1)

			for _, l := range a.config.Listeners {
				l.PublishState(res)
			}

			for _, ev := range events {
				log.Debug("action fired",
					"action", ev.Action,
					"key", ev.Key,
					"gesture", ev.Gesture,
					"mode", res.Mode,
				)
				a.dispatcher.Dispatch(ev)
			}
		}
	}
}
