package plugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayusman/airboard/internal/gesture"
	"github.com/ayusman/airboard/internal/store"
)

// ErrUnsupportedAction is returned when a binding names an action the
// plugin's manifest does not list.
var ErrUnsupportedAction = errors.New("plugin does not support action")

// BindingLookup finds the binding for an action kind. It returns nil, nil
// when nothing is bound. *store.BindingRepository satisfies it.
type BindingLookup interface {
	GetByAction(action string) (*store.Binding, error)
}

// Sink executes the plugin bound to each delivered event.
type Sink struct {
	bindings BindingLookup
	manager  *Manager
	executor *Executor
}

// NewSink creates a plugin sink.
func NewSink(bindings BindingLookup, manager *Manager, executor *Executor) *Sink {
	return &Sink{bindings: bindings, manager: manager, executor: executor}
}

// Deliver runs the plugin bound to ev.Action. Unbound or disabled actions
// are a no-op.
func (s *Sink) Deliver(ctx context.Context, ev gesture.Event) error {
	b, err := s.bindings.GetByAction(string(ev.Action))
	if err != nil {
		return fmt.Errorf("lookup binding for %s: %w", ev.Action, err)
	}
	if b == nil || !b.Enabled {
		return nil
	}

	p, err := s.manager.Resolve(b.PluginName, b.PluginAction)
	if err != nil {
		return err
	}

	resp, err := s.executor.Execute(ctx, p, &Request{
		Action:  b.PluginAction,
		Event:   string(ev.Action),
		Key:     ev.Key,
		Gesture: string(ev.Gesture),
		Config:  b.Config,
	})
	if err != nil {
		return fmt.Errorf("%s/%s: %w", b.PluginName, b.PluginAction, err)
	}
	if !resp.Success {
		return fmt.Errorf("%s/%s failed: %s", b.PluginName, b.PluginAction, resp.Error)
	}
	return nil
}
