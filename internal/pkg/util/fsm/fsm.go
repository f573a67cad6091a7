// Package fsm holds helpers shared by the looplab/fsm machines of the link and the actuators.
package fsm

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// WrapEvent adapts a callback that can fail; the error is returned from the event.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// Fire triggers event on m and reports whether the state changed. An event that
// leaves the machine where it is, is not an error. The machine tracks hardware or
// a socket, so the event runs even when ctx is already cancelled.
func Fire(ctx context.Context, m *fsm.FSM, event string) (bool, error) {
	err := m.Event(context.WithoutCancel(ctx), event)
	var noop fsm.NoTransitionError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &noop):
		return false, nil
	default:
		return false, err
	}
}

// IsInvalidEvent reports whether err means event is not allowed from the current state.
func IsInvalidEvent(err error) bool {
	var invalid fsm.InvalidEventError
	return errors.As(err, &invalid)
}
