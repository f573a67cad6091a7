package actuator

import (
	"context"
	"fmt"
	"time"
)

// Driver moves individual motors. Implementations must allow Stop to be called
// while RunForDegrees is in progress on the same port.
type Driver interface {
	// RunForDegrees turns the motor on port by degrees (sign gives direction) at speed
	// percent and returns once the move has finished or ctx is done.
	RunForDegrees(ctx context.Context, port string, speed, degrees int) error

	// Stop halts the motor on port immediately.
	Stop(ctx context.Context, port string) error
}

// FaultError wraps a driver failure on one port.
type FaultError struct {
	Port string
	Err  error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("motor %s: %v", e.Port, e.Err)
}

func (e *FaultError) Unwrap() error { return e.Err }

// Pause waits for d or until ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
