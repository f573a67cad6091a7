package hal

import (
	"context"
	"sync"
	"time"

	"github.com/binsort-io/binsort/internal/actuator"
)

var _ actuator.Driver = (*Recorder)(nil)

// Move is one completed RunForDegrees call.
type Move struct {
	Port    string
	Speed   int
	Degrees int
}

// Recorder is a driver without hardware. It remembers every completed move and stop,
// optionally takes time per move, and can be told to fail on a port.
type Recorder struct {
	mu     sync.Mutex
	moves  []Move
	stops  []string
	delay  time.Duration
	faults map[string]error
}

func NewRecorder() *Recorder {
	return &Recorder{faults: map[string]error{}}
}

// SetDelay makes every move take d.
func (r *Recorder) SetDelay(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delay = d
}

// FailPort makes moves on port fail with err. A nil err clears the fault.
func (r *Recorder) FailPort(port string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.faults, port)
		return
	}
	r.faults[port] = err
}

func (r *Recorder) RunForDegrees(ctx context.Context, port string, speed, degrees int) error {
	r.mu.Lock()
	fault, delay := r.faults[port], r.delay
	r.mu.Unlock()

	if fault != nil {
		return fault
	}
	if err := actuator.Pause(ctx, delay); err != nil {
		return err
	}

	r.mu.Lock()
	r.moves = append(r.moves, Move{Port: port, Speed: speed, Degrees: degrees})
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Stop(_ context.Context, port string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops = append(r.stops, port)
	return nil
}

// Moves returns the completed moves in order.
func (r *Recorder) Moves() []Move {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Move(nil), r.moves...)
}

// Stops returns the stopped ports in order.
func (r *Recorder) Stops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.stops...)
}

// Reset forgets recorded moves and stops.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moves, r.stops = nil, nil
}
