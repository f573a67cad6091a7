package actuator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/binsort-io/binsort/internal/protocol"
	"github.com/binsort-io/binsort/internal/sorting"
	"github.com/binsort-io/binsort/pkg/log"
)

// ErrStopped is returned by an operation that StopAll interrupted.
var ErrStopped = errors.New("interrupted by stop_all")

// Ports names the output port of each motor.
type Ports struct {
	Panel string
	Rods  string
	Trap  string
}

// DefaultPorts is the wiring of the reference build.
func DefaultPorts() Ports {
	return Ports{Panel: "outA", Rods: "outB", Trap: "outC"}
}

func (p Ports) all() []string { return []string{p.Panel, p.Rods, p.Trap} }

// axis is a motor together with the offset it has been driven to, in degrees from rest.
type axis struct {
	field  Field
	port   string
	offset int
	target func(s protocol.MotorSettings, position string) int
}

// Mechanism executes primitives and sort sequences on a Driver. Moves are serialized;
// Configure and StopAll may be called at any time.
type Mechanism struct {
	driver  Driver
	ports   Ports
	holds   sorting.Holds
	tracker *Tracker
	logger  log.Logger

	mu    sync.Mutex
	panel axis
	rods  axis
	trap  axis

	smu      sync.RWMutex
	settings protocol.MotorSettings

	cmu    sync.Mutex
	cancel context.CancelCauseFunc
}

// MechanismConfig carries everything NewMechanism needs besides the driver.
type MechanismConfig struct {
	Ports    Ports
	Settings protocol.MotorSettings
	Holds    sorting.Holds
}

func NewMechanism(d Driver, cfg MechanismConfig) *Mechanism {
	m := &Mechanism{
		driver:   d,
		ports:    cfg.Ports,
		holds:    cfg.Holds,
		tracker:  NewTracker(),
		logger:   log.WithName("mechanism"),
		settings: cfg.Settings,
	}

	m.panel = axis{field: FieldPanel, port: cfg.Ports.Panel, target: func(s protocol.MotorSettings, pos string) int {
		switch pos {
		case PanelLeft:
			return -s.PanelDeg
		case PanelRight:
			return s.PanelDeg
		}
		return 0
	}}
	m.rods = axis{field: FieldRods, port: cfg.Ports.Rods, target: func(s protocol.MotorSettings, pos string) int {
		if pos == RodsExtended {
			return s.RodDeg
		}
		return 0
	}}
	m.trap = axis{field: FieldTrap, port: cfg.Ports.Trap, target: func(s protocol.MotorSettings, pos string) int {
		if pos == TrapOpen {
			return -s.TrapDeg
		}
		return 0
	}}
	return m
}

func (m *Mechanism) ShiftPanels(ctx context.Context, dir protocol.Direction) error {
	pos := PanelCenter
	switch dir {
	case protocol.DirectionLeft:
		pos = PanelLeft
	case protocol.DirectionRight:
		pos = PanelRight
	}
	return m.run(ctx, func(ctx context.Context) error { return m.move(ctx, &m.panel, pos) })
}

func (m *Mechanism) ResetPanels(ctx context.Context) error {
	return m.run(ctx, func(ctx context.Context) error { return m.move(ctx, &m.panel, PanelCenter) })
}

func (m *Mechanism) ExtendRods(ctx context.Context) error {
	return m.run(ctx, func(ctx context.Context) error { return m.move(ctx, &m.rods, RodsExtended) })
}

func (m *Mechanism) RetractRods(ctx context.Context) error {
	return m.run(ctx, func(ctx context.Context) error { return m.move(ctx, &m.rods, RodsRetracted) })
}

func (m *Mechanism) OpenTrap(ctx context.Context) error {
	return m.run(ctx, func(ctx context.Context) error { return m.move(ctx, &m.trap, TrapOpen) })
}

func (m *Mechanism) CloseTrap(ctx context.Context) error {
	return m.run(ctx, func(ctx context.Context) error { return m.move(ctx, &m.trap, TrapClosed) })
}

// Sort runs the sequence of label's category once: move, hold, return.
func (m *Mechanism) Sort(ctx context.Context, label string) (sorting.Category, error) {
	category, err := sorting.CategoryOf(label)
	if err != nil {
		return "", err
	}
	plan, err := m.holds.PlanFor(category)
	if err != nil {
		return "", err
	}

	m.logger.Debug("Running sort sequence", "label", label, "category", string(category), "hold", plan.Hold)

	return category, m.run(ctx, func(ctx context.Context) error {
		if err := m.step(ctx, plan.Move); err != nil {
			return err
		}
		if err := Pause(ctx, plan.Hold); err != nil {
			return err
		}
		return m.step(ctx, plan.Return)
	})
}

// StopAll interrupts the running operation, if any, and halts every motor.
func (m *Mechanism) StopAll(ctx context.Context) error {
	m.cmu.Lock()
	if m.cancel != nil {
		m.cancel(ErrStopped)
	}
	m.cmu.Unlock()

	var errs []error
	for _, port := range m.ports.all() {
		if err := m.driver.Stop(ctx, port); err != nil {
			errs = append(errs, &FaultError{Port: port, Err: err})
		}
	}
	return utilerrors.NewAggregate(errs)
}

// Configure merges p into the active settings and returns the result.
func (m *Mechanism) Configure(p protocol.SettingsPatch) (protocol.MotorSettings, error) {
	m.smu.Lock()
	defer m.smu.Unlock()

	next, err := m.settings.Merge(p)
	if err != nil {
		return m.settings, err
	}
	m.settings = next
	m.logger.Info("Motor settings updated", "speed", next.Speed, "panelDeg", next.PanelDeg, "rodDeg", next.RodDeg, "trapDeg", next.TrapDeg)
	return next, nil
}

func (m *Mechanism) Settings() protocol.MotorSettings {
	m.smu.RLock()
	defer m.smu.RUnlock()
	return m.settings
}

// State returns the logical positions after the last completed move.
func (m *Mechanism) State() State {
	return m.tracker.State()
}

func (m *Mechanism) step(ctx context.Context, s sorting.Step) error {
	switch s {
	case sorting.PanelLeft:
		return m.move(ctx, &m.panel, PanelLeft)
	case sorting.PanelRight:
		return m.move(ctx, &m.panel, PanelRight)
	case sorting.PanelCenter:
		return m.move(ctx, &m.panel, PanelCenter)
	case sorting.TrapOpen:
		return m.move(ctx, &m.trap, TrapOpen)
	case sorting.TrapClose:
		return m.move(ctx, &m.trap, TrapClosed)
	}
	return fmt.Errorf("unknown step %q", s)
}

// move drives a to position. Only the difference to the current offset is turned,
// so repeating a move is free.
func (m *Mechanism) move(ctx context.Context, a *axis, position string) error {
	s := m.Settings()
	target := a.target(s, position)
	if delta := target - a.offset; delta != 0 {
		if err := m.driver.RunForDegrees(ctx, a.port, s.Speed, delta); err != nil {
			return &FaultError{Port: a.port, Err: err}
		}
		a.offset = target
	}
	_, err := m.tracker.Move(ctx, a.field, position)
	return err
}

// run serializes fn with other moves and makes it interruptible by StopAll.
func (m *Mechanism) run(ctx context.Context, fn func(context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, cancel := context.WithCancelCause(ctx)
	m.cmu.Lock()
	m.cancel = cancel
	m.cmu.Unlock()

	defer func() {
		m.cmu.Lock()
		m.cancel = nil
		m.cmu.Unlock()
		cancel(nil)
	}()

	err := fn(ctx)
	if err != nil && errors.Is(context.Cause(ctx), ErrStopped) {
		return ErrStopped
	}
	return err
}
