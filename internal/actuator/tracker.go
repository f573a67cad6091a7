package actuator

import (
	"context"
	"fmt"
	"sync"

	"github.com/looplab/fsm"

	fsmutil "github.com/binsort-io/binsort/internal/pkg/util/fsm"
)

// Field is one independently positioned part of the mechanism.
type Field string

const (
	FieldPanel Field = "panel"
	FieldRods  Field = "rods"
	FieldTrap  Field = "trap"
)

// Positions of each field.
const (
	PanelLeft   = "left"
	PanelCenter = "center"
	PanelRight  = "right"

	RodsExtended  = "extended"
	RodsRetracted = "retracted"

	TrapOpen   = "open"
	TrapClosed = "closed"
)

var positions = map[Field][]string{
	FieldPanel: {PanelLeft, PanelCenter, PanelRight},
	FieldRods:  {RodsExtended, RodsRetracted},
	FieldTrap:  {TrapOpen, TrapClosed},
}

// State is the logical position of every field.
type State struct {
	Panel string `json:"panel"`
	Rods  string `json:"rods"`
	Trap  string `json:"trap"`
}

// InitialState is where the mechanism rests after power-up.
func InitialState() State {
	return State{Panel: PanelCenter, Rods: RodsRetracted, Trap: TrapClosed}
}

// Transition records a field changing position.
type Transition struct {
	Field Field  `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// TrackerOption customizes a Tracker.
type TrackerOption func(*Tracker)

// WithTransitionHook calls fn after every real position change. fn runs while
// the field's machine is mid-event and must not call back into the Tracker.
func WithTransitionHook(fn func(Transition)) TrackerOption {
	return func(t *Tracker) { t.hook = fn }
}

// Tracker holds one state machine per field. Moving a field to the position it
// already holds is accepted and changes nothing.
type Tracker struct {
	mu       sync.RWMutex
	machines map[Field]*fsm.FSM
	hook     func(Transition)
}

func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{machines: make(map[Field]*fsm.FSM, len(positions))}
	for _, o := range opts {
		o(t)
	}

	initial := InitialState()
	t.machines[FieldPanel] = t.newMachine(FieldPanel, initial.Panel)
	t.machines[FieldRods] = t.newMachine(FieldRods, initial.Rods)
	t.machines[FieldTrap] = t.newMachine(FieldTrap, initial.Trap)
	return t
}

func eventTo(position string) string { return "to_" + position }

func (t *Tracker) newMachine(field Field, initial string) *fsm.FSM {
	all := positions[field]

	events := make(fsm.Events, 0, len(all))
	for _, p := range all {
		events = append(events, fsm.EventDesc{Name: eventTo(p), Src: all, Dst: p})
	}

	callbacks := fsm.Callbacks{
		"enter_state": fsmutil.WrapEvent(func(_ context.Context, e *fsm.Event) error {
			if t.hook != nil {
				t.hook(Transition{Field: field, From: e.Src, To: e.Dst})
			}
			return nil
		}),
	}

	return fsm.NewFSM(initial, events, callbacks)
}

// Move sets field to position. It reports whether the position changed.
func (t *Tracker) Move(ctx context.Context, field Field, position string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.machines[field]
	if !ok {
		return false, fmt.Errorf("unknown field %q", field)
	}

	// The motor has already moved; record it even if ctx was cancelled meanwhile.
	changed, err := fsmutil.Fire(ctx, m, eventTo(position))
	if err != nil {
		return false, fmt.Errorf("move %s to %q: %w", field, position, err)
	}
	return changed, nil
}

// Current returns the position of field.
func (t *Tracker) Current(field Field) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if m, ok := t.machines[field]; ok {
		return m.Current()
	}
	return ""
}

func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return State{
		Panel: t.machines[FieldPanel].Current(),
		Rods:  t.machines[FieldRods].Current(),
		Trap:  t.machines[FieldTrap].Current(),
	}
}
