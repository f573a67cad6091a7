// Package host runs next to the classifier. It turns labels and manual actions into
// commands for the brick, mirrors the mechanism's logical state and reports events.
package host

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/binsort-io/binsort/internal/actuator"
	"github.com/binsort-io/binsort/internal/pkg/metrics"
	"github.com/binsort-io/binsort/internal/protocol"
	"github.com/binsort-io/binsort/internal/sorting"
	"github.com/binsort-io/binsort/pkg/log"
)

// Controller is the capability set offered to the classifier and operators.
// Every operation answers with a Response; none of them fails with an error.
type Controller interface {
	ShiftPanels(ctx context.Context, dir protocol.Direction) protocol.Response
	ResetPanels(ctx context.Context) protocol.Response
	ExtendRods(ctx context.Context) protocol.Response
	RetractRods(ctx context.Context) protocol.Response
	OpenTrap(ctx context.Context) protocol.Response
	CloseTrap(ctx context.Context) protocol.Response
	StopAllMotors(ctx context.Context) protocol.Response
	Configure(ctx context.Context, p protocol.SettingsPatch) protocol.Response
	HandleClassification(ctx context.Context, label string) protocol.Response

	State() Snapshot
	Events() <-chan Event
	Close() error
}

// Snapshot describes the controller at one instant.
type Snapshot struct {
	Connection string                 `json:"connection"`
	Degraded   bool                   `json:"degraded"`
	Address    string                 `json:"address,omitempty"`
	Actuators  actuator.State         `json:"actuators"`
	Settings   protocol.MotorSettings `json:"settings"`
}

// ConnectionLocal is reported by a controller driving motors in-process.
const ConnectionLocal = "local"

type EventKind string

const (
	EventCommand    EventKind = "command"
	EventTransition EventKind = "transition"
	EventConnection EventKind = "connection"
)

// Event is one observable change. Intended transitions were not executed because
// the brick was unreachable.
type Event struct {
	ID       string          `json:"id"`
	Time     time.Time       `json:"time"`
	Kind     EventKind       `json:"kind"`
	Action   protocol.Action `json:"action,omitempty"`
	Status   protocol.Status `json:"status,omitempty"`
	Message  string          `json:"message,omitempty"`
	Field    actuator.Field  `json:"field,omitempty"`
	From     string          `json:"from,omitempty"`
	To       string          `json:"to,omitempty"`
	Intended bool            `json:"intended,omitempty"`
}

// sender delivers one command and describes the outcome.
type sender interface {
	send(ctx context.Context, cmd protocol.Command) protocol.Response
	connection() (state string, degraded bool, address string)
	close() error
}

// target is a field position a command leads to on success.
type target struct {
	field    actuator.Field
	position string
}

// core holds what both controllers share: serialization, the logical state mirror,
// the settle delay and the event stream.
type core struct {
	sender  sender
	tracker *actuator.Tracker
	settle  time.Duration
	logger  log.Logger

	mu       sync.Mutex
	settings protocol.MotorSettings

	emu    sync.RWMutex
	closed bool
	events chan Event
}

func newCore(s sender, settings protocol.MotorSettings, settle time.Duration, buffer int) *core {
	c := &core{
		sender:   s,
		settle:   settle,
		settings: settings,
		events:   make(chan Event, buffer),
		logger:   log.WithName("controller"),
	}
	c.tracker = actuator.NewTracker(actuator.WithTransitionHook(func(t actuator.Transition) {
		c.emit(Event{Kind: EventTransition, Field: t.Field, From: t.From, To: t.To})
	}))
	return c
}

// emit never blocks; events are dropped while nobody drains the channel.
func (c *core) emit(e Event) {
	e.ID = uuid.NewString()
	e.Time = time.Now()

	c.emu.RLock()
	defer c.emu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.events <- e:
	default:
		c.logger.Debug("Event dropped, channel full", "kind", string(e.Kind))
	}
}

func (c *core) ShiftPanels(ctx context.Context, dir protocol.Direction) protocol.Response {
	pos := actuator.PanelCenter
	switch dir {
	case protocol.DirectionLeft:
		pos = actuator.PanelLeft
	case protocol.DirectionRight:
		pos = actuator.PanelRight
	}
	return c.execute(ctx, protocol.Command{Action: protocol.ActionShiftPanels, Direction: dir}, target{actuator.FieldPanel, pos})
}

func (c *core) ResetPanels(ctx context.Context) protocol.Response {
	return c.execute(ctx, protocol.Command{Action: protocol.ActionResetPanels}, target{actuator.FieldPanel, actuator.PanelCenter})
}

func (c *core) ExtendRods(ctx context.Context) protocol.Response {
	return c.execute(ctx, protocol.Command{Action: protocol.ActionExtendRods}, target{actuator.FieldRods, actuator.RodsExtended})
}

func (c *core) RetractRods(ctx context.Context) protocol.Response {
	return c.execute(ctx, protocol.Command{Action: protocol.ActionRetractRods}, target{actuator.FieldRods, actuator.RodsRetracted})
}

func (c *core) OpenTrap(ctx context.Context) protocol.Response {
	return c.execute(ctx, protocol.Command{Action: protocol.ActionOpenTrap}, target{actuator.FieldTrap, actuator.TrapOpen})
}

func (c *core) CloseTrap(ctx context.Context) protocol.Response {
	return c.execute(ctx, protocol.Command{Action: protocol.ActionCloseTrap}, target{actuator.FieldTrap, actuator.TrapClosed})
}

func (c *core) StopAllMotors(ctx context.Context) protocol.Response {
	return c.execute(ctx, protocol.Command{Action: protocol.ActionStopAll})
}

func (c *core) Configure(ctx context.Context, p protocol.SettingsPatch) protocol.Response {
	resp := c.execute(ctx, protocol.Command{Action: protocol.ActionConfigure, Settings: &p})
	if resp.OK() {
		c.mu.Lock()
		if next, err := c.settings.Merge(p); err == nil {
			c.settings = next
		}
		c.mu.Unlock()
	}
	return resp
}

// HandleClassification sorts one item. An unknown label is answered without contacting the brick.
func (c *core) HandleClassification(ctx context.Context, label string) protocol.Response {
	category, err := sorting.CategoryOf(label)
	if err != nil {
		resp := protocol.Errorf("%s", err)
		metrics.SortedTotal.WithLabelValues("unknown", string(resp.Status)).Inc()
		c.emit(Event{Kind: EventCommand, Action: protocol.ActionClassify, Status: resp.Status, Message: resp.Message})
		return resp
	}
	// Hold durations only matter on the brick; the plan here names the positions.
	plan, err := sorting.DefaultHolds().PlanFor(category)
	if err != nil {
		return protocol.Errorf("%s", err)
	}

	resp := c.execute(ctx, protocol.Command{Action: protocol.ActionClassify, Label: label}, stepTarget(plan.Move), stepTarget(plan.Return))
	metrics.SortedTotal.WithLabelValues(string(category), string(resp.Status)).Inc()
	c.logger.Info("Item classified", "label", label, "category", string(category), "status", string(resp.Status))
	return resp
}

func stepTarget(s sorting.Step) target {
	switch s {
	case sorting.PanelLeft:
		return target{actuator.FieldPanel, actuator.PanelLeft}
	case sorting.PanelRight:
		return target{actuator.FieldPanel, actuator.PanelRight}
	case sorting.TrapOpen:
		return target{actuator.FieldTrap, actuator.TrapOpen}
	case sorting.TrapClose:
		return target{actuator.FieldTrap, actuator.TrapClosed}
	}
	return target{actuator.FieldPanel, actuator.PanelCenter}
}

// execute sends cmd and interprets the response: success moves the mirrored state to
// targets, simulated only announces the intended transitions, error changes nothing.
func (c *core) execute(ctx context.Context, cmd protocol.Command, targets ...target) protocol.Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	resp := c.sender.send(ctx, cmd)
	metrics.CommandLatency.WithLabelValues(string(cmd.Action)).Observe(time.Since(start).Seconds())
	metrics.CommandsTotal.WithLabelValues(string(cmd.Action), string(resp.Status)).Inc()

	c.emit(Event{Kind: EventCommand, Action: cmd.Action, Status: resp.Status, Message: resp.Message})

	switch resp.Status {
	case protocol.StatusSuccess:
		for _, t := range targets {
			if _, err := c.tracker.Move(ctx, t.field, t.position); err != nil {
				c.logger.Error(err, "Failed to record transition", "field", string(t.field), "to", t.position)
			}
		}
	case protocol.StatusSimulated:
		from := make(map[actuator.Field]string)
		for _, t := range targets {
			prev, ok := from[t.field]
			if !ok {
				prev = c.tracker.Current(t.field)
			}
			if prev != t.position {
				c.emit(Event{Kind: EventTransition, Field: t.field, From: prev, To: t.position, Intended: true})
			}
			from[t.field] = t.position
		}
	default:
		c.logger.Warn("Command failed", "action", string(cmd.Action), "message", resp.Message)
	}

	if err := actuator.Pause(ctx, c.settle); err != nil {
		c.logger.Debug("Settle delay cut short", "error", err.Error())
	}
	return resp
}

func (c *core) State() Snapshot {
	state, degraded, address := c.sender.connection()

	c.mu.Lock()
	settings := c.settings
	c.mu.Unlock()

	return Snapshot{
		Connection: state,
		Degraded:   degraded,
		Address:    address,
		Actuators:  c.tracker.State(),
		Settings:   settings,
	}
}

func (c *core) Events() <-chan Event {
	return c.events
}

// Close releases the transport and closes the event channel.
func (c *core) Close() error {
	c.mu.Lock()
	err := c.sender.close()
	c.mu.Unlock()

	c.emu.Lock()
	defer c.emu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
	return err
}
