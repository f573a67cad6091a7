// Package brick runs on the embedded controller: it accepts the host's link,
// dispatches each command onto the mechanism and answers with one response.
package brick

import (
	"context"
	"errors"
	"fmt"

	"github.com/binsort-io/binsort/internal/actuator"
	"github.com/binsort-io/binsort/internal/pkg/metrics"
	"github.com/binsort-io/binsort/internal/protocol"
	"github.com/binsort-io/binsort/pkg/log"
)

// Dispatcher maps commands onto a Mechanism. It is total: every command gets a Response.
type Dispatcher struct {
	mech   *actuator.Mechanism
	logger log.Logger
}

func NewDispatcher(m *actuator.Mechanism) *Dispatcher {
	return &Dispatcher{mech: m, logger: log.WithName("dispatcher")}
}

// Dispatch executes cmd and describes the outcome. Driver failures and panics become
// error responses.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd protocol.Command) (resp protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error(fmt.Errorf("%v", r), "Command panicked", "action", string(cmd.Action))
			resp = protocol.Errorf("%v", r)
		}
		action := string(cmd.Action)
		if !cmd.Action.Known() {
			action = "unknown"
		}
		metrics.DispatchedTotal.WithLabelValues(action, string(resp.Status)).Inc()
	}()

	if !cmd.Action.Known() {
		return protocol.Errorf("Unknown action: %s", cmd.Action)
	}
	if err := cmd.Validate(); err != nil {
		return protocol.Errorf("%s", err)
	}

	message, err := d.execute(ctx, cmd)
	if err != nil {
		d.logger.Error(err, "Command failed", "action", string(cmd.Action))
		return protocol.Errorf("%s", err)
	}
	d.logger.Debug("Command executed", "action", string(cmd.Action), "message", message)
	return protocol.Success(message)
}

func (d *Dispatcher) execute(ctx context.Context, cmd protocol.Command) (string, error) {
	switch cmd.Action {
	case protocol.ActionPing:
		return "pong", nil
	case protocol.ActionClassify:
		category, err := d.mech.Sort(ctx, cmd.Label)
		if err != nil {
			return "", err
		}
		d.logger.Info("Item sorted", "label", cmd.Label, "category", string(category))
		return "Sorted: " + cmd.Label, nil
	case protocol.ActionShiftPanels:
		return "Panels shifted: " + cmd.Direction.String(), d.mech.ShiftPanels(ctx, cmd.Direction)
	case protocol.ActionResetPanels:
		return "Panels reset", d.mech.ResetPanels(ctx)
	case protocol.ActionExtendRods:
		return "Rods extended", d.mech.ExtendRods(ctx)
	case protocol.ActionRetractRods:
		return "Rods retracted", d.mech.RetractRods(ctx)
	case protocol.ActionOpenTrap:
		return "Trap opened", d.mech.OpenTrap(ctx)
	case protocol.ActionCloseTrap:
		return "Trap closed", d.mech.CloseTrap(ctx)
	case protocol.ActionStopAll:
		return "All motors stopped", d.mech.StopAll(ctx)
	case protocol.ActionConfigure:
		_, err := d.mech.Configure(*cmd.Settings)
		return "Settings updated", err
	}
	return "", errors.New("unhandled action " + string(cmd.Action))
}

// Mechanism exposes the driven mechanism.
func (d *Dispatcher) Mechanism() *actuator.Mechanism {
	return d.mech
}
