package protocol

import (
	"fmt"
)

// Action names a brick operation.
type Action string

const (
	ActionPing        Action = "ping"
	ActionClassify    Action = "classify"
	ActionShiftPanels Action = "shift_panels"
	ActionResetPanels Action = "reset_panels"
	ActionExtendRods  Action = "extend_rods"
	ActionRetractRods Action = "retract_rods"
	ActionOpenTrap    Action = "open_trap"
	ActionCloseTrap   Action = "close_trap"
	ActionStopAll     Action = "stop_all"
	ActionConfigure   Action = "configure"
)

// Actions lists every action the brick understands.
var Actions = []Action{
	ActionPing,
	ActionClassify,
	ActionShiftPanels,
	ActionResetPanels,
	ActionExtendRods,
	ActionRetractRods,
	ActionOpenTrap,
	ActionCloseTrap,
	ActionStopAll,
	ActionConfigure,
}

// Known reports whether a is one of Actions.
func (a Action) Known() bool {
	for _, k := range Actions {
		if a == k {
			return true
		}
	}
	return false
}

// Status is the outcome of a Command.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"

	// StatusSimulated means the command was accepted logically but nothing moved.
	StatusSimulated Status = "simulated"
)

func (s Status) valid() bool {
	return s == StatusSuccess || s == StatusError || s == StatusSimulated
}

// Direction of a panel shift. The zero value means "no direction", which centers the panel.
type Direction string

const (
	DirectionNone  Direction = ""
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// String renders the direction the way the brick reports it back.
func (d Direction) String() string {
	if d == DirectionNone {
		return "None"
	}
	return string(d)
}

// Command is one request to the brick. Only the fields of its Action are meaningful.
type Command struct {
	Action    Action         `json:"action"`
	Label     string         `json:"label,omitempty"`
	Direction Direction      `json:"direction,omitempty"`
	Settings  *SettingsPatch `json:"settings,omitempty"`
}

// Validate checks the fields required by the command's action.
// Unknown actions pass; answering them is up to the dispatcher.
func (c Command) Validate() error {
	switch c.Action {
	case "":
		return &ProtocolError{Op: "validate", Err: errMissingAction}
	case ActionClassify:
		if c.Label == "" {
			return &ProtocolError{Op: "validate", Err: ErrNoLabel}
		}
	case ActionShiftPanels:
		switch c.Direction {
		case DirectionNone, DirectionLeft, DirectionRight:
		default:
			return &ProtocolError{Op: "validate", Err: fmt.Errorf("Invalid direction: %s", c.Direction)} //nolint:staticcheck // wire text
		}
	case ActionConfigure:
		if c.Settings == nil {
			return &ProtocolError{Op: "validate", Err: ErrNoSettings}
		}
		if err := c.Settings.Validate(); err != nil {
			return &ProtocolError{Op: "validate", Err: err}
		}
	}
	return nil
}

// Response answers exactly one Command.
type Response struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// OK reports whether the brick executed the command.
func (r Response) OK() bool { return r.Status == StatusSuccess }

func Success(message string) Response {
	return Response{Status: StatusSuccess, Message: message}
}

func Errorf(format string, args ...any) Response {
	return Response{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// Simulated is the answer to a command that could not reach the brick.
func Simulated(a Action) Response {
	return Response{Status: StatusSimulated, Message: fmt.Sprintf("Simulated %s", a)}
}
