package brick

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"k8s.io/utils/ptr"

	"github.com/binsort-io/binsort/internal/actuator"
	"github.com/binsort-io/binsort/internal/actuator/hal"
	"github.com/binsort-io/binsort/internal/protocol"
	"github.com/binsort-io/binsort/internal/sorting"
)

func newDispatcher() (*Dispatcher, *hal.Recorder) {
	rec := hal.NewRecorder()
	m := actuator.NewMechanism(rec, actuator.MechanismConfig{
		Ports:    actuator.DefaultPorts(),
		Settings: protocol.DefaultMotorSettings(),
		Holds:    sorting.Holds{Compost: time.Millisecond, Recyclable: time.Millisecond, Trash: time.Millisecond},
	})
	return NewDispatcher(m), rec
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name string
		cmd  protocol.Command
		want protocol.Response
	}{
		{"ping", protocol.Command{Action: protocol.ActionPing}, protocol.Success("pong")},
		{"classify", protocol.Command{Action: protocol.ActionClassify, Label: "plastic"}, protocol.Success("Sorted: plastic")},
		{"classify without label", protocol.Command{Action: protocol.ActionClassify}, protocol.Errorf("No label provided")},
		{"classify unknown label", protocol.Command{Action: protocol.ActionClassify, Label: "banana"}, protocol.Errorf("Unknown label: banana")},
		{"shift left", protocol.Command{Action: protocol.ActionShiftPanels, Direction: protocol.DirectionLeft}, protocol.Success("Panels shifted: left")},
		{"shift null", protocol.Command{Action: protocol.ActionShiftPanels}, protocol.Success("Panels shifted: None")},
		{"shift invalid", protocol.Command{Action: protocol.ActionShiftPanels, Direction: "up"}, protocol.Errorf("Invalid direction: up")},
		{"reset panels", protocol.Command{Action: protocol.ActionResetPanels}, protocol.Success("Panels reset")},
		{"extend rods", protocol.Command{Action: protocol.ActionExtendRods}, protocol.Success("Rods extended")},
		{"retract rods", protocol.Command{Action: protocol.ActionRetractRods}, protocol.Success("Rods retracted")},
		{"open trap", protocol.Command{Action: protocol.ActionOpenTrap}, protocol.Success("Trap opened")},
		{"close trap", protocol.Command{Action: protocol.ActionCloseTrap}, protocol.Success("Trap closed")},
		{"stop all", protocol.Command{Action: protocol.ActionStopAll}, protocol.Success("All motors stopped")},
		{"configure", protocol.Command{Action: protocol.ActionConfigure, Settings: &protocol.SettingsPatch{Speed: ptr.To(80)}}, protocol.Success("Settings updated")},
		{"configure without settings", protocol.Command{Action: protocol.ActionConfigure}, protocol.Errorf("No settings provided")},
		{"unknown action", protocol.Command{Action: "dance"}, protocol.Errorf("Unknown action: dance")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newDispatcher()
			assert.Equal(t, tt.want, d.Dispatch(context.Background(), tt.cmd))
		})
	}
}

func TestDispatchConfigureRejectsInvalidSettings(t *testing.T) {
	d, _ := newDispatcher()

	resp := d.Dispatch(context.Background(), protocol.Command{
		Action:   protocol.ActionConfigure,
		Settings: &protocol.SettingsPatch{Speed: ptr.To(150), RodDeg: ptr.To(10)},
	})
	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Equal(t, protocol.DefaultMotorSettings(), d.Mechanism().Settings())
}

func TestDispatchConfigureMerges(t *testing.T) {
	d, rec := newDispatcher()
	ctx := context.Background()

	d.Dispatch(ctx, protocol.Command{Action: protocol.ActionConfigure, Settings: &protocol.SettingsPatch{Speed: ptr.To(30)}})
	d.Dispatch(ctx, protocol.Command{Action: protocol.ActionConfigure, Settings: &protocol.SettingsPatch{RodDeg: ptr.To(60)}})
	d.Dispatch(ctx, protocol.Command{Action: protocol.ActionExtendRods})

	assert.Equal(t, []hal.Move{{Port: "outB", Speed: 30, Degrees: 60}}, rec.Moves())
}

func TestDispatchDriverFault(t *testing.T) {
	d, rec := newDispatcher()
	rec.FailPort("outC", errors.New("motor unplugged"))

	resp := d.Dispatch(context.Background(), protocol.Command{Action: protocol.ActionOpenTrap})
	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Contains(t, resp.Message, "motor unplugged")
	assert.Equal(t, actuator.TrapClosed, d.Mechanism().State().Trap)
}

func TestDispatchTrashSequence(t *testing.T) {
	d, rec := newDispatcher()

	resp := d.Dispatch(context.Background(), protocol.Command{Action: protocol.ActionClassify, Label: "glass"})
	assert.True(t, resp.OK())
	assert.Equal(t, []hal.Move{
		{Port: "outC", Speed: 50, Degrees: -95},
		{Port: "outC", Speed: 50, Degrees: 95},
	}, rec.Moves())
	assert.Equal(t, actuator.InitialState(), d.Mechanism().State())
}
