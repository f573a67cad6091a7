package host

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/binsort-io/binsort/internal/actuator"
	"github.com/binsort-io/binsort/internal/actuator/hal"
	"github.com/binsort-io/binsort/internal/link"
	"github.com/binsort-io/binsort/internal/protocol"
)

func TestNetworkedSimulatesWhileDisconnected(t *testing.T) {
	ctx := context.Background()
	n := newNetworked(freeAddr(t))
	defer n.Close()

	require.Error(t, n.Connect(ctx))
	drain(n)

	resp := n.OpenTrap(ctx)
	assert.Equal(t, protocol.Simulated(protocol.ActionOpenTrap), resp)
	assert.Equal(t, actuator.InitialState(), n.State().Actuators)
	assert.True(t, n.State().Degraded)

	transitions := ofKind(drain(n), EventTransition)
	require.Len(t, transitions, 1)
	assert.True(t, transitions[0].Intended)
	assert.Equal(t, actuator.FieldTrap, transitions[0].Field)
	assert.Equal(t, actuator.TrapClosed, transitions[0].From)
	assert.Equal(t, actuator.TrapOpen, transitions[0].To)
}

func TestNetworkedSimulatedClassification(t *testing.T) {
	ctx := context.Background()
	n := newNetworked(freeAddr(t))
	defer n.Close()

	resp := n.HandleClassification(ctx, "organic_waste")
	assert.Equal(t, protocol.StatusSimulated, resp.Status)

	var got [][2]string
	for _, e := range ofKind(drain(n), EventTransition) {
		assert.True(t, e.Intended)
		got = append(got, [2]string{e.From, e.To})
	}
	assert.Equal(t, [][2]string{{"center", "left"}, {"left", "center"}}, got)
}

func TestNetworkedDrivesBrick(t *testing.T) {
	ctx := context.Background()
	addr := freeAddr(t)
	startBrick(t, addr)

	n := newNetworked(addr)
	defer n.Close()
	require.NoError(t, n.Connect(ctx))

	snap := n.State()
	assert.Equal(t, string(link.StateConnected), snap.Connection)
	assert.False(t, snap.Degraded)
	assert.Equal(t, addr, snap.Address)

	connections := ofKind(drain(n), EventConnection)
	require.NotEmpty(t, connections)
	assert.Equal(t, string(link.StateConnected), connections[len(connections)-1].To)

	// The compost sequence runs once and leaves the mechanism at rest.
	resp := n.HandleClassification(ctx, "organic_waste")
	assert.Equal(t, protocol.Success("Sorted: organic_waste"), resp)
	assert.Equal(t, actuator.InitialState(), n.State().Actuators)

	var steps []string
	for _, e := range ofKind(drain(n), EventTransition) {
		assert.False(t, e.Intended)
		steps = append(steps, e.From+">"+e.To)
	}
	assert.Equal(t, []string{"center>left", "left>center"}, steps)

	assert.Equal(t, protocol.Success("Panels shifted: right"), n.ShiftPanels(ctx, protocol.DirectionRight))
	assert.Equal(t, actuator.PanelRight, n.State().Actuators.Panel)

	// Closing a closed trap succeeds and changes nothing.
	drain(n)
	assert.Equal(t, protocol.Success("Trap closed"), n.CloseTrap(ctx))
	assert.Equal(t, protocol.Success("Trap closed"), n.CloseTrap(ctx))
	assert.Empty(t, ofKind(drain(n), EventTransition))

	assert.Equal(t, protocol.Success("Settings updated"), n.Configure(ctx, protocol.SettingsPatch{Speed: ptr.To(70)}))
	assert.Equal(t, 70, n.State().Settings.Speed)
	assert.Equal(t, 45, n.State().Settings.PanelDeg)
}

func TestNetworkedReconnectsOnDemand(t *testing.T) {
	ctx := context.Background()
	addr := freeAddr(t)

	n := newNetworked(addr)
	defer n.Close()
	require.Error(t, n.Connect(ctx))
	assert.Equal(t, protocol.StatusSimulated, n.ExtendRods(ctx).Status)

	startBrick(t, addr)

	require.Eventually(t, func() bool {
		return n.RetractRods(ctx).Status == protocol.StatusSuccess
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, n.State().Degraded)
}

func TestUnknownLabelSendsNothing(t *testing.T) {
	ctx := context.Background()
	l, rec := newLocal()
	defer l.Close()

	resp := l.HandleClassification(ctx, "banana")
	assert.Equal(t, protocol.Errorf("Unknown label: banana"), resp)
	assert.Empty(t, rec.Moves())

	events := drain(l)
	require.Len(t, events, 1)
	assert.Equal(t, protocol.StatusError, events[0].Status)
}

func TestLocalController(t *testing.T) {
	ctx := context.Background()
	l, rec := newLocal()

	assert.Equal(t, protocol.Success("Sorted: plastic"), l.HandleClassification(ctx, "plastic"))
	assert.Equal(t, []hal.Move{
		{Port: "outA", Speed: 50, Degrees: 45},
		{Port: "outA", Speed: 50, Degrees: -45},
	}, rec.Moves())

	snap := l.State()
	assert.Equal(t, ConnectionLocal, snap.Connection)
	assert.False(t, snap.Degraded)

	assert.Equal(t, protocol.Success("All motors stopped"), l.StopAllMotors(ctx))

	require.NoError(t, l.Close())
	_, open := <-l.Events()
	for open {
		_, open = <-l.Events()
	}
	// Closing twice is harmless.
	assert.NoError(t, l.Close())
}

func TestErrorResponseKeepsState(t *testing.T) {
	ctx := context.Background()
	l, rec := newLocal()
	defer l.Close()

	rec.FailPort("outB", assert.AnError)
	resp := l.ExtendRods(ctx)
	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Equal(t, actuator.RodsRetracted, l.State().Actuators.Rods)
	assert.Empty(t, ofKind(drain(l), EventTransition))
}

func TestNetworkedEveryOperationSimulatesWhileDisconnected(t *testing.T) {
	ctx := context.Background()
	n := newNetworked(freeAddr(t))
	defer n.Close()

	tests := []struct {
		action protocol.Action
		call   func() protocol.Response
	}{
		{protocol.ActionShiftPanels, func() protocol.Response { return n.ShiftPanels(ctx, protocol.DirectionLeft) }},
		{protocol.ActionShiftPanels, func() protocol.Response { return n.ShiftPanels(ctx, protocol.DirectionRight) }},
		{protocol.ActionResetPanels, func() protocol.Response { return n.ResetPanels(ctx) }},
		{protocol.ActionExtendRods, func() protocol.Response { return n.ExtendRods(ctx) }},
		{protocol.ActionRetractRods, func() protocol.Response { return n.RetractRods(ctx) }},
		{protocol.ActionOpenTrap, func() protocol.Response { return n.OpenTrap(ctx) }},
		{protocol.ActionCloseTrap, func() protocol.Response { return n.CloseTrap(ctx) }},
		{protocol.ActionStopAll, func() protocol.Response { return n.StopAllMotors(ctx) }},
		{protocol.ActionConfigure, func() protocol.Response {
			return n.Configure(ctx, protocol.SettingsPatch{Speed: ptr.To(10)})
		}},
		{protocol.ActionClassify, func() protocol.Response { return n.HandleClassification(ctx, "metal") }},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			assert.Equal(t, protocol.Simulated(tt.action), tt.call())
			assert.True(t, n.State().Degraded)
		})
	}

	assert.Equal(t, actuator.InitialState(), n.State().Actuators)
	assert.Equal(t, protocol.DefaultMotorSettings(), n.State().Settings)
}

func TestNetworkedShiftThenReset(t *testing.T) {
	ctx := context.Background()
	addr := freeAddr(t)
	startBrick(t, addr)

	n := newNetworked(addr)
	defer n.Close()
	require.NoError(t, n.Connect(ctx))

	for _, tt := range []struct {
		dir  protocol.Direction
		want string
	}{
		{protocol.DirectionLeft, actuator.PanelLeft},
		{protocol.DirectionRight, actuator.PanelRight},
	} {
		t.Run(string(tt.dir), func(t *testing.T) {
			drain(n)

			require.Equal(t, protocol.StatusSuccess, n.ShiftPanels(ctx, tt.dir).Status)
			assert.Equal(t, tt.want, n.State().Actuators.Panel)

			require.Equal(t, protocol.StatusSuccess, n.ResetPanels(ctx).Status)
			assert.Equal(t, actuator.PanelCenter, n.State().Actuators.Panel)

			var got [][2]string
			for _, e := range ofKind(drain(n), EventTransition) {
				assert.False(t, e.Intended)
				got = append(got, [2]string{e.From, e.To})
			}
			assert.Equal(t, [][2]string{{actuator.PanelCenter, tt.want}, {tt.want, actuator.PanelCenter}}, got)
		})
	}
}

func TestErrorResponseStillSettles(t *testing.T) {
	rec := hal.NewRecorder()
	mech := actuator.NewMechanism(rec, actuator.MechanismConfig{
		Ports:    actuator.DefaultPorts(),
		Settings: protocol.DefaultMotorSettings(),
	})
	const settle = 50 * time.Millisecond
	l := NewLocal(mech, settle, 64)
	defer l.Close()

	rec.FailPort("outB", assert.AnError)
	start := time.Now()
	resp := l.ExtendRods(context.Background())

	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.GreaterOrEqual(t, time.Since(start), settle)
}
