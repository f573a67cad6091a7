package host

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/binsort-io/binsort/internal/actuator"
	"github.com/binsort-io/binsort/internal/actuator/hal"
	"github.com/binsort-io/binsort/internal/brick"
	"github.com/binsort-io/binsort/internal/link"
	"github.com/binsort-io/binsort/internal/protocol"
	"github.com/binsort-io/binsort/internal/sorting"
	"github.com/binsort-io/binsort/pkg/options"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func tcpLinkOptions(addr string) *options.LinkOptions {
	o := options.NewLinkOptions()
	o.Network = options.NetworkTCP
	o.Address = addr
	o.ConnectTimeout = 2 * time.Second
	o.ReadTimeout = 2 * time.Second
	o.WriteTimeout = 2 * time.Second
	return o
}

func fastPacing() *options.PacingOptions {
	return &options.PacingOptions{
		CompostHold:    time.Millisecond,
		RecyclableHold: time.Millisecond,
		TrashHold:      time.Millisecond,
	}
}

// startBrick runs a simulated brick on addr until the test ends.
func startBrick(t *testing.T, addr string) {
	t.Helper()

	driver := options.NewDriverOptions()
	driver.Kind = options.DriverSimulated

	cfg := &brick.Config{
		LinkOptions:   tcpLinkOptions(addr),
		DriverOptions: driver,
		MotorOptions:  options.NewMotorOptions(),
		PacingOptions: fastPacing(),
		HttpOptions:   &options.HttpOptions{},
	}
	b, err := cfg.NewBrick()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("brick did not stop")
		}
	})
}

func newNetworked(addr string) *Networked {
	return NewNetworked(NetworkedConfig{
		Link: link.ClientConfig{
			Dialer:         link.TransportFrom(tcpLinkOptions(addr)),
			Address:        addr,
			ConnectTimeout: 2 * time.Second,
			ReadTimeout:    2 * time.Second,
			WriteTimeout:   2 * time.Second,
		},
		Settings:         protocol.DefaultMotorSettings(),
		ReconnectInitial: time.Millisecond,
		ReconnectMax:     5 * time.Millisecond,
		EventBuffer:      64,
	})
}

func newLocal() (*Local, *hal.Recorder) {
	rec := hal.NewRecorder()
	mech := actuator.NewMechanism(rec, actuator.MechanismConfig{
		Ports:    actuator.DefaultPorts(),
		Settings: protocol.DefaultMotorSettings(),
		Holds:    sorting.Holds{Compost: time.Millisecond, Recyclable: time.Millisecond, Trash: time.Millisecond},
	})
	return NewLocal(mech, 0, 64), rec
}

// drain returns the events buffered so far.
func drain(c Controller) []Event {
	var out []Event
	for {
		select {
		case e, ok := <-c.Events():
			if !ok {
				return out
			}
			out = append(out, e)
		default:
			return out
		}
	}
}

func ofKind(events []Event, kind EventKind) []Event {
	var out []Event
	for _, e := range events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
