package brick

import (
	"fmt"

	"github.com/binsort-io/binsort/internal/actuator"
	"github.com/binsort-io/binsort/internal/actuator/hal"
	"github.com/binsort-io/binsort/internal/link"
	"github.com/binsort-io/binsort/internal/pkg/httpserver"
	"github.com/binsort-io/binsort/internal/protocol"
	"github.com/binsort-io/binsort/internal/sorting"
	"github.com/binsort-io/binsort/pkg/log"
	"github.com/binsort-io/binsort/pkg/options"
)

type Config struct {
	LinkOptions   *options.LinkOptions
	DriverOptions *options.DriverOptions
	MotorOptions  *options.MotorOptions
	PacingOptions *options.PacingOptions
	HttpOptions   *options.HttpOptions
}

// NewMechanism builds the mechanism described by the driver, motor and pacing options.
// The host's local controller uses it too.
func NewMechanism(do *options.DriverOptions, mo *options.MotorOptions, po *options.PacingOptions) (*actuator.Mechanism, error) {
	driver, err := hal.New(do)
	if err != nil {
		return nil, fmt.Errorf("failed to init motor driver: %w", err)
	}
	return actuator.NewMechanism(driver, actuator.MechanismConfig{
		Ports:    hal.PortsOf(do),
		Settings: MotorSettings(mo),
		Holds: sorting.Holds{
			Compost:    po.CompostHold,
			Recyclable: po.RecyclableHold,
			Trash:      po.TrashHold,
		},
	}), nil
}

func MotorSettings(o *options.MotorOptions) protocol.MotorSettings {
	return protocol.MotorSettings{
		Speed:    o.Speed,
		PanelDeg: o.PanelDeg,
		RodDeg:   o.RodDeg,
		TrapDeg:  o.TrapDeg,
	}
}

// NewBrick opens the listener and wires the dispatcher behind it. A bind failure is returned here.
func (cfg *Config) NewBrick() (*Brick, error) {
	mech, err := NewMechanism(cfg.DriverOptions, cfg.MotorOptions, cfg.PacingOptions)
	if err != nil {
		return nil, err
	}

	transport := link.TransportFrom(cfg.LinkOptions)
	if transport.Network == options.NetworkTCP && cfg.LinkOptions.Address == "" {
		return nil, fmt.Errorf("--link.address is required for the tcp network")
	}
	listener, err := transport.Listen(cfg.LinkOptions.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s %q: %w", transport.Network, cfg.LinkOptions.Address, err)
	}

	dispatcher := NewDispatcher(mech)
	server := link.NewServer(listener, NewHandler(dispatcher),
		link.WithWriteTimeout(cfg.LinkOptions.WriteTimeout),
		link.WithLogger(log.Logr()),
	)

	b := &Brick{
		mech:     mech,
		server:   server,
		listener: listener,
	}
	if cfg.HttpOptions.Enabled() {
		b.http = httpserver.NewServer(cfg.HttpOptions, nil)
	}
	return b, nil
}
