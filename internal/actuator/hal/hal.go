// Package hal provides the motor drivers behind actuator.Driver.
package hal

import (
	"fmt"

	"github.com/binsort-io/binsort/internal/actuator"
	"github.com/binsort-io/binsort/pkg/options"
)

// New returns the driver selected by opts.
func New(opts *options.DriverOptions) (actuator.Driver, error) {
	switch opts.Kind {
	case options.DriverSimulated:
		return NewRecorder(), nil
	case options.DriverEV3Dev:
		return newPlatformDriver(opts.SysfsRoot, PortsOf(opts))
	}
	return nil, fmt.Errorf("unknown driver kind %q", opts.Kind)
}

// PortsOf extracts the motor wiring from opts.
func PortsOf(opts *options.DriverOptions) actuator.Ports {
	return actuator.Ports{
		Panel: opts.PanelPort,
		Rods:  opts.RodPort,
		Trap:  opts.TrapPort,
	}
}
