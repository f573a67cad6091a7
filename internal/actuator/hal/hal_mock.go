//go:build !linux

package hal

import (
	"github.com/binsort-io/binsort/internal/actuator"
	"github.com/binsort-io/binsort/pkg/log"
)

// newPlatformDriver falls back to the recorder: ev3dev sysfs only exists on linux.
func newPlatformDriver(root string, ports actuator.Ports) (actuator.Driver, error) {
	log.Warn("ev3dev driver unavailable on this platform, motors are simulated", "sysfsRoot", root,
		"panel", ports.Panel, "rods", ports.Rods, "trap", ports.Trap)
	return NewRecorder(), nil
}
