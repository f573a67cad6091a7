package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

var _ IOptions = (*DriverOptions)(nil)

const (
	DriverEV3Dev    = "ev3dev"
	DriverSimulated = "sim"
)

// DriverOptions selects the motor driver and its port wiring.
type DriverOptions struct {
	Kind      string `json:"kind" mapstructure:"kind"`
	SysfsRoot string `json:"sysfs-root" mapstructure:"sysfs-root"`
	PanelPort string `json:"panel-port" mapstructure:"panel-port"`
	RodPort   string `json:"rod-port" mapstructure:"rod-port"`
	TrapPort  string `json:"trap-port" mapstructure:"trap-port"`
}

func NewDriverOptions() *DriverOptions {
	return &DriverOptions{
		Kind:      DriverEV3Dev,
		SysfsRoot: "/sys/class/tacho-motor",
		PanelPort: "outA",
		RodPort:   "outB",
		TrapPort:  "outC",
	}
}

func (o *DriverOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Kind {
	case DriverEV3Dev, DriverSimulated:
	default:
		errs = append(errs, fmt.Errorf("--driver.kind must be %q or %q, got %q", DriverEV3Dev, DriverSimulated, o.Kind))
	}

	ports := map[string]bool{}
	for _, p := range []string{o.PanelPort, o.RodPort, o.TrapPort} {
		if p == "" {
			errs = append(errs, fmt.Errorf("--driver ports must not be empty"))
			continue
		}
		if ports[p] {
			errs = append(errs, fmt.Errorf("--driver port %q assigned twice", p))
		}
		ports[p] = true
	}
	return errs
}

func (o *DriverOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Kind, join(prefixes, "driver.kind"), o.Kind, "Motor driver, 'ev3dev' or 'sim'.")
	fs.StringVar(&o.SysfsRoot, join(prefixes, "driver.sysfs-root"), o.SysfsRoot, "ev3dev tacho-motor class directory.")
	fs.StringVar(&o.PanelPort, join(prefixes, "driver.panel-port"), o.PanelPort, "Output port of the panel motor.")
	fs.StringVar(&o.RodPort, join(prefixes, "driver.rod-port"), o.RodPort, "Output port of the rod motor.")
	fs.StringVar(&o.TrapPort, join(prefixes, "driver.trap-port"), o.TrapPort, "Output port of the trap motor.")
}
