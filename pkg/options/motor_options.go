package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

var _ IOptions = (*MotorOptions)(nil)

// MotorOptions holds the initial motor settings.
type MotorOptions struct {
	Speed    int `json:"speed" mapstructure:"speed"`
	PanelDeg int `json:"panel-deg" mapstructure:"panel-deg"`
	RodDeg   int `json:"rod-deg" mapstructure:"rod-deg"`
	TrapDeg  int `json:"trap-deg" mapstructure:"trap-deg"`
}

func NewMotorOptions() *MotorOptions {
	return &MotorOptions{
		Speed:    50,
		PanelDeg: 45,
		RodDeg:   40,
		TrapDeg:  95,
	}
}

func (o *MotorOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Speed < 0 || o.Speed > 100 {
		errs = append(errs, fmt.Errorf("--motor.speed must be in [0,100], got %d", o.Speed))
	}
	if o.PanelDeg < 0 || o.RodDeg < 0 || o.TrapDeg < 0 {
		errs = append(errs, fmt.Errorf("--motor angles must not be negative"))
	}
	return errs
}

func (o *MotorOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.Speed, join(prefixes, "motor.speed"), o.Speed, "Motor speed in percent.")
	fs.IntVar(&o.PanelDeg, join(prefixes, "motor.panel-deg"), o.PanelDeg, "Panel deflection in degrees.")
	fs.IntVar(&o.RodDeg, join(prefixes, "motor.rod-deg"), o.RodDeg, "Rod travel in degrees.")
	fs.IntVar(&o.TrapDeg, join(prefixes, "motor.trap-deg"), o.TrapDeg, "Trap door travel in degrees.")
}
