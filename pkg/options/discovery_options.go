package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*DiscoveryOptions)(nil)

// DiscoveryOptions controls scanning for nearby bricks.
type DiscoveryOptions struct {
	// ScanTimeout is how long bluetoothctl scans before devices are listed.
	ScanTimeout time.Duration `json:"scan-timeout" mapstructure:"scan-timeout"`

	// NameFilters are case-insensitive substrings; a device matches when its name contains any.
	NameFilters []string `json:"name-filters" mapstructure:"name-filters"`

	// Bluetoothctl is the path of the bluetoothctl binary.
	Bluetoothctl string `json:"bluetoothctl" mapstructure:"bluetoothctl"`
}

func NewDiscoveryOptions() *DiscoveryOptions {
	return &DiscoveryOptions{
		ScanTimeout:  10 * time.Second,
		NameFilters:  []string{"ev3", "lego"},
		Bluetoothctl: "bluetoothctl",
	}
}

func (o *DiscoveryOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.ScanTimeout < time.Second {
		errs = append(errs, errors.New("--discovery.scan-timeout must be at least 1s"))
	}
	if len(o.NameFilters) == 0 {
		errs = append(errs, errors.New("--discovery.name-filters must not be empty"))
	}
	return errs
}

func (o *DiscoveryOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.DurationVar(&o.ScanTimeout, join(prefixes, "discovery.scan-timeout"), o.ScanTimeout, "How long to scan for nearby devices.")
	fs.StringSliceVar(&o.NameFilters, join(prefixes, "discovery.name-filters"), o.NameFilters, "Case-insensitive name substrings identifying a brick.")
	fs.StringVar(&o.Bluetoothctl, join(prefixes, "discovery.bluetoothctl"), o.Bluetoothctl, "Path of the bluetoothctl binary.")
}
