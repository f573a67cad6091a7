package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*ControllerOptions)(nil)

const (
	FallbackSimulated = "simulated"
	FallbackLocal     = "local"
)

// ControllerOptions configures the host-side controller.
type ControllerOptions struct {
	// Fallback picks what runs when the brick cannot be reached at startup.
	Fallback string `json:"fallback" mapstructure:"fallback"`

	// HostID names this host in relayed events. Defaults to the hostname.
	HostID string `json:"host-id" mapstructure:"host-id"`

	ReconnectInitial time.Duration `json:"reconnect-initial" mapstructure:"reconnect-initial"`
	ReconnectMax     time.Duration `json:"reconnect-max" mapstructure:"reconnect-max"`

	EventBuffer int `json:"event-buffer" mapstructure:"event-buffer"`
}

func NewControllerOptions() *ControllerOptions {
	return &ControllerOptions{
		Fallback:         FallbackSimulated,
		ReconnectInitial: 2 * time.Second,
		ReconnectMax:     time.Minute,
		EventBuffer:      64,
	}
}

func (o *ControllerOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Fallback {
	case FallbackSimulated, FallbackLocal:
	default:
		errs = append(errs, fmt.Errorf("--controller.fallback must be %q or %q, got %q", FallbackSimulated, FallbackLocal, o.Fallback))
	}
	if o.ReconnectInitial <= 0 || o.ReconnectMax < o.ReconnectInitial {
		errs = append(errs, fmt.Errorf("--controller.reconnect-max must be >= --controller.reconnect-initial > 0"))
	}
	if o.EventBuffer < 1 {
		errs = append(errs, fmt.Errorf("--controller.event-buffer must be positive"))
	}
	return errs
}

func (o *ControllerOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Fallback, join(prefixes, "controller.fallback"), o.Fallback, "Controller used when the brick is unreachable at startup: 'simulated' or 'local'.")
	fs.StringVar(&o.HostID, join(prefixes, "controller.host-id"), o.HostID, "Identifier of this host in relayed events (defaults to the hostname).")
	fs.DurationVar(&o.ReconnectInitial, join(prefixes, "controller.reconnect-initial"), o.ReconnectInitial, "First wait between on-demand reconnect attempts.")
	fs.DurationVar(&o.ReconnectMax, join(prefixes, "controller.reconnect-max"), o.ReconnectMax, "Longest wait between on-demand reconnect attempts.")
	fs.IntVar(&o.EventBuffer, join(prefixes, "controller.event-buffer"), o.EventBuffer, "Capacity of the controller event channel.")
}
