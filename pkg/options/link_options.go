package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*LinkOptions)(nil)

const (
	NetworkRFCOMM = "rfcomm"
	NetworkTCP    = "tcp"
)

// LinkOptions configures the host/brick stream connection.
type LinkOptions struct {
	// Network is "rfcomm" for Bluetooth or "tcp" for development.
	Network string `json:"network" mapstructure:"network"`

	// Address is the peer address on the host (skipping registry and discovery when set)
	// and the bind address on the brick. Empty binds to any adapter.
	Address string `json:"address" mapstructure:"address"`

	// Channel is the RFCOMM channel.
	Channel uint8 `json:"channel" mapstructure:"channel"`

	ConnectTimeout time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`
	ReadTimeout    time.Duration `json:"read-timeout" mapstructure:"read-timeout"`
	WriteTimeout   time.Duration `json:"write-timeout" mapstructure:"write-timeout"`
}

// NewLinkOptions returns the defaults: RFCOMM channel 1 and 15s timeouts.
func NewLinkOptions() *LinkOptions {
	return &LinkOptions{
		Network:        NetworkRFCOMM,
		Channel:        1,
		ConnectTimeout: 15 * time.Second,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
	}
}

func (o *LinkOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	switch o.Network {
	case NetworkRFCOMM:
		if o.Channel < 1 || o.Channel > 30 {
			errs = append(errs, fmt.Errorf("--link.channel must be in [1,30], got %d", o.Channel))
		}
	case NetworkTCP:
		if o.Address != "" {
			if err := ValidateAddress(o.Address); err != nil {
				errs = append(errs, err)
			}
		}
	default:
		errs = append(errs, fmt.Errorf("--link.network must be %q or %q, got %q", NetworkRFCOMM, NetworkTCP, o.Network))
	}

	if o.ConnectTimeout <= 0 || o.ReadTimeout <= 0 || o.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("--link timeouts must be positive"))
	}

	return errs
}

func (o *LinkOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Network, join(prefixes, "link.network"), o.Network, "Link transport, 'rfcomm' or 'tcp'.")
	fs.StringVar(&o.Address, join(prefixes, "link.address"), o.Address, "Brick address (MAC for rfcomm, host:port for tcp).")
	fs.Uint8Var(&o.Channel, join(prefixes, "link.channel"), o.Channel, "RFCOMM channel.")
	fs.DurationVar(&o.ConnectTimeout, join(prefixes, "link.connect-timeout"), o.ConnectTimeout, "Bound on establishing and verifying a connection.")
	fs.DurationVar(&o.ReadTimeout, join(prefixes, "link.read-timeout"), o.ReadTimeout, "Bound on waiting for one response.")
	fs.DurationVar(&o.WriteTimeout, join(prefixes, "link.write-timeout"), o.WriteTimeout, "Bound on writing one command.")
}
