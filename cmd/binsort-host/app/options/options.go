package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/binsort-io/binsort/internal/host"
	"github.com/binsort-io/binsort/pkg/app"
	"github.com/binsort-io/binsort/pkg/log"
	"github.com/binsort-io/binsort/pkg/options"
)

type HostOptions struct {
	LinkOptions       *options.LinkOptions       `json:"link" mapstructure:"link"`
	RegistryOptions   *options.RegistryOptions   `json:"registry" mapstructure:"registry"`
	DiscoveryOptions  *options.DiscoveryOptions  `json:"discovery" mapstructure:"discovery"`
	ControllerOptions *options.ControllerOptions `json:"controller" mapstructure:"controller"`
	DriverOptions     *options.DriverOptions     `json:"driver" mapstructure:"driver"`
	MotorOptions      *options.MotorOptions      `json:"motor" mapstructure:"motor"`
	PacingOptions     *options.PacingOptions     `json:"pacing" mapstructure:"pacing"`
	HttpOptions       *options.HttpOptions       `json:"http" mapstructure:"http"`
	MqttOptions       *options.MqttOptions       `json:"mqtt" mapstructure:"mqtt"`
	Log               *log.Options               `json:"log" mapstructure:"log"`
}

var (
	_ app.NamedFlagSetOptions = (*HostOptions)(nil)
	_ app.LogOptionsProvider  = (*HostOptions)(nil)
)

func NewHostOptions() *HostOptions {
	return &HostOptions{
		LinkOptions:       options.NewLinkOptions(),
		RegistryOptions:   options.NewRegistryOptions(),
		DiscoveryOptions:  options.NewDiscoveryOptions(),
		ControllerOptions: options.NewControllerOptions(),
		DriverOptions:     options.NewDriverOptions(),
		MotorOptions:      options.NewMotorOptions(),
		PacingOptions:     options.NewPacingOptions(),
		HttpOptions:       options.NewHttpOptions(),
		MqttOptions:       options.NewMqttOptions(),
		Log:               log.NewOptions(),
	}
}

func (o *HostOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.LinkOptions.AddFlags(fss.FlagSet("link"))
	o.RegistryOptions.AddFlags(fss.FlagSet("registry"))
	o.DiscoveryOptions.AddFlags(fss.FlagSet("discovery"))
	o.ControllerOptions.AddFlags(fss.FlagSet("controller"))
	o.DriverOptions.AddFlags(fss.FlagSet("local motors"))
	o.MotorOptions.AddFlags(fss.FlagSet("motor"))
	o.PacingOptions.AddFlags(fss.FlagSet("pacing"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *HostOptions) Complete() error {
	if o.Log.Name == "" {
		o.Log.Name = "host"
	}
	return nil
}

func (o *HostOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.LinkOptions.Validate()...)
	errs = append(errs, o.RegistryOptions.Validate()...)
	errs = append(errs, o.DiscoveryOptions.Validate()...)
	errs = append(errs, o.ControllerOptions.Validate()...)
	errs = append(errs, o.MotorOptions.Validate()...)
	errs = append(errs, o.PacingOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	if o.ControllerOptions.Fallback == options.FallbackLocal {
		errs = append(errs, o.DriverOptions.Validate()...)
	}
	return utilerrors.NewAggregate(errs)
}

func (o *HostOptions) LogOptions() *log.Options {
	return o.Log
}

func (o *HostOptions) Config() (*host.Config, error) {
	return &host.Config{
		LinkOptions:       o.LinkOptions,
		RegistryOptions:   o.RegistryOptions,
		DiscoveryOptions:  o.DiscoveryOptions,
		DriverOptions:     o.DriverOptions,
		MotorOptions:      o.MotorOptions,
		PacingOptions:     o.PacingOptions,
		ControllerOptions: o.ControllerOptions,
		HttpOptions:       o.HttpOptions,
		MqttOptions:       o.MqttOptions,
	}, nil
}
