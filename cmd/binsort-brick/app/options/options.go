package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/binsort-io/binsort/internal/brick"
	"github.com/binsort-io/binsort/pkg/app"
	"github.com/binsort-io/binsort/pkg/log"
	"github.com/binsort-io/binsort/pkg/options"
)

type BrickOptions struct {
	LinkOptions   *options.LinkOptions   `json:"link" mapstructure:"link"`
	DriverOptions *options.DriverOptions `json:"driver" mapstructure:"driver"`
	MotorOptions  *options.MotorOptions  `json:"motor" mapstructure:"motor"`
	PacingOptions *options.PacingOptions `json:"pacing" mapstructure:"pacing"`
	HttpOptions   *options.HttpOptions   `json:"http" mapstructure:"http"`
	Log           *log.Options           `json:"log" mapstructure:"log"`
}

var (
	_ app.NamedFlagSetOptions = (*BrickOptions)(nil)
	_ app.LogOptionsProvider  = (*BrickOptions)(nil)
)

func NewBrickOptions() *BrickOptions {
	o := &BrickOptions{
		LinkOptions:   options.NewLinkOptions(),
		DriverOptions: options.NewDriverOptions(),
		MotorOptions:  options.NewMotorOptions(),
		PacingOptions: options.NewPacingOptions(),
		HttpOptions:   options.NewHttpOptions(),
		Log:           log.NewOptions(),
	}
	// The brick only serves metrics when asked to.
	o.HttpOptions.Addr = ""
	return o
}

func (o *BrickOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.LinkOptions.AddFlags(fss.FlagSet("link"))
	o.DriverOptions.AddFlags(fss.FlagSet("driver"))
	o.MotorOptions.AddFlags(fss.FlagSet("motor"))
	o.PacingOptions.AddFlags(fss.FlagSet("pacing"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *BrickOptions) Complete() error {
	if o.Log.Name == "" {
		o.Log.Name = "brick"
	}
	return nil
}

func (o *BrickOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.LinkOptions.Validate()...)
	errs = append(errs, o.DriverOptions.Validate()...)
	errs = append(errs, o.MotorOptions.Validate()...)
	errs = append(errs, o.PacingOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *BrickOptions) LogOptions() *log.Options {
	return o.Log
}

func (o *BrickOptions) Config() (*brick.Config, error) {
	return &brick.Config{
		LinkOptions:   o.LinkOptions,
		DriverOptions: o.DriverOptions,
		MotorOptions:  o.MotorOptions,
		PacingOptions: o.PacingOptions,
		HttpOptions:   o.HttpOptions,
	}, nil
}
