package options

import (
	"os"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/binsort-io/binsort/internal/setup"
	"github.com/binsort-io/binsort/pkg/app"
	"github.com/binsort-io/binsort/pkg/log"
	"github.com/binsort-io/binsort/pkg/options"
)

type SetupOptions struct {
	LinkOptions      *options.LinkOptions      `json:"link" mapstructure:"link"`
	RegistryOptions  *options.RegistryOptions  `json:"registry" mapstructure:"registry"`
	DiscoveryOptions *options.DiscoveryOptions `json:"discovery" mapstructure:"discovery"`
	Log              *log.Options              `json:"log" mapstructure:"log"`
}

var (
	_ app.NamedFlagSetOptions = (*SetupOptions)(nil)
	_ app.LogOptionsProvider  = (*SetupOptions)(nil)
)

func NewSetupOptions() *SetupOptions {
	o := &SetupOptions{
		LinkOptions:      options.NewLinkOptions(),
		RegistryOptions:  options.NewRegistryOptions(),
		DiscoveryOptions: options.NewDiscoveryOptions(),
		Log:              log.NewOptions(),
	}
	// The wizard talks on stdout; keep the log to problems.
	o.Log.Level = "warn"
	o.Log.OutputPaths = []string{"stderr"}
	return o
}

func (o *SetupOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.LinkOptions.AddFlags(fss.FlagSet("link"))
	o.RegistryOptions.AddFlags(fss.FlagSet("registry"))
	o.DiscoveryOptions.AddFlags(fss.FlagSet("discovery"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *SetupOptions) Complete() error {
	return nil
}

func (o *SetupOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.LinkOptions.Validate()...)
	errs = append(errs, o.RegistryOptions.Validate()...)
	errs = append(errs, o.DiscoveryOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *SetupOptions) LogOptions() *log.Options {
	return o.Log
}

func (o *SetupOptions) Config() (*setup.Config, error) {
	return &setup.Config{
		LinkOptions:      o.LinkOptions,
		RegistryOptions:  o.RegistryOptions,
		DiscoveryOptions: o.DiscoveryOptions,
		In:               os.Stdin,
		Out:              os.Stdout,
	}, nil
}
