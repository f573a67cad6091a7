package options

import (
	"errors"

	"github.com/spf13/pflag"
)

var _ IOptions = (*RegistryOptions)(nil)

// RegistryOptions locates the persisted brick address.
type RegistryOptions struct {
	Path  string `json:"path" mapstructure:"path"`
	Watch bool   `json:"watch" mapstructure:"watch"`
}

func NewRegistryOptions() *RegistryOptions {
	return &RegistryOptions{
		Path:  "ev3_config.txt",
		Watch: true,
	}
}

func (o *RegistryOptions) Validate() []error {
	if o == nil {
		return nil
	}
	if o.Path == "" {
		return []error{errors.New("--registry.path must not be empty")}
	}
	return nil
}

func (o *RegistryOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Path, join(prefixes, "registry.path"), o.Path, "File holding the last verified brick address.")
	fs.BoolVar(&o.Watch, join(prefixes, "registry.watch"), o.Watch, "Reload the cached address when the registry file changes.")
}
