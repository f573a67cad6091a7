package app

import (
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/binsort-io/binsort/pkg/log"
)

// CliOptions abstracts configuration options for reading parameters from the
// command line.
type CliOptions interface {
	// Flags returns the option flags grouped by section.
	Flags() cliflag.NamedFlagSets

	// Complete fills in fields derived from other fields.
	Complete() error

	// Validate checks the options after flags, config file and environment are applied.
	Validate() error
}

// NamedFlagSetOptions is the name the command option structs assert against.
type NamedFlagSetOptions = CliOptions

// LogOptionsProvider is implemented by options that carry logger settings.
// The app initializes the global logger from them before running.
type LogOptionsProvider interface {
	LogOptions() *log.Options
}
