package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFlagName = "config"

// addConfigFlag registers --config on fs.
func addConfigFlag(basename string, fs *pflag.FlagSet, cfgFile *string) {
	fs.StringVarP(cfgFile, configFlagName, "c", *cfgFile,
		fmt.Sprintf("Read configuration from the specified file (yaml, json or toml). Environment variables prefixed %s_ override it; flags override both.", envPrefix(basename)))
}

// envPrefix turns "binsort-host" into "BINSORT_HOST".
func envPrefix(basename string) string {
	return strings.ToUpper(strings.ReplaceAll(basename, "-", "_"))
}

// loadConfig merges the config file, the environment and the command line flags
// into a fresh viper instance.
func loadConfig(basename, cfgFile string, fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read configuration file %q: %w", cfgFile, err)
			}
		}
	}

	v.SetEnvPrefix(envPrefix(basename))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}
