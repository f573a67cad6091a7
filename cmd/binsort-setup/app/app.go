package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/binsort-io/binsort/cmd/binsort-setup/app/options"
	"github.com/binsort-io/binsort/pkg/app"
)

const (
	commandName = "binsort-setup"
	commandDesc = `binsort-setup scans for the brick, checks that it answers a ping and
records its address so binsort-host can find it without scanning.`
)

func NewApp() *app.App {
	opts := options.NewSetupOptions()
	return app.NewApp(
		commandName,
		"Pair the host with a brick",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.SetupOptions) app.RunFunc {
	return func() error {
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		return cfg.NewWizard().Run(ctx)
	}
}
