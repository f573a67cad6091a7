package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/binsort-io/binsort/cmd/binsort-host/app/options"
	"github.com/binsort-io/binsort/pkg/app"
)

const (
	commandName = "binsort-host"
	commandDesc = `The binsort host controller takes classification results, turns them
into motor commands and sends them to the brick. When the brick cannot be
reached it keeps running in simulation mode, or drives local motors.`
)

func NewApp() *app.App {
	opts := options.NewHostOptions()
	return app.NewApp(
		commandName,
		"Launch the binsort host controller",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.HostOptions) app.RunFunc {
	return func() error {
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		h, err := cfg.NewHost(ctx)
		if err != nil {
			return fmt.Errorf("failed to create host controller: %w", err)
		}

		return h.Run(ctx)
	}
}
