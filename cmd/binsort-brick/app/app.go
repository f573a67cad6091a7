package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/binsort-io/binsort/cmd/binsort-brick/app/options"
	"github.com/binsort-io/binsort/pkg/app"
)

const (
	commandName = "binsort-brick"
	commandDesc = `The binsort brick service runs on the EV3. It accepts one controller
at a time over the command link and drives the panel, rod and trap motors.`
)

func NewApp() *app.App {
	opts := options.NewBrickOptions()
	return app.NewApp(
		commandName,
		"Launch the binsort brick service",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.BrickOptions) app.RunFunc {
	return func() error {
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		b, err := cfg.NewBrick()
		if err != nil {
			return fmt.Errorf("failed to create brick service: %w", err)
		}

		return b.Run(ctx)
	}
}
