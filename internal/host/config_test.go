package host

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsort-io/binsort/pkg/options"
)

func fallbackConfig(t *testing.T, fallback string) *Config {
	t.Helper()

	link := options.NewLinkOptions()
	link.Network = options.NetworkTCP

	registry := options.NewRegistryOptions()
	registry.Path = filepath.Join(t.TempDir(), "ev3_config.txt")

	discovery := options.NewDiscoveryOptions()
	discovery.Bluetoothctl = filepath.Join(t.TempDir(), "no-bluetoothctl")

	driver := options.NewDriverOptions()
	driver.Kind = options.DriverSimulated

	controller := options.NewControllerOptions()
	controller.Fallback = fallback

	return &Config{
		LinkOptions:       link,
		RegistryOptions:   registry,
		DiscoveryOptions:  discovery,
		DriverOptions:     driver,
		MotorOptions:      options.NewMotorOptions(),
		PacingOptions:     fastPacing(),
		ControllerOptions: controller,
		HttpOptions:       &options.HttpOptions{},
		MqttOptions:       options.NewMqttOptions(),
	}
}

func TestNoBrickFallsBackToSimulation(t *testing.T) {
	ctrl, err := fallbackConfig(t, options.FallbackSimulated).NewController(context.Background())
	require.NoError(t, err)
	defer ctrl.Close()

	require.IsType(t, &Networked{}, ctrl)
	assert.True(t, ctrl.State().Degraded)
	assert.Equal(t, "Simulated reset_panels", ctrl.ResetPanels(context.Background()).Message)
}

func TestNoBrickFallsBackToLocal(t *testing.T) {
	ctrl, err := fallbackConfig(t, options.FallbackLocal).NewController(context.Background())
	require.NoError(t, err)
	defer ctrl.Close()

	require.IsType(t, &Local{}, ctrl)
	assert.Equal(t, "Rods extended", ctrl.ExtendRods(context.Background()).Message)
}

func TestHostRunStops(t *testing.T) {
	cfg := fallbackConfig(t, options.FallbackSimulated)
	cfg.HttpOptions = options.NewHttpOptions()
	cfg.HttpOptions.Addr = freeAddr(t)

	h, err := cfg.NewHost(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	h.Controller().OpenTrap(context.Background())
	cancel()
	assert.NoError(t, <-done)
}
