package host

import (
	"context"
	"fmt"
	"os"

	"github.com/binsort-io/binsort/internal/brick"
	"github.com/binsort-io/binsort/internal/link"
	"github.com/binsort-io/binsort/internal/pkg/httpserver"
	"github.com/binsort-io/binsort/internal/registry"
	"github.com/binsort-io/binsort/pkg/log"
	"github.com/binsort-io/binsort/pkg/mqtt"
	"github.com/binsort-io/binsort/pkg/mqtt/topic"
	"github.com/binsort-io/binsort/pkg/options"
)

type Config struct {
	LinkOptions       *options.LinkOptions
	RegistryOptions   *options.RegistryOptions
	DiscoveryOptions  *options.DiscoveryOptions
	DriverOptions     *options.DriverOptions
	MotorOptions      *options.MotorOptions
	PacingOptions     *options.PacingOptions
	ControllerOptions *options.ControllerOptions
	HttpOptions       *options.HttpOptions
	MqttOptions       *options.MqttOptions
}

// NewController connects to the brick once. When that fails it returns the configured
// fallback: the networked controller in degraded mode, or a local one.
func (cfg *Config) NewController(ctx context.Context) (Controller, error) {
	n := cfg.newNetworked()
	err := n.Connect(ctx)
	if err == nil {
		return n, nil
	}

	switch cfg.ControllerOptions.Fallback {
	case options.FallbackLocal:
		_ = n.Close()
		mech, merr := brick.NewMechanism(cfg.DriverOptions, cfg.MotorOptions, cfg.PacingOptions)
		if merr != nil {
			return nil, fmt.Errorf("brick unreachable (%w) and local fallback failed: %w", err, merr)
		}
		log.Warn("Brick unreachable, driving local motors", "error", err.Error())
		return NewLocal(mech, cfg.PacingOptions.Settle, cfg.ControllerOptions.EventBuffer), nil
	default:
		log.Warn("Brick unreachable, running in simulation mode", "error", err.Error())
		return n, nil
	}
}

func (cfg *Config) store() *registry.Store {
	return registry.NewStore(cfg.RegistryOptions.Path)
}

func (cfg *Config) newNetworked() *Networked {
	lo := cfg.LinkOptions
	return NewNetworked(NetworkedConfig{
		Link: link.ClientConfig{
			Dialer:         link.TransportFrom(lo),
			Address:        lo.Address,
			Store:          cfg.store(),
			Resolver:       link.NewResolver(cfg.DiscoveryOptions, nil),
			ConnectTimeout: lo.ConnectTimeout,
			ReadTimeout:    lo.ReadTimeout,
			WriteTimeout:   lo.WriteTimeout,
			Logger:         log.Logr(),
		},
		Settings:         brick.MotorSettings(cfg.MotorOptions),
		Settle:           cfg.PacingOptions.Settle,
		ReconnectInitial: cfg.ControllerOptions.ReconnectInitial,
		ReconnectMax:     cfg.ControllerOptions.ReconnectMax,
		EventBuffer:      cfg.ControllerOptions.EventBuffer,
	})
}

func (cfg *Config) hostID() string {
	if id := cfg.ControllerOptions.HostID; id != "" {
		return id
	}
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return "binsort-host"
}

// NewHost builds the controller and the surfaces around it.
func (cfg *Config) NewHost(ctx context.Context) (*Host, error) {
	ctrl, err := cfg.NewController(ctx)
	if err != nil {
		return nil, err
	}

	h := &Host{ctrl: ctrl}

	if n, ok := ctrl.(*Networked); ok && cfg.RegistryOptions.Watch && cfg.LinkOptions.Address == "" {
		h.watch = func(ctx context.Context) error { return n.Watch(ctx, cfg.store()) }
	}

	if cfg.HttpOptions.Enabled() {
		h.http = httpserver.NewServer(cfg.HttpOptions, func() bool { return !ctrl.State().Degraded })
		RegisterRoutes(h.http.Router(), ctrl)
	}

	if cfg.MqttOptions.Enabled() {
		relay, err := cfg.newRelay(ctrl)
		if err != nil {
			_ = ctrl.Close()
			return nil, fmt.Errorf("failed to init event relay: %w", err)
		}
		h.relay = relay
	}

	return h, nil
}

func (cfg *Config) newRelay(ctrl Controller) (*Relay, error) {
	id := cfg.hostID()
	topics := topic.NewTopicBuilder(cfg.MqttOptions.TopicRoot)

	mqttConfig := cfg.MqttOptions.ToClientConfig()
	if mqttConfig.ClientID == "" {
		mqttConfig.ClientID = fmt.Sprintf("binsort-host-%s", id)
	}
	mqttConfig.WillTopic = topics.State(id)
	mqttConfig.WillPayload = OfflinePayload()
	mqttConfig.WillQoS = 1
	mqttConfig.WillRetain = true

	client, err := mqtt.NewClient(mqttConfig)
	if err != nil {
		return nil, err
	}
	return NewRelay(client, topics, id, ctrl), nil
}
