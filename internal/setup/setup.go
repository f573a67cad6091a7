// Package setup finds the brick, verifies it answers a ping and records its address.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/binsort-io/binsort/internal/link"
	"github.com/binsort-io/binsort/internal/registry"
	"github.com/binsort-io/binsort/pkg/log"
	"github.com/binsort-io/binsort/pkg/options"
)

type Config struct {
	LinkOptions      *options.LinkOptions
	RegistryOptions  *options.RegistryOptions
	DiscoveryOptions *options.DiscoveryOptions

	In  io.Reader
	Out io.Writer
}

func (cfg *Config) NewWizard() *Wizard {
	p := newPrompter(cfg.In, cfg.Out)
	return &Wizard{
		link:     cfg.LinkOptions,
		resolver: link.NewResolver(cfg.DiscoveryOptions, p),
		store:    registry.NewStore(cfg.RegistryOptions.Path),
		prompt:   p,
		out:      cfg.Out,
	}
}

// Wizard walks the operator through pairing the host with a brick.
type Wizard struct {
	link     *options.LinkOptions
	resolver *link.Resolver
	store    *registry.Store
	prompt   *prompter
	out      io.Writer
}

// Run resolves a brick, pings it and saves it. Nothing is saved unless the ping succeeds.
func (w *Wizard) Run(ctx context.Context) error {
	rec, err := w.pick(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w.out, "Selected %s\n", rec)

	if err := w.verify(ctx, rec); err != nil {
		fmt.Fprintln(w.out, "Make sure the brick service is running and the brick is paired.")
		return err
	}
	fmt.Fprintln(w.out, "Brick answered ping")

	if err := w.store.Save(rec); err != nil {
		return fmt.Errorf("failed to save brick address: %w", err)
	}
	fmt.Fprintf(w.out, "Saved %s to %s\n", rec, w.store.Path())
	return nil
}

func (w *Wizard) pick(ctx context.Context) (registry.Record, error) {
	if w.link.Address != "" {
		return registry.Record{Address: w.link.Address}, nil
	}

	fmt.Fprintln(w.out, "Scanning for bricks, make sure the brick is discoverable...")
	rec, err := w.resolver.Resolve(ctx)
	if err == nil || !errors.Is(err, link.ErrNoDevice) {
		return rec, err
	}

	fmt.Fprintln(w.out, "No brick found.")
	return w.manual()
}

// manual reads an address typed by the operator.
func (w *Wizard) manual() (registry.Record, error) {
	for {
		addr, err := w.prompt.ask("Enter the brick address (empty to abort): ")
		if err != nil {
			return registry.Record{}, err
		}
		if addr == "" {
			return registry.Record{}, ErrAborted
		}
		if err := w.validAddress(addr); err != nil {
			fmt.Fprintln(w.out, err)
			continue
		}
		return registry.Record{Address: addr}, nil
	}
}

func (w *Wizard) validAddress(addr string) error {
	if w.link.Network == options.NetworkTCP {
		return options.ValidateAddress(addr)
	}
	if !registry.ValidMAC(addr) {
		return fmt.Errorf("%q is not a Bluetooth address (XX:XX:XX:XX:XX:XX)", addr)
	}
	return nil
}

func (w *Wizard) verify(ctx context.Context, rec registry.Record) error {
	client := link.NewClient(link.ClientConfig{
		Dialer:         link.TransportFrom(w.link),
		Address:        rec.Address,
		ConnectTimeout: w.link.ConnectTimeout,
		ReadTimeout:    w.link.ReadTimeout,
		WriteTimeout:   w.link.WriteTimeout,
		Logger:         log.Logr(),
	})
	defer client.Close()

	if _, err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}
