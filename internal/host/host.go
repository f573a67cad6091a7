package host

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/binsort-io/binsort/internal/pkg/httpserver"
	"github.com/binsort-io/binsort/pkg/log"
)

// Host runs a controller with its HTTP intake, registry watch and event relay.
type Host struct {
	ctrl  Controller
	http  *httpserver.Server
	relay *Relay
	watch func(ctx context.Context) error
}

func (h *Host) Controller() Controller {
	return h.ctrl
}

// Run serves until ctx is done, then closes the controller.
func (h *Host) Run(ctx context.Context) error {
	snap := h.ctrl.State()
	log.Info("Starting binsort-host", "connection", snap.Connection, "degraded", snap.Degraded, "address", snap.Address)

	g, gctx := errgroup.WithContext(ctx)
	if h.http != nil {
		g.Go(func() error { return h.http.Start(gctx) })
	}
	if h.watch != nil {
		g.Go(func() error { return h.watch(gctx) })
	}
	if h.relay != nil {
		g.Go(func() error { return h.relay.Run(gctx) })
	} else {
		g.Go(func() error { return logEvents(gctx, h.ctrl.Events()) })
	}

	err := g.Wait()

	log.Info("Shutting down controller")
	if cerr := h.ctrl.Close(); cerr != nil {
		log.Error(cerr, "Failed to close controller")
	}
	_ = log.Sync()
	return err
}

// logEvents drains events when no relay consumes them.
func logEvents(ctx context.Context, events <-chan Event) error {
	logger := log.WithName("events")
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			logger.Debug("Controller event", "kind", string(e.Kind), "action", string(e.Action),
				"status", string(e.Status), "field", string(e.Field), "from", e.From, "to", e.To, "intended", e.Intended)
		}
	}
}
