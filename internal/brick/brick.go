package brick

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/binsort-io/binsort/internal/actuator"
	"github.com/binsort-io/binsort/internal/link"
	"github.com/binsort-io/binsort/internal/pkg/httpserver"
	"github.com/binsort-io/binsort/pkg/log"
)

// Brick is the embedded side: link server, dispatcher and motors.
type Brick struct {
	mech     *actuator.Mechanism
	server   *link.Server
	listener link.Listener
	http     *httpserver.Server
}

// Run serves the link (and the metrics endpoint, if enabled) until ctx is done,
// then stops every motor.
func (b *Brick) Run(ctx context.Context) error {
	log.Info("Starting binsort-brick", "addr", b.listener.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.server.Serve(gctx)
	})
	if b.http != nil {
		g.Go(func() error {
			return b.http.Start(gctx)
		})
	}

	err := g.Wait()

	log.Info("Shutting down, stopping all motors")
	if serr := b.mech.StopAll(context.WithoutCancel(ctx)); serr != nil {
		log.Error(serr, "Failed to stop motors")
	}
	_ = log.Sync()
	return err
}
