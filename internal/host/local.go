package host

import (
	"context"
	"time"

	"github.com/binsort-io/binsort/internal/actuator"
	"github.com/binsort-io/binsort/internal/brick"
	"github.com/binsort-io/binsort/internal/protocol"
)

var _ Controller = (*Local)(nil)

// Local drives motors attached to this machine through an in-process dispatcher,
// for setups without a separate brick.
type Local struct {
	*core
}

func NewLocal(mech *actuator.Mechanism, settle time.Duration, buffer int) *Local {
	return &Local{core: newCore(&localSender{dispatcher: brick.NewDispatcher(mech)}, mech.Settings(), settle, buffer)}
}

type localSender struct {
	dispatcher *brick.Dispatcher
}

func (s *localSender) send(ctx context.Context, cmd protocol.Command) protocol.Response {
	return s.dispatcher.Dispatch(ctx, cmd)
}

func (s *localSender) connection() (string, bool, string) {
	return ConnectionLocal, false, ""
}

func (s *localSender) close() error {
	return s.dispatcher.Mechanism().StopAll(context.Background())
}
