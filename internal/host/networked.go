package host

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/binsort-io/binsort/internal/link"
	"github.com/binsort-io/binsort/internal/pkg/metrics"
	"github.com/binsort-io/binsort/internal/protocol"
	"github.com/binsort-io/binsort/internal/registry"
	"github.com/binsort-io/binsort/pkg/log"
)

var _ Controller = (*Networked)(nil)

// Networked drives the brick over the link. While disconnected it simulates, and
// before each operation it retries the connection once the reconnect backoff allows.
type Networked struct {
	*core
	link *linkSender
}

// NetworkedConfig configures a Networked controller.
type NetworkedConfig struct {
	Link     link.ClientConfig
	Settings protocol.MotorSettings
	Settle   time.Duration

	ReconnectInitial time.Duration
	ReconnectMax     time.Duration

	EventBuffer int
}

// NewNetworked builds the link client and the controller around it. It does not
// connect; see Connect.
func NewNetworked(cfg NetworkedConfig) *Networked {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.ReconnectInitial
	b.MaxInterval = cfg.ReconnectMax
	b.MaxElapsedTime = 0
	b.Reset()

	n := &Networked{}
	cc := cfg.Link
	observe := cc.OnStateChange
	cc.OnStateChange = func(from, to link.ConnectionState) {
		n.emit(Event{Kind: EventConnection, From: string(from), To: string(to)})
		if observe != nil {
			observe(from, to)
		}
	}

	n.link = &linkSender{client: link.NewClient(cc), backoff: b, logger: log.WithName("reconnect")}
	n.core = newCore(n.link, cfg.Settings, cfg.Settle, cfg.EventBuffer)
	return n
}

// Connect makes one connection attempt now. On failure the controller keeps
// simulating and the next attempt waits for the reconnect backoff.
func (n *Networked) Connect(ctx context.Context) error {
	n.link.allowReconnect()
	return n.link.reconnect(ctx)
}

// Client exposes the underlying link client.
func (n *Networked) Client() *link.Client {
	return n.link.client
}

// Watch drops the cached brick whenever the registry file names another one, so the
// next reconnect uses it. It returns when ctx is done.
func (n *Networked) Watch(ctx context.Context, store *registry.Store) error {
	return store.Watch(ctx, func(r registry.Record, err error) {
		if err != nil && !errors.Is(err, registry.ErrNotFound) {
			n.link.logger.Error(err, "Unreadable registry update ignored")
			return
		}
		if cur, ok := n.link.client.Record(); ok && cur.Address == r.Address {
			return
		}
		n.link.logger.Info("Registry changed, brick will be re-resolved", "address", r.Address)
		n.link.client.Forget()
		n.link.allowReconnect()
	})
}

// linkSender sends over a link.Client and owns the reconnect schedule.
type linkSender struct {
	client  *link.Client
	logger  log.Logger
	mu      sync.Mutex
	backoff *backoff.ExponentialBackOff
	next    time.Time
}

func (s *linkSender) send(ctx context.Context, cmd protocol.Command) protocol.Response {
	if s.client.Degraded() {
		_ = s.reconnect(ctx)
	}
	return s.client.Send(ctx, cmd)
}

var errReconnectDeferred = errors.New("reconnect deferred by backoff")

func (s *linkSender) reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Now().Before(s.next) {
		metrics.LinkReconnects.WithLabelValues("skipped").Inc()
		return errReconnectDeferred
	}
	if _, err := s.client.Connect(ctx); err != nil {
		wait := s.backoff.NextBackOff()
		s.next = time.Now().Add(wait)
		metrics.LinkReconnects.WithLabelValues("failed").Inc()
		s.logger.Warn("Brick unreachable, simulating", "error", err.Error(), "retryIn", wait)
		return err
	}
	s.backoff.Reset()
	s.next = time.Time{}
	metrics.LinkReconnects.WithLabelValues("success").Inc()
	s.logger.Info("Connected to brick")
	return nil
}

func (s *linkSender) allowReconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backoff.Reset()
	s.next = time.Time{}
}

func (s *linkSender) connection() (string, bool, string) {
	var address string
	if r, ok := s.client.Record(); ok {
		address = r.Address
	}
	return string(s.client.State()), s.client.Degraded(), address
}

func (s *linkSender) close() error {
	return s.client.Close()
}
