package link

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/looplab/fsm"

	"github.com/binsort-io/binsort/internal/pkg/metrics"
	fsmutil "github.com/binsort-io/binsort/internal/pkg/util/fsm"
	"github.com/binsort-io/binsort/internal/protocol"
	"github.com/binsort-io/binsort/internal/registry"
)

// ConnectionState of the host's link to the brick.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
)

const (
	eventDial        = "dial"
	eventEstablished = "established"
	eventFail        = "fail"
	eventDrop        = "drop"
)

// RecordStore persists the last verified brick.
type RecordStore interface {
	Load() (registry.Record, error)
	Save(registry.Record) error
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Dialer Dialer

	// Address, when set, is used as is: no registry lookup, no discovery.
	Address string

	// Store is consulted before discovery and written after every verified connect. Optional.
	Store RecordStore

	// Resolver discovers a brick when nothing else names one. Optional.
	Resolver *Resolver

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	Logger logr.Logger

	// OnStateChange observes every connection state change. It runs with the client
	// locked and must not call back into it. Optional.
	OnStateChange func(from, to ConnectionState)
}

// Client is the host end of the link. All methods are safe for concurrent use;
// exchanges are serialized so exactly one command is outstanding at a time.
type Client struct {
	cfg ClientConfig
	log logr.Logger

	mu     sync.Mutex
	state  *fsm.FSM
	conn   *FrameConn
	record *registry.Record
}

func NewClient(cfg ClientConfig) *Client {
	c := &Client{cfg: cfg, log: cfg.Logger.WithName("link")}

	c.state = fsm.NewFSM(
		string(StateDisconnected),
		fsm.Events{
			{Name: eventDial, Src: []string{string(StateDisconnected)}, Dst: string(StateConnecting)},
			{Name: eventEstablished, Src: []string{string(StateConnecting)}, Dst: string(StateConnected)},
			{Name: eventFail, Src: []string{string(StateConnecting)}, Dst: string(StateDisconnected)},
			{Name: eventDrop, Src: []string{string(StateConnecting), string(StateConnected)}, Dst: string(StateDisconnected)},
		},
		fsm.Callbacks{
			"enter_state": fsmutil.WrapEvent(c.enterState),
		},
	)
	return c
}

func (c *Client) enterState(_ context.Context, e *fsm.Event) error {
	to := ConnectionState(e.Dst)
	if to == StateConnected {
		metrics.LinkConnected.Set(1)
	} else {
		metrics.LinkConnected.Set(0)
	}
	c.log.V(1).Info("Link state changed", "from", e.Src, "to", e.Dst, "event", e.Event)
	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(ConnectionState(e.Src), to)
	}
	return nil
}

// fire moves the state machine. Events that do not apply in the current state are ignored.
func (c *Client) fire(ctx context.Context, event string) {
	if _, err := fsmutil.Fire(ctx, c.state, event); err != nil && !fsmutil.IsInvalidEvent(err) {
		c.log.Error(err, "Link state machine rejected event", "event", event)
	}
}

func (c *Client) State() ConnectionState {
	return ConnectionState(c.state.Current())
}

// Degraded reports whether commands are currently simulated.
func (c *Client) Degraded() bool {
	return c.State() != StateConnected
}

// Record returns the brick of the current or last connection.
func (c *Client) Record() (registry.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.record == nil {
		return registry.Record{}, false
	}
	return *c.record, true
}

// Forget drops the cached brick so the next Connect resolves again.
func (c *Client) Forget() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record = nil
}

// ResolveAddress picks the brick to connect to: the configured address, then the
// cached record, then the store, then discovery.
func (c *Client) ResolveAddress(ctx context.Context) (registry.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolve(ctx)
}

func (c *Client) resolve(ctx context.Context) (registry.Record, error) {
	if c.cfg.Address != "" {
		rec := registry.Record{Address: c.cfg.Address}
		// Keep the name recorded for the same brick.
		if c.cfg.Store != nil {
			if stored, err := c.cfg.Store.Load(); err == nil && strings.EqualFold(stored.Address, rec.Address) {
				rec.Name = stored.Name
			}
		}
		return rec, nil
	}
	if c.record != nil {
		return *c.record, nil
	}
	if c.cfg.Store != nil {
		r, err := c.cfg.Store.Load()
		switch {
		case err == nil:
			return r, nil
		case !errors.Is(err, registry.ErrNotFound):
			c.log.Error(err, "Ignoring unreadable device registry")
		}
	}
	if c.cfg.Resolver == nil {
		return registry.Record{}, &DiscoveryError{Err: ErrNoDevice}
	}
	return c.cfg.Resolver.Resolve(ctx)
}

// Connect resolves, dials and verifies the brick with a ping. On failure the
// connection is closed and the state is disconnected.
func (c *Client) Connect(ctx context.Context) (ConnectionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() == StateConnected {
		return StateConnected, nil
	}
	c.fire(ctx, eventDial)

	rec, err := c.resolve(ctx)
	if err != nil {
		c.fire(ctx, eventFail)
		return c.State(), err
	}

	fc, err := c.dialAndVerify(ctx, rec)
	if err != nil {
		c.fire(ctx, eventFail)
		return c.State(), err
	}

	c.conn = fc
	c.record = &rec
	if c.cfg.Store != nil {
		if err := c.cfg.Store.Save(rec); err != nil {
			c.log.Error(err, "Failed to persist brick address", "address", rec.Address)
		}
	}
	c.fire(ctx, eventEstablished)
	c.log.Info("Connected to brick", "brick", rec.String())
	return c.State(), nil
}

func (c *Client) dialAndVerify(ctx context.Context, rec registry.Record) (*FrameConn, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	conn, err := c.cfg.Dialer.Dial(ctx, rec.Address)
	if err != nil {
		return nil, &ConnectionError{Address: rec.Address, Op: "dial", Err: err}
	}
	fc := NewFrameConn(conn)

	// A zero timeout would mean no deadline at all.
	deadline, _ := ctx.Deadline()
	remaining := time.Until(deadline)
	if remaining <= 0 {
		_ = fc.Close()
		return nil, &ConnectionError{Address: rec.Address, Op: "verify", Err: context.DeadlineExceeded}
	}
	resp, err := exchange(fc, protocol.Command{Action: protocol.ActionPing}, remaining, remaining)
	if err == nil && !resp.OK() {
		err = fmt.Errorf("%w: %s %q", ErrPingFailed, resp.Status, resp.Message)
	}
	if err != nil {
		_ = fc.Close()
		return nil, &ConnectionError{Address: rec.Address, Op: "verify", Err: err}
	}
	return fc, nil
}

// Send performs one exchange. It never fails: without a connection the command is
// simulated, and any fault is reported as an error Response. A transport fault
// drops the connection; an undecodable reply only discards the read buffer.
// Once written, a command is not abandoned on ctx cancellation; the read timeout bounds it.
func (c *Client) Send(ctx context.Context, cmd protocol.Command) protocol.Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() != StateConnected || c.conn == nil {
		return protocol.Simulated(cmd.Action)
	}

	resp, err := exchange(c.conn, cmd, c.cfg.WriteTimeout, c.cfg.ReadTimeout)
	switch {
	case err == nil:
		return resp
	case protocol.IsProtocolError(err):
		c.conn.Reset()
		c.log.Error(err, "Undecodable exchange with brick", "action", string(cmd.Action))
	default:
		c.log.Error(err, "Link to brick lost", "action", string(cmd.Action))
		c.dropLocked(ctx)
	}
	return protocol.Errorf("%s", err.Error())
}

// Close drops the connection, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropLocked(context.Background())
}

func (c *Client) dropLocked(ctx context.Context) error {
	var err error
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	c.fire(ctx, eventDrop)
	return err
}

func exchange(fc *FrameConn, cmd protocol.Command, writeTimeout, readTimeout time.Duration) (protocol.Response, error) {
	b, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := fc.WriteDocument(b, writeTimeout); err != nil {
		return protocol.Response{}, err
	}
	doc, err := fc.ReadDocument(readTimeout)
	if err != nil {
		return protocol.Response{}, err
	}
	return protocol.DecodeResponse(doc)
}
