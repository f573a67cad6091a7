package link_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/binsort-io/binsort/internal/link"
	"github.com/binsort-io/binsort/internal/protocol"
	"github.com/binsort-io/binsort/internal/registry"
	"github.com/binsort-io/binsort/pkg/options"
)

var tcp = link.Transport{Network: options.NetworkTCP}

// echoHandler answers ping with pong and every other action with its name.
type echoHandler struct {
	mu   sync.Mutex
	seen []protocol.Action
}

func (h *echoHandler) Handle(_ context.Context, doc []byte) []byte {
	cmd, err := protocol.DecodeCommand(doc)
	if err != nil {
		return encode(protocol.Errorf("%s", err))
	}
	h.mu.Lock()
	h.seen = append(h.seen, cmd.Action)
	h.mu.Unlock()
	if cmd.Action == protocol.ActionPing {
		return encode(protocol.Success("pong"))
	}
	return encode(protocol.Success(string(cmd.Action)))
}

func (h *echoHandler) HandleInvalid(context.Context, error) []byte {
	return encode(protocol.Errorf("Invalid JSON command"))
}

func (h *echoHandler) Busy() []byte {
	return encode(protocol.Errorf("busy"))
}

func (h *echoHandler) actions() []protocol.Action {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]protocol.Action(nil), h.seen...)
}

func encode(r protocol.Response) []byte {
	b, err := protocol.EncodeResponse(r)
	if err != nil {
		panic(err)
	}
	return b
}

// startServer serves h on a loopback port until the test ends.
func startServer(t *testing.T, h link.Handler, opts ...link.ServerOption) (*link.Server, string) {
	t.Helper()

	l, err := tcp.Listen("127.0.0.1:0")
	require.NoError(t, err)

	srv := link.NewServer(l, h, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
		}
	})
	return srv, l.Addr()
}

// scriptedPeer accepts one connection and runs fn on it.
func scriptedPeer(t *testing.T, fn func(c net.Conn)) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c, err := l.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		fn(c)
	}()

	t.Cleanup(func() {
		_ = l.Close()
		wg.Wait()
	})
	return l.Addr().String()
}

// readCommand reads one command document from a raw peer connection.
func readCommand(c net.Conn) (protocol.Command, error) {
	var buf []byte
	scratch := make([]byte, 256)
	for {
		if doc, _, err := protocol.SplitDocument(buf); err == nil {
			return protocol.DecodeCommand(doc)
		}
		n, err := c.Read(scratch)
		if err != nil {
			return protocol.Command{}, err
		}
		buf = append(buf, scratch[:n]...)
	}
}

type memStore struct {
	mu    sync.Mutex
	rec   *registry.Record
	saves int
}

func (s *memStore) Load() (registry.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return registry.Record{}, registry.ErrNotFound
	}
	return *s.rec, nil
}

func (s *memStore) Save(r registry.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &r
	s.saves++
	return nil
}

func newClient(address string, store link.RecordStore) *link.Client {
	return link.NewClient(link.ClientConfig{
		Dialer:         tcp,
		Address:        address,
		Store:          store,
		ConnectTimeout: 2 * time.Second,
		ReadTimeout:    2 * time.Second,
		WriteTimeout:   2 * time.Second,
	})
}
