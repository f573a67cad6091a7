package link

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/binsort-io/binsort/internal/protocol"
)

// Handler produces the reply documents of a Server.
type Handler interface {
	// Handle answers one received document.
	Handle(ctx context.Context, doc []byte) []byte

	// HandleInvalid answers input that could not be read as a document.
	HandleInvalid(ctx context.Context, err error) []byte

	// Busy is sent to a connection turned away because another peer is being served.
	Busy() []byte
}

// Server is the brick end of the link. It serves one peer at a time and turns
// away others while that peer is connected.
type Server struct {
	listener Listener
	handler  Handler
	log      logr.Logger

	readTimeout  time.Duration
	writeTimeout time.Duration
	retryDelay   time.Duration

	active atomic.Bool
	peers  sync.WaitGroup
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithReadTimeout bounds the wait for the next command. Zero waits forever.
func WithReadTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.readTimeout = d }
}

func WithWriteTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.writeTimeout = d }
}

// WithRetryDelay sets the pause after a failed accept.
func WithRetryDelay(d time.Duration) ServerOption {
	return func(s *Server) { s.retryDelay = d }
}

func WithLogger(l logr.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

func NewServer(l Listener, h Handler, opts ...ServerOption) *Server {
	s := &Server{
		listener:     l,
		handler:      h,
		log:          logr.Discard(),
		writeTimeout: 15 * time.Second,
		retryDelay:   time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.WithName("link-server")
	return s
}

// Serve accepts peers until ctx is done, then closes the listener and waits for
// the active peer to finish. Per-connection failures never end it.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.listener.Close() })
	defer stop()

	s.log.Info("Waiting for controller", "addr", s.listener.Addr())
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.peers.Wait()
				return nil
			}
			if errors.Is(err, net.ErrClosed) || errors.Is(err, os.ErrClosed) {
				s.peers.Wait()
				return err
			}
			s.log.Error(err, "Accept failed, retrying", "delay", s.retryDelay)
			select {
			case <-ctx.Done():
			case <-time.After(s.retryDelay):
			}
			continue
		}

		if !s.active.CompareAndSwap(false, true) {
			s.reject(conn)
			continue
		}

		s.peers.Add(1)
		go func() {
			defer s.peers.Done()
			defer s.active.Store(false)
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) reject(conn Conn) {
	defer conn.Close()
	s.log.Info("Rejecting second controller", "peer", conn.Peer())
	if err := NewFrameConn(conn).WriteDocument(s.handler.Busy(), s.writeTimeout); err != nil {
		s.log.V(1).Info("Could not notify rejected controller", "peer", conn.Peer(), "error", err.Error())
	}
}

func (s *Server) serveConn(ctx context.Context, conn Conn) {
	fc := NewFrameConn(conn)
	stop := context.AfterFunc(ctx, func() { _ = fc.Close() })
	defer func() {
		stop()
		_ = fc.Close()
	}()

	log := s.log.WithValues("peer", fc.Peer())
	log.Info("Controller connected")

	for {
		doc, err := fc.ReadDocument(s.readTimeout)
		var reply []byte
		switch {
		case err == nil:
			reply = s.handler.Handle(ctx, doc)
		case protocol.IsProtocolError(err):
			log.Error(err, "Discarding undecodable input")
			reply = s.handler.HandleInvalid(ctx, err)
		case errors.Is(err, io.EOF):
			log.Info("Controller disconnected")
			return
		default:
			if ctx.Err() == nil {
				log.Error(err, "Connection failed")
			}
			return
		}

		if err := fc.WriteDocument(reply, s.writeTimeout); err != nil {
			log.Error(err, "Failed to send reply")
			return
		}
	}
}

// Active reports whether a peer is being served.
func (s *Server) Active() bool {
	return s.active.Load()
}
