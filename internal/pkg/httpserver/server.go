// Package httpserver runs the health, readiness and metrics endpoints shared by
// binsort binaries, plus whatever routes a binary mounts on the router.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/binsort-io/binsort/internal/pkg/metrics"
	"github.com/binsort-io/binsort/pkg/log"
	"github.com/binsort-io/binsort/pkg/options"
)

// ReadyFunc reports whether the process is ready to serve.
type ReadyFunc func() bool

type Server struct {
	server  *http.Server
	router  *mux.Router
	options *options.HttpOptions
}

// NewServer builds a server with /healthz, /readyz and /metrics. A nil ready always reports ready.
func NewServer(opts *options.HttpOptions, ready ReadyFunc) *Server {
	r := mux.NewRouter()

	// Basic Liveness Probe
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil && !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("degraded"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	return &Server{
		server: &http.Server{
			Addr:         opts.Addr,
			Handler:      r,
			ReadTimeout:  opts.Timeout,
			WriteTimeout: opts.Timeout,
		},
		router:  r,
		options: opts,
	}
}

// Router exposes the router so callers can mount their own routes before Start.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens and serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	l, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	log.Info("Starting HTTP Server", "addr", l.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.options.ShutdownTimeout)
		defer cancel()
		err := s.server.Shutdown(shutdownCtx)
		<-errCh
		return err
	}
}
