// Package server wires the HTTP router and runs the API until it is told to
// stop, then drains it and its dependencies.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"
)

// ShutdownFunc releases one dependency.
type ShutdownFunc func(ctx context.Context) error

// Options configures the listener and its timeouts.
type Options struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type component struct {
	name  string
	close ShutdownFunc
}

// Server owns the http.Server and the dependencies closed after it.
type Server struct {
	http    *http.Server
	grace   time.Duration
	logger  *slog.Logger
	ready   chan net.Addr
	mu      sync.Mutex
	members []component
}

// New builds a server for handler on opts.Port. Nothing listens until Run.
func New(handler http.Handler, opts Options, logger *slog.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              net.JoinHostPort("", strconv.Itoa(opts.Port)),
			Handler:           handler,
			ReadTimeout:       opts.ReadTimeout,
			ReadHeaderTimeout: opts.ReadTimeout,
			WriteTimeout:      opts.WriteTimeout,
			IdleTimeout:       2 * opts.ReadTimeout,
		},
		grace:  opts.ShutdownTimeout,
		logger: logger,
		ready:  make(chan net.Addr, 1),
	}
}

// OnShutdown registers fn to run once the HTTP server has drained. Components
// close in reverse order, so register the store first to close it last.
func (s *Server) OnShutdown(name string, fn ShutdownFunc) {
	s.mu.Lock()
	s.members = append(s.members, component{name: name, close: fn})
	s.mu.Unlock()
}

// Ready yields the bound address once the listener is open.
func (s *Server) Ready() <-chan net.Addr {
	return s.ready
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then drains.
// The registered components are closed on every return path, including a
// failed listen or serve.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return s.abort(fmt.Errorf("listen %s: %w", s.http.Addr, err))
	}
	s.ready <- ln.Addr()
	s.logger.Info("listening", "addr", ln.Addr().String())

	served := make(chan error, 1)
	go func() { served <- s.http.Serve(ln) }()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return s.abort(nil)
		}
		return s.abort(fmt.Errorf("serve: %w", err))
	case <-ctx.Done():
		s.logger.Info("shutdown requested", "cause", context.Cause(ctx))
	}
	return s.drain()
}

// drain stops accepting requests, waits for in-flight ones and then closes
// components newest first. All failures are joined.
func (s *Server) drain() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.grace)
	defer cancel()

	s.http.SetKeepAlivesEnabled(false)
	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}
	errs = append(errs, s.closeMembers(ctx)...)

	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// abort closes the components after the server failed or was closed
// underneath Run, and joins their failures onto cause.
func (s *Server) abort(cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.grace)
	defer cancel()

	errs := append([]error{cause}, s.closeMembers(ctx)...)
	return errors.Join(errs...)
}

func (s *Server) closeMembers(ctx context.Context) []error {
	s.mu.Lock()
	members := append([]component(nil), s.members...)
	s.members = nil
	s.mu.Unlock()

	var errs []error
	for i := len(members) - 1; i >= 0; i-- {
		c := members[i]
		if err := c.close(ctx); err != nil {
			s.logger.Error("close failed", "component", c.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		s.logger.Debug("closed", "component", c.name)
	}
	return errs
}
