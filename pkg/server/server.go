// Package server assembles a runnable coyote instance from its parts.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/marmos91/coyote/internal/logger"
	"github.com/marmos91/coyote/internal/protocol/http1/handlers"
	"github.com/marmos91/coyote/internal/session"
	"github.com/marmos91/coyote/pkg/connector"
	"github.com/marmos91/coyote/pkg/metrics"
	"github.com/marmos91/coyote/pkg/store/asset"
	"github.com/marmos91/coyote/pkg/store/user"
)

// DefaultShutdownTimeout bounds the whole teardown when Options leaves it unset.
const DefaultShutdownTimeout = 30 * time.Second

// ErrAlreadyServed is returned when Serve is called more than once.
var ErrAlreadyServed = errors.New("server already served")

// Options holds everything a Server is built from.
type Options struct {
	Connector connector.Config
	Sessions  session.Config

	// Users and Assets are required. Server closes Users on shutdown.
	Users  user.Store
	Assets asset.Store

	// Metrics records connector events. Nil uses a no-op collector.
	Metrics metrics.ConnectorMetrics

	// MetricsServer is started alongside the connector when non-nil.
	MetricsServer *metrics.Server

	// ShutdownTimeout is the outer bound for Serve teardown.
	ShutdownTimeout time.Duration
}

// Server owns one session store, the route table, the connector and the
// optional metrics server.
//
// Each Server has its own session store, so two servers in one process
// never see each other's sessions.
type Server struct {
	sessions  *session.Store
	users     user.Store
	connector *connector.Connector

	metricsServer   *metrics.Server
	shutdownTimeout time.Duration

	ready     chan struct{}
	serveOnce sync.Once
}

// New wires the handlers and connector. It does not bind the port.
func New(opts Options) (*Server, error) {
	if opts.Users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if opts.Assets == nil {
		return nil, fmt.Errorf("asset store is required")
	}

	sessions := session.NewStore(opts.Sessions)

	mapping := handlers.NewDefaultMapping(handlers.Deps{
		Sessions: sessions,
		Users:    opts.Users,
		Assets:   opts.Assets,
	})

	conn, err := connector.New(opts.Connector, mapping, opts.Metrics)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	return &Server{
		sessions:        sessions,
		users:           opts.Users,
		connector:       conn,
		metricsServer:   opts.MetricsServer,
		shutdownTimeout: timeout,
		ready:           make(chan struct{}),
	}, nil
}

// Serve starts the connector and blocks until ctx is cancelled or the
// metrics server fails, then shuts everything down.
//
// Returns ctx.Err() after a clean shutdown triggered by cancellation, the
// start error if the connector cannot bind, or the shutdown error.
func (s *Server) Serve(ctx context.Context) error {
	err := ErrAlreadyServed
	s.serveOnce.Do(func() {
		err = s.serve(ctx)
	})
	return err
}

func (s *Server) serve(ctx context.Context) error {
	if err := s.connector.Start(); err != nil {
		s.closeUsers()
		return fmt.Errorf("start connector: %w", err)
	}
	close(s.ready)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.sessions.Run(runCtx)
	}()

	metricsErr := make(chan error, 1)
	if s.metricsServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.metricsServer.Start(runCtx); err != nil {
				metricsErr <- err
			}
		}()
	}

	var cause error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		cause = ctx.Err()
	case err := <-metricsErr:
		logger.Error("Metrics server failed: %v - shutting down", err)
		cause = err
	}

	stopErr := s.shutdown()
	cancel()
	wg.Wait()

	if stopErr != nil {
		return stopErr
	}
	return cause
}

// shutdown stops the connector within shutdownTimeout and releases the stores.
func (s *Server) shutdown() error {
	done := make(chan error, 1)
	go func() { done <- s.connector.Stop() }()

	var err error
	select {
	case err = <-done:
	case <-time.After(s.shutdownTimeout):
		err = fmt.Errorf("server shutdown exceeded %v: %w", s.shutdownTimeout, connector.ErrShutdownTimeout)
	}

	if s.metricsServer != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = s.metricsServer.Stop(stopCtx)
		cancel()
	}

	s.closeUsers()

	if err != nil {
		logger.Error("Server stopped with error: %v", err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

func (s *Server) closeUsers() {
	if err := s.users.Close(); err != nil {
		logger.Warn("Close user store: %v", err)
	}
}

// Ready is closed once the connector is listening.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the connector's bound address, or nil before Ready.
func (s *Server) Addr() net.Addr {
	return s.connector.Addr()
}

// Sessions returns the server's session store.
func (s *Server) Sessions() *session.Store {
	return s.sessions
}

// ActiveConnections reports the connector's tracked connections.
func (s *Server) ActiveConnections() int32 {
	return s.connector.ActiveConnections()
}
