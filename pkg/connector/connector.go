// Package connector owns the listening socket of the HTTP server and turns
// accepted connections into work for a bounded worker pool.
//
// Lifecycle:
//
//	c, _ := connector.New(cfg, handler, nil)
//	c.Start()   // binds, then accepts on a background goroutine
//	...
//	c.Stop()    // graceful, then forced, shutdown
//
// Each connection carries exactly one request. The worker that processes it
// reads the request, dispatches it to the handler, writes the response and
// closes the socket.
package connector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/marmos91/coyote/internal/logger"
	"github.com/marmos91/coyote/internal/protocol/http1"
	"github.com/marmos91/coyote/internal/ratelimiter"
	"github.com/marmos91/coyote/internal/workerpool"
	"github.com/marmos91/coyote/pkg/metrics"
)

// ErrShutdownTimeout is returned by Stop when workers are still running
// after both the graceful and the forced grace period.
var ErrShutdownTimeout = errors.New("connector: shutdown timed out")

var (
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("connector: already started")

	// ErrStopped is returned by Start after Stop.
	ErrStopped = errors.New("connector: stopped")
)

// Connector accepts TCP connections and serves one HTTP request on each.
type Connector struct {
	config  Config
	handler http1.Handler
	metrics metrics.ConnectorMetrics

	pool    *workerpool.Pool
	limiter *ratelimiter.RateLimiter

	// unlimited skips the limiter on every accept
	unlimited bool

	listener net.Listener

	// stopped is checked by the accept loop after every Accept
	stopped atomic.Bool

	started    atomic.Bool
	acceptDone chan struct{}

	stopOnce sync.Once
	stopErr  error

	// connCount tracks connections admitted to the pool and not yet closed
	connCount atomic.Int32

	// activeConnections holds every admitted net.Conn so forced shutdown
	// can close sockets whose worker is blocked in I/O
	activeConnections sync.Map
}

// New creates a stopped connector. A nil m disables metrics.
func New(config Config, handler http1.Handler, m metrics.ConnectorMetrics) (*Connector, error) {
	if handler == nil {
		return nil, errors.New("connector: handler is required")
	}
	config.ApplyDefaults()

	pool, err := workerpool.New(workerpool.Config{
		MinWorkers:  config.MinWorkers,
		MaxWorkers:  config.MaxWorkers,
		QueueSize:   config.AcceptCount,
		IdleTimeout: config.WorkerIdleTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	if m == nil {
		m = metrics.NewNoopConnectorMetrics()
	}

	limiter := ratelimiter.New(config.AcceptRate, config.AcceptBurst)

	return &Connector{
		config:     config,
		handler:    handler,
		metrics:    m,
		pool:       pool,
		limiter:    limiter,
		unlimited:  limiter.Unlimited(),
		acceptDone: make(chan struct{}),
	}, nil
}

// Start binds the listening socket and starts the accept loop in the
// background. It returns once the socket is bound.
func (c *Connector) Start() error {
	if c.stopped.Load() {
		return ErrStopped
	}
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	addr := net.JoinHostPort(c.config.Address, strconv.Itoa(c.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		close(c.acceptDone)
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	c.listener = listener

	logger.Info("HTTP connector listening on %s", listener.Addr())
	logger.Debug("Connector config: accept_count=%d min_workers=%d max_workers=%d read_timeout=%v write_timeout=%v",
		c.config.AcceptCount, c.config.MinWorkers, c.config.MaxWorkers, c.config.ReadTimeout, c.config.WriteTimeout)
	if !c.unlimited {
		logger.Info("Accept rate limited to %d connection(s)/s", c.config.AcceptRate)
	}

	go c.acceptLoop()
	return nil
}

func (c *Connector) acceptLoop() {
	defer close(c.acceptDone)

	for {
		conn, err := c.listener.Accept()
		if err != nil {
			if c.stopped.Load() || errors.Is(err, net.ErrClosed) {
				logger.Debug("Accept loop stopped")
				return
			}
			logger.Error("Error accepting connection: %v", err)
			continue
		}

		if c.stopped.Load() {
			c.reject(conn, metrics.RejectShuttingDown, nil)
			continue
		}

		if !c.unlimited && !c.limiter.Allow() {
			c.reject(conn, metrics.RejectRateLimited, nil)
			continue
		}

		c.dispatch(conn)
	}
}

// dispatch hands conn to the pool, closing it if the pool refuses.
func (c *Connector) dispatch(conn net.Conn) {
	c.track(conn)

	err := c.pool.Submit(func(ctx context.Context) {
		newConnection(c, conn).Serve(ctx)
	})
	if err != nil {
		c.untrack(conn)
		reason := metrics.RejectPoolSaturated
		if errors.Is(err, workerpool.ErrPoolClosed) {
			reason = metrics.RejectShuttingDown
		}
		c.reject(conn, reason, err)
		return
	}

	c.metrics.RecordConnectionAccepted()
}

func (c *Connector) reject(conn net.Conn, reason string, err error) {
	if err != nil {
		logger.Warn("Connection from %s rejected (%s): %v", conn.RemoteAddr(), reason, err)
	} else {
		logger.Warn("Connection from %s rejected (%s)", conn.RemoteAddr(), reason)
	}
	if cerr := conn.Close(); cerr != nil {
		logger.Debug("Error closing rejected connection: %v", cerr)
	}
	c.metrics.RecordConnectionRejected(reason)
}

func (c *Connector) track(conn net.Conn) {
	c.activeConnections.Store(conn, struct{}{})
	n := c.connCount.Add(1)
	c.metrics.SetActiveConnections(n)
}

func (c *Connector) untrack(conn net.Conn) {
	if _, loaded := c.activeConnections.LoadAndDelete(conn); !loaded {
		return
	}
	n := c.connCount.Add(-1)
	c.metrics.SetActiveConnections(n)
}

// Stop closes the listening socket and shuts the worker pool down:
//  1. stop admitting work and wait up to ShutdownTimeout
//  2. close every tracked socket, cancel remaining work and wait up to
//     ForceTimeout
//  3. give up and return ErrShutdownTimeout
//
// Stop always returns within roughly ShutdownTimeout + ForceTimeout. It is
// idempotent; later calls return the first result.
func (c *Connector) Stop() error {
	c.stopOnce.Do(func() {
		c.stopErr = c.stop()
	})
	return c.stopErr
}

func (c *Connector) stop() error {
	c.stopped.Store(true)

	if c.listener != nil {
		if err := c.listener.Close(); err != nil {
			logger.Warn("Error closing listener: %v", err)
		}
		<-c.acceptDone
	}

	c.pool.Shutdown()

	active := c.connCount.Load()
	logger.Info("Connector shutdown: waiting for %d active connection(s) (timeout: %v)",
		active, c.config.ShutdownTimeout)

	if c.pool.AwaitTermination(c.config.ShutdownTimeout) {
		logger.Info("Connector shutdown complete")
		return nil
	}

	logger.Warn("Connector shutdown timeout exceeded: %d connection(s) still active after %v, forcing closure",
		c.connCount.Load(), c.config.ShutdownTimeout)

	c.forceCloseConnections()
	c.pool.ShutdownNow()

	if c.pool.AwaitTermination(c.config.ForceTimeout) {
		logger.Info("Connector shutdown complete after forced closure")
		return nil
	}

	remaining := c.connCount.Load()
	logger.Error("Connector did not terminate: %d connection(s) still active after %v",
		remaining, c.config.ShutdownTimeout+c.config.ForceTimeout)
	return fmt.Errorf("%w: %d connection(s) still active", ErrShutdownTimeout, remaining)
}

func (c *Connector) forceCloseConnections() {
	closed := 0
	c.activeConnections.Range(func(key, _ any) bool {
		conn := key.(net.Conn)
		if err := conn.Close(); err != nil {
			logger.Debug("Error force-closing connection to %s: %v", conn.RemoteAddr(), err)
		} else {
			closed++
			c.metrics.RecordConnectionForceClosed()
		}
		return true
	})

	if closed > 0 {
		logger.Info("Force-closed %d connection(s)", closed)
	}
}

// Addr returns the bound address, or nil before Start.
func (c *Connector) Addr() net.Addr {
	if c.listener == nil {
		return nil
	}
	return c.listener.Addr()
}

// ActiveConnections returns the number of admitted connections not yet
// closed, queued ones included.
func (c *Connector) ActiveConnections() int32 {
	return c.connCount.Load()
}
