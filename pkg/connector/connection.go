package connector

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/marmos91/coyote/internal/logger"
	"github.com/marmos91/coyote/internal/protocol/http1"
)

// connection serves the single request carried by one accepted socket.
type connection struct {
	connector *Connector
	conn      net.Conn
}

func newConnection(c *Connector, conn net.Conn) *connection {
	return &connection{connector: c, conn: conn}
}

// Serve reads one request, dispatches it, writes the response and closes
// the socket. Panics are recovered here so they never reach the pool.
func (c *connection) Serve(ctx context.Context) {
	clientAddr := c.conn.RemoteAddr().String()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in connection handler from %s: %v", clientAddr, r)
		}
		_ = c.conn.Close()
		c.connector.untrack(c.conn)
		c.connector.metrics.RecordConnectionClosed()
		logger.Debug("Connection from %s closed (active: %d)", clientAddr, c.connector.connCount.Load())
	}()

	if ctx.Err() != nil {
		logger.Debug("Connection from %s dropped: connector is shutting down", clientAddr)
		return
	}

	// Forced shutdown closes the socket so blocked reads and writes return.
	stop := context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	defer stop()

	logger.Debug("Serving connection from %s", clientAddr)

	cfg := c.connector.config
	if cfg.ReadTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout)); err != nil {
			logger.Warn("Failed to set read deadline for %s: %v", clientAddr, err)
		}
	}

	req, err := http1.ParseRequest(bufio.NewReader(c.conn))
	if err != nil {
		c.handleReadError(clientAddr, err)
		return
	}

	logger.Debug("%s %s %s from %s", req.Method(), req.Path(), req.Protocol(), clientAddr)

	start := time.Now()
	resp := c.connector.handler.Service(ctx, req)
	if resp == nil {
		resp = http1.ResponseFor(req)
	}

	if !c.write(clientAddr, resp) {
		return
	}

	status := resp.Status()
	if !resp.Committed() {
		status = http1.StatusOK
	}
	c.connector.metrics.RecordRequest(req.Method().String(), status.Code(), time.Since(start))
}

func (c *connection) write(clientAddr string, resp *http1.Response) bool {
	if timeout := c.connector.config.WriteTimeout; timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			logger.Warn("Failed to set write deadline for %s: %v", clientAddr, err)
		}
	}
	if err := http1.WriteResponse(c.conn, resp); err != nil {
		logger.Debug("Error writing response to %s: %v", clientAddr, err)
		return false
	}
	return true
}

const (
	lingerTimeout = 200 * time.Millisecond
	lingerLimit   = 64 << 10
)

// linger half-closes the socket and drains pending input for up to
// lingerTimeout before the caller closes it.
func (c *connection) linger() {
	if tcp, ok := c.conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(lingerTimeout))
	_, _ = io.Copy(io.Discard, io.LimitReader(c.conn, lingerLimit))
}

// handleReadError logs why no request could be read. Malformed requests
// get a best-effort 400 before the socket is closed.
func (c *connection) handleReadError(clientAddr string, err error) {
	var netErr net.Error

	switch {
	case errors.Is(err, io.EOF):
		logger.Debug("Connection from %s closed by client", clientAddr)
	case http1.IsParseError(err):
		logger.Debug("Malformed request from %s: %v", clientAddr, err)
		c.connector.metrics.RecordParseError()

		resp := http1.NewResponse("HTTP/1.1")
		resp.Fail(http1.StatusBadRequest, []byte(http1.StatusBadRequest.String()))
		if c.write(clientAddr, resp) {
			c.linger()
		}
	case errors.As(err, &netErr) && netErr.Timeout():
		logger.Debug("Connection from %s timed out: %v", clientAddr, err)
	default:
		logger.Debug("Error reading request from %s: %v", clientAddr, err)
	}
}
