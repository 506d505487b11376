package connector

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/coyote/internal/protocol/http1"
	"github.com/marmos91/coyote/internal/protocol/http1/handlers"
	"github.com/marmos91/coyote/internal/session"
	"github.com/marmos91/coyote/internal/workerpool"
	"github.com/marmos91/coyote/pkg/store/asset"
	"github.com/marmos91/coyote/pkg/store/user"
	"github.com/marmos91/coyote/pkg/store/user/memory"
)

// freePort returns a loopback port that was free a moment ago. Port 0
// cannot be used directly because it falls back to DefaultPort.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func testConfig(t *testing.T) Config {
	return Config{
		Address:         "127.0.0.1",
		Port:            freePort(t),
		MinWorkers:      2,
		MaxWorkers:      4,
		ReadTimeout:     2 * time.Second,
		WriteTimeout:    2 * time.Second,
		ShutdownTimeout: 500 * time.Millisecond,
		ForceTimeout:    500 * time.Millisecond,
	}
}

func siteHandler(t *testing.T) http1.Handler {
	t.Helper()
	gugu, err := user.New("gugu", "password", "hkkang@woowahan.com")
	require.NoError(t, err)

	return handlers.NewDefaultMapping(handlers.Deps{
		Sessions: session.NewStore(session.Config{}),
		Users:    memory.New(gugu),
		Assets: asset.NewFS("test", fstest.MapFS{
			"index.html": {Data: []byte("<h1>index</h1>")},
			"login.html": {Data: []byte("<h1>login</h1>")},
			"401.html":   {Data: []byte("<h1>401</h1>")},
			"404.html":   {Data: []byte("<h1>404</h1>")},
		}),
	})
}

func startConnector(t *testing.T, cfg Config, h http1.Handler, m *recordingMetrics) *Connector {
	t.Helper()
	if m == nil {
		m = &recordingMetrics{}
	}
	c, err := New(cfg, h, m)
	require.NoError(t, err)
	require.NoError(t, c.Start())
	t.Cleanup(func() { _ = c.Stop() })
	return c
}

func dial(t *testing.T, c *Connector) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", c.Addr().String(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	return conn
}

type result struct {
	resp *http.Response
	body string
}

func readResponse(t *testing.T, conn net.Conn) result {
	t.Helper()
	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return result{resp: resp, body: string(body)}
}

func roundTrip(t *testing.T, c *Connector, raw string) result {
	t.Helper()
	conn := dial(t, c)
	_, err := conn.Write([]byte(raw))
	require.NoError(t, err)
	return readResponse(t, conn)
}

func postForm(path, body, cookie string) string {
	var b strings.Builder
	b.WriteString("POST " + path + " HTTP/1.1\r\n")
	b.WriteString("Host: localhost\r\n")
	b.WriteString("Content-Type: application/x-www-form-urlencoded\r\n")
	b.WriteString("Content-Length: " + strconv.Itoa(len(body)) + "\r\n")
	if cookie != "" {
		b.WriteString("Cookie: " + cookie + "\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}

// expectClosed asserts that the peer closed conn without sending anything.
func expectClosed(t *testing.T, conn net.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	assert.Equal(t, 0, n)
	require.Error(t, err)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		t.Fatalf("connection was left open")
	}
}

type recordingMetrics struct {
	accepted    atomic.Int32
	rejected    atomic.Int32
	closed      atomic.Int32
	forceClosed atomic.Int32
	requests    atomic.Int32
	parseErrors atomic.Int32
}

func (m *recordingMetrics) RecordConnectionAccepted()                { m.accepted.Add(1) }
func (m *recordingMetrics) RecordConnectionRejected(string)          { m.rejected.Add(1) }
func (m *recordingMetrics) RecordConnectionClosed()                  { m.closed.Add(1) }
func (m *recordingMetrics) RecordConnectionForceClosed()             { m.forceClosed.Add(1) }
func (m *recordingMetrics) SetActiveConnections(int32)               {}
func (m *recordingMetrics) RecordRequest(string, int, time.Duration) { m.requests.Add(1) }
func (m *recordingMetrics) RecordParseError()                        { m.parseErrors.Add(1) }

func TestHelloWorld(t *testing.T) {
	m := &recordingMetrics{}
	c := startConnector(t, testConfig(t), siteHandler(t), m)

	r := roundTrip(t, c, "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n")
	assert.Equal(t, http.StatusOK, r.resp.StatusCode)
	assert.Equal(t, "HTTP/1.1", r.resp.Proto)
	assert.Equal(t, "Hello world!", r.body)
	assert.Equal(t, "text/html;charset=utf-8", r.resp.Header.Get("Content-Type"))
	assert.Equal(t, "12", r.resp.Header.Get("Content-Length"))

	assert.Eventually(t, func() bool { return m.closed.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), m.requests.Load())
	assert.Eventually(t, func() bool { return m.accepted.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return c.ActiveConnections() == 0 }, time.Second, 10*time.Millisecond)
}

func TestEchoesProtocolToken(t *testing.T) {
	c := startConnector(t, testConfig(t), siteHandler(t), nil)

	r := roundTrip(t, c, "GET / HTTP/1.0\r\n\r\n")
	assert.Equal(t, "HTTP/1.0", r.resp.Proto)
}

func TestStaticNotFound(t *testing.T) {
	c := startConnector(t, testConfig(t), siteHandler(t), nil)

	r := roundTrip(t, c, "GET /missing.css HTTP/1.1\r\n\r\n")
	assert.Equal(t, http.StatusNotFound, r.resp.StatusCode)
	assert.Equal(t, "<h1>404</h1>", r.body)
}

func TestLoginFlow(t *testing.T) {
	c := startConnector(t, testConfig(t), siteHandler(t), nil)

	r := roundTrip(t, c, postForm("/login", "account=gugu&password=password", ""))
	require.Equal(t, http.StatusFound, r.resp.StatusCode)
	assert.Equal(t, "/index.html", r.resp.Header.Get("Location"))
	cookie := r.resp.Header.Get("Set-Cookie")
	require.True(t, strings.HasPrefix(cookie, "JSESSIONID="), cookie)

	r = roundTrip(t, c, "GET /login HTTP/1.1\r\nCookie: "+cookie+"\r\n\r\n")
	require.Equal(t, http.StatusFound, r.resp.StatusCode)
	assert.Equal(t, "/index.html", r.resp.Header.Get("Location"))

	r = roundTrip(t, c, "GET /login HTTP/1.1\r\n\r\n")
	assert.Equal(t, http.StatusOK, r.resp.StatusCode)
	assert.Equal(t, "<h1>login</h1>", r.body)
}

func TestLoginFailures(t *testing.T) {
	c := startConnector(t, testConfig(t), siteHandler(t), nil)

	wrong := roundTrip(t, c, postForm("/login", "account=gugu&password=nope", ""))
	unknown := roundTrip(t, c, postForm("/login", "account=ghost&password=password", ""))

	for _, r := range []result{wrong, unknown} {
		assert.Equal(t, http.StatusFound, r.resp.StatusCode)
		assert.Equal(t, "/401.html", r.resp.Header.Get("Location"))
		assert.Empty(t, r.resp.Header.Get("Set-Cookie"))
	}
	assert.Equal(t, wrong.resp.Header, unknown.resp.Header)
}

func TestRegisterThenLogin(t *testing.T) {
	c := startConnector(t, testConfig(t), siteHandler(t), nil)

	r := roundTrip(t, c, postForm("/register", "account=coyote&password=acme&email=wile%40acme.com", ""))
	require.Equal(t, http.StatusFound, r.resp.StatusCode)
	assert.Equal(t, "/index.html", r.resp.Header.Get("Location"))

	r = roundTrip(t, c, postForm("/login", "account=coyote&password=acme", ""))
	assert.Equal(t, "/index.html", r.resp.Header.Get("Location"))
}

func TestMissingCapabilityRendersEmptyOK(t *testing.T) {
	c := startConnector(t, testConfig(t), siteHandler(t), nil)

	r := roundTrip(t, c, "POST / HTTP/1.1\r\nContent-Length: 0\r\n\r\n")
	assert.Equal(t, http.StatusOK, r.resp.StatusCode)
	assert.Equal(t, "0", r.resp.Header.Get("Content-Length"))
	assert.Empty(t, r.body)
}

func TestMalformedRequests(t *testing.T) {
	m := &recordingMetrics{}
	c := startConnector(t, testConfig(t), siteHandler(t), m)

	for _, raw := range []string{
		"BROKEN\r\n\r\n",
		"GET /\r\n\r\n",
		"FETCH / HTTP/1.1\r\n\r\n",
		"GET / HTTP/1.1\r\nno-colon\r\n\r\n",
		"POST /login HTTP/1.1\r\n\r\naccount=gugu",
	} {
		r := roundTrip(t, c, raw)
		assert.Equal(t, http.StatusBadRequest, r.resp.StatusCode, raw)
	}
	assert.Equal(t, int32(5), m.parseErrors.Load())

	r := roundTrip(t, c, "GET / HTTP/1.1\r\n\r\n")
	assert.Equal(t, "Hello world!", r.body, "parse errors must not affect later connections")
}

func TestClientSendsNothing(t *testing.T) {
	m := &recordingMetrics{}
	c := startConnector(t, testConfig(t), siteHandler(t), m)

	conn := dial(t, c)
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())
	expectClosed(t, conn)
	assert.Equal(t, int32(0), m.parseErrors.Load())
}

func TestPanicIsContained(t *testing.T) {
	var calls atomic.Int32
	h := http1.HandlerFunc(func(_ context.Context, req *http1.Request) *http1.Response {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		resp := http1.ResponseFor(req)
		resp.OK(http1.ContentTypeHTML, []byte("ok"))
		return resp
	})
	c := startConnector(t, testConfig(t), h, nil)

	conn := dial(t, c)
	_, err := conn.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	expectClosed(t, conn)

	r := roundTrip(t, c, "GET / HTTP/1.1\r\n\r\n")
	assert.Equal(t, "ok", r.body)
}

func TestSaturationClosesExcessConnections(t *testing.T) {
	entered := make(chan struct{}, 8)
	release := make(chan struct{})
	h := http1.HandlerFunc(func(_ context.Context, req *http1.Request) *http1.Response {
		entered <- struct{}{}
		<-release
		resp := http1.ResponseFor(req)
		resp.OK(http1.ContentTypeHTML, []byte("done"))
		return resp
	})

	m := &recordingMetrics{}
	c, err := New(testConfig(t), h, m)
	require.NoError(t, err)

	// One worker and a single queue slot make saturation reachable with
	// three connections.
	c.pool, err = workerpool.New(workerpool.Config{MinWorkers: 1, MaxWorkers: 1, QueueSize: 1})
	require.NoError(t, err)
	require.NoError(t, c.Start())
	t.Cleanup(func() { _ = c.Stop() })

	var released atomic.Bool
	releaseAll := func() {
		if released.CompareAndSwap(false, true) {
			close(release)
		}
	}
	t.Cleanup(releaseAll)

	busy := dial(t, c)
	_, err = busy.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first request never reached the handler")
	}

	queued := dial(t, c)
	_, err = queued.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return c.pool.Queued() == 1 }, 2*time.Second, 5*time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		extra := dial(t, c)
		expectClosed(t, extra)
	}
	assert.Less(t, time.Since(start), 2*time.Second, "rejections must not wait for workers")
	assert.Eventually(t, func() bool { return m.rejected.Load() == 3 }, time.Second, 5*time.Millisecond)

	releaseAll()
	assert.Equal(t, "done", readResponse(t, busy).body)
	assert.Equal(t, "done", readResponse(t, queued).body)
	assert.Equal(t, int32(2), m.accepted.Load())
}

func TestRateLimitedConnectionsAreClosed(t *testing.T) {
	cfg := testConfig(t)
	cfg.AcceptRate = 1
	cfg.AcceptBurst = 1
	m := &recordingMetrics{}
	c := startConnector(t, cfg, siteHandler(t), m)

	r := roundTrip(t, c, "GET / HTTP/1.1\r\n\r\n")
	assert.Equal(t, "Hello world!", r.body)

	expectClosed(t, dial(t, c))
	assert.Eventually(t, func() bool { return m.rejected.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestUnlimitedByDefault(t *testing.T) {
	c, err := New(testConfig(t), siteHandler(t), nil)
	require.NoError(t, err)
	assert.True(t, c.unlimited)

	cfg := testConfig(t)
	cfg.AcceptRate = 5
	c, err = New(cfg, siteHandler(t), nil)
	require.NoError(t, err)
	assert.False(t, c.unlimited)
}

func TestStopWhileClientIsMidRequest(t *testing.T) {
	cfg := testConfig(t)
	cfg.ReadTimeout = time.Minute
	cfg.ShutdownTimeout = 200 * time.Millisecond
	cfg.ForceTimeout = time.Second
	m := &recordingMetrics{}
	c := startConnector(t, cfg, siteHandler(t), m)

	conn := dial(t, c)
	_, err := conn.Write([]byte("GET / HTTP/1.1\r\nHost: loc"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return c.ActiveConnections() == 1 }, time.Second, 5*time.Millisecond)

	start := time.Now()
	err = c.Stop()
	elapsed := time.Since(start)

	assert.NoError(t, err)
	assert.Less(t, elapsed, 2*time.Second)
	assert.GreaterOrEqual(t, elapsed, cfg.ShutdownTimeout)
	assert.Equal(t, int32(1), m.forceClosed.Load())
	expectClosed(t, conn)

	// The port is free again.
	again, err := New(cfg, siteHandler(t), nil)
	require.NoError(t, err)
	require.NoError(t, again.Start())
	require.NoError(t, again.Stop())
}

func TestStopReportsTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	entered := make(chan struct{}, 1)
	h := http1.HandlerFunc(func(_ context.Context, req *http1.Request) *http1.Response {
		entered <- struct{}{}
		<-release // ignores cancellation
		return http1.ResponseFor(req)
	})

	cfg := testConfig(t)
	cfg.ShutdownTimeout = 100 * time.Millisecond
	cfg.ForceTimeout = 100 * time.Millisecond
	c := startConnector(t, cfg, h, nil)

	conn := dial(t, c)
	_, err := conn.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	<-entered

	start := time.Now()
	err = c.Stop()
	assert.ErrorIs(t, err, ErrShutdownTimeout)
	assert.Less(t, time.Since(start), time.Second)

	assert.ErrorIs(t, c.Stop(), ErrShutdownTimeout, "Stop is idempotent")
}

func TestStopDrainsInFlightRequests(t *testing.T) {
	entered := make(chan struct{}, 1)
	h := http1.HandlerFunc(func(_ context.Context, req *http1.Request) *http1.Response {
		entered <- struct{}{}
		time.Sleep(100 * time.Millisecond)
		resp := http1.ResponseFor(req)
		resp.OK(http1.ContentTypeHTML, []byte("finished"))
		return resp
	})
	cfg := testConfig(t)
	cfg.ShutdownTimeout = 2 * time.Second
	c := startConnector(t, cfg, h, nil)

	conn := dial(t, c)
	_, err := conn.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	<-entered

	require.NoError(t, c.Stop())
	assert.Equal(t, "finished", readResponse(t, conn).body)

	_, err = net.DialTimeout("tcp", c.Addr().String(), 200*time.Millisecond)
	assert.Error(t, err, "listener must be closed after Stop")
}

func TestStartLifecycle(t *testing.T) {
	cfg := testConfig(t)
	c, err := New(cfg, siteHandler(t), nil)
	require.NoError(t, err)
	assert.Nil(t, c.Addr())

	require.NoError(t, c.Start())
	assert.ErrorIs(t, c.Start(), ErrAlreadyStarted)
	assert.Equal(t, cfg.Port, c.Addr().(*net.TCPAddr).Port)

	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())
	assert.ErrorIs(t, c.Start(), ErrStopped)
}

func TestStartFailsWhenPortTaken(t *testing.T) {
	cfg := testConfig(t)
	l, err := net.Listen("tcp", net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.Port)))
	require.NoError(t, err)
	defer l.Close()

	c, err := New(cfg, siteHandler(t), nil)
	require.NoError(t, err)
	assert.Error(t, c.Start())
	assert.NoError(t, c.Stop())
}

func TestStopWithoutStart(t *testing.T) {
	c, err := New(testConfig(t), siteHandler(t), nil)
	require.NoError(t, err)
	assert.NoError(t, c.Stop())
}

func TestNewRequiresHandler(t *testing.T) {
	_, err := New(testConfig(t), nil, nil)
	assert.Error(t, err)
}
