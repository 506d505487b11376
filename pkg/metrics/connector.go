package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConnectorMetrics observes the connection pipeline: admission, request
// processing and shutdown.
type ConnectorMetrics interface {
	// RecordConnectionAccepted counts a connection handed to the worker pool.
	RecordConnectionAccepted()

	// RecordConnectionRejected counts a connection closed because the pool
	// was saturated or the accept rate limit was exceeded.
	RecordConnectionRejected(reason string)

	// RecordConnectionClosed counts a connection closed after processing.
	RecordConnectionClosed()

	// RecordConnectionForceClosed counts a connection closed by forced
	// shutdown.
	RecordConnectionForceClosed()

	// SetActiveConnections updates the in-flight connection gauge.
	SetActiveConnections(count int32)

	// RecordRequest records a served request.
	RecordRequest(method string, status int, duration time.Duration)

	// RecordParseError counts a request that failed to parse.
	RecordParseError()
}

// Rejection reasons.
const (
	RejectPoolSaturated = "pool_saturated"
	RejectRateLimited   = "rate_limited"
	RejectShuttingDown  = "shutting_down"
)

type connectorMetrics struct {
	connectionsAccepted    prometheus.Counter
	connectionsRejected    *prometheus.CounterVec
	connectionsClosed      prometheus.Counter
	connectionsForceClosed prometheus.Counter
	activeConnections      prometheus.Gauge
	requestsTotal          *prometheus.CounterVec
	requestDuration        *prometheus.HistogramVec
	parseErrors            prometheus.Counter
}

// NewConnectorMetrics returns Prometheus-backed metrics registered on the
// global registry, or a no-op implementation when metrics are disabled.
func NewConnectorMetrics() ConnectorMetrics {
	if !IsEnabled() {
		return NewNoopConnectorMetrics()
	}
	return NewConnectorMetricsWith(GetRegistry())
}

// NewConnectorMetricsWith registers the connector metrics on reg. It
// panics if they are already registered there.
func NewConnectorMetricsWith(reg prometheus.Registerer) ConnectorMetrics {
	factory := promauto.With(reg)

	return &connectorMetrics{
		connectionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "coyote_connections_accepted_total",
			Help: "Total number of connections admitted to the worker pool",
		}),
		connectionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coyote_connections_rejected_total",
			Help: "Total number of connections closed without being processed",
		}, []string{"reason"}),
		connectionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "coyote_connections_closed_total",
			Help: "Total number of connections closed after processing",
		}),
		connectionsForceClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "coyote_connections_force_closed_total",
			Help: "Total number of connections closed by forced shutdown",
		}),
		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "coyote_active_connections",
			Help: "Current number of connections being processed",
		}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coyote_http_requests_total",
			Help: "Total number of HTTP requests by method and status",
		}, []string{"method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "coyote_http_request_duration_seconds",
			Help: "Time from parsed request to written response",
			Buckets: []float64{
				0.0005, // 500us
				0.001,  // 1ms
				0.005,  // 5ms
				0.01,   // 10ms
				0.05,   // 50ms
				0.1,    // 100ms
				0.5,    // 500ms
				1.0,    // 1s
			},
		}, []string{"method"}),
		parseErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "coyote_http_parse_errors_total",
			Help: "Total number of malformed requests",
		}),
	}
}

func (m *connectorMetrics) RecordConnectionAccepted() {
	m.connectionsAccepted.Inc()
}

func (m *connectorMetrics) RecordConnectionRejected(reason string) {
	m.connectionsRejected.WithLabelValues(reason).Inc()
}

func (m *connectorMetrics) RecordConnectionClosed() {
	m.connectionsClosed.Inc()
}

func (m *connectorMetrics) RecordConnectionForceClosed() {
	m.connectionsForceClosed.Inc()
}

func (m *connectorMetrics) SetActiveConnections(count int32) {
	m.activeConnections.Set(float64(count))
}

func (m *connectorMetrics) RecordRequest(method string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (m *connectorMetrics) RecordParseError() {
	m.parseErrors.Inc()
}

// NewNoopConnectorMetrics returns an implementation that records nothing.
func NewNoopConnectorMetrics() ConnectorMetrics {
	return noopConnectorMetrics{}
}

type noopConnectorMetrics struct{}

func (noopConnectorMetrics) RecordConnectionAccepted()                                       {}
func (noopConnectorMetrics) RecordConnectionRejected(reason string)                          {}
func (noopConnectorMetrics) RecordConnectionClosed()                                         {}
func (noopConnectorMetrics) RecordConnectionForceClosed()                                    {}
func (noopConnectorMetrics) SetActiveConnections(count int32)                                {}
func (noopConnectorMetrics) RecordRequest(method string, status int, duration time.Duration) {}
func (noopConnectorMetrics) RecordParseError()                                               {}
