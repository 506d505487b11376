package config

import (
	"github.com/marmos91/coyote/pkg/metrics"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// ConnectorMetrics is the collector for the connector (never nil, uses noop if disabled)
	ConnectorMetrics metrics.ConnectorMetrics
}

// InitializeMetrics creates the metrics components described by cfg.
//
// If metrics are enabled the global Prometheus registry is initialized and
// a metrics server is created on cfg.Metrics.Port. Otherwise the server is
// nil and the connector gets a no-op collector.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			ConnectorMetrics: metrics.NewNoopConnectorMetrics(),
		}
	}

	metrics.InitRegistry()

	return &MetricsResult{
		Server:           metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port}),
		ConnectorMetrics: metrics.NewConnectorMetrics(),
	}
}
