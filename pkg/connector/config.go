package connector

import (
	"runtime"
	"time"

	"github.com/marmos91/coyote/internal/logger"
)

const (
	// DefaultPort is used when no port, or an out-of-range one, is configured.
	DefaultPort = 8080

	// DefaultAcceptCount is the default and minimum size of the pending
	// connection queue.
	DefaultAcceptCount = 100

	DefaultWorkerIdleTimeout = 60 * time.Second
	DefaultReadTimeout       = 30 * time.Second
	DefaultWriteTimeout      = 30 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultForceTimeout      = 10 * time.Second
)

// Config configures a Connector.
type Config struct {
	// Address is the interface to bind. Empty binds every interface.
	Address string `mapstructure:"address"`

	// Port to listen on. Values outside 1-65535 fall back to DefaultPort.
	Port int `mapstructure:"port"`

	// AcceptCount sizes the queue of accepted connections waiting for a
	// worker. Values below DefaultAcceptCount are raised to it.
	AcceptCount int `mapstructure:"accept_count"`

	// MinWorkers is the number of workers kept alive. Default: 3 x NumCPU
	MinWorkers int `mapstructure:"min_workers" validate:"min=0"`

	// MaxWorkers caps concurrent connection processing. Default: 10 x NumCPU
	MaxWorkers int `mapstructure:"max_workers" validate:"min=0"`

	// WorkerIdleTimeout retires workers above MinWorkers after this long
	// without work.
	WorkerIdleTimeout time.Duration `mapstructure:"worker_idle_timeout" validate:"min=0"`

	// ReadTimeout bounds reading one request. A negative value disables
	// the deadline.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout bounds writing one response. A negative value disables
	// the deadline.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// ShutdownTimeout is how long Stop waits for in-flight work before
	// forcing cancellation.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`

	// ForceTimeout is how long Stop waits after forcing cancellation.
	ForceTimeout time.Duration `mapstructure:"force_timeout" validate:"min=0"`

	// AcceptRate limits admitted connections per second. 0 is unlimited.
	AcceptRate uint `mapstructure:"accept_rate"`

	// AcceptBurst is the token bucket size for AcceptRate. 0 means
	// AcceptRate.
	AcceptBurst uint `mapstructure:"accept_burst"`
}

// CheckPort returns port when it is a valid TCP port and DefaultPort
// otherwise.
func CheckPort(port int) int {
	if port < 1 || port > 65535 {
		if port != 0 {
			logger.Warn("Invalid port %d, using default %d", port, DefaultPort)
		}
		return DefaultPort
	}
	return port
}

// CheckAcceptCount raises count to DefaultAcceptCount.
func CheckAcceptCount(count int) int {
	return max(count, DefaultAcceptCount)
}

// ApplyDefaults normalises the port and accept count and fills every other
// zero value.
func (c *Config) ApplyDefaults() {
	c.Port = CheckPort(c.Port)
	c.AcceptCount = CheckAcceptCount(c.AcceptCount)

	cpus := runtime.NumCPU()
	if c.MinWorkers <= 0 {
		c.MinWorkers = 3 * cpus
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 10 * cpus
	}
	if c.MaxWorkers < c.MinWorkers {
		c.MaxWorkers = c.MinWorkers
	}
	if c.WorkerIdleTimeout <= 0 {
		c.WorkerIdleTimeout = DefaultWorkerIdleTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.ForceTimeout <= 0 {
		c.ForceTimeout = DefaultForceTimeout
	}
}
