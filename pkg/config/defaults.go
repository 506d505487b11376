package config

import (
	"strings"
	"time"

	"github.com/marmos91/coyote/pkg/metrics"
)

// Default seed account for the memory user store.
const (
	DefaultSeedAccount  = "gugu"
	DefaultSeedPassword = "password"
	DefaultSeedEmail    = "hkkang@woowahan.com"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Connector values are normalised by connector.Config.ApplyDefaults
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	cfg.Connector.ApplyDefaults()
	applySessionsDefaults(&cfg.Sessions)
	applyUsersDefaults(&cfg.Users)
	applyAssetsDefaults(&cfg.Assets)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applySessionsDefaults(cfg *SessionsConfig) {
	// IdleTimeout defaults to 0: sessions live as long as the server
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = time.Minute
	}
}

func applyUsersDefaults(cfg *UsersConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}

	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}

	if _, ok := cfg.Memory["users"]; !ok {
		cfg.Memory["users"] = []map[string]any{
			{
				"account":  DefaultSeedAccount,
				"password": DefaultSeedPassword,
				"email":    DefaultSeedEmail,
			},
		}
	}
	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = "/tmp/coyote-users"
	}
}

func applyAssetsDefaults(cfg *AssetsConfig) {
	if cfg.Type == "" {
		cfg.Type = "embedded"
	}

	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}

	if _, ok := cfg.Filesystem["path"]; !ok {
		cfg.Filesystem["path"] = "./web/static"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = metrics.DefaultPort
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
