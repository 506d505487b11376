package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// InitConfig writes a commented default configuration to the default
// location and returns its path. An existing file is only replaced when
// force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a commented default configuration to path,
// creating parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

var configTemplate = template.Must(template.New("config").Parse(`# Coyote Configuration File
#
# Every value below is the built-in default. Environment variables override
# the file: COYOTE_<SECTION>_<KEY>, e.g. COYOTE_CONNECTOR_PORT=9000.

logging:
  # DEBUG, INFO, WARN or ERROR
  level: "{{.Logging.Level}}"
  # text or json
  format: "{{.Logging.Format}}"
  # stdout, stderr or a file path
  output: "{{.Logging.Output}}"

server:
  # Upper bound for the whole shutdown sequence
  shutdown_timeout: {{.Server.ShutdownTimeout}}

connector:
  # Interface to bind; empty binds every interface
  address: "{{.Connector.Address}}"
  # Out-of-range ports fall back to 8080
  port: {{.Connector.Port}}
  # Accepted connections waiting for a worker (minimum 100)
  accept_count: {{.Connector.AcceptCount}}
  min_workers: {{.Connector.MinWorkers}}
  max_workers: {{.Connector.MaxWorkers}}
  worker_idle_timeout: {{.Connector.WorkerIdleTimeout}}
  # Negative values disable the deadline
  read_timeout: {{.Connector.ReadTimeout}}
  write_timeout: {{.Connector.WriteTimeout}}
  # Graceful wait, then forced wait, on shutdown
  shutdown_timeout: {{.Connector.ShutdownTimeout}}
  force_timeout: {{.Connector.ForceTimeout}}
  # Connections admitted per second; 0 is unlimited
  accept_rate: {{.Connector.AcceptRate}}
  accept_burst: {{.Connector.AcceptBurst}}

sessions:
  # 0 keeps sessions for the life of the server
  idle_timeout: {{.Sessions.IdleTimeout}}
  sweep_interval: {{.Sessions.SweepInterval}}

users:
  # memory or badger
  type: "{{.Users.Type}}"
  memory:
    users:
      - account: "{{.SeedAccount}}"
        password: "{{.SeedPassword}}"
        email: "{{.SeedEmail}}"
  badger:
    db_path: "{{index .Users.Badger "db_path"}}"

assets:
  # embedded, filesystem or s3
  type: "{{.Assets.Type}}"
  filesystem:
    path: "{{index .Assets.Filesystem "path"}}"
  s3:
    region: "us-east-1"
    bucket: ""
    key_prefix: ""
    # Set for MinIO, Localstack and other S3-compatible endpoints
    endpoint: ""
    access_key_id: ""
    secret_access_key: ""
    force_path_style: false

metrics:
  enabled: {{.Metrics.Enabled}}
  port: {{.Metrics.Port}}
`))

// generateYAMLWithComments renders cfg as a commented YAML document.
func generateYAMLWithComments(cfg *Config) (string, error) {
	data := struct {
		*Config
		SeedAccount  string
		SeedPassword string
		SeedEmail    string
	}{
		Config:       cfg,
		SeedAccount:  DefaultSeedAccount,
		SeedPassword: DefaultSeedPassword,
		SeedEmail:    DefaultSeedEmail,
	}

	var buf bytes.Buffer
	if err := configTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render config template: %w", err)
	}
	return buf.String(), nil
}
