package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules checks the per-store option maps and cross-section
// rules that cannot be expressed in tags.
func validateCustomRules(cfg *Config) error {
	switch cfg.Users.Type {
	case "memory":
		seed, err := decodeMemoryUsers(cfg.Users.Memory)
		if err != nil {
			return err
		}
		accounts := make(map[string]bool, len(seed.Users))
		for i, u := range seed.Users {
			if u.Account == "" || u.Password == "" {
				return fmt.Errorf("users.memory.users[%d]: account and password are required", i)
			}
			if accounts[u.Account] {
				return fmt.Errorf("users.memory.users[%d]: duplicate account %q", i, u.Account)
			}
			accounts[u.Account] = true
		}
	case "badger":
		opts, err := decodeBadgerUsers(cfg.Users.Badger)
		if err != nil {
			return err
		}
		if opts.DBPath == "" && !opts.InMemory {
			return fmt.Errorf("users.badger: db_path is required")
		}
	}

	switch cfg.Assets.Type {
	case "filesystem":
		opts, err := decodeFilesystemAssets(cfg.Assets.Filesystem)
		if err != nil {
			return err
		}
		if opts.Path == "" {
			return fmt.Errorf("assets.filesystem: path is required")
		}
	case "s3":
		opts, err := decodeS3Assets(cfg.Assets.S3)
		if err != nil {
			return err
		}
		if opts.Bucket == "" || opts.Region == "" {
			return fmt.Errorf("assets.s3: bucket and region are required")
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == cfg.Connector.Port {
		return fmt.Errorf("metrics: port %d is already used by the connector", cfg.Metrics.Port)
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
