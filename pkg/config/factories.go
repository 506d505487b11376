package config

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/coyote/internal/logger"
	"github.com/marmos91/coyote/pkg/store/asset"
	assetS3 "github.com/marmos91/coyote/pkg/store/asset/s3"
	"github.com/marmos91/coyote/pkg/store/user"
	userBadger "github.com/marmos91/coyote/pkg/store/user/badger"
	userMemory "github.com/marmos91/coyote/pkg/store/user/memory"
	"github.com/marmos91/coyote/web/static"
)

// SeedUser is one account pre-registered in the memory user store.
type SeedUser struct {
	Account  string `mapstructure:"account"`
	Password string `mapstructure:"password"`
	Email    string `mapstructure:"email"`
}

// MemoryUsersConfig is the decoded users.memory section.
type MemoryUsersConfig struct {
	Users []SeedUser `mapstructure:"users"`
}

// FilesystemAssetsConfig is the decoded assets.filesystem section.
type FilesystemAssetsConfig struct {
	Path string `mapstructure:"path"`
}

// CreateUserStore creates a user store based on configuration.
//
// Supported types:
//   - "memory": Uses pkg/store/user/memory, seeded from users.memory.users
//   - "badger": Uses pkg/store/user/badger (persistent)
func CreateUserStore(ctx context.Context, cfg *UsersConfig) (user.Store, error) {
	switch cfg.Type {
	case "memory":
		return createMemoryUserStore(cfg.Memory)
	case "badger":
		return createBadgerUserStore(ctx, cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown user store type: %q", cfg.Type)
	}
}

func createMemoryUserStore(options map[string]any) (user.Store, error) {
	storeCfg, err := decodeMemoryUsers(options)
	if err != nil {
		return nil, err
	}

	seed := make([]*user.User, 0, len(storeCfg.Users))
	for i, su := range storeCfg.Users {
		u, err := user.New(su.Account, su.Password, su.Email)
		if err != nil {
			return nil, fmt.Errorf("users.memory.users[%d]: %w", i, err)
		}
		seed = append(seed, u)
	}

	logger.Info("Memory user store initialized with %d account(s)", len(seed))
	return userMemory.New(seed...), nil
}

func createBadgerUserStore(ctx context.Context, options map[string]any) (user.Store, error) {
	storeCfg, err := decodeBadgerUsers(options)
	if err != nil {
		return nil, err
	}
	if storeCfg.DBPath == "" && !storeCfg.InMemory {
		return nil, fmt.Errorf("badger user store: db_path is required")
	}

	store, err := userBadger.New(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger user store: %w", err)
	}
	return store, nil
}

// CreateAssetStore creates a static asset store based on configuration.
//
// Supported types:
//   - "filesystem": Serves files below assets.filesystem.path
//   - "embedded": Serves the pages compiled into the binary (web/static)
//   - "s3": Uses pkg/store/asset/s3 (Amazon S3 or compatible storage)
func CreateAssetStore(ctx context.Context, cfg *AssetsConfig) (asset.Store, error) {
	switch cfg.Type {
	case "filesystem":
		return createFilesystemAssetStore(cfg.Filesystem)
	case "embedded":
		logger.Info("Serving embedded static assets")
		return asset.NewFS("embedded", static.FS()), nil
	case "s3":
		return createS3AssetStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown asset store type: %q", cfg.Type)
	}
}

func createFilesystemAssetStore(options map[string]any) (asset.Store, error) {
	storeCfg, err := decodeFilesystemAssets(options)
	if err != nil {
		return nil, err
	}
	if storeCfg.Path == "" {
		return nil, fmt.Errorf("filesystem asset store: path is required")
	}

	store, err := asset.NewDir(storeCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem asset store: %w", err)
	}

	logger.Info("Serving static assets from %s", storeCfg.Path)
	return store, nil
}

func createS3AssetStore(ctx context.Context, options map[string]any) (asset.Store, error) {
	storeCfg, err := decodeS3Assets(options)
	if err != nil {
		return nil, err
	}

	store, err := assetS3.New(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 asset store: %w", err)
	}
	return store, nil
}

func decodeMemoryUsers(options map[string]any) (MemoryUsersConfig, error) {
	var storeCfg MemoryUsersConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return storeCfg, fmt.Errorf("failed to decode memory user store config: %w", err)
	}
	return storeCfg, nil
}

func decodeBadgerUsers(options map[string]any) (userBadger.Config, error) {
	var storeCfg userBadger.Config
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return storeCfg, fmt.Errorf("failed to decode badger user store config: %w", err)
	}
	return storeCfg, nil
}

func decodeFilesystemAssets(options map[string]any) (FilesystemAssetsConfig, error) {
	var storeCfg FilesystemAssetsConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return storeCfg, fmt.Errorf("failed to decode filesystem asset store config: %w", err)
	}
	return storeCfg, nil
}

func decodeS3Assets(options map[string]any) (assetS3.Config, error) {
	var storeCfg assetS3.Config
	// WeaklyTypedInput accepts "true"/"3" from environment-style values.
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &storeCfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return storeCfg, err
	}
	if err := decoder.Decode(options); err != nil {
		return storeCfg, fmt.Errorf("failed to decode S3 asset store config: %w", err)
	}
	return storeCfg, nil
}
