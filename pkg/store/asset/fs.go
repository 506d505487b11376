package asset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FSStore serves assets from an fs.FS: a directory on disk, the embedded
// defaults or an in-memory fstest.MapFS.
type FSStore struct {
	fsys fs.FS
	name string
}

// NewFS wraps fsys. name only appears in logs and errors.
func NewFS(name string, fsys fs.FS) *FSStore {
	return &FSStore{fsys: fsys, name: name}
}

// NewDir serves assets from the directory at root, which must exist.
func NewDir(root string) (*FSStore, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("asset root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset root %s is not a directory", root)
	}
	return NewFS(root, os.DirFS(root)), nil
}

func (s *FSStore) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := CleanPath(path)
	if err != nil {
		return nil, err
	}

	info, err := fs.Stat(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrAssetNotFound)
		}
		return nil, fmt.Errorf("stat %s in %s: %w", name, s.name, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, ErrAssetNotFound)
	}

	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read %s from %s: %w", name, s.name, err)
	}
	return data, nil
}

func (s *FSStore) String() string {
	return "fs:" + s.name
}
