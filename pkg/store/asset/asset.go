// Package asset resolves request paths to static file contents.
//
// Stores distinguish a missing asset (ErrAssetNotFound) from every other
// failure so the static handler can answer 404 for the former and 500 for
// the latter.
package asset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrAssetNotFound is returned when no asset exists at the requested path.
var ErrAssetNotFound = errors.New("asset not found")

// Store reads static assets by request path ("/index.html").
type Store interface {
	Read(ctx context.Context, path string) ([]byte, error)
}

// CleanPath converts a request path into a slash-separated name relative
// to the asset root. Paths escaping the root, or that are not valid
// fs.FS names, are reported as ErrAssetNotFound.
func CleanPath(path string) (string, error) {
	name := strings.TrimPrefix(path, "/")
	if name == "" {
		return "", fmt.Errorf("%q: %w", path, ErrAssetNotFound)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%q escapes asset root: %w", path, ErrAssetNotFound)
		}
	}
	if !fs.ValidPath(name) {
		return "", fmt.Errorf("%q: %w", path, ErrAssetNotFound)
	}
	return name, nil
}
