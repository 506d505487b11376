package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/marmos91/coyote/internal/logger"
	"github.com/marmos91/coyote/internal/protocol/http1"
	"github.com/marmos91/coyote/pkg/store/asset"
)

// Static serves files from an asset store. It is the fallback for every
// path without a dedicated controller.
type Static struct {
	Assets asset.Store
}

func (*Static) Name() string { return "static" }

func (s *Static) DoGet(ctx context.Context, req *http1.Request, resp *http1.Response) {
	path, _, _ := strings.Cut(req.Path(), "?")
	if path == "/" {
		resp.OK(http1.ContentTypeHTML, []byte(greeting))
		return
	}

	body, err := s.Assets.Read(ctx, path)
	switch {
	case errors.Is(err, asset.ErrAssetNotFound):
		logger.Debug("Asset not found: %s", path)
		notFound(ctx, s.Assets, resp)
	case err != nil:
		logger.Error("Failed to read asset %s: %v", path, err)
		serverError(ctx, s.Assets, resp)
	default:
		resp.OK(http1.ContentTypeFor(path), body)
	}
}
