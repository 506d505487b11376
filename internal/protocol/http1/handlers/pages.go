package handlers

import (
	"context"
	"errors"

	"github.com/marmos91/coyote/internal/logger"
	"github.com/marmos91/coyote/internal/protocol/http1"
	"github.com/marmos91/coyote/pkg/store/asset"
)

// Well-known page paths.
const (
	PageIndex        = "/index.html"
	PageLogin        = "/login.html"
	PageRegister     = "/register.html"
	PageUnauthorized = "/401.html"
	PageNotFound     = "/404.html"
	PageServerError  = "/500.html"
)

const greeting = "Hello world!"

// Bodies used when the error page itself cannot be read.
var (
	fallbackNotFound    = []byte("404 Not Found")
	fallbackServerError = []byte("500 Internal Server Error")
)

// renderPage answers with the HTML page at path, or the 500 page when it
// cannot be read.
func renderPage(ctx context.Context, assets asset.Store, resp *http1.Response, path string) {
	body, err := assets.Read(ctx, path)
	if err != nil {
		logger.Error("Failed to read page %s: %v", path, err)
		serverError(ctx, assets, resp)
		return
	}
	resp.OK(http1.ContentTypeHTML, body)
}

func serverError(ctx context.Context, assets asset.Store, resp *http1.Response) {
	body, err := assets.Read(ctx, PageServerError)
	if err != nil {
		body = fallbackServerError
	}
	resp.Fail(http1.StatusInternalServerError, body)
}

func notFound(ctx context.Context, assets asset.Store, resp *http1.Response) {
	body, err := assets.Read(ctx, PageNotFound)
	if err != nil {
		if !errors.Is(err, asset.ErrAssetNotFound) {
			logger.Warn("Failed to read %s: %v", PageNotFound, err)
		}
		body = fallbackNotFound
	}
	resp.Fail(http1.StatusNotFound, body)
}
