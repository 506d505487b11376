// Package handlers implements the route controllers of the server and the
// table that selects one per request.
//
// A controller declares what it can do by implementing Getter, Poster or
// both. Dispatch checks for the capability matching the request method;
// a controller without it leaves the response untouched.
package handlers

import (
	"context"

	"github.com/marmos91/coyote/internal/logger"
	"github.com/marmos91/coyote/internal/protocol/http1"
)

// Controller is a routable value. It must also implement Getter, Poster or
// both to handle anything.
type Controller interface {
	Name() string
}

// Getter handles GET requests.
type Getter interface {
	DoGet(ctx context.Context, req *http1.Request, resp *http1.Response)
}

// Poster handles POST requests.
type Poster interface {
	DoPost(ctx context.Context, req *http1.Request, resp *http1.Response)
}

// Service runs c against req and returns the response it built.
func Service(ctx context.Context, c Controller, req *http1.Request) *http1.Response {
	resp := http1.ResponseFor(req)

	switch {
	case req.IsGet():
		if g, ok := c.(Getter); ok {
			g.DoGet(ctx, req, resp)
			return resp
		}
	case req.IsPost():
		if p, ok := c.(Poster); ok {
			p.DoPost(ctx, req, resp)
			return resp
		}
	}

	logger.Debug("%s has no handler for %s", c.Name(), req.Method())
	return resp
}
