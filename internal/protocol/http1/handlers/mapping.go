package handlers

import (
	"context"

	"github.com/marmos91/coyote/internal/logger"
	"github.com/marmos91/coyote/internal/protocol/http1"
)

// Mapping selects a controller by exact request path. It is built once and
// read-only afterwards.
//
// The path is matched as received, query string included: "/login?x=1"
// does not match "/login" and falls through to the fallback controller.
type Mapping struct {
	routes   map[string]Controller
	fallback Controller
}

// NewMapping copies routes and returns a mapping that uses fallback for
// every other path.
func NewMapping(routes map[string]Controller, fallback Controller) *Mapping {
	m := &Mapping{
		routes:   make(map[string]Controller, len(routes)),
		fallback: fallback,
	}
	for path, c := range routes {
		m.routes[path] = c
	}
	return m
}

// Resolve returns the controller for path.
func (m *Mapping) Resolve(path string) Controller {
	if c, ok := m.routes[path]; ok {
		return c
	}
	return m.fallback
}

// Service implements http1.Handler.
func (m *Mapping) Service(ctx context.Context, req *http1.Request) *http1.Response {
	c := m.Resolve(req.Path())
	logger.Debug("%s %s -> %s", req.Method(), req.Path(), c.Name())
	return Service(ctx, c, req)
}
