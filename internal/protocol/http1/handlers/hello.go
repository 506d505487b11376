package handlers

import (
	"context"

	"github.com/marmos91/coyote/internal/protocol/http1"
)

// Hello answers GET with a fixed greeting.
type Hello struct{}

func (Hello) Name() string { return "hello" }

func (Hello) DoGet(_ context.Context, _ *http1.Request, resp *http1.Response) {
	resp.OK(http1.ContentTypeHTML, []byte(greeting))
}
