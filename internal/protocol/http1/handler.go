package http1

import "context"

// Handler turns a parsed request into a response. Implementations must not
// retain req or the response after returning.
type Handler interface {
	Service(ctx context.Context, req *Request) *Response
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *Request) *Response

func (f HandlerFunc) Service(ctx context.Context, req *Request) *Response {
	return f(ctx, req)
}
