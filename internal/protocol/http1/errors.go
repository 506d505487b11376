package http1

import (
	"errors"
	"fmt"
)

// ErrMalformedRequest is the root of every parse failure. A connection that
// produces one gets a best-effort 400 and is closed.
var ErrMalformedRequest = errors.New("malformed request")

var (
	ErrMalformedRequestLine = fmt.Errorf("%w: invalid request line", ErrMalformedRequest)
	ErrUnsupportedMethod    = fmt.Errorf("%w: unsupported method", ErrMalformedRequest)
	ErrMalformedHeader      = fmt.Errorf("%w: invalid header line", ErrMalformedRequest)
	ErrMissingContentLength = fmt.Errorf("%w: cannot determine body boundary, Content-Length missing", ErrMalformedRequest)
	ErrInvalidContentLength = fmt.Errorf("%w: invalid Content-Length", ErrMalformedRequest)
	ErrLineTooLong          = fmt.Errorf("%w: line too long", ErrMalformedRequest)
	ErrTooManyHeaders       = fmt.Errorf("%w: too many headers", ErrMalformedRequest)
	ErrBodyTooLarge         = fmt.Errorf("%w: body too large", ErrMalformedRequest)
)

// IsParseError reports whether err came from request parsing rather than
// from the transport.
func IsParseError(err error) bool {
	return errors.Is(err, ErrMalformedRequest)
}
