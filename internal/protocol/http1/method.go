package http1

import "fmt"

// Method is an HTTP request method.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
	MethodConnect Method = "CONNECT"
	MethodPatch   Method = "PATCH"
)

var methods = map[string]Method{
	"GET":     MethodGet,
	"POST":    MethodPost,
	"PUT":     MethodPut,
	"DELETE":  MethodDelete,
	"HEAD":    MethodHead,
	"OPTIONS": MethodOptions,
	"TRACE":   MethodTrace,
	"CONNECT": MethodConnect,
	"PATCH":   MethodPatch,
}

// ParseMethod maps a request-line token to a Method. Matching is
// case-sensitive as the token is on the wire.
func ParseMethod(token string) (Method, error) {
	m, ok := methods[token]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, token)
	}
	return m, nil
}

func (m Method) IsGet() bool  { return m == MethodGet }
func (m Method) IsPost() bool { return m == MethodPost }

func (m Method) String() string { return string(m) }
