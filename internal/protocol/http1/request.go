package http1

import (
	"net/url"
	"strings"
)

const (
	HeaderContentLength = "Content-Length"
	HeaderContentType   = "Content-Type"
	HeaderCookie        = "Cookie"
	HeaderLocation      = "Location"
	HeaderSetCookie     = "Set-Cookie"
)

// Request is an immutable parsed HTTP request.
//
// Path is the raw request target, query string included. Header keys are
// matched case-sensitively; on duplicates the last line wins.
type Request struct {
	method   Method
	path     string
	protocol string
	headers  map[string]string
	body     []byte
}

// NewRequest builds a Request directly, mainly for handler tests. headers is
// copied.
func NewRequest(method Method, path, protocol string, headers map[string]string, body []byte) *Request {
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return &Request{
		method:   method,
		path:     path,
		protocol: protocol,
		headers:  h,
		body:     body,
	}
}

func (r *Request) Method() Method   { return r.method }
func (r *Request) Path() string     { return r.path }
func (r *Request) Protocol() string { return r.protocol }
func (r *Request) Body() []byte     { return r.body }

func (r *Request) IsGet() bool  { return r.method.IsGet() }
func (r *Request) IsPost() bool { return r.method.IsPost() }

// Header returns the value for key and whether it was present.
func (r *Request) Header(key string) (string, bool) {
	v, ok := r.headers[key]
	return v, ok
}

// Headers returns a copy of the header map.
func (r *Request) Headers() map[string]string {
	h := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		h[k] = v
	}
	return h
}

// Cookie returns the value of the named cookie from the Cookie header.
// Pairs are separated by ';' and the first match wins.
func (r *Request) Cookie(name string) (string, bool) {
	header, ok := r.headers[HeaderCookie]
	if !ok {
		return "", false
	}
	for _, pair := range strings.Split(header, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found || key != name {
			continue
		}
		return value, true
	}
	return "", false
}

// FormValues decodes the body as application/x-www-form-urlencoded.
// Pairs without exactly one '=' or with an empty key or value, and pairs
// that fail percent-decoding, are dropped. Later duplicates overwrite
// earlier ones.
func (r *Request) FormValues() map[string]string {
	params := make(map[string]string)
	if len(r.body) == 0 {
		return params
	}

	for _, pair := range strings.Split(string(r.body), "&") {
		parts := strings.Split(pair, "=")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		key, err := url.QueryUnescape(parts[0])
		if err != nil {
			continue
		}
		value, err := url.QueryUnescape(parts[1])
		if err != nil {
			continue
		}
		params[key] = value
	}
	return params
}
