package http1

import "strconv"

// Response is built by a handler and rendered once by WriteResponse.
//
// The status is first-write-wins: once OK, Redirect or Fail has set it,
// later calls leave the response untouched and return false. Headers may
// still be added until the response is written.
type Response struct {
	protocol string
	status   Status
	headers  Headers
	body     []byte
}

// NewResponse returns an empty response that echoes protocol in its status
// line.
func NewResponse(protocol string) *Response {
	return &Response{protocol: protocol}
}

// ResponseFor returns an empty response for req.
func ResponseFor(req *Request) *Response {
	return NewResponse(req.Protocol())
}

func (r *Response) Protocol() string  { return r.protocol }
func (r *Response) Status() Status    { return r.status }
func (r *Response) Body() []byte      { return r.body }
func (r *Response) Headers() *Headers { return &r.headers }

// Committed reports whether a status has been set.
func (r *Response) Committed() bool { return r.status != 0 }

// Header returns a response header value.
func (r *Response) Header(key string) (string, bool) {
	return r.headers.Get(key)
}

// SetHeader adds or replaces a header.
func (r *Response) SetHeader(key, value string) {
	r.headers.Set(key, value)
}

// OK sets a 200 response carrying body.
func (r *Response) OK(ct ContentType, body []byte) bool {
	return r.withBody(StatusOK, ct, body)
}

// Redirect sets a 302 response to location. Redirects carry no body.
func (r *Response) Redirect(location string) bool {
	if r.Committed() {
		return false
	}
	r.status = StatusFound
	r.headers.Set(HeaderLocation, location)
	return true
}

// Fail sets an error status with an HTML body.
func (r *Response) Fail(status Status, body []byte) bool {
	return r.withBody(status, ContentTypeHTML, body)
}

func (r *Response) withBody(status Status, ct ContentType, body []byte) bool {
	if r.Committed() {
		return false
	}
	r.status = status
	r.body = body
	r.headers.Set(HeaderContentType, ct.MIMEType)
	r.headers.Set(HeaderContentLength, strconv.Itoa(len(body)))
	return true
}
