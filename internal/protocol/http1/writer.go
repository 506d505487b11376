package http1

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

const crlf = "\r\n"

// WriteResponse renders resp and writes it to w in a single call.
//
// A response whose status was never set (a handler without the capability
// for the request method) is rendered as an empty 200.
func WriteResponse(w io.Writer, resp *Response) error {
	if _, err := w.Write(Render(resp)); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// Render produces the wire bytes for resp:
//
//	{protocol} {code} {reason}CRLF
//	{key}: {value}CRLF ... (insertion order)
//	CRLF
//	{body}
//
// Render does not modify resp.
func Render(resp *Response) []byte {
	status := resp.status
	headers := &resp.headers
	if !resp.Committed() {
		status = StatusOK
		headers = &Headers{}
		headers.Set(HeaderContentLength, "0")
	}

	var buf bytes.Buffer
	buf.Grow(128 + len(resp.body))

	buf.WriteString(resp.protocol)
	buf.WriteByte(' ')
	buf.WriteString(strconv.Itoa(status.Code()))
	buf.WriteByte(' ')
	buf.WriteString(status.ReasonPhrase())
	buf.WriteString(crlf)

	headers.Each(func(key, value string) {
		buf.WriteString(key)
		buf.WriteString(": ")
		buf.WriteString(value)
		buf.WriteString(crlf)
	})
	buf.WriteString(crlf)

	if len(resp.body) > 0 {
		buf.Write(resp.body)
	}
	return buf.Bytes()
}
