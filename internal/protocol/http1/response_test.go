package http1

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOK(t *testing.T) {
	resp := NewResponse("HTTP/1.1")
	require.True(t, resp.OK(ContentTypeHTML, []byte("Hello world!")))

	want := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/html;charset=utf-8\r\n" +
		"Content-Length: 12\r\n" +
		"\r\n" +
		"Hello world!"
	assert.Equal(t, want, string(Render(resp)))
}

func TestRenderRedirectWithCookie(t *testing.T) {
	resp := NewResponse("HTTP/1.1")
	resp.SetHeader(HeaderSetCookie, "JSESSIONID=abc")
	resp.Redirect("/index.html")

	want := "HTTP/1.1 302 Found\r\n" +
		"Set-Cookie: JSESSIONID=abc\r\n" +
		"Location: /index.html\r\n" +
		"\r\n"
	assert.Equal(t, want, string(Render(resp)))
}

func TestRenderEchoesProtocol(t *testing.T) {
	resp := NewResponse("HTTP/1.0")
	resp.Fail(StatusNotFound, []byte("nope"))
	assert.True(t, bytes.HasPrefix(Render(resp), []byte("HTTP/1.0 404 Not Found\r\n")))
}

func TestRenderUncommitted(t *testing.T) {
	resp := NewResponse("HTTP/1.1")
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n", string(Render(resp)))
	assert.False(t, resp.Committed(), "Render must not mutate the response")
}

func TestStatusIsFirstWriteWins(t *testing.T) {
	resp := NewResponse("HTTP/1.1")
	require.True(t, resp.Redirect("/401.html"))

	assert.False(t, resp.OK(ContentTypeHTML, []byte("late")))
	assert.False(t, resp.Redirect("/index.html"))
	assert.False(t, resp.Fail(StatusInternalServerError, nil))

	assert.Equal(t, StatusFound, resp.Status())
	loc, _ := resp.Header(HeaderLocation)
	assert.Equal(t, "/401.html", loc)
	assert.Nil(t, resp.Body())
}

func TestHeadersKeepInsertionOrder(t *testing.T) {
	var h Headers
	h.Set("B", "1")
	h.Set("A", "2")
	h.Set("C", "3")
	h.Set("B", "4")

	var got []string
	h.Each(func(k, v string) { got = append(got, k+"="+v) })
	assert.Equal(t, []string{"B=4", "A=2", "C=3"}, got)
	assert.Equal(t, 3, h.Len())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriteResponseSurfacesErrors(t *testing.T) {
	resp := NewResponse("HTTP/1.1")
	resp.OK(ContentTypeHTML, []byte("x"))
	assert.Error(t, WriteResponse(failingWriter{}, resp))

	var buf bytes.Buffer
	require.NoError(t, WriteResponse(&buf, resp))
	assert.Equal(t, Render(resp), buf.Bytes())
}

func TestStatusReasonPhrase(t *testing.T) {
	assert.Equal(t, "OK", StatusOK.ReasonPhrase())
	assert.Equal(t, "Found", StatusFound.ReasonPhrase())
	assert.Equal(t, "Internal Server Error", StatusInternalServerError.ReasonPhrase())
	assert.Equal(t, "Unknown", Status(418).ReasonPhrase())
	assert.Equal(t, "404 Not Found", StatusNotFound.String())
}
