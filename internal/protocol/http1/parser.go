package http1

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	// MaxLineLength bounds the request line and each header line.
	MaxLineLength = 8 << 10

	// MaxHeaderCount bounds the number of header lines in one request.
	MaxHeaderCount = 100

	// MaxBodySize bounds the declared Content-Length.
	MaxBodySize = 10 << 20
)

// ParseRequest reads exactly one request from r.
//
// Parsing is one pass and strictly bounded: the body read never goes past
// the declared Content-Length, so bytes of any following request stay in r.
// GET bodies are always empty, whatever Content-Length says. Any other
// method without Content-Length fails with ErrMissingContentLength.
//
// Transport errors are returned as-is (io.EOF for a client that connected
// and sent nothing). Malformed input yields an error wrapping
// ErrMalformedRequest.
func ParseRequest(r *bufio.Reader) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(line) == "" {
		return nil, fmt.Errorf("%w: empty request line", ErrMalformedRequestLine)
	}

	tokens := strings.Split(line, " ")
	if len(tokens) != 3 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRequestLine, line)
	}

	method, err := ParseMethod(tokens[0])
	if err != nil {
		return nil, err
	}

	headers, err := readHeaders(r)
	if err != nil {
		return nil, err
	}

	body, err := readBody(r, method, headers)
	if err != nil {
		return nil, err
	}

	return &Request{
		method:   method,
		path:     tokens[1],
		protocol: tokens[2],
		headers:  headers,
		body:     body,
	}, nil
}

func readHeaders(r *bufio.Reader) (map[string]string, error) {
	headers := make(map[string]string)
	for count := 0; ; count++ {
		line, err := readLine(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: headers not terminated", ErrMalformedHeader)
			}
			return nil, err
		}
		if line == "" {
			return headers, nil
		}
		if count >= MaxHeaderCount {
			return nil, ErrTooManyHeaders
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, line)
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
}

func readBody(r *bufio.Reader, method Method, headers map[string]string) ([]byte, error) {
	if method.IsGet() {
		return []byte{}, nil
	}

	raw, ok := headers[HeaderContentLength]
	if !ok {
		return nil, ErrMissingContentLength
	}
	if raw == "" || raw[0] < '0' || raw[0] > '9' {
		return nil, fmt.Errorf("%w: %q", ErrInvalidContentLength, raw)
	}
	length, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidContentLength, raw)
	}
	if length > MaxBodySize {
		return nil, fmt.Errorf("%w: %d bytes", ErrBodyTooLarge, length)
	}

	body := make([]byte, int(length))
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// readLine reads one line terminated by LF, dropping the LF and an optional
// preceding CR. A final line without terminator is returned with a nil
// error; EOF with nothing read returns io.EOF.
func readLine(r *bufio.Reader) (string, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && len(buf) > 0 {
				break
			}
			return "", err
		}
		buf = append(buf, chunk...)
		if len(buf) > MaxLineLength {
			return "", ErrLineTooLong
		}
		if !isPrefix {
			break
		}
	}
	return string(bytes.TrimSuffix(buf, []byte("\r"))), nil
}
