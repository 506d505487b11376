// Package http1 implements the HTTP/1.1 message model used by the connector:
// a one-pass request parser, an insertion-ordered response builder and a
// deterministic response serializer.
//
// The package deliberately supports only what a single GET or POST with a
// Content-Length body needs. There is no keep-alive, chunked coding,
// pipelining or upgrade handling.
package http1
