// Package transport provides the HTTP execution layer for couchkit.
package transport

import (
	"context"
	"io"
	"net/http"
)

// Request describes one HTTP exchange against the database.
type Request struct {
	Method      string
	URL         string    // absolute, URI-encoded
	Body        io.Reader // nil for requests without a body
	ContentType string    // set on writes carrying a body
	Accept      string    // set on reads expecting a JSON body

	// Stream marks a long-lived request whose body is consumed
	// incrementally. Per-request timeouts must not apply to it; the server
	// bounds the connection through its own heartbeat and timeout.
	Stream bool
}

// Transport executes one HTTP request per call against a database host whose
// connection parameters are bound at construction. Implementations own the
// underlying connection pool; callers release a pooled connection by draining
// or closing the returned response body.
type Transport interface {
	// Name returns the transport name (e.g. "http").
	Name() string

	// RoundTrip executes the request and returns the raw response. The
	// caller owns the response body.
	RoundTrip(ctx context.Context, req *Request) (*http.Response, error)

	// Close releases any resources held by the transport.
	Close() error
}
