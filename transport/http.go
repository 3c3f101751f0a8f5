package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTP is the default Transport, backed by net/http's pooled client. Regular
// requests run with an overall timeout; stream requests share the same
// connection pool but carry no client-side deadline, since the server bounds
// them through heartbeat and timeout parameters.
type HTTP struct {
	client       *http.Client
	streamClient *http.Client
	username     string
	password     string
}

// HTTPOption configures an HTTP transport.
type HTTPOption func(*HTTP)

// WithHTTPClient sets a custom *http.Client for regular requests, replacing
// the default pooled client and any timeout set with WithHTTPTimeout. Stream
// requests reuse its underlying RoundTripper without the overall timeout.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(t *HTTP) {
		t.client = client
	}
}

// WithHTTPTimeout sets the per-request timeout of the default client.
func WithHTTPTimeout(d time.Duration) HTTPOption {
	return func(t *HTTP) {
		t.client.Timeout = d
	}
}

// WithBasicAuth sets credentials sent with every request.
func WithBasicAuth(username, password string) HTTPOption {
	return func(t *HTTP) {
		t.username = username
		t.password = password
	}
}

// NewHTTP creates an HTTP transport.
func NewHTTP(opts ...HTTPOption) *HTTP {
	t := &HTTP{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.streamClient = &http.Client{Transport: t.client.Transport}
	return t
}

func (t *HTTP) Name() string { return "http" }

// RoundTrip executes one HTTP request. The caller owns the response body.
func (t *HTTP) RoundTrip(ctx context.Context, req *Request) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, req.Body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if req.Accept != "" {
		httpReq.Header.Set("Accept", req.Accept)
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if t.username != "" || t.password != "" {
		httpReq.SetBasicAuth(t.username, t.password)
	}

	client := t.client
	if req.Stream {
		client = t.streamClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	return resp, nil
}

// Close releases idle pooled connections.
func (t *HTTP) Close() error {
	t.client.CloseIdleConnections()
	t.streamClient.CloseIdleConnections()
	return nil
}
