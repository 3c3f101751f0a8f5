package couchkit

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/couchkit/couchkit-go/transport"
)

// Option configures a Client.
type Option func(*clientConfig)

// clientConfig holds the connection context: immutable once the client is
// constructed.
type clientConfig struct {
	scheme     string
	host       string
	port       int
	path       string
	database   string
	username   string
	password   string
	timeout    time.Duration
	httpClient *http.Client
	transport  transport.Transport
	codec      Codec
	logger     zerolog.Logger

	urlErr error // deferred WithURL parse failure, reported by New
}

// defaultConfig returns the default client configuration.
func defaultConfig() *clientConfig {
	return &clientConfig{
		scheme:  "http",
		host:    "127.0.0.1",
		port:    5984,
		timeout: 30 * time.Second,
		codec:   jsonCodec{},
		logger:  zerolog.Nop(),
	}
}

// WithURL sets scheme, host, port and base path from a single URL, e.g.
// "http://db.example.com:5984". Credentials embedded in the URL are applied
// as with WithCredentials.
func WithURL(rawURL string) Option {
	return func(c *clientConfig) {
		u, err := url.Parse(rawURL)
		if err != nil {
			c.urlErr = fmt.Errorf("parse URL: %w", err)
			return
		}
		if u.Scheme != "" {
			c.scheme = u.Scheme
		}
		if u.Hostname() != "" {
			c.host = u.Hostname()
		}
		if p := u.Port(); p != "" {
			c.port, err = strconv.Atoi(p)
			if err != nil {
				c.urlErr = fmt.Errorf("parse URL port: %w", err)
				return
			}
		}
		c.path = strings.Trim(u.Path, "/")
		if u.User != nil {
			c.username = u.User.Username()
			c.password, _ = u.User.Password()
		}
	}
}

// WithScheme sets the URL scheme, "http" or "https" (default: "http").
func WithScheme(scheme string) Option {
	return func(c *clientConfig) {
		c.scheme = scheme
	}
}

// WithHost sets the database host (default: "127.0.0.1").
func WithHost(host string) Option {
	return func(c *clientConfig) {
		c.host = host
	}
}

// WithPort sets the database port (default: 5984).
func WithPort(port int) Option {
	return func(c *clientConfig) {
		c.port = port
	}
}

// WithPath sets a base path prefix for servers mounted below the root.
func WithPath(path string) Option {
	return func(c *clientConfig) {
		c.path = strings.Trim(path, "/")
	}
}

// WithDatabase sets the database name all document operations address.
func WithDatabase(name string) Option {
	return func(c *clientConfig) {
		c.database = name
	}
}

// WithCredentials sets Basic Auth credentials.
func WithCredentials(username, password string) Option {
	return func(c *clientConfig) {
		c.username = username
		c.password = password
	}
}

// WithTimeout sets the per-request timeout (default: 30s). It does not apply
// to the continuous changes feed, which is bounded by the server-side
// heartbeat and timeout parameters instead.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client for the default transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTransport injects a custom Transport, replacing the default HTTP one.
// Credentials and timeouts configured on the client do not apply to it.
func WithTransport(t transport.Transport) Option {
	return func(c *clientConfig) {
		c.transport = t
	}
}

// WithCodec sets a custom JSON codec, replacing encoding/json.
func WithCodec(codec Codec) Option {
	return func(c *clientConfig) {
		c.codec = codec
	}
}

// WithLogger sets a structured logger. Logging is off by default.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// validateConfig validates the client configuration.
func validateConfig(config *clientConfig) error {
	if config.urlErr != nil {
		return config.urlErr
	}
	if config.scheme != "http" && config.scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", config.scheme)
	}
	if config.host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if config.port <= 0 || config.port > 65535 {
		return fmt.Errorf("port %d out of range", config.port)
	}
	if config.database == "" {
		return fmt.Errorf("database name cannot be empty")
	}
	if config.timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if config.codec == nil {
		return fmt.Errorf("codec cannot be nil")
	}
	return nil
}
