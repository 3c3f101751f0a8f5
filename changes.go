package couchkit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchkit/couchkit-go/transport"
)

// lastSeqPrefix marks the feed's terminal summary line. The server signals
// end of feed textually, not structurally, so the prefix must match exactly.
const lastSeqPrefix = `{"last_seq":`

// Seq is a change sequence marker. Servers return either a number or an
// opaque string depending on version; both forms decode into Seq.
type Seq string

func (s *Seq) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = Seq(v)
		return nil
	}
	*s = Seq(data)
	return nil
}

// ChangeRow is one row of the changes feed.
type ChangeRow struct {
	Seq     Seq             `json:"seq"`
	ID      string          `json:"id"`
	Changes []ChangeRev     `json:"changes"`
	Doc     json.RawMessage `json:"doc,omitempty"`
	Deleted bool            `json:"deleted,omitempty"`
}

// ChangeRev is one revision entry of a change row.
type ChangeRev struct {
	Rev string `json:"rev"`
}

// ChangesResult is the response of a one-shot (feed=normal) request.
type ChangesResult struct {
	LastSeq Seq         `json:"last_seq"`
	Results []ChangeRow `json:"results"`
}

// ChangesOption configures a changes feed before it is opened. Options
// applied after the feed has opened have no effect on the open connection.
type ChangesOption func(*changesConfig)

type changesConfig struct {
	since       Seq
	limit       int
	heartbeat   time.Duration
	timeout     time.Duration
	filter      string
	style       string
	includeDocs bool
}

// WithSince starts the feed after the given sequence marker.
func WithSince(seq Seq) ChangesOption {
	return func(c *changesConfig) {
		c.since = seq
	}
}

// WithLimit caps the number of rows the server sends.
func WithLimit(n int) ChangesOption {
	return func(c *changesConfig) {
		c.limit = n
	}
}

// WithHeartbeat asks the server to send a keep-alive newline at the given
// interval while no changes occur.
func WithHeartbeat(d time.Duration) ChangesOption {
	return func(c *changesConfig) {
		c.heartbeat = d
	}
}

// WithFeedTimeout asks the server to end the feed after the given period of
// inactivity.
func WithFeedTimeout(d time.Duration) ChangesOption {
	return func(c *changesConfig) {
		c.timeout = d
	}
}

// WithFilter restricts the feed through a named filter function, in the
// "design/filter" form.
func WithFilter(filter string) ChangesOption {
	return func(c *changesConfig) {
		c.filter = filter
	}
}

// WithIncludeDocs embeds the full document body in each row.
func WithIncludeDocs() ChangesOption {
	return func(c *changesConfig) {
		c.includeDocs = true
	}
}

// WithStyle sets the revision style, e.g. "all_docs".
func WithStyle(style string) ChangesOption {
	return func(c *changesConfig) {
		c.style = style
	}
}

func (cfg *changesConfig) apply(b *uriBuilder) {
	if cfg.since != "" {
		b.param("since", string(cfg.since))
	}
	if cfg.limit > 0 {
		b.param("limit", cfg.limit)
	}
	if cfg.heartbeat > 0 {
		b.param("heartbeat", cfg.heartbeat.Milliseconds())
	}
	if cfg.timeout > 0 {
		b.param("timeout", cfg.timeout.Milliseconds())
	}
	if cfg.filter != "" {
		b.param("filter", cfg.filter)
	}
	if cfg.includeDocs {
		b.param("include_docs", true)
	}
	if cfg.style != "" {
		b.param("style", cfg.style)
	}
}

// Changes consumes the change notification feed of a database.
//
// For the continuous feed, open the session and pull rows sequentially:
//
//	feed := client.Changes(couchkit.WithIncludeDocs(), couchkit.WithHeartbeat(30*time.Second))
//	if err := feed.Continuous(ctx); err != nil {
//	    return err
//	}
//	defer feed.Stop()
//	for feed.Next() {
//	    row := feed.Row()
//	    // ...
//	}
//	if err := feed.Err(); err != nil {
//	    return err
//	}
//
// A session holds one open streamed response. It is designed for a single
// consumer: concurrent Next calls are not safe. Stop may be called from
// another goroutine; it takes effect at the next pull boundary and closes
// the stream so a blocked read unblocks promptly.
type Changes struct {
	client *Client
	config *changesConfig

	resp   *http.Response
	reader *bufio.Reader
	row    ChangeRow
	err    error

	stopped   atomic.Bool // cooperative stop flag, observed at each pull
	done      atomic.Bool // terminal state reached
	closeOnce sync.Once
}

// Changes creates a changes feed session over this client's database.
func (c *Client) Changes(opts ...ChangesOption) *Changes {
	config := &changesConfig{}
	for _, opt := range opts {
		opt(config)
	}
	return &Changes{client: c, config: config}
}

// Normal performs a one-shot feed=normal request and returns all rows up to
// the current sequence at once.
func (ch *Changes) Normal(ctx context.Context) (*ChangesResult, error) {
	b := ch.client.dbURI().path("_changes").param("feed", "normal")
	ch.config.apply(b)
	var result ChangesResult
	if err := ch.client.getJSON(ctx, b.build(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Continuous opens the long-lived feed=continuous connection. The response
// body is consumed incrementally, one line per change row.
func (ch *Changes) Continuous(ctx context.Context) error {
	if ch.resp != nil || ch.done.Load() {
		return preconditionErr("feed already opened")
	}
	b := ch.client.dbURI().path("_changes").param("feed", "continuous")
	ch.config.apply(b)

	resp, err := ch.client.execute(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    b.build(),
		Accept: contentTypeJSON,
		Stream: true,
	})
	if err != nil {
		return err
	}
	if err := ch.client.validate(resp); err != nil {
		return err
	}
	ch.resp = resp
	ch.reader = bufio.NewReader(resp.Body)
	ch.client.log.Debug().Str("url", b.build()).Msg("changes feed opened")
	return nil
}

// Next blocks until the next change row arrives and reports whether one is
// available. It returns false once the feed ends: on the terminal last_seq
// line, after Stop, or on a read or parse error. Consult Err to tell an
// orderly end from a failure.
func (ch *Changes) Next() bool {
	if ch.done.Load() || ch.stopped.Load() || ch.resp == nil {
		ch.terminate()
		return false
	}
	for {
		line, err := ch.reader.ReadString('\n')
		row := strings.TrimSpace(line)

		// Heartbeats arrive as bare newlines; skip every blank line.
		if row == "" {
			if err == nil {
				continue
			}
			if !errors.Is(err, io.EOF) && !ch.stopped.Load() {
				ch.err = feedErr(err)
			}
			ch.terminate()
			return false
		}

		if strings.HasPrefix(row, lastSeqPrefix) {
			ch.terminate()
			return false
		}

		var next ChangeRow
		if derr := ch.client.codec.Unmarshal([]byte(row), &next); derr != nil {
			if !ch.stopped.Load() {
				ch.err = feedErr(derr)
			}
			ch.terminate()
			return false
		}
		ch.row = next
		return true
	}
}

// Row returns the row read by the last successful Next.
func (ch *Changes) Row() ChangeRow {
	return ch.row
}

// Err returns the error that terminated the feed, if any. An orderly end of
// feed, via the terminal record or Stop, leaves it nil.
func (ch *Changes) Err() error {
	return ch.err
}

// Stop ends the feed session. The stop flag is observed before the next
// pull, and closing the stream unblocks a read already in flight. Stop is
// idempotent and safe to call after the feed has ended on its own.
func (ch *Changes) Stop() {
	ch.stopped.Store(true)
	ch.terminate()
}

// terminate enters the terminal state: the underlying stream is closed and
// the held connection released exactly once, no matter how termination was
// triggered or how many times it recurs.
func (ch *Changes) terminate() {
	ch.closeOnce.Do(func() {
		ch.done.Store(true)
		if ch.resp != nil {
			ch.resp.Body.Close()
		}
		ch.client.log.Debug().Msg("changes feed closed")
	})
}
