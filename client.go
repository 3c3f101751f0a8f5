package couchkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/couchkit/couchkit-go/transport"
)

// Client is a couchkit client bound to one database. It is safe for
// concurrent use from multiple goroutines; each call acquires its own pooled
// connection and blocks until the response is fully consumed.
type Client struct {
	config    *clientConfig
	transport transport.Transport
	codec     Codec
	log       zerolog.Logger

	baseOnce sync.Once
	baseURL  string
	dbOnce   sync.Once
	dbURL    string
}

// New creates a new client with the given options.
//
// Example:
//
//	client, err := couchkit.New(
//	    couchkit.WithHost("db.example.com"),
//	    couchkit.WithDatabase("inventory"),
//	    couchkit.WithCredentials("user", "secret"),
//	)
func New(opts ...Option) (*Client, error) {
	config := defaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	t := config.transport
	if t == nil {
		httpOpts := []transport.HTTPOption{}
		if config.username != "" || config.password != "" {
			httpOpts = append(httpOpts, transport.WithBasicAuth(config.username, config.password))
		}
		if config.httpClient != nil {
			httpOpts = append(httpOpts, transport.WithHTTPClient(config.httpClient))
		} else if config.timeout > 0 {
			httpOpts = append(httpOpts, transport.WithHTTPTimeout(config.timeout))
		}
		t = transport.NewHTTP(httpOpts...)
	}

	return &Client{
		config:    config,
		transport: t,
		codec:     config.codec,
		log:       config.logger,
	}, nil
}

// MustNew creates a new client with the given options. Panics if the
// configuration is invalid. Use New for error handling in production code.
func MustNew(opts ...Option) *Client {
	client, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return client
}

// Close releases resources held by the client's transport.
func (c *Client) Close() error {
	return c.transport.Close()
}

// BaseURL returns the server URL, computed once from the connection context.
func (c *Client) BaseURL() string {
	c.baseOnce.Do(func() {
		base := fmt.Sprintf("%s://%s:%d", c.config.scheme, c.config.host, c.config.port)
		if c.config.path != "" {
			base = newURIBuilder(base).path(c.config.path).build()
		}
		c.baseURL = base
	})
	return c.baseURL
}

// DatabaseURL returns the database URL, computed once.
func (c *Client) DatabaseURL() string {
	c.dbOnce.Do(func() {
		c.dbURL = newURIBuilder(c.BaseURL()).path(c.config.database).build()
	})
	return c.dbURL
}

// baseURI starts a URI at the server root.
func (c *Client) baseURI() *uriBuilder {
	return newURIBuilder(c.BaseURL())
}

// dbURI starts a URI at the database root.
func (c *Client) dbURI() *uriBuilder {
	return newURIBuilder(c.DatabaseURL())
}

// execute runs one HTTP exchange through the transport. A transport-level
// failure has already released the in-flight request; it surfaces as a
// transport-kind error wrapping the cause and is never retried.
func (c *Client) execute(ctx context.Context, req *transport.Request) (*http.Response, error) {
	resp, err := c.transport.RoundTrip(ctx, req)
	if err != nil {
		c.log.Debug().Str("method", req.Method).Str("url", req.URL).Err(err).Msg("request failed")
		return nil, transportErr(req.Method+" "+req.URL, err)
	}
	c.log.Debug().Str("method", req.Method).Str("url", req.URL).Int("status", resp.StatusCode).Msg("request executed")
	return resp, nil
}

// getJSON executes a GET and decodes the JSON body into dst.
func (c *Client) getJSON(ctx context.Context, uri string, dst any) error {
	resp, err := c.execute(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    uri,
		Accept: contentTypeJSON,
	})
	if err != nil {
		return err
	}
	return c.decodeBody(resp, dst)
}

// postJSON executes a POST with a JSON payload and decodes the body into dst.
func (c *Client) postJSON(ctx context.Context, uri string, payload []byte, dst any) error {
	resp, err := c.execute(ctx, &transport.Request{
		Method:      http.MethodPost,
		URL:         uri,
		Body:        bytes.NewReader(payload),
		ContentType: contentTypeJSON,
		Accept:      contentTypeJSON,
	})
	if err != nil {
		return err
	}
	return c.decodeBody(resp, dst)
}

// Find fetches the latest revision of the document with the given id and
// decodes it into dst. A missing document matches ErrNotFound.
func (c *Client) Find(ctx context.Context, id string, dst any) error {
	if id == "" {
		return preconditionErr("id must not be empty")
	}
	return c.getJSON(ctx, c.dbURI().path(id).build(), dst)
}

// FindRev fetches a specific revision of a document.
func (c *Client) FindRev(ctx context.Context, id, rev string, dst any) error {
	if id == "" || rev == "" {
		return preconditionErr("id and rev must not be empty")
	}
	return c.getJSON(ctx, c.dbURI().path(id).param("rev", rev).build(), dst)
}

// FindStream fetches a document and returns its raw body without buffering.
// The caller must close the stream to release the connection.
func (c *Client) FindStream(ctx context.Context, id string) (io.ReadCloser, error) {
	if id == "" {
		return nil, preconditionErr("id must not be empty")
	}
	resp, err := c.execute(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    c.dbURI().path(id).build(),
		Accept: contentTypeJSON,
	})
	if err != nil {
		return nil, err
	}
	return c.bodyStream(resp)
}

// Contains probes for a document's existence with a HEAD request. A missing
// document reports false rather than an error.
func (c *Client) Contains(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, preconditionErr("id must not be empty")
	}
	resp, err := c.execute(ctx, &transport.Request{
		Method: http.MethodHead,
		URL:    c.dbURI().path(id).build(),
	})
	if err != nil {
		return false, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, statusErr(resp.StatusCode, resp.Status, nil)
	}
}

// Save stores a new document. The document must not carry a revision; if it
// carries no id, a random UUID is assigned client-side so no round trip is
// needed for id allocation. A revision conflict matches ErrConflict.
func (c *Client) Save(ctx context.Context, doc any) (*WriteResult, error) {
	return c.put(ctx, doc, true)
}

// Update stores a new revision of an existing document. The document must
// carry both id and the revision the writer observed; a stale revision
// surfaces as ErrConflict and the caller must re-fetch and retry.
func (c *Client) Update(ctx context.Context, doc any) (*WriteResult, error) {
	return c.put(ctx, doc, false)
}

func (c *Client) put(ctx context.Context, doc any, create bool) (*WriteResult, error) {
	if doc == nil {
		return nil, preconditionErr("document must not be nil")
	}
	id, rev, err := docIdentity(c.codec, doc)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if create {
		if rev != "" {
			return nil, preconditionErr("document revision must be empty when saving a new document")
		}
		if id == "" {
			id = uuid.NewString()
			payload, err = encodeWithID(c.codec, doc, id)
		} else {
			payload, err = c.marshal(doc)
		}
	} else {
		if id == "" || rev == "" {
			return nil, preconditionErr("document id and revision are required for an update")
		}
		payload, err = c.marshal(doc)
	}
	if err != nil {
		return nil, err
	}

	resp, err := c.execute(ctx, &transport.Request{
		Method:      http.MethodPut,
		URL:         c.dbURI().path(id).build(),
		Body:        bytes.NewReader(payload),
		ContentType: contentTypeJSON,
		Accept:      contentTypeJSON,
	})
	if err != nil {
		return nil, err
	}
	return c.writeResult(resp)
}

// Post stores a new document with a server-assigned id.
func (c *Client) Post(ctx context.Context, doc any) (*WriteResult, error) {
	if doc == nil {
		return nil, preconditionErr("document must not be nil")
	}
	payload, err := c.marshal(doc)
	if err != nil {
		return nil, err
	}
	resp, err := c.execute(ctx, &transport.Request{
		Method:      http.MethodPost,
		URL:         c.DatabaseURL(),
		Body:        bytes.NewReader(payload),
		ContentType: contentTypeJSON,
		Accept:      contentTypeJSON,
	})
	if err != nil {
		return nil, err
	}
	return c.writeResult(resp)
}

// Batch stores a document in batch mode (batch=ok): the server may answer
// before the write is durable.
func (c *Client) Batch(ctx context.Context, doc any) error {
	if doc == nil {
		return preconditionErr("document must not be nil")
	}
	payload, err := c.marshal(doc)
	if err != nil {
		return err
	}
	return c.postJSON(ctx, c.dbURI().param("batch", "ok").build(), payload, nil)
}

// Remove deletes a document given its id and current revision. A missing
// document matches ErrNotFound.
func (c *Client) Remove(ctx context.Context, id, rev string) (*WriteResult, error) {
	if id == "" || rev == "" {
		return nil, preconditionErr("document id and revision are required for a delete")
	}
	resp, err := c.execute(ctx, &transport.Request{
		Method: http.MethodDelete,
		URL:    c.dbURI().path(id).param("rev", rev).build(),
		Accept: contentTypeJSON,
	})
	if err != nil {
		return nil, err
	}
	return c.writeResult(resp)
}

// RemoveDoc extracts id and revision from doc and deletes it.
func (c *Client) RemoveDoc(ctx context.Context, doc any) (*WriteResult, error) {
	if doc == nil {
		return nil, preconditionErr("document must not be nil")
	}
	id, rev, err := docIdentity(c.codec, doc)
	if err != nil {
		return nil, err
	}
	return c.Remove(ctx, id, rev)
}

// bulkEnvelope wraps a bulk request. With NewEdits false the server accepts
// the supplied revision history verbatim, as replication does.
type bulkEnvelope struct {
	NewEdits bool  `json:"new_edits"`
	Docs     []any `json:"docs"`
}

// Bulk stores a batch of documents in one request and returns one result per
// input document, in input order. A per-item rejection never fails the call;
// inspect each entry's Succeeded or Err.
func (c *Client) Bulk(ctx context.Context, docs []any, newEdits bool) ([]WriteResult, error) {
	if len(docs) == 0 {
		return nil, preconditionErr("docs must not be empty")
	}
	payload, err := c.marshal(bulkEnvelope{NewEdits: newEdits, Docs: docs})
	if err != nil {
		return nil, err
	}
	var results []WriteResult
	if err := c.postJSON(ctx, c.dbURI().path("_bulk_docs").build(), payload, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// SaveAttachment uploads raw bytes as an attachment named name under the
// given document. With an empty docID a new container document is created
// with a client-generated id; docRev must then be empty too.
func (c *Client) SaveAttachment(ctx context.Context, r io.Reader, name, contentType, docID, docRev string) (*WriteResult, error) {
	if r == nil {
		return nil, preconditionErr("attachment reader must not be nil")
	}
	if name == "" || contentType == "" {
		return nil, preconditionErr("attachment name and content type must not be empty")
	}
	if docID == "" {
		if docRev != "" {
			return nil, preconditionErr("docRev must be empty when docID is empty")
		}
		docID = uuid.NewString()
	}

	b := c.dbURI().path(docID, name)
	if docRev != "" {
		b.param("rev", docRev)
	}
	resp, err := c.execute(ctx, &transport.Request{
		Method:      http.MethodPut,
		URL:         b.build(),
		Body:        r,
		ContentType: contentType,
		Accept:      contentTypeJSON,
	})
	if err != nil {
		return nil, err
	}
	return c.writeResult(resp)
}

// Attachment fetches an attachment's raw bytes without buffering. The caller
// must close the stream to release the connection.
func (c *Client) Attachment(ctx context.Context, docID, name string) (io.ReadCloser, error) {
	if docID == "" || name == "" {
		return nil, preconditionErr("docID and name must not be empty")
	}
	resp, err := c.execute(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    c.dbURI().path(docID, name).build(),
	})
	if err != nil {
		return nil, err
	}
	return c.bodyStream(resp)
}

// findEnvelope wraps the _find response.
type findEnvelope struct {
	Docs []json.RawMessage `json:"docs"`
}

// FindDocs runs a declarative _find query and decodes the matched documents
// into dst, which must be a non-nil pointer to a slice. Each element of the
// docs array is decoded independently; one malformed element fails the whole
// call with a decode-kind error. The query may be a raw JSON string or any
// value the codec can serialize.
func (c *Client) FindDocs(ctx context.Context, query any, dst any) error {
	if query == nil {
		return preconditionErr("query must not be nil")
	}
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Slice {
		return preconditionErr("dst must be a non-nil pointer to a slice")
	}

	var payload []byte
	switch q := query.(type) {
	case string:
		payload = []byte(q)
	case []byte:
		payload = q
	default:
		var err error
		payload, err = c.marshal(query)
		if err != nil {
			return err
		}
	}

	var envelope findEnvelope
	if err := c.postJSON(ctx, c.dbURI().path("_find").build(), payload, &envelope); err != nil {
		return err
	}

	slice := rv.Elem()
	out := reflect.MakeSlice(slice.Type(), 0, len(envelope.Docs))
	elemType := slice.Type().Elem()
	for _, raw := range envelope.Docs {
		elem := reflect.New(elemType)
		if err := c.codec.Unmarshal(raw, elem.Interface()); err != nil {
			return decodeErr(err)
		}
		out = reflect.Append(out, elem.Elem())
	}
	slice.Set(out)
	return nil
}

func (c *Client) marshal(v any) ([]byte, error) {
	data, err := c.codec.Marshal(v)
	if err != nil {
		return nil, decodeErr(err)
	}
	return data, nil
}
