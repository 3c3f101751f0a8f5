package couchkit

import (
	"context"
	"io"
	"net/http"

	"github.com/couchkit/couchkit-go/transport"
)

// DatabaseInfo describes the state of a database.
type DatabaseInfo struct {
	DBName      string `json:"db_name"`
	DocCount    int64  `json:"doc_count"`
	DocDelCount int64  `json:"doc_del_count"`
	UpdateSeq   Seq    `json:"update_seq"`
	DiskSize    int64  `json:"disk_size"`
	CompactRunning bool `json:"compact_running"`
}

// CreateDatabase creates the database this client is bound to.
func (c *Client) CreateDatabase(ctx context.Context) error {
	resp, err := c.execute(ctx, &transport.Request{
		Method: http.MethodPut,
		URL:    c.DatabaseURL(),
		Accept: contentTypeJSON,
	})
	if err != nil {
		return err
	}
	return c.decodeBody(resp, nil)
}

// DeleteDatabase deletes the database this client is bound to.
func (c *Client) DeleteDatabase(ctx context.Context) error {
	resp, err := c.execute(ctx, &transport.Request{
		Method: http.MethodDelete,
		URL:    c.DatabaseURL(),
		Accept: contentTypeJSON,
	})
	if err != nil {
		return err
	}
	return c.decodeBody(resp, nil)
}

// DatabaseExists probes for the database with a HEAD request.
func (c *Client) DatabaseExists(ctx context.Context) (bool, error) {
	resp, err := c.execute(ctx, &transport.Request{
		Method: http.MethodHead,
		URL:    c.DatabaseURL(),
	})
	if err != nil {
		return false, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, statusErr(resp.StatusCode, resp.Status, nil)
	}
}

// EnsureDatabase creates the database unless it already exists.
func (c *Client) EnsureDatabase(ctx context.Context) error {
	exists, err := c.DatabaseExists(ctx)
	if err != nil || exists {
		return err
	}
	return c.CreateDatabase(ctx)
}

// DatabaseInfo fetches the state of the database.
func (c *Client) DatabaseInfo(ctx context.Context) (*DatabaseInfo, error) {
	var info DatabaseInfo
	if err := c.getJSON(ctx, c.DatabaseURL(), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ServerVersion returns the version reported by the server root endpoint.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	var welcome struct {
		Version string `json:"version"`
	}
	if err := c.getJSON(ctx, c.BaseURL(), &welcome); err != nil {
		return "", err
	}
	return welcome.Version, nil
}

// UUIDs asks the server for count fresh unique identifiers.
func (c *Client) UUIDs(ctx context.Context, count int) ([]string, error) {
	if count <= 0 {
		return nil, preconditionErr("count must be positive")
	}
	var result struct {
		UUIDs []string `json:"uuids"`
	}
	uri := c.baseURI().path("_uuids").param("count", count).build()
	if err := c.getJSON(ctx, uri, &result); err != nil {
		return nil, err
	}
	return result.UUIDs, nil
}
