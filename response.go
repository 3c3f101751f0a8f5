package couchkit

import (
	"io"
	"net/http"
)

const contentTypeJSON = "application/json"

// WriteResult is returned by every mutating call. On success it carries the
// document id and the new revision token. In bulk responses a single entry
// may instead report a per-item rejection through Error and Reason.
type WriteResult struct {
	ID     string `json:"id"`
	Rev    string `json:"rev"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Succeeded reports whether this entry was accepted by the server. An entry
// with no success indicator counts as failed.
func (r WriteResult) Succeeded() bool {
	return r.OK && r.Error == ""
}

// Err returns the per-item rejection as an error, or nil if the entry
// succeeded. A conflict rejection matches ErrConflict.
func (r WriteResult) Err() error {
	if r.Succeeded() {
		return nil
	}
	e := &Error{Kind: KindServer, Message: r.Reason}
	if e.Message == "" {
		e.Message = r.Error
	}
	if e.Message == "" {
		e.Message = "rejected"
	}
	if r.Error == "conflict" {
		e.Kind = KindConflict
	}
	return e
}

// validate classifies the response status. 200, 201 and 202 pass; any other
// status drains the body fully, closes it to release the pooled connection,
// and returns the typed error.
func (c *Client) validate(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return statusErr(resp.StatusCode, resp.Status, body)
}

// decodeBody validates the response and decodes its JSON body into dst
// through the codec. The body is always drained and closed, on failure paths
// included. Pass a nil dst to discard the body.
func (c *Client) decodeBody(resp *http.Response, dst any) error {
	if err := c.validate(resp); err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if dst == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportErr("read response body", err)
	}
	if err := c.codec.Unmarshal(data, dst); err != nil {
		return decodeErr(err)
	}
	return nil
}

// bodyStream validates the response and hands the raw, unbuffered body to
// the caller, who must close it to release the connection.
func (c *Client) bodyStream(resp *http.Response) (io.ReadCloser, error) {
	if err := c.validate(resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// writeResult decodes the standard mutation response.
func (c *Client) writeResult(resp *http.Response) (*WriteResult, error) {
	var result WriteResult
	if err := c.decodeBody(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
