package couchkit

import (
	"context"
	"encoding/json"
)

// DesignDoc is a design document holding view definitions.
type DesignDoc struct {
	Document
	Language string             `json:"language,omitempty"`
	Views    map[string]ViewDef `json:"views,omitempty"`
}

// ViewDef defines one view's map function and optional reduce function.
type ViewDef struct {
	Map    string `json:"map,omitempty"`
	Reduce string `json:"reduce,omitempty"`
}

// ViewResult holds the rows returned by a view query.
type ViewResult struct {
	TotalRows int64     `json:"total_rows"`
	Offset    int64     `json:"offset"`
	Rows      []ViewRow `json:"rows"`
}

// ViewRow is one row of a view result. Key and Value stay raw so callers
// decode them into whatever the view emits.
type ViewRow struct {
	ID    string          `json:"id"`
	Key   json.RawMessage `json:"key"`
	Value json.RawMessage `json:"value"`
	Doc   json.RawMessage `json:"doc,omitempty"`
}

// GetDesignDoc fetches the design document with the given short name.
func (c *Client) GetDesignDoc(ctx context.Context, name string) (*DesignDoc, error) {
	if name == "" {
		return nil, preconditionErr("design document name must not be empty")
	}
	var doc DesignDoc
	if err := c.Find(ctx, "_design/"+name, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// PutDesignDoc stores a design document under the given short name. The
// document id is derived from the name; a revision must be present when
// updating an existing design document.
func (c *Client) PutDesignDoc(ctx context.Context, name string, doc *DesignDoc) (*WriteResult, error) {
	if name == "" {
		return nil, preconditionErr("design document name must not be empty")
	}
	if doc == nil {
		return nil, preconditionErr("design document must not be nil")
	}
	doc.ID = "_design/" + name
	if doc.Rev == "" {
		return c.Save(ctx, doc)
	}
	return c.Update(ctx, doc)
}

// ViewOption configures a view query.
type ViewOption func(*uriBuilder) error

// ViewKey restricts the query to one key. The value is JSON-encoded as the
// server expects for key parameters.
func ViewKey(key any) ViewOption { return jsonViewParam("key", key) }

// ViewStartKey sets the first key of the queried range.
func ViewStartKey(key any) ViewOption { return jsonViewParam("startkey", key) }

// ViewEndKey sets the last key of the queried range.
func ViewEndKey(key any) ViewOption { return jsonViewParam("endkey", key) }

// ViewLimit caps the number of returned rows.
func ViewLimit(n int) ViewOption {
	return func(b *uriBuilder) error {
		b.param("limit", n)
		return nil
	}
}

// ViewSkip skips the first n rows.
func ViewSkip(n int) ViewOption {
	return func(b *uriBuilder) error {
		b.param("skip", n)
		return nil
	}
}

// ViewDescending reverses the row order.
func ViewDescending() ViewOption {
	return func(b *uriBuilder) error {
		b.param("descending", true)
		return nil
	}
}

// ViewReduce toggles the reduce step of a view that defines one.
func ViewReduce(reduce bool) ViewOption {
	return func(b *uriBuilder) error {
		b.param("reduce", reduce)
		return nil
	}
}

// ViewGroup groups reduce results by key.
func ViewGroup() ViewOption {
	return func(b *uriBuilder) error {
		b.param("group", true)
		return nil
	}
}

// ViewIncludeDocs embeds the full document in each row.
func ViewIncludeDocs() ViewOption {
	return func(b *uriBuilder) error {
		b.param("include_docs", true)
		return nil
	}
}

func jsonViewParam(name string, value any) ViewOption {
	return func(b *uriBuilder) error {
		data, err := json.Marshal(value)
		if err != nil {
			return decodeErr(err)
		}
		b.param(name, string(data))
		return nil
	}
}

// QueryView queries a view of a design document.
func (c *Client) QueryView(ctx context.Context, design, view string, opts ...ViewOption) (*ViewResult, error) {
	if design == "" || view == "" {
		return nil, preconditionErr("design and view names must not be empty")
	}
	b := c.dbURI().path("_design", design, "_view", view)
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	var result ViewResult
	if err := c.getJSON(ctx, b.build(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
