package couchkit

import (
	"context"
	"io"
)

// Reader provides document read operations.
type Reader interface {
	// Find fetches the latest revision of a document into dst.
	Find(ctx context.Context, id string, dst any) error

	// FindRev fetches a specific revision of a document into dst.
	FindRev(ctx context.Context, id, rev string, dst any) error

	// Contains probes for a document's existence.
	Contains(ctx context.Context, id string) (bool, error)

	// FindDocs runs a declarative query and decodes matches into dst.
	FindDocs(ctx context.Context, query any, dst any) error
}

// Writer provides document write operations.
type Writer interface {
	// Save stores a new document.
	Save(ctx context.Context, doc any) (*WriteResult, error)

	// Update stores a new revision of an existing document.
	Update(ctx context.Context, doc any) (*WriteResult, error)

	// Remove deletes a document by id and revision.
	Remove(ctx context.Context, id, rev string) (*WriteResult, error)

	// Bulk stores a batch of documents in one request.
	Bulk(ctx context.Context, docs []any, newEdits bool) ([]WriteResult, error)

	// SaveAttachment uploads raw bytes as a document attachment.
	SaveAttachment(ctx context.Context, r io.Reader, name, contentType, docID, docRev string) (*WriteResult, error)
}

// ReadWriter combines read and write operations.
type ReadWriter interface {
	Reader
	Writer
}

// Notifier provides access to the change notification feed.
type Notifier interface {
	Changes(opts ...ChangesOption) *Changes
}

// Ensure Client implements all interfaces.
var (
	_ Reader     = (*Client)(nil)
	_ Writer     = (*Client)(nil)
	_ ReadWriter = (*Client)(nil)
	_ Notifier   = (*Client)(nil)
)
