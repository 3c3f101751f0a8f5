package couchkit

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies the errors returned by this package.
type Kind int

const (
	// KindTransport marks a connection or I/O failure while executing a
	// request. Fatal to the call, never retried by the client.
	KindTransport Kind = iota + 1

	// KindDecode marks a malformed or unexpected response body.
	KindDecode

	// KindNotFound maps HTTP 404: the document or database does not exist.
	KindNotFound

	// KindConflict maps HTTP 409: the supplied revision is not the current
	// one. The caller must re-fetch and retry at the application level.
	KindConflict

	// KindPrecondition marks inconsistent caller arguments, such as a
	// revision supplied on create, detected before any request is issued.
	KindPrecondition

	// KindServer marks any other non-2xx status, carrying the status line
	// and the full response body.
	KindServer

	// KindFeed marks a read or parse failure on the changes feed. The feed
	// session is terminated.
	KindFeed
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPrecondition:
		return "precondition"
	case KindServer:
		return "server"
	case KindFeed:
		return "feed"
	default:
		return "unknown"
	}
}

// Sentinel errors for use with errors.Is.
var (
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "document not found"}
	ErrConflict     = &Error{Kind: KindConflict, Message: "document update conflict"}
	ErrPrecondition = &Error{Kind: KindPrecondition, Message: "invalid document arguments"}
)

// Error is the error type returned by all couchkit operations.
type Error struct {
	Kind       Kind
	Message    string // human-readable message
	StatusCode int    // HTTP status code, when the server answered
	Status     string // HTTP status line, when the server answered
	Body       string // drained response body on server failures
	Err        error  // wrapped cause, if any
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("couchkit [%s]: %s", e.Kind, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// Is implements errors.Is: two errors match when their kinds match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// IsNotFound reports whether err indicates a missing document or database.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err indicates a revision conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsPrecondition reports whether err indicates invalid caller arguments.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

// IsTransport reports whether err indicates a connection or I/O failure.
func IsTransport(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindTransport
}

// IsDecode reports whether err indicates a malformed response body.
func IsDecode(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindDecode
}

// IsFeed reports whether err indicates a changes feed failure.
func IsFeed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindFeed
}

func transportErr(op string, err error) *Error {
	return &Error{Kind: KindTransport, Message: op, Err: err}
}

func decodeErr(err error) *Error {
	return &Error{Kind: KindDecode, Message: "decode response", Err: err}
}

func preconditionErr(msg string) *Error {
	return &Error{Kind: KindPrecondition, Message: msg}
}

func feedErr(err error) *Error {
	return &Error{Kind: KindFeed, Message: "read continuous stream", Err: err}
}

// serverBody is the error envelope the database returns on failures.
type serverBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// statusErr maps a non-2xx status and its fully drained body to a typed
// error. 404 and 409 get their own kinds; everything else carries the
// status line plus the raw body text.
func statusErr(code int, status string, body []byte) *Error {
	var sb serverBody
	json.Unmarshal(body, &sb)

	message := sb.Reason
	if message == "" {
		message = status
	}

	e := &Error{
		Message:    message,
		StatusCode: code,
		Status:     status,
		Body:       string(body),
	}
	switch code {
	case 404:
		e.Kind = KindNotFound
	case 409:
		e.Kind = KindConflict
	default:
		e.Kind = KindServer
	}
	return e
}
