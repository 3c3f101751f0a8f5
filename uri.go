package couchkit

import (
	"fmt"
	"net/url"
	"strings"
)

// uriBuilder assembles absolute request URIs from path segments and query
// parameters. Segments are path-escaped individually so document and
// attachment names containing reserved characters stay intact.
type uriBuilder struct {
	base     string
	segments []string
	query    url.Values
}

func newURIBuilder(base string) *uriBuilder {
	return &uriBuilder{
		base:  strings.TrimSuffix(base, "/"),
		query: url.Values{},
	}
}

// path appends one or more path segments.
func (b *uriBuilder) path(segments ...string) *uriBuilder {
	b.segments = append(b.segments, segments...)
	return b
}

// param appends a query parameter. Supported value types are string, bool
// and the integer kinds; everything else is formatted with %v.
func (b *uriBuilder) param(key string, value any) *uriBuilder {
	switch v := value.(type) {
	case string:
		b.query.Add(key, v)
	case bool:
		b.query.Add(key, fmt.Sprintf("%t", v))
	case int:
		b.query.Add(key, fmt.Sprintf("%d", v))
	case int64:
		b.query.Add(key, fmt.Sprintf("%d", v))
	default:
		b.query.Add(key, fmt.Sprintf("%v", v))
	}
	return b
}

// build renders the absolute URI.
func (b *uriBuilder) build() string {
	var sb strings.Builder
	sb.WriteString(b.base)
	for _, seg := range b.segments {
		sb.WriteByte('/')
		sb.WriteString(escapeSegment(seg))
	}
	if len(b.query) > 0 {
		sb.WriteByte('?')
		sb.WriteString(b.query.Encode())
	}
	return sb.String()
}

// escapeSegment path-escapes one segment. Design document ids keep their
// path shape: a segment like "_design/app" escapes to "_design/app", not
// "_design%2Fapp", matching how the server addresses them.
func escapeSegment(seg string) string {
	if parts := strings.SplitN(seg, "/", 2); len(parts) == 2 && strings.HasPrefix(parts[0], "_") {
		return parts[0] + "/" + url.PathEscape(parts[1])
	}
	return url.PathEscape(seg)
}
