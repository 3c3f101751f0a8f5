package couchkit

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusErr(t *testing.T) {
	t.Run("404 maps to the not found kind", func(t *testing.T) {
		err := statusErr(http.StatusNotFound, "404 Not Found", []byte(`{"error":"not_found","reason":"missing"}`))
		assert.Equal(t, KindNotFound, err.Kind)
		assert.Equal(t, "missing", err.Message)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("409 maps to the conflict kind", func(t *testing.T) {
		err := statusErr(http.StatusConflict, "409 Conflict", []byte(`{"error":"conflict","reason":"Document update conflict."}`))
		assert.Equal(t, KindConflict, err.Kind)
		assert.True(t, errors.Is(err, ErrConflict))
	})

	t.Run("other statuses keep the raw body", func(t *testing.T) {
		body := []byte(`{"error":"unauthorized","reason":"Name or password is incorrect."}`)
		err := statusErr(http.StatusUnauthorized, "401 Unauthorized", body)
		assert.Equal(t, KindServer, err.Kind)
		assert.Equal(t, "Name or password is incorrect.", err.Message)
		assert.Equal(t, string(body), err.Body)
		assert.Equal(t, http.StatusUnauthorized, err.StatusCode)
	})

	t.Run("non-JSON body falls back to the status line", func(t *testing.T) {
		err := statusErr(http.StatusBadGateway, "502 Bad Gateway", []byte("<html>gateway error</html>"))
		assert.Equal(t, KindServer, err.Kind)
		assert.Equal(t, "502 Bad Gateway", err.Message)
	})
}

func TestErrorFormatting(t *testing.T) {
	err := statusErr(http.StatusNotFound, "404 Not Found", []byte(`{"reason":"missing"}`))
	msg := err.Error()
	assert.Contains(t, msg, "not_found")
	assert.Contains(t, msg, "missing")
	assert.Contains(t, msg, "404")
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := transportErr("GET http://127.0.0.1:5984/db/doc", cause)

	require.ErrorIs(t, err, cause)
	assert.True(t, IsTransport(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestKindPredicates(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		predicate func(error) bool
	}{
		{"not found", statusErr(404, "404 Not Found", nil), IsNotFound},
		{"conflict", statusErr(409, "409 Conflict", nil), IsConflict},
		{"precondition", preconditionErr("bad args"), IsPrecondition},
		{"transport", transportErr("GET /", errors.New("refused")), IsTransport},
		{"decode", decodeErr(errors.New("unexpected end of JSON input")), IsDecode},
		{"feed", feedErr(errors.New("stream reset")), IsFeed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.predicate(tc.err))
		})
	}

	t.Run("predicates do not cross-match", func(t *testing.T) {
		err := preconditionErr("bad args")
		assert.False(t, IsNotFound(err))
		assert.False(t, IsConflict(err))
		assert.False(t, IsTransport(err))
	})

	t.Run("nil never matches", func(t *testing.T) {
		assert.False(t, IsNotFound(nil))
		assert.False(t, IsFeed(nil))
	})
}
