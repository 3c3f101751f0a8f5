package couchkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteResult(t *testing.T) {
	t.Run("accepted entry", func(t *testing.T) {
		r := WriteResult{ID: "a", Rev: "1-a", OK: true}
		assert.True(t, r.Succeeded())
		assert.NoError(t, r.Err())
	})

	t.Run("conflict rejection", func(t *testing.T) {
		r := WriteResult{ID: "b", Error: "conflict", Reason: "Document update conflict."}
		assert.False(t, r.Succeeded())
		assert.True(t, IsConflict(r.Err()))
		assert.Contains(t, r.Err().Error(), "Document update conflict.")
	})

	t.Run("other rejection", func(t *testing.T) {
		r := WriteResult{ID: "c", Error: "forbidden", Reason: "readers only"}
		assert.False(t, r.Succeeded())
		assert.False(t, IsConflict(r.Err()))
		assert.Contains(t, r.Err().Error(), "readers only")
	})

	t.Run("no success indicator counts as failed", func(t *testing.T) {
		r := WriteResult{ID: "d"}
		assert.False(t, r.Succeeded())
		assert.Error(t, r.Err())
	})
}
