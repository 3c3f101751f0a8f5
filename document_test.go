package couchkit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument(t *testing.T) {
	t.Run("identity accessors", func(t *testing.T) {
		var d Document
		d.SetIDRev("doc1", "1-a")

		id, rev := d.IDRev()
		assert.Equal(t, "doc1", id)
		assert.Equal(t, "1-a", rev)
	})

	t.Run("empty identity is omitted from JSON", func(t *testing.T) {
		data, err := json.Marshal(struct {
			Document
			Name string `json:"name"`
		}{Name: "bolt"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"bolt"}`, string(data))
	})

	t.Run("identity serializes under the reserved keys", func(t *testing.T) {
		data, err := json.Marshal(Document{ID: "doc1", Rev: "1-a"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"_id":"doc1","_rev":"1-a"}`, string(data))
	})
}

func TestDynamicDocument(t *testing.T) {
	doc := DynamicDocument{"name": "bolt"}
	doc.SetIDRev("doc1", "1-a")

	id, rev := doc.IDRev()
	assert.Equal(t, "doc1", id)
	assert.Equal(t, "1-a", rev)
	assert.Equal(t, "bolt", doc["name"])

	t.Run("missing identity reads as empty", func(t *testing.T) {
		id, rev := DynamicDocument{}.IDRev()
		assert.Empty(t, id)
		assert.Empty(t, rev)
	})
}

func TestDocIdentity(t *testing.T) {
	codec := jsonCodec{}

	t.Run("embedded Document", func(t *testing.T) {
		doc := struct {
			Document
			Name string `json:"name"`
		}{Document: Document{ID: "doc1", Rev: "2-b"}, Name: "bolt"}

		id, rev, err := docIdentity(codec, doc)
		require.NoError(t, err)
		assert.Equal(t, "doc1", id)
		assert.Equal(t, "2-b", rev)
	})

	t.Run("plain map", func(t *testing.T) {
		id, rev, err := docIdentity(codec, map[string]any{"_id": "doc1", "_rev": "2-b"})
		require.NoError(t, err)
		assert.Equal(t, "doc1", id)
		assert.Equal(t, "2-b", rev)
	})

	t.Run("no identity fields", func(t *testing.T) {
		id, rev, err := docIdentity(codec, map[string]any{"name": "bolt"})
		require.NoError(t, err)
		assert.Empty(t, id)
		assert.Empty(t, rev)
	})

	t.Run("unserializable document is a decode error", func(t *testing.T) {
		_, _, err := docIdentity(codec, map[string]any{"ch": make(chan int)})
		assert.True(t, IsDecode(err))
	})
}

func TestEncodeWithID(t *testing.T) {
	codec := jsonCodec{}

	data, err := encodeWithID(codec, map[string]any{"name": "bolt", "count": 3}, "generated-id")
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "generated-id", fields["_id"])
	assert.Equal(t, "bolt", fields["name"])
	assert.Equal(t, float64(3), fields["count"])
}
