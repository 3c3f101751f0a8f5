package couchkit

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplicate(t *testing.T) {
	t.Run("posts the request to the replicate endpoint", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]any
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			gotPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			writeJSON(w, http.StatusOK, `{"ok":true,"session_id":"abc123"}`)
		}))

		result, err := client.Replicate(context.Background(), ReplicationRequest{
			Source:       "testdb",
			Target:       "testdb-mirror",
			CreateTarget: true,
		})
		require.NoError(t, err)

		assert.Equal(t, "/_replicate", gotPath)
		assert.Equal(t, "testdb", gotBody["source"])
		assert.Equal(t, "testdb-mirror", gotBody["target"])
		assert.Equal(t, true, gotBody["create_target"])
		assert.True(t, result.OK)
		assert.Equal(t, "abc123", result.SessionID)
	})

	t.Run("continuous replication answers with a local id", func(t *testing.T) {
		var gotBody map[string]any
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			writeJSON(w, http.StatusAccepted, `{"ok":true,"_local_id":"rep-1"}`)
		}))

		result, err := client.Replicate(context.Background(), ReplicationRequest{
			Source:     "testdb",
			Target:     "http://other.example.com:5984/testdb",
			Continuous: true,
		})
		require.NoError(t, err)

		assert.Equal(t, true, gotBody["continuous"])
		assert.Equal(t, "rep-1", result.LocalID)
	})

	t.Run("requires source and target before any request", func(t *testing.T) {
		client, err := New(WithDatabase("testdb"), WithTransport(&failTransport{t: t}))
		require.NoError(t, err)

		_, err = client.Replicate(context.Background(), ReplicationRequest{Source: "testdb"})
		assert.True(t, IsPrecondition(err))
	})
}
