package couchkit

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryView(t *testing.T) {
	t.Run("queries the view path and decodes rows", func(t *testing.T) {
		var gotPath string
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			writeJSON(w, http.StatusOK, `{
				"total_rows":2,
				"offset":0,
				"rows":[
					{"id":"a","key":"bolt","value":1},
					{"id":"b","key":"nut","value":2}
				]
			}`)
		}))

		result, err := client.QueryView(context.Background(), "app", "by_name")
		require.NoError(t, err)

		assert.Equal(t, "/testdb/_design/app/_view/by_name", gotPath)
		assert.Equal(t, int64(2), result.TotalRows)
		require.Len(t, result.Rows, 2)
		assert.Equal(t, "a", result.Rows[0].ID)

		var key string
		require.NoError(t, json.Unmarshal(result.Rows[0].Key, &key))
		assert.Equal(t, "bolt", key)
	})

	t.Run("key parameters are JSON encoded", func(t *testing.T) {
		var gotQuery map[string][]string
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query()
			writeJSON(w, http.StatusOK, `{"rows":[]}`)
		}))

		_, err := client.QueryView(context.Background(), "app", "by_name",
			ViewKey("bolt"),
			ViewStartKey([]any{"a", 1}),
			ViewEndKey(42),
			ViewLimit(5),
			ViewSkip(2),
			ViewDescending(),
			ViewReduce(false),
			ViewIncludeDocs(),
		)
		require.NoError(t, err)

		assert.Equal(t, `"bolt"`, gotQuery["key"][0])
		assert.Equal(t, `["a",1]`, gotQuery["startkey"][0])
		assert.Equal(t, `42`, gotQuery["endkey"][0])
		assert.Equal(t, "5", gotQuery["limit"][0])
		assert.Equal(t, "2", gotQuery["skip"][0])
		assert.Equal(t, "true", gotQuery["descending"][0])
		assert.Equal(t, "false", gotQuery["reduce"][0])
		assert.Equal(t, "true", gotQuery["include_docs"][0])
	})

	t.Run("requires design and view names", func(t *testing.T) {
		client, err := New(WithDatabase("testdb"), WithTransport(&failTransport{t: t}))
		require.NoError(t, err)

		_, err = client.QueryView(context.Background(), "", "by_name")
		assert.True(t, IsPrecondition(err))
	})
}

func TestDesignDocs(t *testing.T) {
	t.Run("GetDesignDoc fetches under the design prefix", func(t *testing.T) {
		var gotPath string
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			writeJSON(w, http.StatusOK, `{
				"_id":"_design/app",
				"_rev":"3-c",
				"language":"javascript",
				"views":{"by_name":{"map":"function(doc){emit(doc.name,1)}"}}
			}`)
		}))

		doc, err := client.GetDesignDoc(context.Background(), "app")
		require.NoError(t, err)

		assert.Equal(t, "/testdb/_design/app", gotPath)
		assert.Equal(t, "_design/app", doc.ID)
		assert.Equal(t, "javascript", doc.Language)
		require.Contains(t, doc.Views, "by_name")
		assert.Contains(t, doc.Views["by_name"].Map, "emit")
	})

	t.Run("PutDesignDoc creates when no revision is present", func(t *testing.T) {
		var gotPath string
		var gotBody DesignDoc
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPut, r.Method)
			gotPath = r.URL.EscapedPath()
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			writeJSON(w, http.StatusCreated, `{"ok":true,"id":"_design/app","rev":"1-a"}`)
		}))

		doc := &DesignDoc{
			Language: "javascript",
			Views:    map[string]ViewDef{"by_name": {Map: "function(doc){emit(doc.name,1)}"}},
		}
		result, err := client.PutDesignDoc(context.Background(), "app", doc)
		require.NoError(t, err)

		assert.Equal(t, "/testdb/_design/app", gotPath)
		assert.Equal(t, "_design/app", gotBody.ID)
		assert.Equal(t, "1-a", result.Rev)
	})

	t.Run("PutDesignDoc updates when a revision is present", func(t *testing.T) {
		var gotBody DesignDoc
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			writeJSON(w, http.StatusCreated, `{"ok":true,"id":"_design/app","rev":"2-b"}`)
		}))

		doc := &DesignDoc{Document: Document{Rev: "1-a"}}
		result, err := client.PutDesignDoc(context.Background(), "app", doc)
		require.NoError(t, err)

		assert.Equal(t, "1-a", gotBody.Rev)
		assert.Equal(t, "2-b", result.Rev)
	})
}
