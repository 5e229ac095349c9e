package datastore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/naoka/internal/errors"
	"github.com/lepinkainen/naoka/internal/media"
	"github.com/lepinkainen/naoka/internal/provider/providertest"
)

type createRequest struct {
	Table   string           `json:"table"`
	PK      string           `json:"pk"`
	Replace bool             `json:"replace"`
	Rows    []map[string]any `json:"rows"`
}

func TestSQLiteStore_ExportMedia(t *testing.T) {
	var mu sync.Mutex
	var requests []createRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/naoka/-/create", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req createRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		requests = append(requests, req)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.BulkInsert(ctx, providertest.Records("myanimelist", media.Anime, 5), ConflictSkip)
	require.NoError(t, err)

	client, err := NewDatasetteClient(server.URL, "secret")
	require.NoError(t, err)

	sent, err := store.ExportMedia(ctx, client, "naoka", 2)
	require.NoError(t, err)
	assert.Equal(t, 5, sent)

	require.Len(t, requests, 3)
	assert.Equal(t, "media", requests[0].Table)
	assert.Equal(t, "id", requests[0].PK)
	assert.True(t, requests[0].Replace)
	assert.Len(t, requests[2].Rows, 1)
	assert.Equal(t, "anime:myanimelist:1", requests[0].Rows[0]["mapping"])
	assert.Nil(t, requests[0].Rows[0]["episodes"])
}

func TestDatasetteClient_Errors(t *testing.T) {
	_, err := NewDatasetteClient("", "")
	assert.True(t, errors.IsConfigurationError(err))

	_, err = NewDatasetteClient("not a url", "")
	assert.True(t, errors.IsConfigurationError(err))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok": false}`, http.StatusForbidden)
	}))
	defer server.Close()

	client, err := NewDatasetteClient(server.URL, "")
	require.NoError(t, err)
	err = client.BatchInsert(context.Background(), "naoka", "media", "id", []map[string]any{{"id": 1}})
	require.Error(t, err)

	var fetchErr *errors.RemoteFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusForbidden, fetchErr.StatusCode)
}

func TestRowToMap(t *testing.T) {
	type sample struct {
		Name    string `db:"name"`
		Skipped string
		Hidden  string `db:"-"`
		Count   *int   `db:"count"`
	}

	n := 3
	assert.Equal(t, map[string]any{"name": "a", "count": 3}, rowToMap(sample{Name: "a", Skipped: "x", Hidden: "y", Count: &n}))
	assert.Equal(t, map[string]any{"name": "", "count": nil}, rowToMap(&sample{}))
	assert.Empty(t, rowToMap(42))
}
