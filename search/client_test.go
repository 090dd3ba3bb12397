package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndSwitchIndex(t *testing.T) {
	var created Mapping
	switched := false
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/index/create", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer search-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /api/index/switchIndex", func(w http.ResponseWriter, r *http.Request) {
		switched = true
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := NewClient(server.URL, "search-token", nil)
	ctx := context.Background()

	mapping := Mapping{"https://example.org/label": {Key: "https://example.org/label", Properties: map[string]any{"a": "b"}}}
	require.NoError(t, c.CreateIndex(ctx, mapping))
	require.Contains(t, created, "https://example.org/label")
	assert.Equal(t, "b", created["https://example.org/label"].Properties["a"])

	require.NoError(t, c.SwitchIndex(ctx))
	assert.True(t, switched)
}

func TestCreateIndexRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid mapping", http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewClient(server.URL, "", nil).CreateIndex(context.Background(), Mapping{})
	require.Error(t, err)
}

