package registration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semcrawl/metadata"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/taxonomyList", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://example.org/Keyword", r.URL.Query().Get("taxonomyType"))
		_ = json.NewEncoder(w).Encode([]Taxonomy{
			{ID: "https://example.org/k1", Name: "Finance", HasChild: true,
				Children: []Taxonomy{{ID: "https://example.org/k2", Name: "Tax", HasParent: true}}},
		})
	})
	mux.HandleFunc("GET /api/v3/metadata", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]metadata.Property{
			{Key: r.URL.Query().Get("entityType") + "/label", Properties: map[string]any{}},
		})
	})
	mux.HandleFunc("GET /api/v3/metadata/entityTypes/instantiable", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]string{"https://example.org/Dataset"})
	})
	mux.HandleFunc("POST /api/v3/metadata/merged", func(w http.ResponseWriter, r *http.Request) {
		var types []string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&types))
		out := make([]metadata.Property, 0, len(types))
		for _, typ := range types {
			out = append(out, metadata.Property{Key: typ + "/p"})
		}
		_ = json.NewEncoder(w).Encode(out)
	})
	return httptest.NewServer(mux)
}

func TestClient(t *testing.T) {
	server := newServer(t)
	defer server.Close()
	c := NewClient(server.URL, "", nil)
	ctx := context.Background()

	taxonomies, err := c.TaxonomyList(ctx, "https://example.org/Keyword")
	require.NoError(t, err)
	require.Len(t, taxonomies, 1)
	assert.True(t, taxonomies[0].HasChild)
	assert.Equal(t, "Tax", taxonomies[0].Children[0].Name)

	props, err := c.Metadata(ctx, "https://example.org/Dataset")
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "https://example.org/Dataset/label", props[0].Key)

	types, err := c.InstantiableTypes(ctx, "https://example.org/Resource")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.org/Dataset"}, types)

	merged, err := c.MergedMetadata(ctx, []string{"https://example.org/A", "https://example.org/B"})
	require.NoError(t, err)
	assert.Len(t, merged, 2)
}

func TestClientUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "", nil).TaxonomyList(context.Background(), "https://example.org/Keyword")
	require.Error(t, err)
}
