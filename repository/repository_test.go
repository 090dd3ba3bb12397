package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semcrawl/fault"
	"github.com/c360studio/semcrawl/graph"
	"github.com/c360studio/semcrawl/sparql"
	"github.com/c360studio/semcrawl/storage"
	"github.com/c360studio/semcrawl/vocabulary/colid"
)

const (
	pid        = "https://pid.example.org/r1"
	draftGraph = "https://example.org/graph/draft"
	pubGraph   = "https://example.org/graph/published"
)

// fakeStore answers queries by matching a marker in the query text.
type fakeStore struct {
	answers map[string][]sparql.Binding
	queries []string
}

func (f *fakeStore) Query(_ context.Context, q *sparql.Query) (*sparql.ResultSet, error) {
	text, err := q.Build()
	if err != nil {
		return nil, err
	}
	f.queries = append(f.queries, text)
	rs := &sparql.ResultSet{}
	for marker, bindings := range f.answers {
		if strings.Contains(text, marker) {
			rs.Results.Bindings = bindings
			break
		}
	}
	return rs, nil
}

func iri(v string) sparql.Term { return sparql.Term{Type: sparql.TypeURI, Value: v} }
func lit(v string) sparql.Term { return sparql.Term{Type: sparql.TypeLiteral, Value: v} }

func testGraphs() Graphs {
	return Graphs{
		Draft:     draftGraph,
		Published: pubGraph,
		Metadata:  []string{"https://example.org/graph/metadata"},
		Entities:  []string{"https://example.org/graph/taxonomy"},
	}
}

func TestQueriesRejectInvalidIdentifiers(t *testing.T) {
	assert.Nil(t, ExistsQuery("", draftGraph, nil))
	assert.Nil(t, ResourceQuery("not an iri", []string{draftGraph}, nil))
	assert.Nil(t, VersionsQuery("relative/pid", []string{draftGraph}))
	assert.Nil(t, EntityQuery("", nil))
}

func TestQueriesBuild(t *testing.T) {
	metadata := []string{"https://example.org/graph/metadata"}
	for name, q := range map[string]*sparql.Query{
		"exists":   ExistsQuery(pid, draftGraph, metadata),
		"resource": ResourceQuery(pid, []string{draftGraph, pubGraph}, metadata),
		"versions": VersionsQuery(pid, []string{draftGraph, pubGraph}),
		"all":      AllPidURIsQuery([]string{draftGraph, pubGraph}, metadata),
		"entity":   EntityQuery("https://example.org/term/1", metadata),
	} {
		t.Run(name, func(t *testing.T) {
			require.NotNil(t, q)
			text, err := q.Build()
			require.NoError(t, err)
			assert.NotContains(t, text, " @")
		})
	}

	text, err := ExistsQuery(pid, draftGraph, metadata).Build()
	require.NoError(t, err)
	assert.Contains(t, text, "FILTER NOT EXISTS { ?publishedSubject <"+colid.HasDraft+"> ?subject }")
}

func TestResourcesExists(t *testing.T) {
	ctx := context.Background()

	t.Run("reports lifecycle status", func(t *testing.T) {
		store := &fakeStore{answers: map[string][]sparql.Binding{
			"LIMIT 1": {{"subject": iri("https://example.org/res/1"), "lifecycleStatus": iri(colid.LifecycleDraft)}},
		}}
		ok, status, err := NewResources(store, testGraphs(), nil).Exists(ctx, pid, draftGraph)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, graph.LifecycleDraft, status)
	})

	t.Run("empty result does not exist", func(t *testing.T) {
		ok, _, err := NewResources(&fakeStore{}, testGraphs(), nil).Exists(ctx, pid, pubGraph)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("invalid pid short-circuits", func(t *testing.T) {
		store := &fakeStore{}
		ok, _, err := NewResources(store, testGraphs(), nil).Exists(ctx, "", draftGraph)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, store.queries)
	})
}

func TestResourcesFetch(t *testing.T) {
	subject := "https://example.org/res/1"
	store := &fakeStore{answers: map[string][]sparql.Binding{
		"?objectPidUri": {
			{"subject": iri(subject), "object": iri(subject), "predicate": iri(colid.HasPID), "object_": iri(pid)},
			{"subject": iri(subject), "object": iri(subject), "predicate": iri(colid.HasEntryLifecycleStatus), "object_": iri(colid.LifecycleDraft),
				"publishedVersion": iri("https://example.org/res/0")},
			{"subject": iri(subject), "object": iri(subject), "predicate": iri(colid.RDFSLabel), "object_": lit("Sales data")},
			{"subject": iri(subject), "object": iri("https://example.org/other"), "predicate": iri(colid.RDFSLabel), "object_": lit("Other"),
				"inbound": sparql.Term{Type: sparql.TypeTypedLiteral, Value: "true", Datatype: colid.XSDBoolean},
				"inboundPredicate": iri("https://example.org/links")},
		},
	}}

	resources, err := NewResources(store, testGraphs(), nil).Fetch(context.Background(), pid, []string{draftGraph})
	require.NoError(t, err)
	require.Len(t, resources, 1)

	r := resources[0]
	assert.Equal(t, pid, r.PidURI)
	assert.Equal(t, "https://example.org/res/0", r.PublishedVersion)
	assert.Equal(t, graph.LifecycleDraft, r.LifecycleStatus())
	assert.Equal(t, "Sales data", r.Properties.FirstString(colid.RDFSLabel))

	inbound := r.InboundProperties["https://example.org/links"]
	require.Len(t, inbound, 1)
	assert.Equal(t, graph.KindNested, inbound[0].Kind)
	assert.Equal(t, "Other", inbound[0].Entity.Properties.FirstString(colid.RDFSLabel))
}

func TestResourcesFetchWithoutGraphs(t *testing.T) {
	store := &fakeStore{}
	resources, err := NewResources(store, testGraphs(), nil).Fetch(context.Background(), pid, nil)
	require.NoError(t, err)
	assert.Empty(t, resources)
	assert.Empty(t, store.queries)
}

func TestResourcesVersions(t *testing.T) {
	version := func(id, number, later string) sparql.Binding {
		b := sparql.Binding{
			"resource":             iri(id),
			"pidUri":               iri(id + "/pid"),
			"version":              lit(number),
			"entryLifecycleStatus": iri(colid.LifecyclePublished),
		}
		if later != "" {
			b["laterVersion"] = iri(later)
		}
		return b
	}

	t.Run("ordered oldest first", func(t *testing.T) {
		store := &fakeStore{answers: map[string][]sparql.Binding{
			"?laterVersion": {
				version("https://example.org/v3", "3", ""),
				version("https://example.org/v1", "1", "https://example.org/v2"),
				version("https://example.org/v2", "2", "https://example.org/v3"),
			},
		}}
		versions, err := NewResources(store, testGraphs(), nil).Versions(context.Background(), pid, []string{pubGraph})
		require.NoError(t, err)
		require.Len(t, versions, 3)
		assert.Equal(t, "1", versions[0].Version)
		assert.Equal(t, "2", versions[1].Version)
		assert.Equal(t, "3", versions[2].Version)
		assert.Equal(t, graph.LifecyclePublished, versions[0].LifecycleStatus)
	})

	t.Run("broken chain keeps reachable part", func(t *testing.T) {
		store := &fakeStore{answers: map[string][]sparql.Binding{
			"?laterVersion": {
				version("https://example.org/v1", "1", "https://example.org/missing"),
				version("https://example.org/v3", "3", "https://example.org/v4"),
				version("https://example.org/v4", "4", ""),
			},
		}}
		versions, err := NewResources(store, testGraphs(), nil).Versions(context.Background(), pid, []string{pubGraph})
		require.NoError(t, err)
		require.Len(t, versions, 2)
		assert.Equal(t, "3", versions[0].Version)
		assert.Equal(t, "4", versions[1].Version)
	})
}

func TestResourcesAllPidURIs(t *testing.T) {
	store := &fakeStore{answers: map[string][]sparql.Binding{
		"VALUES": {
			{"pidUri": iri("https://pid.example.org/a")},
			{"pidUri": iri("https://pid.example.org/b")},
			{"pidUri": iri("https://pid.example.org/a")},
		},
	}}
	pids, err := NewResources(store, testGraphs(), nil).AllPidURIs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://pid.example.org/a", "https://pid.example.org/b"}, pids)
	require.Len(t, store.queries, 1)
	assert.Contains(t, store.queries[0], "FROM <"+draftGraph+">")
	assert.Contains(t, store.queries[0], "FROM <"+pubGraph+">")
}

func TestEntitiesLabel(t *testing.T) {
	ctx := context.Background()
	term := "https://example.org/term/1"

	t.Run("reads label and caches entity", func(t *testing.T) {
		store := &fakeStore{answers: map[string][]sparql.Binding{
			"<" + term + ">": {
				{"predicate": iri(colid.RDFType), "object": iri("https://example.org/Term")},
				{"predicate": iri(colid.RDFSLabel), "object": lit("Finance")},
			},
		}}
		entities := NewEntities(store, storage.NewMemoryCache(0), testGraphs().Entities, time.Minute, nil)

		label, err := entities.Label(ctx, term)
		require.NoError(t, err)
		assert.Equal(t, "Finance", label)

		entity, err := entities.GetEntity(ctx, term)
		require.NoError(t, err)
		assert.Equal(t, term, entity.ID)
		assert.Equal(t, "https://example.org/Term", entity.Type())
		assert.Len(t, store.queries, 1)
	})

	t.Run("falls back to pref label", func(t *testing.T) {
		store := &fakeStore{answers: map[string][]sparql.Binding{
			"<" + term + ">": {{"predicate": iri(colid.SKOSPrefLabel), "object": lit("Finanzen")}},
		}}
		label, err := NewEntities(store, storage.NewMemoryCache(0), testGraphs().Entities, time.Minute, nil).Label(ctx, term)
		require.NoError(t, err)
		assert.Equal(t, "Finanzen", label)
	})

	t.Run("unknown entity", func(t *testing.T) {
		_, err := NewEntities(&fakeStore{}, storage.NewMemoryCache(0), testGraphs().Entities, time.Minute, nil).Label(ctx, term)
		assert.ErrorIs(t, err, fault.ErrNotFound)
	})
}
