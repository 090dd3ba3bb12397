package indexing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semcrawl/graph"
	"github.com/c360studio/semcrawl/metadata"
	"github.com/c360studio/semcrawl/vocabulary/colid"
)

func build(t *testing.T, b *Builder, r *graph.Resource, cto *graph.ResourcesCTO, inbound bool) Document {
	t.Helper()
	props, err := b.meta.ForEntityType(context.Background(), r.Type())
	require.NoError(t, err)
	doc, err := b.Build(context.Background(), &ResourceIndexingDTO{
		Action:        ActionUpdate,
		PidURI:        r.PidURI,
		Resource:      r,
		RepoResources: cto,
	}, props, inbound)
	require.NoError(t, err)
	return doc
}

func TestBuild_ScalarsAndVocabulary(t *testing.T) {
	r := newResource("https://pid.example.org/r#draft", "https://pid.example.org/r", graph.LifecycleDraft)
	r.Properties.Add(colid.HasKeyword, graph.Reference(keywordClimate))
	r.Properties.Add(colid.DateCreated, graph.Scalar("2024-03-01T11:00:00+01:00"))

	b := NewBuilder(datasetMetadata(), newLabels(), nil)
	doc := build(t, b, r, &graph.ResourcesCTO{Draft: r}, false)

	require.Len(t, doc.Outbound(colid.RDFType), 1)
	assert.Equal(t, "Dataset", doc.Outbound(colid.RDFType)[0].Value)
	assert.Equal(t, typeDataset, doc.Outbound(colid.RDFType)[0].URI)

	require.Len(t, doc.Outbound(colid.HasKeyword), 1)
	assert.Equal(t, &DirectionProperty{Value: "Climate", URI: keywordClimate}, doc.Outbound(colid.HasKeyword)[0])

	require.Len(t, doc.Outbound(colid.DateCreated), 1)
	assert.Equal(t, "2024-03-01T10:00:00.0000000Z", doc.Outbound(colid.DateCreated)[0].Value)

	assert.Equal(t, "Resource https://pid.example.org/r", doc.Outbound(colid.RDFSLabel)[0].Value)
	assert.Len(t, doc.Outbound(colid.HasEntryLifecycleStatus), 1, "whitelisted technical property is kept")
	assert.NotContains(t, doc, colid.HasPID, "technical property is dropped")

	assert.Equal(t, "https://pid.example.org/r", doc.Outbound(KeyResourceID)[0].URI)
	assert.Equal(t, "https://pid.example.org/r#draft", doc.Outbound(KeyInternalResourceID)[0].URI)
	hash, ok := doc.Outbound(KeyResourceHash)[0].Value.(string)
	require.True(t, ok)
	assert.Len(t, hash, 128)
	assert.NotContains(t, doc, KeyHasDraft)
	assert.NotContains(t, doc, KeyHasPublished)
}

func TestBuild_SkipsUnlabelledTerm(t *testing.T) {
	r := newResource("https://pid.example.org/r#draft", "https://pid.example.org/r", graph.LifecycleDraft)
	r.Properties.Add(colid.HasKeyword, graph.Reference("https://pid.example.org/keyword/unknown"))

	doc := build(t, NewBuilder(datasetMetadata(), newLabels(), nil), r, nil, false)

	assert.Empty(t, doc.Outbound(colid.HasKeyword))
	assert.NotEmpty(t, doc.Outbound(colid.RDFType), "other properties are still emitted")
}

func TestBuild_Links(t *testing.T) {
	r := newResource("https://pid.example.org/r#published", "https://pid.example.org/r", graph.LifecyclePublished)

	source := linkedEntity("https://pid.example.org/source")
	source.Properties.Add(isDerivedFrom, graph.Nested(linkedEntity("https://pid.example.org/deep")))
	r.Properties.Add(isDerivedFrom, graph.Nested(source))

	draftLink := linkedEntity("https://pid.example.org/unpublished")
	draftLink.Properties[colid.HasEntryLifecycleStatus] = []graph.Value{graph.Reference(colid.LifecycleDraft)}
	r.Properties.Add(isDerivedFrom, graph.Nested(draftLink))

	r.InboundProperties.Add(isDerivedFrom, graph.Nested(linkedEntity("https://pid.example.org/derived")))

	b := NewBuilder(datasetMetadata(), newLabels(), nil)

	t.Run("outbound only", func(t *testing.T) {
		doc := build(t, b, r, nil, false)
		out := doc.Outbound(colid.GroupLinkTypes)
		require.Len(t, out, 1, "draft link targets are skipped")
		assert.Equal(t, isDerivedFrom, out[0].Edge)
		assert.Equal(t, source.ID, out[0].URI)

		nested, ok := out[0].Value.(Document)
		require.True(t, ok, "first level is expanded")
		assert.Equal(t, "Dataset", nested.Outbound(colid.RDFType)[0].Value)

		deep := nested.Outbound(colid.GroupLinkTypes)
		require.Len(t, deep, 1)
		assert.Equal(t, "https://pid.example.org/deep#published", deep[0].Value, "expansion stops at the linking level")
		assert.Empty(t, doc.Inbound(colid.GroupLinkTypes))
	})

	t.Run("with inbound", func(t *testing.T) {
		doc := build(t, b, r, nil, true)
		in := doc.Inbound(colid.GroupLinkTypes)
		require.Len(t, in, 1)
		assert.Equal(t, "https://pid.example.org/derived#published", in[0].URI)
		assert.Len(t, doc.Outbound(colid.GroupLinkTypes), 1)
	})
}

func TestBuild_MainDistribution(t *testing.T) {
	const endpointType = "https://pid.example.org/kos/BrowsableResource"
	meta := datasetMetadata()
	main := prop(colid.MainDistribution)
	main.NestedMetadata = []metadata.Metadata{{
		Key:        endpointType,
		Properties: []metadata.Property{prop(colid.RDFSLabel)},
	}}
	meta[typeDataset] = append(meta[typeDataset], main)

	endpoint := graph.NewEntity("https://pid.example.org/endpoint/1")
	endpoint.Properties.Add(colid.RDFType, graph.Reference(endpointType))
	endpoint.Properties.Add(colid.RDFSLabel, graph.Scalar("Main endpoint"))

	r := newResource("https://pid.example.org/r#published", "https://pid.example.org/r", graph.LifecyclePublished)
	r.Properties.Add(colid.MainDistribution, graph.Nested(endpoint))

	doc := build(t, NewBuilder(meta, newLabels(), nil), r, nil, false)

	dist := doc.Outbound(colid.Distribution)
	require.Len(t, dist, 1)
	assert.Equal(t, colid.Distribution, dist[0].Edge)
	nested, ok := dist[0].Value.(Document)
	require.True(t, ok)
	assert.Equal(t, "Main endpoint", nested.Outbound(colid.RDFSLabel)[0].Value)

	points := doc.Outbound(colid.PointsAt)
	require.Len(t, points, 1)
	assert.Equal(t, endpoint.ID, points[0].URI)
	assert.NotContains(t, doc, colid.MainDistribution)
}

func TestBuild_Sibling(t *testing.T) {
	draft := newResource("https://pid.example.org/r#draft", "https://pid.example.org/r", graph.LifecycleDraft)
	published := newResource("https://pid.example.org/r#published", "https://pid.example.org/r", graph.LifecyclePublished)
	cto := &graph.ResourcesCTO{Draft: draft, Published: published}
	b := NewBuilder(datasetMetadata(), newLabels(), nil)

	doc := build(t, b, published, cto, false)
	require.Contains(t, doc, KeyHasDraft)
	assert.Equal(t, colid.LifecycleDraft, doc.Outbound(KeyHasDraft)[0].Value)
	assert.Equal(t, draft.ID, doc.Outbound(KeyHasDraft)[0].URI)

	doc = build(t, b, draft, cto, false)
	require.Contains(t, doc, KeyHasPublished)
	assert.Equal(t, colid.LifecyclePublished, doc.Outbound(KeyHasPublished)[0].Value)
}

func chain() []graph.VersionOverview {
	return []graph.VersionOverview{
		{ID: "https://pid.example.org/v1#published", PidURI: "https://pid.example.org/v1", Version: "1", LifecycleStatus: graph.LifecyclePublished, LaterVersion: "https://pid.example.org/v2#published"},
		{ID: "https://pid.example.org/v2#published", PidURI: "https://pid.example.org/v2", Version: "2", LifecycleStatus: graph.LifecyclePublished, LaterVersion: "https://pid.example.org/v3#published"},
		{ID: "https://pid.example.org/v3#published", PidURI: "https://pid.example.org/v3", Version: "3", LifecycleStatus: graph.LifecyclePublished},
	}
}

func TestVersionsProperty(t *testing.T) {
	r := newResource("https://pid.example.org/v2#published", "https://pid.example.org/v2", graph.LifecyclePublished)
	r.Properties.Add(colid.HasVersion, graph.Scalar("2"))
	r.Versions = chain()

	doc := build(t, NewBuilder(datasetMetadata(), newLabels(), nil), r, nil, false)
	versions := doc[colid.HasVersions]
	require.NotNil(t, versions)

	require.Len(t, versions.Inbound, 1)
	assert.Equal(t, "https://pid.example.org/v1#published", versions.Inbound[0].URI)
	assert.Equal(t, colid.HasVersions, versions.Inbound[0].Edge)
	member, ok := versions.Inbound[0].Value.(Document)
	require.True(t, ok)
	assert.Equal(t, "https://pid.example.org/v1", member.Outbound(colid.HasPID)[0].Value)
	assert.Equal(t, "1", member.Outbound(colid.HasVersion)[0].Value)

	require.Len(t, versions.Outbound, 1)
	assert.Equal(t, "https://pid.example.org/v3#published", versions.Outbound[0].URI)
}

func TestVersionsProperty_Unpublished(t *testing.T) {
	members := chain()
	members[2].LifecycleStatus = graph.LifecycleDraft

	published := newResource("https://pid.example.org/v2#published", "https://pid.example.org/v2", graph.LifecyclePublished)
	published.Versions = members
	assert.Empty(t, versionsProperty(published).Outbound, "unpublished members are hidden from published resources")

	draft := newResource("https://pid.example.org/v2#draft", "https://pid.example.org/v2", graph.LifecycleDraft)
	draft.Versions = members
	assert.Len(t, versionsProperty(draft).Outbound, 1, "drafts see every member")
}

func TestVersionsProperty_FallsBackToVersionNumbers(t *testing.T) {
	r := newResource("https://pid.example.org/new#draft", "https://pid.example.org/new", graph.LifecycleDraft)
	r.Properties.Add(colid.HasVersion, graph.Scalar("2.0"))
	r.Versions = []graph.VersionOverview{
		{ID: "a", PidURI: "https://pid.example.org/a", Version: "1.5", LifecycleStatus: graph.LifecyclePublished},
		{ID: "b", PidURI: "https://pid.example.org/b", Version: "10.0", LifecycleStatus: graph.LifecyclePublished},
	}

	p := versionsProperty(r)
	require.Len(t, p.Inbound, 1)
	assert.Equal(t, "a", p.Inbound[0].URI)
	require.Len(t, p.Outbound, 1)
	assert.Equal(t, "b", p.Outbound[0].URI)
}

func TestBuild_RecoversPanic(t *testing.T) {
	r := newResource("https://pid.example.org/r#draft", "https://pid.example.org/r", graph.LifecycleDraft)
	labels := newLabels()
	labels.panics = true

	b := NewBuilder(datasetMetadata(), labels, nil)
	props, _ := b.meta.ForEntityType(context.Background(), typeDataset)
	doc, err := b.Build(context.Background(), &ResourceIndexingDTO{Action: ActionUpdate, PidURI: r.PidURI, Resource: r}, props, false)

	require.Error(t, err)
	assert.Nil(t, doc)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2024-01-02T03:04:05.1230000Z", formatDate("2024-01-02T03:04:05.123Z"))
	assert.Equal(t, "not a date", formatDate("not a date"))
}
