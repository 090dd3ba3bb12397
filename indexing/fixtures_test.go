package indexing

import (
	"context"
	"sync"

	"github.com/c360studio/semcrawl/fault"
	"github.com/c360studio/semcrawl/graph"
	"github.com/c360studio/semcrawl/metadata"
	"github.com/c360studio/semcrawl/vocabulary/colid"
)

const (
	typeDataset    = "https://pid.example.org/kos/Dataset"
	isDerivedFrom  = "https://pid.example.org/kos/isDerivedFrom"
	keywordClimate = "https://pid.example.org/keyword/climate"
)

type fakeResolver struct {
	mu          sync.Mutex
	ctos        map[string]*graph.ResourcesCTO
	resolved    []string
	invalidated []string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{ctos: map[string]*graph.ResourcesCTO{}}
}

func (f *fakeResolver) Resolve(_ context.Context, pidURI string) (*graph.ResourcesCTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, pidURI)
	cto, ok := f.ctos[pidURI]
	if !ok {
		return nil, fault.ErrNotFound
	}
	return cto, nil
}

func (f *fakeResolver) Invalidate(_ context.Context, pidURI string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, pidURI)
}

func (f *fakeResolver) resolvedPIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.resolved...)
}

type fakeMetadata map[string][]metadata.Property

func (f fakeMetadata) ForEntityType(_ context.Context, entityType string) ([]metadata.Property, error) {
	return f[entityType], nil
}

func (f fakeMetadata) InstantiableTypes(context.Context, string) ([]string, error) {
	return nil, nil
}

func (f fakeMetadata) Merged(context.Context, []string) ([]metadata.Property, error) {
	return nil, nil
}

type fakeLabels struct {
	labels map[string]string
	panics bool
}

func (f *fakeLabels) Label(_ context.Context, id string) (string, error) {
	if f.panics {
		panic("label lookup exploded")
	}
	label, ok := f.labels[id]
	if !ok {
		return "", fault.ErrNotFound
	}
	return label, nil
}

func newLabels() *fakeLabels {
	return &fakeLabels{labels: map[string]string{
		typeDataset:    "Dataset",
		keywordClimate: "Climate",
	}}
}

func prop(path string, kv ...string) metadata.Property {
	p := metadata.Property{Key: path, Properties: map[string]any{colid.SHACLPath: path}}
	for i := 0; i+1 < len(kv); i += 2 {
		p.Set(kv[i], kv[i+1])
	}
	return p
}

func datasetMetadata() fakeMetadata {
	return fakeMetadata{typeDataset: {
		prop(colid.RDFType),
		prop(colid.RDFSLabel),
		prop(colid.HasKeyword, colid.RDFSRange, "https://pid.example.org/kos/Keyword"),
		prop(colid.DateCreated, colid.SHACLDatatype, colid.XSDDateTime),
		prop(colid.HasEntryLifecycleStatus, colid.SHACLGroup, colid.GroupInvisibleTechnicalInformation),
		prop(colid.HasPID, colid.SHACLGroup, colid.GroupInvisibleTechnicalInformation),
		prop(isDerivedFrom, colid.SHACLGroup, colid.GroupLinkTypes),
	}}
}

func newResource(id, pidURI string, status graph.LifecycleStatus) *graph.Resource {
	r := &graph.Resource{Entity: *graph.NewEntity(id), PidURI: pidURI}
	r.Properties.Add(colid.RDFType, graph.Reference(typeDataset))
	r.Properties.Add(colid.HasPID, graph.Reference(pidURI))
	r.Properties.Add(colid.HasEntryLifecycleStatus, graph.Reference(status.IRI()))
	r.Properties.Add(colid.RDFSLabel, graph.Scalar("Resource "+pidURI))
	return r
}

// linkedEntity is the folded form of another resource reached by a link.
func linkedEntity(pidURI string) *graph.Entity {
	e := graph.NewEntity(pidURI + "#published")
	e.Properties.Add(colid.RDFType, graph.Reference(typeDataset))
	e.Properties.Add(colid.HasPID, graph.Reference(pidURI))
	e.Properties.Add(colid.HasEntryLifecycleStatus, graph.Reference(colid.LifecyclePublished))
	return e
}

func publishedOnly(pidURI string) *graph.ResourcesCTO {
	return &graph.ResourcesCTO{Published: newResource(pidURI+"#published", pidURI, graph.LifecyclePublished)}
}

type harness struct {
	resolver *fakeResolver
	labels   *fakeLabels
	recorder *Recorder
	indexer  *Indexer
}

func newHarness() *harness {
	h := &harness{
		resolver: newFakeResolver(),
		labels:   newLabels(),
		recorder: &Recorder{},
	}
	meta := datasetMetadata()
	h.indexer = New(h.resolver, meta, NewBuilder(meta, h.labels, nil), h.recorder)
	return h
}

func actions(msgs []*Message) map[string]Action {
	out := make(map[string]Action, len(msgs))
	for _, m := range msgs {
		out[m.PidURI] = m.Action
	}
	return out
}
