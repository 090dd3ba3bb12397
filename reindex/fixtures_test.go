package reindex

import (
	"context"
	"sync"

	"github.com/c360studio/semcrawl/fault"
	"github.com/c360studio/semcrawl/graph"
	"github.com/c360studio/semcrawl/indexing"
	"github.com/c360studio/semcrawl/metadata"
	"github.com/c360studio/semcrawl/registration"
	"github.com/c360studio/semcrawl/search"
)

type indexCall struct {
	action indexing.Action
	pidURI string
	opts   indexing.Options
}

type fakeIndexer struct {
	mu    sync.Mutex
	calls []indexCall
	fail  map[string]error
}

func (f *fakeIndexer) Index(_ context.Context, dto *indexing.ResourceIndexingDTO, opts indexing.Options) error {
	return f.record(dto.Action, dto.PidURI, opts)
}

func (f *fakeIndexer) IndexPID(_ context.Context, action indexing.Action, pidURI string, opts indexing.Options) error {
	return f.record(action, pidURI, opts)
}

func (f *fakeIndexer) record(action indexing.Action, pidURI string, opts indexing.Options) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, indexCall{action: action, pidURI: pidURI, opts: opts})
	return f.fail[pidURI]
}

func (f *fakeIndexer) pids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.pidURI)
	}
	return out
}

type fakeSearch struct {
	mu        sync.Mutex
	mapping   search.Mapping
	createErr error
	switched  int
	// indexed is read at switch time to check ordering.
	indexedAtSwitch []string
	indexer         *fakeIndexer
}

func (f *fakeSearch) CreateIndex(_ context.Context, mapping search.Mapping) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mapping = mapping
	return f.createErr
}

func (f *fakeSearch) SwitchIndex(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switched++
	if f.indexer != nil {
		f.indexedAtSwitch = f.indexer.pids()
	}
	return nil
}

type fakePIDs []string

func (f fakePIDs) AllPidURIs(context.Context) ([]string, error) {
	return f, nil
}

type fakeMetadata struct {
	types  []string
	merged []metadata.Property
	byType map[string][]metadata.Property
}

func (f *fakeMetadata) ForEntityType(_ context.Context, entityType string) ([]metadata.Property, error) {
	return f.byType[entityType], nil
}

func (f *fakeMetadata) InstantiableTypes(context.Context, string) ([]string, error) {
	return f.types, nil
}

func (f *fakeMetadata) Merged(context.Context, []string) ([]metadata.Property, error) {
	return f.merged, nil
}

type fakeTaxonomies map[string][]registration.Taxonomy

func (f fakeTaxonomies) TaxonomyList(_ context.Context, taxonomyType string) ([]registration.Taxonomy, error) {
	return f[taxonomyType], nil
}

type nopResolver struct{}

func (nopResolver) Resolve(context.Context, string) (*graph.ResourcesCTO, error) {
	return nil, fault.ErrNotFound
}

func (nopResolver) Invalidate(context.Context, string) {}

type panickyLabels map[string]string

func (p panickyLabels) Label(_ context.Context, id string) (string, error) {
	label, ok := p[id]
	if !ok {
		panic("no label for " + id)
	}
	return label, nil
}
