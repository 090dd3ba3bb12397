package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/semcrawl/fault"
	"github.com/c360studio/semcrawl/graph"
	"github.com/c360studio/semcrawl/sparql"
	"github.com/c360studio/semcrawl/storage"
	"github.com/c360studio/semcrawl/vocabulary/colid"
)

// Entities reads single entities such as taxonomy terms and persons.
type Entities struct {
	store  sparql.Store
	cache  storage.Cache
	graphs []string
	ttl    time.Duration
	logger *slog.Logger
}

// NewEntities creates an entity repository reading from graphs.
func NewEntities(store sparql.Store, cache storage.Cache, graphs []string, ttl time.Duration, logger *slog.Logger) *Entities {
	if logger == nil {
		logger = slog.Default()
	}
	return &Entities{store: store, cache: cache, graphs: graphs, ttl: ttl, logger: logger}
}

// GetEntity returns the entity with id, or fault.ErrNotFound when it has no
// triples.
func (e *Entities) GetEntity(ctx context.Context, id string) (*graph.Entity, error) {
	return storage.GetOrAdd(ctx, e.cache, storage.EntityKey(id), e.ttl, func(ctx context.Context) (*graph.Entity, error) {
		return e.load(ctx, id)
	})
}

func (e *Entities) load(ctx context.Context, id string) (*graph.Entity, error) {
	q := EntityQuery(id, e.graphs)
	if q == nil {
		return nil, fmt.Errorf("entity %q: %w", id, fault.ErrNotFound)
	}
	rs, err := e.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch entity %s: %w", id, err)
	}
	entities := graph.FoldEntities(EntityRows(rs), id)
	if len(entities) == 0 {
		return nil, fmt.Errorf("entity %s: %w", id, fault.ErrNotFound)
	}
	return entities[0], nil
}

// Label returns the display label of the entity with id.
func (e *Entities) Label(ctx context.Context, id string) (string, error) {
	entity, err := e.GetEntity(ctx, id)
	if err != nil {
		return "", err
	}
	for _, predicate := range []string{colid.RDFSLabel, colid.SKOSPrefLabel} {
		if label := entity.Properties.FirstString(predicate); label != "" {
			return label, nil
		}
	}
	return "", fmt.Errorf("label of %s: %w", id, fault.ErrNotFound)
}
