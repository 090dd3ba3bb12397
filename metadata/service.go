package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/c360studio/semcrawl/storage"
)

// Service provides metadata for entity types.
type Service interface {
	ForEntityType(ctx context.Context, entityType string) ([]Property, error)
	InstantiableTypes(ctx context.Context, firstType string) ([]string, error)
	Merged(ctx context.Context, entityTypes []string) ([]Property, error)
}

// Source is the upstream provider of metadata, normally the registration
// service.
type Source interface {
	Metadata(ctx context.Context, entityType string) ([]Property, error)
	InstantiableTypes(ctx context.Context, firstType string) ([]string, error)
	MergedMetadata(ctx context.Context, entityTypes []string) ([]Property, error)
}

// CachedService serves metadata from the shared cache and falls back to
// the source.
type CachedService struct {
	source Source
	cache  storage.Cache
	ttl    time.Duration
}

// NewCachedService creates a caching metadata service.
func NewCachedService(source Source, cache storage.Cache, ttl time.Duration) *CachedService {
	return &CachedService{source: source, cache: cache, ttl: ttl}
}

// ForEntityType returns the properties of entityType. An empty type has no
// metadata.
func (s *CachedService) ForEntityType(ctx context.Context, entityType string) ([]Property, error) {
	if entityType == "" {
		return nil, nil
	}
	props, err := storage.GetOrAdd(ctx, s.cache, storage.MetadataKey(entityType), s.ttl, func(ctx context.Context) ([]Property, error) {
		return s.source.Metadata(ctx, entityType)
	})
	if err != nil {
		return nil, fmt.Errorf("metadata for %s: %w", entityType, err)
	}
	return props, nil
}

// InstantiableTypes returns the concrete subtypes of firstType.
func (s *CachedService) InstantiableTypes(ctx context.Context, firstType string) ([]string, error) {
	types, err := storage.GetOrAdd(ctx, s.cache, storage.InstantiableTypesKey(firstType), s.ttl, func(ctx context.Context) ([]string, error) {
		return s.source.InstantiableTypes(ctx, firstType)
	})
	if err != nil {
		return nil, fmt.Errorf("instantiable types of %s: %w", firstType, err)
	}
	return types, nil
}

// Merged returns the union of the properties of entityTypes.
func (s *CachedService) Merged(ctx context.Context, entityTypes []string) ([]Property, error) {
	props, err := storage.GetOrAdd(ctx, s.cache, storage.MergedMetadataKey(entityTypes), s.ttl, func(ctx context.Context) ([]Property, error) {
		return s.source.MergedMetadata(ctx, entityTypes)
	})
	if err != nil {
		return nil, fmt.Errorf("merged metadata: %w", err)
	}
	return props, nil
}
