// Package storage provides the shared cache of the crawler: resolved
// resources, metadata and entity labels keyed by namespace.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache stores encoded values under typed keys.
type Cache interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)
	// Set stores value under key for ttl. A zero ttl uses the backend default.
	Set(ctx context.Context, key Key, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key Key) error
	// DeletePrefix removes every key of prefix.Namespace whose id starts
	// with prefix.ID.
	DeletePrefix(ctx context.Context, prefix Key) error
	DeleteNamespace(ctx context.Context, ns Namespace) error
	Clear(ctx context.Context) error
}

var flight singleflight.Group

// GetOrAdd returns the cached value for key or computes it with factory and
// stores the result. Concurrent callers for the same key share one factory
// call. Factory errors are returned and not cached; a failing cache only
// degrades to recomputation.
func GetOrAdd[T any](ctx context.Context, cache Cache, key Key, ttl time.Duration, factory func(context.Context) (T, error)) (T, error) {
	var zero T
	logger := slog.Default()

	if data, err := cache.Get(ctx, key); err == nil {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
		logger.Warn("Discarding undecodable cache entry", "key", key.String())
	} else if !errors.Is(err, ErrNotFound) {
		logger.Warn("Cache read failed, computing value", "key", key.String(), "error", err)
	}

	result, err, _ := flight.Do(key.String(), func() (any, error) {
		v, err := factory(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			logger.Warn("Cannot encode value for cache", "key", key.String(), "error", err)
			return v, nil
		}
		if err := cache.Set(ctx, key, data, ttl); err != nil {
			logger.Warn("Cache write failed", "key", key.String(), "error", err)
		}
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return result.(T), nil
}

// Observer is told about every cache lookup.
type Observer func(ns Namespace, hit bool)

type observedCache struct {
	Cache
	observe Observer
}

// WithObserver wraps cache so that every Get reports a hit or a miss.
func WithObserver(cache Cache, observe Observer) Cache {
	if observe == nil {
		return cache
	}
	return &observedCache{Cache: cache, observe: observe}
}

func (c *observedCache) Get(ctx context.Context, key Key) ([]byte, error) {
	data, err := c.Cache.Get(ctx, key)
	c.observe(key.Namespace, err == nil)
	return data, err
}

func hasPrefix(k, prefix Key) bool {
	return k.Namespace == prefix.Namespace && strings.HasPrefix(k.ID, prefix.ID)
}
