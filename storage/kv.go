package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// DefaultBucket is the KV bucket used for the shared cache.
const DefaultBucket = "SEMCRAWL_CACHE"

// kvEnvelope carries the per-entry expiry. The bucket TTL only bounds the
// longest-lived entry.
type kvEnvelope struct {
	ExpiresAt time.Time       `json:"expires_at,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// KVCache is a Cache on a JetStream KV bucket, shared by every crawler
// instance connected to the same NATS server.
type KVCache struct {
	bucket     jetstream.KeyValue
	defaultTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// KVOption configures a KVCache.
type KVOption func(*KVCache)

// WithKVLogger sets the logger.
func WithKVLogger(l *slog.Logger) KVOption {
	return func(c *KVCache) {
		c.logger = l
	}
}

// WithDefaultTTL sets the ttl used for entries stored with a zero ttl.
func WithDefaultTTL(ttl time.Duration) KVOption {
	return func(c *KVCache) {
		c.defaultTTL = ttl
	}
}

// NewKVCache opens or creates bucket. maxAge is the bucket level TTL and
// should be the longest ttl any caller uses.
func NewKVCache(ctx context.Context, js jetstream.JetStream, bucket string, maxAge time.Duration, opts ...KVOption) (*KVCache, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := getOrCreateBucket(ctx, js, bucket, maxAge)
	if err != nil {
		return nil, fmt.Errorf("create cache bucket: %w", err)
	}
	c := &KVCache{
		bucket:     kv,
		defaultTTL: maxAge,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string, maxAge time.Duration) (jetstream.KeyValue, error) {
	// CreateOrUpdateKeyValue is idempotent and handles race conditions
	return js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Semcrawl resource, metadata and entity cache",
		TTL:         maxAge,
		History:     1,
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted)
}

func (c *KVCache) Get(ctx context.Context, key Key) ([]byte, error) {
	entry, err := c.bucket.Get(ctx, key.subject())
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	var env kvEnvelope
	if err := json.Unmarshal(entry.Value(), &env); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if !env.ExpiresAt.IsZero() && !c.now().Before(env.ExpiresAt) {
		if err := c.bucket.Delete(ctx, key.subject()); err != nil && !isNotFound(err) {
			c.logger.Debug("Failed to delete expired cache entry", "key", key.String(), "error", err)
		}
		return nil, ErrNotFound
	}
	return env.Data, nil
}

func (c *KVCache) Set(ctx context.Context, key Key, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	env := kvEnvelope{Data: value}
	if ttl > 0 {
		env.ExpiresAt = c.now().Add(ttl)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if _, err := c.bucket.Put(ctx, key.subject(), data); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (c *KVCache) Delete(ctx context.Context, key Key) error {
	if err := c.bucket.Delete(ctx, key.subject()); err != nil && !isNotFound(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (c *KVCache) DeletePrefix(ctx context.Context, prefix Key) error {
	keys, err := c.bucket.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}
		return fmt.Errorf("list cache keys: %w", err)
	}
	var errs []error
	for _, subject := range keys {
		k, err := keyFromSubject(subject)
		if err != nil {
			c.logger.Debug("Skipping foreign cache key", "key", subject)
			continue
		}
		if !hasPrefix(k, prefix) {
			continue
		}
		if err := c.bucket.Delete(ctx, subject); err != nil && !isNotFound(err) {
			errs = append(errs, fmt.Errorf("delete %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

func (c *KVCache) DeleteNamespace(ctx context.Context, ns Namespace) error {
	return c.DeletePrefix(ctx, Key{Namespace: ns})
}

func (c *KVCache) Clear(ctx context.Context) error {
	keys, err := c.bucket.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}
		return fmt.Errorf("list cache keys: %w", err)
	}
	var errs []error
	for _, subject := range keys {
		if err := c.bucket.Purge(ctx, subject); err != nil && !isNotFound(err) {
			errs = append(errs, fmt.Errorf("purge %s: %w", subject, err))
		}
	}
	return errors.Join(errs...)
}
