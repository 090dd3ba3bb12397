// Package resolver assembles the draft and published variants of a PID
// together with its version chain.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360studio/semcrawl/fault"
	"github.com/c360studio/semcrawl/graph"
	"github.com/c360studio/semcrawl/storage"
)

// Default settings.
const (
	DefaultTimeout = 60 * time.Second
	DefaultTTL     = time.Hour
)

// Repository is the subset of repository.Resources the resolver uses.
type Repository interface {
	Exists(ctx context.Context, pidURI, graphName string) (bool, graph.LifecycleStatus, error)
	Fetch(ctx context.Context, pidURI string, graphs []string) ([]*graph.Resource, error)
	Versions(ctx context.Context, pidURI string, graphs []string) ([]graph.VersionOverview, error)
}

// Config configures a Resolver.
type Config struct {
	DraftGraph     string
	PublishedGraph string
	// Timeout bounds fetching the resource and its versions together.
	Timeout time.Duration
	TTL     time.Duration
}

// Observer receives the duration of every uncached resolution.
type Observer func(d time.Duration, err error)

// Resolver resolves PIDs to their draft/published pair.
type Resolver struct {
	repo    Repository
	cache   storage.Cache
	config  Config
	logger  *slog.Logger
	observe Observer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver sets a callback for resolution timings.
func WithObserver(o Observer) Option {
	return func(r *Resolver) {
		r.observe = o
	}
}

// New creates a resolver.
func New(repo Repository, cache storage.Cache, config Config, opts ...Option) *Resolver {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	r := &Resolver{
		repo:   repo,
		cache:  cache,
		config: config,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the variants of pidURI. At least one of Draft and
// Published is set on success; a PID found in neither graph returns
// fault.ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, pidURI string) (*graph.ResourcesCTO, error) {
	return storage.GetOrAdd(ctx, r.cache, storage.ResourceKey(pidURI), r.config.TTL, func(ctx context.Context) (*graph.ResourcesCTO, error) {
		start := time.Now()
		cto, err := r.load(ctx, pidURI)
		if r.observe != nil {
			r.observe(time.Since(start), err)
		}
		return cto, err
	})
}

func (r *Resolver) load(ctx context.Context, pidURI string) (*graph.ResourcesCTO, error) {
	var inDraft, inPublished bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ok, _, err := r.repo.Exists(gctx, pidURI, r.config.DraftGraph)
		inDraft = ok
		return err
	})
	g.Go(func() error {
		ok, _, err := r.repo.Exists(gctx, pidURI, r.config.PublishedGraph)
		inPublished = ok
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolve %s: %w", pidURI, err)
	}
	if !inDraft && !inPublished {
		return nil, fmt.Errorf("resolve %s: %w", pidURI, fault.ErrNotFound)
	}

	var graphs []string
	if inDraft {
		graphs = append(graphs, r.config.DraftGraph)
	}
	if inPublished {
		graphs = append(graphs, r.config.PublishedGraph)
	}

	tctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	var (
		resources []*graph.Resource
		versions  []graph.VersionOverview
	)
	g, gctx = errgroup.WithContext(tctx)
	g.Go(func() error {
		var err error
		resources, err = r.repo.Fetch(gctx, pidURI, graphs)
		return err
	})
	g.Go(func() error {
		var err error
		versions, err = r.repo.Versions(gctx, pidURI, r.instanceGraphs())
		return err
	})
	err := g.Wait()
	if errors.Is(tctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("resolve %s after %s: %w", pidURI, r.config.Timeout, fault.ErrTimeout)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", pidURI, err)
	}

	cto := &graph.ResourcesCTO{Versions: versions}
	for _, res := range resources {
		res.Versions = versions
		switch status := res.LifecycleStatus(); {
		case status == graph.LifecycleDraft:
			cto.Draft = res
		case status.IsPublished():
			cto.Published = res
		default:
			r.logger.Warn("Skipping resource without lifecycle status",
				"pid_uri", pidURI,
				"subject", res.ID)
		}
	}
	if cto.Empty() {
		return nil, fmt.Errorf("resolve %s: no variant with a lifecycle status: %w", pidURI, fault.ErrNotFound)
	}
	return cto, nil
}

func (r *Resolver) instanceGraphs() []string {
	var out []string
	for _, g := range []string{r.config.DraftGraph, r.config.PublishedGraph} {
		if g != "" {
			out = append(out, g)
		}
	}
	return out
}

// Invalidate drops the cached variants of pidURI. Failures are logged.
func (r *Resolver) Invalidate(ctx context.Context, pidURI string) {
	if err := r.cache.Delete(ctx, storage.ResourceKey(pidURI)); err != nil {
		r.logger.Warn("Failed to invalidate resource", "pid_uri", pidURI, "error", err)
	}
}

// InvalidateAll drops every cached resource.
func (r *Resolver) InvalidateAll(ctx context.Context) error {
	if err := r.cache.DeleteNamespace(ctx, storage.NamespaceResource); err != nil {
		return fmt.Errorf("invalidate resources: %w", err)
	}
	return nil
}
