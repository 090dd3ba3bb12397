package reindex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/semcrawl/indexing"
	"github.com/c360studio/semcrawl/metadata"
	"github.com/c360studio/semcrawl/metrics"
	"github.com/c360studio/semcrawl/queue"
	"github.com/c360studio/semcrawl/search"
	"github.com/c360studio/semcrawl/storage"
)

// PIDSource enumerates every PID in the store.
type PIDSource interface {
	AllPidURIs(ctx context.Context) ([]string, error)
}

// SearchIndex is the index lifecycle of the search service.
type SearchIndex interface {
	CreateIndex(ctx context.Context, mapping search.Mapping) error
	SwitchIndex(ctx context.Context) error
}

// Indexer processes single requests.
type Indexer interface {
	Index(ctx context.Context, dto *indexing.ResourceIndexingDTO, opts indexing.Options) error
	IndexPID(ctx context.Context, action indexing.Action, pidURI string, opts indexing.Options) error
}

// CoordinatorConfig configures full reindex runs.
type CoordinatorConfig struct {
	// QueueEnabled hands units to the reindex queue; otherwise they are
	// indexed in the calling goroutine.
	QueueEnabled bool
	// PollInterval is how often the reindex queue is checked for being
	// drained.
	PollInterval time.Duration
}

// DefaultCoordinatorConfig returns the default configuration.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{QueueEnabled: true, PollInterval: 5 * time.Second}
}

// Coordinator runs full reindex sweeps, one at a time.
type Coordinator struct {
	guard      Guard
	drainGuard *Guard

	cache      storage.Cache
	meta       metadata.Service
	taxonomies TaxonomySource
	search     SearchIndex
	pids       PIDSource
	queue      queue.Queue
	indexer    Indexer

	config  CoordinatorConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// CoordinatorDeps are the collaborators of a Coordinator.
type CoordinatorDeps struct {
	Cache      storage.Cache
	Metadata   metadata.Service
	Taxonomies TaxonomySource
	Search     SearchIndex
	PIDs       PIDSource
	Queue      queue.Queue
	Indexer    Indexer
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	// DrainGuard is the guard of the reindex queue drain; a run waits
	// until it is released.
	DrainGuard *Guard
}

// NewCoordinator creates a coordinator.
func NewCoordinator(deps CoordinatorDeps, config CoordinatorConfig) *Coordinator {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultCoordinatorConfig().PollInterval
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		drainGuard: deps.DrainGuard,
		cache:      deps.Cache,
		meta:       deps.Metadata,
		taxonomies: deps.Taxonomies,
		search:     deps.Search,
		pids:       deps.PIDs,
		queue:      deps.Queue,
		indexer:    deps.Indexer,
		config:     config,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Running reports whether a reindex is in progress.
func (c *Coordinator) Running() bool {
	return c.guard.Running()
}

// StartReindex runs a full reindex. It returns false without doing
// anything when a run is already in progress.
func (c *Coordinator) StartReindex(ctx context.Context) (bool, error) {
	if !c.guard.TryAcquire() {
		c.logger.Info("Reindex already running, ignoring request")
		return false, nil
	}
	defer c.guard.Release()

	c.metrics.ReindexStarted()
	err := c.run(ctx)
	c.metrics.ReindexFinished(err)
	return true, err
}

func (c *Coordinator) run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := c.logger.With("run_id", runID)
	logger.Info("Reindex started")
	start := time.Now()

	c.clearCache(ctx, logger)

	mapping, err := BuildMapping(ctx, c.meta, c.taxonomies, logger)
	if err != nil {
		logger.Error("Failed to build metadata mapping", "error", err)
		return fmt.Errorf("build metadata mapping: %w", err)
	}
	if err := c.search.CreateIndex(ctx, mapping); err != nil {
		logger.Error("Search service rejected the metadata mapping", "error", err)
		return fmt.Errorf("create index: %w", err)
	}

	pids, err := c.pids.AllPidURIs(ctx)
	if err != nil {
		return fmt.Errorf("enumerate resources: %w", err)
	}
	logger.Info("Scheduling resources", "count", len(pids), "queued", c.config.QueueEnabled)

	for _, pid := range pids {
		if err := c.schedule(ctx, runID, pid); err != nil {
			logger.Error("Failed to schedule resource", "pid_uri", pid, "error", err)
			continue
		}
		c.metrics.ReindexUnit()
	}

	if c.config.QueueEnabled {
		if err := c.waitForDrain(ctx); err != nil {
			return fmt.Errorf("wait for reindex queue: %w", err)
		}
	}

	if err := c.search.SwitchIndex(ctx); err != nil {
		logger.Error("Failed to switch index", "error", err)
		return fmt.Errorf("switch index: %w", err)
	}
	c.clearCache(ctx, logger)

	logger.Info("Reindex finished", "resources", len(pids), "duration", time.Since(start))
	return nil
}

func (c *Coordinator) schedule(ctx context.Context, runID, pid string) error {
	if !c.config.QueueEnabled {
		return c.indexer.IndexPID(ctx, indexing.ActionReindex, pid, indexing.ReindexOptions())
	}
	data, err := json.Marshal(Unit{PidURI: pid, RunID: runID})
	if err != nil {
		return fmt.Errorf("marshal unit: %w", err)
	}
	return c.queue.Send(ctx, queue.Reindex, data)
}

// waitForDrain blocks until the reindex queue is empty and no drain is
// processing its last batch.
func (c *Coordinator) waitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		n, err := c.queue.Count(ctx, queue.Reindex)
		if err != nil {
			c.logger.Warn("Failed to count reindex queue", "error", err)
		} else if n == 0 && (c.drainGuard == nil || !c.drainGuard.Running()) {
			return nil
		} else {
			c.logger.Debug("Waiting for reindex queue", "remaining", n)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Coordinator) clearCache(ctx context.Context, logger *slog.Logger) {
	if err := c.cache.Clear(ctx); err != nil {
		logger.Warn("Failed to clear cache", "error", err)
	}
}
