package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/semcrawl/api"
	"github.com/c360studio/semcrawl/config"
	"github.com/c360studio/semcrawl/indexing"
	"github.com/c360studio/semcrawl/metadata"
	"github.com/c360studio/semcrawl/metrics"
	"github.com/c360studio/semcrawl/queue"
	"github.com/c360studio/semcrawl/registration"
	"github.com/c360studio/semcrawl/reindex"
	"github.com/c360studio/semcrawl/repository"
	"github.com/c360studio/semcrawl/resolver"
	"github.com/c360studio/semcrawl/search"
	"github.com/c360studio/semcrawl/sparql"
	"github.com/c360studio/semcrawl/storage"
)

// App wires the crawler components together.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	natsClient *natsclient.Client

	Metrics     *metrics.Metrics
	Cache       storage.Cache
	Queue       queue.Queue
	Resources   *repository.Resources
	Entities    *repository.Entities
	Resolver    *resolver.Resolver
	Metadata    metadata.Service
	Builder     *indexing.Builder
	Indexer     *indexing.Indexer
	Coordinator *reindex.Coordinator
	Drainer     *reindex.Drainer
}

// appOption customises NewApp.
type appOption func(*appOptions)

type appOptions struct {
	publisher indexing.Publisher
	store     sparql.Store
}

// withPublisher replaces the queue publisher, e.g. to print documents
// instead of sending them.
func withPublisher(p indexing.Publisher) appOption {
	return func(o *appOptions) { o.publisher = p }
}

// withStore replaces the SPARQL client.
func withStore(s sparql.Store) appOption {
	return func(o *appOptions) { o.store = s }
}

// NewApp connects to NATS when the configuration needs it and builds every
// component. Close releases the connection.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...appOption) (*App, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, logger: logger, Metrics: metrics.New()}

	var js jetstream.JetStream
	if cfg.NeedsNATS() {
		client, err := connectToNATS(ctx, cfg.NATS.URL, logger)
		if err != nil {
			return nil, err
		}
		a.natsClient = client
		js, err = client.JetStream()
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("get JetStream: %w", err)
		}
	}

	if err := a.initTransport(ctx, js); err != nil {
		a.Close(ctx)
		return nil, err
	}

	store := o.store
	if store == nil {
		sparqlOpts := []sparql.ClientOption{
			sparql.WithHTTPClient(&http.Client{Timeout: cfg.SPARQL.Timeout}),
			sparql.WithLogger(logger),
		}
		if cfg.SPARQL.User != "" {
			sparqlOpts = append(sparqlOpts, sparql.WithBasicAuth(cfg.SPARQL.User, cfg.SPARQL.Password))
		}
		store = sparql.NewClient(cfg.SPARQL.Endpoint, sparqlOpts...)
	}

	graphs := repository.Graphs{
		Draft:     cfg.Graphs.Draft,
		Published: cfg.Graphs.Published,
		Metadata:  cfg.Graphs.Metadata,
		Entities:  cfg.Graphs.Entities,
	}
	a.Resources = repository.NewResources(store, graphs, logger)
	labelGraphs := append(append([]string{}, cfg.Graphs.Entities...), cfg.Graphs.Metadata...)
	a.Entities = repository.NewEntities(store, a.Cache, labelGraphs, cfg.Cache.EntityTTL, logger)

	a.Resolver = resolver.New(a.Resources, a.Cache, resolver.Config{
		DraftGraph:     cfg.Graphs.Draft,
		PublishedGraph: cfg.Graphs.Published,
		Timeout:        cfg.Indexing.ResolutionTimeout,
		TTL:            cfg.Cache.ResourceTTL,
	}, resolver.WithLogger(logger), resolver.WithObserver(a.Metrics.Resolution))

	registrationClient := registration.NewClient(cfg.Registration.URL, cfg.Registration.Token, logger)
	a.Metadata = metadata.NewCachedService(registrationClient, a.Cache, cfg.Cache.MetadataTTL)

	publisher := o.publisher
	if publisher == nil {
		publisher = indexing.NewQueuePublisher(a.Queue)
	}
	a.Builder = indexing.NewBuilder(a.Metadata, a.Entities, logger)
	a.Indexer = indexing.New(a.Resolver, a.Metadata, a.Builder, publisher,
		indexing.WithLogger(logger),
		indexing.WithMetrics(a.Metrics))

	a.Drainer = reindex.NewDrainer(a.Queue, a.Indexer, reindex.DrainerConfig{
		BatchSize: cfg.Queues.BatchSize,
		Wait:      cfg.Queues.Wait,
	}, a.Metrics, logger)

	a.Coordinator = reindex.NewCoordinator(reindex.CoordinatorDeps{
		Cache:      a.Cache,
		Metadata:   a.Metadata,
		Taxonomies: registrationClient,
		Search:     search.NewClient(cfg.Search.URL, cfg.Search.Token, logger),
		PIDs:       a.Resources,
		Queue:      a.Queue,
		Indexer:    a.Indexer,
		Metrics:    a.Metrics,
		Logger:     logger,
		DrainGuard: a.Drainer.ReindexGuard(),
	}, reindex.CoordinatorConfig{
		QueueEnabled: cfg.Queues.IsEnabled(),
		PollInterval: cfg.Indexing.PollInterval,
	})

	return a, nil
}

// initTransport sets up the cache and the queue, on JetStream when js is
// available.
func (a *App) initTransport(ctx context.Context, js jetstream.JetStream) error {
	cfg := a.cfg

	var cache storage.Cache
	if cfg.Cache.Backend == config.CacheNATS {
		maxAge := max(cfg.Cache.ResourceTTL, cfg.Cache.MetadataTTL, cfg.Cache.EntityTTL)
		kv, err := storage.NewKVCache(ctx, js, cfg.Cache.Bucket, maxAge,
			storage.WithKVLogger(a.logger),
			storage.WithDefaultTTL(cfg.Cache.ResourceTTL))
		if err != nil {
			return fmt.Errorf("create cache: %w", err)
		}
		cache = kv
	} else {
		cache = storage.NewMemoryCache(cfg.Cache.ResourceTTL)
	}
	a.Cache = storage.WithObserver(cache, a.Metrics.CacheLookup)

	if js != nil {
		q, err := queue.NewJetStream(ctx, js, queue.JetStreamConfig{
			Stream:        cfg.Queues.Stream,
			SubjectPrefix: cfg.Queues.SubjectPrefix,
			AckWait:       cfg.Queues.AckWait,
			MaxDeliver:    cfg.Queues.MaxDeliver,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("create queues: %w", err)
		}
		a.Queue = q
		return nil
	}

	a.logger.Warn("NATS not configured, documents stay in process memory")
	a.Queue = queue.NewMemory(cfg.Queues.AckWait)
	return nil
}

// Handler builds the HTTP trigger handler. Index requests go through the
// index queue only when queues are enabled.
func (a *App) Handler(ctx context.Context) *api.Handler {
	var q queue.Queue
	if a.cfg.Queues.IsEnabled() {
		q = a.Queue
	}
	return api.NewHandler(ctx, api.Deps{
		Reindexer: a.Coordinator,
		Indexer:   a.Indexer,
		Queue:     q,
		Drains:    a.Drainer,
		Metrics:   a.Metrics,
		Logger:    a.logger,
	})
}

// Close releases the NATS connection.
func (a *App) Close(ctx context.Context) {
	if a.natsClient == nil {
		return
	}
	if err := a.natsClient.Close(ctx); err != nil {
		a.logger.Warn("Failed to close NATS connection", "error", err)
	}
	a.natsClient = nil
}

func connectToNATS(ctx context.Context, url string, logger *slog.Logger) (*natsclient.Client, error) {
	logger.Info("Connecting to NATS", "url", url)

	client, err := natsclient.NewClient(url,
		natsclient.WithName("semcrawl"),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
		natsclient.WithHealthInterval(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	logger.Info("Connected to NATS", "url", url)
	return client, nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

Start a JetStream-enabled server, set NATS_URL to point to one, or run
with queues.enabled: false and cache.backend: memory.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}
