// Package indexing turns lifecycle events of catalogue resources into index
// documents and cascades them to counterparts and linked resources.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/c360studio/semcrawl/fault"
	"github.com/c360studio/semcrawl/graph"
	"github.com/c360studio/semcrawl/metadata"
	"github.com/c360studio/semcrawl/metrics"
)

// Resolver resolves and invalidates the variants of a PID.
type Resolver interface {
	Resolve(ctx context.Context, pidURI string) (*graph.ResourcesCTO, error)
	Invalidate(ctx context.Context, pidURI string)
}

// DeletionCascade selects what happens to the published counterpart when
// its draft is deleted.
type DeletionCascade int

const (
	// RefreshPublished re-runs the publish path for the counterpart.
	RefreshPublished DeletionCascade = iota
	// OutboundLinksOnly only re-indexes the counterpart's outbound links.
	OutboundLinksOnly
)

func (d DeletionCascade) String() string {
	if d == OutboundLinksOnly {
		return "outbound-links-only"
	}
	return "refresh-published"
}

// Options control the cascades of one Index call.
type Options struct {
	PropagateLinks     bool
	RefreshCounterpart bool
	Deletion           DeletionCascade
}

// DefaultOptions enables every cascade.
func DefaultOptions() Options {
	return Options{PropagateLinks: true, RefreshCounterpart: true, Deletion: RefreshPublished}
}

// ReindexOptions disables cascades; a full reindex visits every PID anyway.
func ReindexOptions() Options {
	return Options{}
}

// Indexer runs the indexing state machine.
type Indexer struct {
	resolver  Resolver
	meta      metadata.Service
	builder   *Builder
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Indexer) {
		i.logger = l
	}
}

// WithMetrics records emitted documents and failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Indexer) {
		i.metrics = m
	}
}

// New creates an indexer.
func New(resolver Resolver, meta metadata.Service, builder *Builder, publisher Publisher, opts ...Option) *Indexer {
	i := &Indexer{
		resolver:  resolver,
		meta:      meta,
		builder:   builder,
		publisher: publisher,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Index processes one lifecycle event. PID-only requests are resolved
// first.
func (i *Indexer) Index(ctx context.Context, dto *ResourceIndexingDTO, opts Options) error {
	if err := dto.Validate(); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if dto.PIDOnly() && !(dto.Action == ActionDeletion && dto.LifecycleStatus != graph.LifecycleUnknown) {
		return i.IndexPID(ctx, dto.Action, dto.PidURI, opts)
	}
	if dto.Action.IsWrite() {
		i.resolver.Invalidate(ctx, dto.PidURI)
	}

	i.logger.Debug("Indexing resource",
		"pid_uri", dto.PidURI,
		"action", dto.Action,
		"lifecycle_status", dto.CurrentLifecycleStatus())

	switch dto.Action {
	case ActionPublish:
		return i.publish(ctx, dto, opts)
	case ActionDeletion:
		return i.delete(ctx, dto, opts)
	default:
		return i.upsert(ctx, dto, opts)
	}
}

// IndexPID resolves pidURI and indexes the variant the action applies to.
func (i *Indexer) IndexPID(ctx context.Context, action Action, pidURI string, opts Options) error {
	i.resolver.Invalidate(ctx, pidURI)
	cto, err := i.resolver.Resolve(ctx, pidURI)

	if action == ActionDeletion {
		return i.deletePID(ctx, pidURI, cto, err, opts)
	}
	if err != nil {
		return fmt.Errorf("resolve %s: %w", pidURI, err)
	}

	switch action {
	case ActionPublish:
		if cto.Published == nil {
			i.logger.Info("No published variant to index", "pid_uri", pidURI)
			return nil
		}
		return i.Index(ctx, &ResourceIndexingDTO{Action: action, PidURI: pidURI, Resource: cto.Published, RepoResources: cto}, opts)
	case ActionReindex:
		var errs []error
		for _, r := range cto.Variants() {
			dto := &ResourceIndexingDTO{Action: action, PidURI: pidURI, Resource: r, RepoResources: cto}
			if err := i.Index(ctx, dto, opts); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	default:
		r := cto.Draft
		if r == nil {
			r = cto.Published
		}
		return i.Index(ctx, &ResourceIndexingDTO{Action: action, PidURI: pidURI, Resource: r, RepoResources: cto}, opts)
	}
}

// deletePID infers the deleted variant from what is left in the store.
func (i *Indexer) deletePID(ctx context.Context, pidURI string, cto *graph.ResourcesCTO, resolveErr error, opts Options) error {
	dto := &ResourceIndexingDTO{Action: ActionDeletion, PidURI: pidURI}
	switch {
	case errors.Is(resolveErr, fault.ErrNotFound):
		dto.LifecycleStatus = graph.LifecyclePublished
	case resolveErr != nil:
		return fmt.Errorf("resolve %s: %w", pidURI, resolveErr)
	case cto.Published != nil && cto.Draft == nil:
		dto.LifecycleStatus = graph.LifecycleDraft
	default:
		i.logger.Warn("Deleted PID still has a draft, deleting its published document",
			"pid_uri", pidURI)
		dto.LifecycleStatus = graph.LifecyclePublished
	}
	return i.Index(ctx, dto, opts)
}

func (i *Indexer) upsert(ctx context.Context, dto *ResourceIndexingDTO, opts Options) error {
	r := dto.Resource
	if r == nil {
		i.logger.Info("No resource to index", "pid_uri", dto.PidURI, "action", dto.Action)
		return nil
	}

	var errs []error
	if err := i.emit(ctx, dto.Action, r, dto.RepoResources, dto.Action != ActionCreate); err != nil {
		errs = append(errs, err)
	}

	if opts.RefreshCounterpart && r.LifecycleStatus() == graph.LifecycleDraft {
		if published := dto.RepoResources.Get(graph.LifecyclePublished); published != nil {
			i.metrics.Cascade("counterpart")
			if err := i.emit(ctx, ActionUpdate, published, dto.RepoResources, true); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if opts.PropagateLinks {
		i.Propagate(ctx, dto, true, true)
	}
	return errors.Join(errs...)
}

func (i *Indexer) publish(ctx context.Context, dto *ResourceIndexingDTO, opts Options) error {
	r := dto.Resource
	if r == nil {
		i.logger.Info("No resource to publish", "pid_uri", dto.PidURI)
		return nil
	}

	var errs []error
	if err := i.emit(ctx, ActionPublish, r, dto.RepoResources, true); err != nil {
		errs = append(errs, err)
	}

	if draft := dto.RepoResources.Get(graph.LifecycleDraft); draft != nil && draft.ID != r.ID {
		i.metrics.Cascade("draft_deletion")
		if err := i.emitDeletion(ctx, draft.PidURI, graph.LifecycleDraft, draft.ID); err != nil {
			errs = append(errs, err)
		}
	}

	if opts.PropagateLinks {
		i.Propagate(ctx, dto, true, true)
	}
	return errors.Join(errs...)
}

func (i *Indexer) delete(ctx context.Context, dto *ResourceIndexingDTO, opts Options) error {
	status := dto.CurrentLifecycleStatus()
	internalID := ""
	if dto.Resource != nil {
		internalID = dto.Resource.ID
	}
	if err := i.emitDeletion(ctx, dto.PidURI, status, internalID); err != nil {
		return err
	}

	if status == graph.LifecycleDraft {
		cto, err := i.resolver.Resolve(ctx, dto.PidURI)
		if err != nil && !errors.Is(err, fault.ErrNotFound) {
			i.logger.Warn("Failed to resolve counterpart of deleted draft",
				"pid_uri", dto.PidURI,
				"error", err)
		}
		if err == nil && cto.Published != nil {
			counterpart := &ResourceIndexingDTO{
				Action:        ActionPublish,
				PidURI:        dto.PidURI,
				Resource:      cto.Published,
				RepoResources: &graph.ResourcesCTO{Published: cto.Published, Versions: cto.Versions},
			}
			i.metrics.Cascade("counterpart")
			switch opts.Deletion {
			case OutboundLinksOnly:
				i.Propagate(ctx, counterpart, false, true)
				return nil
			default:
				return i.publish(ctx, counterpart, opts)
			}
		}
	}

	if opts.PropagateLinks {
		i.Propagate(ctx, dto, true, true)
	}
	return nil
}

// emit builds and publishes the document of r. Resources without metadata
// are skipped.
func (i *Indexer) emit(ctx context.Context, action Action, r *graph.Resource, cto *graph.ResourcesCTO, includeInbound bool) error {
	props, err := i.meta.ForEntityType(ctx, r.Type())
	if err != nil {
		i.metrics.ItemFailure("metadata")
		return fault.NewItemError("metadata", r.PidURI, err)
	}
	if len(props) == 0 {
		i.logger.Info("No metadata for resource type, skipping",
			"pid_uri", r.PidURI,
			"type", r.Type())
		return nil
	}

	dto := &ResourceIndexingDTO{Action: action, PidURI: r.PidURI, Resource: r, RepoResources: cto}
	doc, err := i.builder.Build(ctx, dto, props, includeInbound)
	if err != nil {
		i.logger.Error("Failed to assemble document",
			"pid_uri", r.PidURI,
			"action", action,
			"error", err)
		i.metrics.ItemFailure("assemble")
		return fault.NewItemError("assemble", r.PidURI, err)
	}

	msg := NewMessage(action, r.PidURI, r.LifecycleStatus(), r.ID, doc)
	if err := i.publisher.PublishDocument(ctx, msg); err != nil {
		i.metrics.ItemFailure("publish")
		return fault.NewItemError("publish", r.PidURI, err)
	}
	i.metrics.Document(string(action))
	i.logger.Debug("Published document",
		"pid_uri", r.PidURI,
		"action", action,
		"lifecycle_status", r.LifecycleStatus())
	return nil
}

func (i *Indexer) emitDeletion(ctx context.Context, pidURI string, status graph.LifecycleStatus, internalID string) error {
	msg := NewMessage(ActionDeletion, pidURI, status, internalID, deletionDocument(pidURI))
	if err := i.publisher.PublishDeletion(ctx, msg); err != nil {
		i.metrics.ItemFailure("publish")
		return fault.NewItemError("publish", pidURI, err)
	}
	i.metrics.Deletion()
	i.logger.Debug("Published deletion", "pid_uri", pidURI, "lifecycle_status", status)
	return nil
}
