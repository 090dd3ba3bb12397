package indexing

import (
	"context"
	"errors"
	"fmt"

	"github.com/c360studio/semcrawl/graph"
)

// Propagate re-indexes the resources linked to dto as Update with every
// cascade disabled, so propagation never goes beyond one hop. Failures of
// single targets are logged and skipped.
func (i *Indexer) Propagate(ctx context.Context, dto *ResourceIndexingDTO, includeInbound, includeOutbound bool) {
	targets := i.LinkSet(ctx, dto, includeInbound, includeOutbound)
	if len(targets) == 0 {
		return
	}
	i.logger.Debug("Propagating to linked resources",
		"pid_uri", dto.PidURI,
		"targets", len(targets))

	for _, pid := range targets {
		if err := i.refresh(ctx, pid); err != nil {
			i.logger.Warn("Failed to re-index linked resource",
				"pid_uri", dto.PidURI,
				"target", pid,
				"error", err)
		}
	}
}

// LinkSet returns the PIDs linked to dto, without dto's own PID. Outbound
// links are the link-typed values of the resource and its variants;
// inbound links are the version chain members and the inbound edges.
func (i *Indexer) LinkSet(ctx context.Context, dto *ResourceIndexingDTO, includeInbound, includeOutbound bool) []string {
	seen := map[string]bool{dto.PidURI: true}
	var out []string
	add := func(pid string) {
		if pid == "" || seen[pid] {
			return
		}
		seen[pid] = true
		out = append(out, pid)
	}

	if includeOutbound {
		resources := append([]*graph.Resource{dto.Resource}, dto.RepoResources.Variants()...)
		for _, r := range resources {
			if r == nil {
				continue
			}
			props, err := i.meta.ForEntityType(ctx, r.Type())
			if err != nil {
				i.logger.Warn("Failed to load metadata for link collection",
					"pid_uri", r.PidURI,
					"error", err)
				continue
			}
			for j := range props {
				if !props[j].IsLinkType() {
					continue
				}
				for _, v := range r.Properties[props[j].Path()] {
					add(linkTarget(v))
				}
			}
		}
	}

	if includeInbound {
		var versions []graph.VersionOverview
		if dto.RepoResources != nil {
			versions = dto.RepoResources.Versions
		}
		if versions == nil && dto.Resource != nil {
			versions = dto.Resource.Versions
		}
		for _, v := range versions {
			add(v.PidURI)
		}
		inbound := dto.InboundProperties()
		for _, predicate := range inbound.Keys() {
			for _, v := range inbound[predicate] {
				add(linkTarget(v))
			}
		}
	}
	return out
}

func linkTarget(v graph.Value) string {
	switch v.Kind {
	case graph.KindNested:
		if v.Entity == nil {
			return ""
		}
		return v.Entity.PidURI()
	case graph.KindReference:
		return v.Text
	default:
		return ""
	}
}

func (i *Indexer) refresh(ctx context.Context, pidURI string) error {
	i.resolver.Invalidate(ctx, pidURI)
	cto, err := i.resolver.Resolve(ctx, pidURI)
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	i.metrics.Cascade("link")

	var errs []error
	for _, r := range cto.Variants() {
		dto := &ResourceIndexingDTO{Action: ActionUpdate, PidURI: pidURI, Resource: r, RepoResources: cto}
		if err := i.Index(ctx, dto, Options{}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
