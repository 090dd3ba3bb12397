package indexing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/semcrawl/graph"
	"github.com/c360studio/semcrawl/metadata"
	"github.com/c360studio/semcrawl/vocabulary/colid"
)

// LinkingLevel bounds how deep nested entities are expanded inside a
// document.
const LinkingLevel = 2

// DateFormat is the round-trip format dates are normalised to.
const DateFormat = "2006-01-02T15:04:05.0000000Z07:00"

// LabelResolver resolves a controlled-vocabulary term to its label.
type LabelResolver interface {
	Label(ctx context.Context, id string) (string, error)
}

// Builder assembles index documents from folded resources.
type Builder struct {
	meta   metadata.Service
	labels LabelResolver
	hasher *Hasher
	logger *slog.Logger
}

// NewBuilder creates a document builder.
func NewBuilder(meta metadata.Service, labels LabelResolver, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		meta:   meta,
		labels: labels,
		hasher: NewHasher(labels),
		logger: logger,
	}
}

// Build assembles the document of dto.Resource using props, the metadata
// of its type. Inbound edges are added when includeInbound is set.
func (b *Builder) Build(ctx context.Context, dto *ResourceIndexingDTO, props []metadata.Property, includeInbound bool) (doc Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("assemble document for %s: panic: %v", dto.PidURI, r)
		}
	}()

	r := dto.Resource
	if r == nil {
		return nil, fmt.Errorf("assemble document for %s: no resource", dto.PidURI)
	}

	doc = b.walk(ctx, &r.Entity, props, 0, false)
	if includeInbound {
		doc.mergeInbound(b.walk(ctx, &r.Entity, props, 0, true))
	}

	if v, ok := r.Properties.First(colid.MainDistribution); ok && v.IsNested() {
		doc[colid.PointsAt] = single(&DirectionProperty{URI: v.Entity.ID, Edge: colid.PointsAt})
	}

	doc[colid.HasVersions] = versionsProperty(r)
	doc[KeyResourceID] = single(&DirectionProperty{URI: r.PidURI})
	doc[KeyInternalResourceID] = single(&DirectionProperty{URI: r.ID})

	hash, err := b.hasher.Hash(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", dto.PidURI, err)
	}
	doc[KeyResourceHash] = single(&DirectionProperty{Value: hash})

	if sibling := dto.RepoResources.Counterpart(r); sibling != nil {
		key := KeyHasPublished
		if r.LifecycleStatus().IsPublished() {
			key = KeyHasDraft
		}
		doc[key] = single(&DirectionProperty{Value: sibling.LifecycleStatus().IRI(), URI: sibling.ID})
	}
	return doc, nil
}

func (b *Builder) walk(ctx context.Context, e *graph.Entity, props []metadata.Property, level int, inbound bool) Document {
	doc := Document{}
	source := e.Properties
	if inbound {
		source = e.InboundProperties
	}

	for _, predicate := range source.Keys() {
		mp := metadata.Find(props, predicate)
		if metadata.IsIgnored(mp, inbound) && (mp == nil || mp.Key != colid.MainDistribution) {
			continue
		}

		for _, v := range source[predicate] {
			m := mp
			if m == nil && inbound && v.IsNested() {
				m = b.inboundMetadata(ctx, v.Entity, predicate)
			}
			if m == nil {
				continue
			}

			dp := b.directionProperty(ctx, predicate, v, m, level)
			if dp == nil {
				continue
			}

			key := predicate
			switch {
			case m.IsLinkType():
				key = colid.GroupLinkTypes
			case predicate == colid.MainDistribution:
				key = colid.Distribution
				dp.Edge = colid.Distribution
			}
			doc.add(key, dp, inbound)
		}
	}
	return doc
}

// inboundMetadata looks up predicate in the metadata of the entity the
// inbound edge originates from.
func (b *Builder) inboundMetadata(ctx context.Context, source *graph.Entity, predicate string) *metadata.Property {
	props, err := b.meta.ForEntityType(ctx, source.Type())
	if err != nil {
		b.logger.Warn("Failed to load metadata of inbound entity",
			"entity", source.ID,
			"type", source.Type(),
			"error", err)
		return nil
	}
	return metadata.Find(props, predicate)
}

func (b *Builder) directionProperty(ctx context.Context, predicate string, v graph.Value, m *metadata.Property, level int) *DirectionProperty {
	if v.IsNested() {
		return b.nested(ctx, predicate, v.Entity, m, level+1)
	}

	// Link targets that were not fetched cannot be described.
	if m.IsLinkType() {
		return nil
	}

	text := v.String()
	if _, cv := m.IsControlledVocabulary(); cv || predicate == colid.RDFType {
		label, err := b.labels.Label(ctx, text)
		if err != nil {
			b.logger.Warn("No label for controlled vocabulary term, skipping",
				"predicate", predicate,
				"term", text,
				"error", err)
			return nil
		}
		return &DirectionProperty{Value: label, URI: text}
	}

	if m.Datatype() == colid.XSDDateTime {
		text = formatDate(text)
	}
	return &DirectionProperty{Value: text}
}

func (b *Builder) nested(ctx context.Context, predicate string, e *graph.Entity, m *metadata.Property, level int) *DirectionProperty {
	if e.LifecycleStatus() == graph.LifecycleDraft {
		return nil
	}
	dp := &DirectionProperty{Value: e.ID, URI: e.ID, Edge: predicate}
	if level >= LinkingLevel {
		return dp
	}

	var nested []metadata.Property
	if m.IsLinkType() {
		props, err := b.meta.ForEntityType(ctx, e.Type())
		if err != nil {
			b.logger.Warn("Failed to load metadata of linked resource",
				"entity", e.ID,
				"type", e.Type(),
				"error", err)
			return dp
		}
		nested = props
	} else if md, ok := m.NestedFor(e.Type()); ok {
		nested = md.Properties
	}

	if len(nested) == 0 {
		b.logger.Debug("No metadata for nested entity", "entity", e.ID, "type", e.Type())
		return dp
	}
	dp.Value = b.walk(ctx, e, nested, level, false)
	return dp
}

// versionsProperty lists the other chain members of r: older versions as
// inbound, newer ones as outbound. Unpublished members are only listed on
// drafts.
func versionsProperty(r *graph.Resource) *Property {
	prop := &Property{}
	own := r.Properties.FirstString(colid.HasVersion)
	draft := r.LifecycleStatus() == graph.LifecycleDraft

	pos := -1
	for i, v := range r.Versions {
		if v.PidURI == r.PidURI {
			pos = i
			break
		}
	}

	for i, v := range r.Versions {
		if v.PidURI == r.PidURI {
			continue
		}
		if !draft && !v.HasPublishedVersion() {
			continue
		}

		var cmp int
		if pos >= 0 {
			cmp = pos - i
		} else {
			cmp = graph.CompareVersions(own, v.Version)
		}

		dp := &DirectionProperty{
			Value: Document{
				colid.HasPID:     single(&DirectionProperty{Value: v.PidURI, URI: v.PidURI}),
				colid.HasBaseURI: single(&DirectionProperty{Value: v.BaseURI, URI: v.BaseURI}),
				colid.HasVersion: single(&DirectionProperty{Value: v.Version}),
			},
			URI:  v.ID,
			Edge: colid.HasVersions,
		}
		switch {
		case cmp > 0:
			prop.Inbound = append(prop.Inbound, dp)
		case cmp < 0:
			prop.Outbound = append(prop.Outbound, dp)
		}
	}
	return prop
}

func formatDate(s string) string {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	return t.UTC().Format(DateFormat)
}
