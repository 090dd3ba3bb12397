package reindex

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360studio/semcrawl/metadata"
	"github.com/c360studio/semcrawl/registration"
	"github.com/c360studio/semcrawl/search"
	"github.com/c360studio/semcrawl/vocabulary/colid"
)

// TaxonomySource lists the terms of a taxonomy.
type TaxonomySource interface {
	TaxonomyList(ctx context.Context, taxonomyType string) ([]registration.Taxonomy, error)
}

// BuildMapping assembles the search mapping of every instantiable
// resource type. Controlled-vocabulary properties whose taxonomy is
// hierarchical carry the taxonomy; rdf:type always does.
func BuildMapping(ctx context.Context, meta metadata.Service, taxonomies TaxonomySource, logger *slog.Logger) (search.Mapping, error) {
	types, err := meta.InstantiableTypes(ctx, colid.ClassPIDConcept)
	if err != nil {
		return nil, err
	}
	props, err := meta.Merged(ctx, types)
	if err != nil {
		return nil, err
	}
	props = metadata.ApplyFacetRules(props)

	mapping := make(search.Mapping, len(props))
	for i := range props {
		p := props[i]
		if metadata.IsIgnored(&p, false) {
			continue
		}

		isType := p.Path() == colid.RDFType
		if rng, cv := p.IsControlledVocabulary(); cv || isType {
			list, err := taxonomies.TaxonomyList(ctx, rng)
			if err != nil {
				return nil, fmt.Errorf("taxonomy of %s: %w", p.Path(), err)
			}
			if isType || hierarchical(list) {
				p.Set("taxonomy", list)
			}
		}

		for j := range p.NestedMetadata {
			p.NestedMetadata[j].Properties = withoutIgnored(p.NestedMetadata[j].Properties)
		}
		mapping[p.Path()] = p
	}

	logger.Info("Built metadata mapping", "types", len(types), "properties", len(mapping))
	return mapping, nil
}

func hierarchical(list []registration.Taxonomy) bool {
	for _, t := range list {
		if t.HasChild {
			return true
		}
	}
	return false
}

func withoutIgnored(props []metadata.Property) []metadata.Property {
	out := make([]metadata.Property, 0, len(props))
	for i := range props {
		if !metadata.IsIgnored(&props[i], false) {
			out = append(out, props[i])
		}
	}
	return out
}
