// Package metadata describes the per-predicate schema published by the
// registration service and how it shapes index documents and search
// mappings.
package metadata

import (
	"github.com/c360studio/semcrawl/vocabulary/colid"
)

// Property describes one predicate of an entity type.
type Property struct {
	Key            string         `json:"key"`
	Properties     map[string]any `json:"properties"`
	NestedMetadata []Metadata     `json:"nestedMetadata,omitempty"`
}

// Metadata describes the properties of one entity type.
type Metadata struct {
	Key         string     `json:"key"`
	Label       string     `json:"label,omitempty"`
	Description string     `json:"description,omitempty"`
	Properties  []Property `json:"properties"`
}

func (p *Property) str(key string) string {
	if p == nil || p.Properties == nil {
		return ""
	}
	switch v := p.Properties[key].(type) {
	case string:
		return v
	case map[string]any:
		if k, ok := v["key"].(string); ok {
			return k
		}
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// Path returns the predicate IRI the property describes.
func (p *Property) Path() string {
	if path := p.str(colid.HasPID); path != "" {
		return path
	}
	if path := p.str(colid.SHACLPath); path != "" {
		return path
	}
	if p == nil {
		return ""
	}
	return p.Key
}

// Group returns the IRI of the property group, or an empty string.
func (p *Property) Group() string {
	return p.str(colid.SHACLGroup)
}

// IsLinkType reports whether the property links to other resources.
func (p *Property) IsLinkType() bool {
	return p.Group() == colid.GroupLinkTypes
}

// Datatype returns sh:datatype.
func (p *Property) Datatype() string {
	return p.str(colid.SHACLDatatype)
}

// NodeKind returns sh:nodeKind.
func (p *Property) NodeKind() string {
	return p.str(colid.SHACLNodeKind)
}

// Range returns rdfs:range.
func (p *Property) Range() string {
	return p.str(colid.RDFSRange)
}

// IsControlledVocabulary reports whether values of the property are terms
// of a taxonomy, and returns the taxonomy type.
func (p *Property) IsControlledVocabulary() (string, bool) {
	r := p.Range()
	if r == "" || len(p.NestedMetadata) > 0 {
		return "", false
	}
	return r, true
}

// Set stores value under key, creating the map if needed.
func (p *Property) Set(key string, value any) {
	if p.Properties == nil {
		p.Properties = map[string]any{}
	}
	p.Properties[key] = value
}

// NestedFor returns the nested metadata for entityType.
func (p *Property) NestedFor(entityType string) (*Metadata, bool) {
	for i := range p.NestedMetadata {
		if p.NestedMetadata[i].Key == entityType {
			return &p.NestedMetadata[i], true
		}
	}
	return nil, false
}

// Find returns the property of list describing predicate.
func Find(list []Property, predicate string) *Property {
	for i := range list {
		if list[i].Path() == predicate {
			return &list[i]
		}
	}
	return nil
}

// IsIgnored reports whether p is left out of index documents. Properties
// without metadata and the main distribution are only kept on the inbound
// side; technical properties are dropped unless whitelisted.
func IsIgnored(p *Property, inbound bool) bool {
	if p == nil || p.Key == colid.MainDistribution {
		return !inbound
	}
	return p.Group() == colid.GroupInvisibleTechnicalInformation && !colid.IsWhitelisted(p.Key)
}
