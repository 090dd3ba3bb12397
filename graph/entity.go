// Package graph provides the resource model of the catalogue and folds flat
// triple store rows into nested entity trees.
package graph

import (
	"sort"

	"github.com/c360studio/semcrawl/vocabulary/colid"
)

// Properties maps a predicate IRI to its values.
type Properties map[string][]Value

// Add appends v to predicate unless an equal value is already present.
func (p Properties) Add(predicate string, v Value) {
	for _, existing := range p[predicate] {
		if existing.sameAs(v) {
			return
		}
	}
	p[predicate] = append(p[predicate], v)
}

// First returns the first value of predicate.
func (p Properties) First(predicate string) (Value, bool) {
	values := p[predicate]
	if len(values) == 0 {
		return Value{}, false
	}
	return values[0], true
}

// FirstString returns the string form of the first value of predicate, or
// an empty string.
func (p Properties) FirstString(predicate string) string {
	v, ok := p.First(predicate)
	if !ok {
		return ""
	}
	return v.String()
}

// Strings returns the string form of every value of predicate.
func (p Properties) Strings(predicate string) []string {
	values := p[predicate]
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.String())
	}
	return out
}

// Keys returns the predicates in sorted order.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entity is a node of the folded graph.
type Entity struct {
	ID                string     `json:"id"`
	Properties        Properties `json:"properties"`
	InboundProperties Properties `json:"inboundProperties,omitempty"`
}

// NewEntity returns an entity with initialized property maps.
func NewEntity(id string) *Entity {
	return &Entity{
		ID:                id,
		Properties:        Properties{},
		InboundProperties: Properties{},
	}
}

// Type returns the first rdf:type of the entity.
func (e *Entity) Type() string {
	return e.Properties.FirstString(colid.RDFType)
}

// LifecycleStatus returns the entry lifecycle status of the entity.
func (e *Entity) LifecycleStatus() LifecycleStatus {
	return ParseLifecycleStatus(e.Properties.FirstString(colid.HasEntryLifecycleStatus))
}

// PidURI returns the PID URI recorded on the entity, if any.
func (e *Entity) PidURI() string {
	return e.Properties.FirstString(colid.HasPID)
}
