package indexing

import (
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/semcrawl/graph"
)

// Keys of the properties every document carries in addition to the
// resource's own predicates.
const (
	KeyResourceID         = "resourceId"
	KeyInternalResourceID = "internalResourceId"
	KeyResourceHash       = "resourceHash"
	KeyHasDraft           = "hasDraft"
	KeyHasPublished       = "hasPublishedVersion"
)

// DirectionProperty is one value of a document property. Value is a string
// or, for expanded nested entities, a Document.
type DirectionProperty struct {
	Value any    `json:"value"`
	URI   string `json:"uri,omitempty"`
	Edge  string `json:"edge,omitempty"`
}

// Property holds the outgoing and incoming values of one document key.
type Property struct {
	Outbound []*DirectionProperty `json:"outbound"`
	Inbound  []*DirectionProperty `json:"inbound"`
}

// Document is the unit of content sent to the search service.
type Document map[string]*Property

func (d Document) add(key string, p *DirectionProperty, inbound bool) {
	prop, ok := d[key]
	if !ok {
		prop = &Property{}
		d[key] = prop
	}
	if inbound {
		prop.Inbound = append(prop.Inbound, p)
	} else {
		prop.Outbound = append(prop.Outbound, p)
	}
}

// mergeInbound appends the inbound values of other to d.
func (d Document) mergeInbound(other Document) {
	for key, prop := range other {
		for _, p := range prop.Inbound {
			d.add(key, p, true)
		}
	}
}

// Outbound returns the outbound values of key.
func (d Document) Outbound(key string) []*DirectionProperty {
	if p, ok := d[key]; ok {
		return p.Outbound
	}
	return nil
}

// Inbound returns the inbound values of key.
func (d Document) Inbound(key string) []*DirectionProperty {
	if p, ok := d[key]; ok {
		return p.Inbound
	}
	return nil
}

func single(p *DirectionProperty) *Property {
	return &Property{Outbound: []*DirectionProperty{p}}
}

// deletionDocument carries only the id of the document to delete.
func deletionDocument(pidURI string) Document {
	return Document{KeyResourceID: single(&DirectionProperty{URI: pidURI})}
}

// Message is the envelope published for every document.
type Message struct {
	ID              string                `json:"id"`
	Action          Action                `json:"action"`
	PidURI          string                `json:"pidUri"`
	LifecycleStatus graph.LifecycleStatus `json:"lifecycleStatus,omitempty"`
	InternalID      string                `json:"internalId,omitempty"`
	Document        Document              `json:"document"`
	Timestamp       time.Time             `json:"timestamp"`
}

// NewMessage wraps doc in an envelope.
func NewMessage(action Action, pidURI string, status graph.LifecycleStatus, internalID string, doc Document) *Message {
	return &Message{
		ID:              uuid.NewString(),
		Action:          action,
		PidURI:          pidURI,
		LifecycleStatus: status,
		InternalID:      internalID,
		Document:        doc,
		Timestamp:       time.Now().UTC(),
	}
}
