// Package repository holds the graph queries of the crawler and maps their
// bindings onto the graph model.
package repository

import (
	"github.com/c360studio/semcrawl/sparql"
	"github.com/c360studio/semcrawl/vocabulary/colid"
)

const prefixes = `PREFIX rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
`

// ExistsQuery checks whether pidURI is present in graph. Entries that are
// the draft of another entry are not counted.
func ExistsQuery(pidURI, graph string, metadataGraphs []string) *sparql.Query {
	if sparql.ValidateIRI(pidURI) != nil {
		return nil
	}
	q := sparql.NewQuery(prefixes + `SELECT ?subject ?lifecycleStatus
@fromResourceGraph
@fromMetadataGraphs
WHERE {
    ?subject rdf:type [rdfs:subClassOf* @firstResourceType] .
    ?subject @hasPid @pidUri .
    FILTER NOT EXISTS { ?publishedSubject @hasPidEntryDraft ?subject }
    ?subject @hasLifecycleStatus ?lifecycleStatus .
}
LIMIT 1`)
	q.SetFromGraphs("fromResourceGraph", []string{graph})
	q.SetFromGraphs("fromMetadataGraphs", metadataGraphs)
	q.SetURI("firstResourceType", colid.ClassPIDConcept)
	q.SetURI("hasPid", colid.HasPID)
	q.SetURI("pidUri", pidURI)
	q.SetURI("hasPidEntryDraft", colid.HasDraft)
	q.SetURI("hasLifecycleStatus", colid.HasEntryLifecycleStatus)
	return q
}

// ResourceQuery fetches every variant of pidURI found in graphs together
// with its nested objects, the resources it links to, and the entities that
// point at it.
//
// Rows are projected as ?subject (the resource), ?object (the node owning
// ?predicate), ?object_ (the value), ?objectPidUri (PID alias of the value),
// ?publishedVersion, ?inbound and ?inboundPredicate.
func ResourceQuery(pidURI string, graphs, metadataGraphs []string) *sparql.Query {
	if sparql.ValidateIRI(pidURI) != nil {
		return nil
	}
	q := sparql.NewQuery(prefixes + `PREFIX : <urn:semcrawl:any#>
SELECT DISTINCT ?subject ?object ?predicate ?object_ ?objectPidUri ?publishedVersion ?inbound ?inboundPredicate
@fromResourceGraphs
@fromMetadataGraphs
WHERE {
    ?subject @hasPid @pidUri .
    ?subject rdf:type [rdfs:subClassOf* @firstResourceType] .
    {
        ?subject ?predicate ?object_ .
        BIND(?subject AS ?object)
        OPTIONAL { ?publishedVersion @hasPidEntryDraft ?subject }
        OPTIONAL { ?object_ @hasPid ?objectPidUri }
    } UNION {
        ?subject (:|!:)+ ?object .
        FILTER(isIRI(?object) || isBlank(?object))
        FILTER NOT EXISTS { ?object rdf:type [rdfs:subClassOf* @firstResourceType] }
        FILTER NOT EXISTS { ?draftResource @hasPidEntryDraft ?object }
        ?object ?predicate ?object_ .
        OPTIONAL { ?object_ @hasPid ?objectPidUri }
    } UNION {
        ?subject ?linkPredicate ?object .
        ?object rdf:type [rdfs:subClassOf* @firstResourceType] .
        FILTER NOT EXISTS { ?draftResource @hasPidEntryDraft ?object }
        ?object ?predicate ?object_ .
        OPTIONAL { ?object_ @hasPid ?objectPidUri }
    } UNION {
        ?object ?inboundPredicate ?subject .
        ?object ?predicate ?object_ .
        BIND(@true AS ?inbound)
        FILTER NOT EXISTS { ?draftResource @hasPidEntryDraft ?object }
    }
}`)
	q.SetFromGraphs("fromResourceGraphs", graphs)
	q.SetFromGraphs("fromMetadataGraphs", metadataGraphs)
	q.SetURI("hasPid", colid.HasPID)
	q.SetURI("pidUri", pidURI)
	q.SetURI("firstResourceType", colid.ClassPIDConcept)
	q.SetURI("hasPidEntryDraft", colid.HasDraft)
	q.SetTypedLiteral("true", "true", colid.XSDBoolean)
	return q
}

// VersionsQuery returns every chain member reachable from pidURI by
// following later-version pointers in either direction. Drafts of other
// entries are excluded so only canonical chain members surface.
func VersionsQuery(pidURI string, graphs []string) *sparql.Query {
	if sparql.ValidateIRI(pidURI) != nil {
		return nil
	}
	q := sparql.NewQuery(`SELECT DISTINCT ?resource ?pidUri ?version ?baseUri ?entryLifecycleStatus ?publishedResource ?laterVersion
@fromResourceGraphs
WHERE {
    ?subject @hasPid @pidUri .
    FILTER NOT EXISTS { ?_subject @hasPidEntryDraft ?subject }
    {
        ?resource @hasLaterVersion* ?subject .
    } UNION {
        ?subject @hasLaterVersion* ?resource .
    }
    ?resource @hasVersion ?version .
    ?resource @hasPid ?pidUri .
    ?resource @hasEntryLifecycleStatus ?entryLifecycleStatus .
    OPTIONAL { ?resource @hasBaseUri ?baseUri }
    OPTIONAL { ?publishedResource @hasPidEntryDraft ?resource }
    OPTIONAL { ?resource @hasLaterVersion ?laterVersion }
    FILTER NOT EXISTS { ?draftResource @hasPidEntryDraft ?resource }
}`)
	q.SetFromGraphs("fromResourceGraphs", graphs)
	q.SetURI("hasPid", colid.HasPID)
	q.SetURI("pidUri", pidURI)
	q.SetURI("hasPidEntryDraft", colid.HasDraft)
	q.SetURI("hasLaterVersion", colid.HasLaterVersion)
	q.SetURI("hasVersion", colid.HasVersion)
	q.SetURI("hasEntryLifecycleStatus", colid.HasEntryLifecycleStatus)
	q.SetURI("hasBaseUri", colid.HasBaseURI)
	return q
}

// AllPidURIsQuery lists the PID URIs of every resource in graphs, in any
// lifecycle status.
func AllPidURIsQuery(graphs, metadataGraphs []string) *sparql.Query {
	q := sparql.NewQuery(prefixes + `SELECT DISTINCT ?pidUri
@fromResourceGraphs
@fromMetadataGraphs
WHERE {
    ?subject rdf:type [rdfs:subClassOf* @firstResourceType] .
    VALUES ?lifecycleStatus { @statuses }
    ?subject @hasLifecycleStatus ?lifecycleStatus .
    ?subject @hasPid ?pidUri .
}`)
	q.SetFromGraphs("fromResourceGraphs", graphs)
	q.SetFromGraphs("fromMetadataGraphs", metadataGraphs)
	q.SetURI("firstResourceType", colid.ClassPIDConcept)
	q.SetValues("statuses", []string{colid.LifecycleDraft, colid.LifecyclePublished, colid.LifecycleMarkedForDeletion})
	q.SetURI("hasLifecycleStatus", colid.HasEntryLifecycleStatus)
	q.SetURI("hasPid", colid.HasPID)
	return q
}

// EntityQuery returns the predicates and objects of a single entity.
func EntityQuery(id string, graphs []string) *sparql.Query {
	if sparql.ValidateIRI(id) != nil {
		return nil
	}
	q := sparql.NewQuery(`SELECT ?predicate ?object
@fromGraphs
WHERE {
    @subject ?predicate ?object
}`)
	q.SetFromGraphs("fromGraphs", graphs)
	q.SetURI("subject", id)
	return q
}
