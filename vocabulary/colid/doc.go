// Package colid provides the IRIs of the resource catalogue ontology.
//
// The catalogue stores resources in named graphs as plain triples. Every
// resource carries a PID URI (HasPID), an entry lifecycle status and, when
// it is part of a version chain, a forward pointer to its later version.
// A published resource that is being edited points to its draft through
// HasDraft.
//
// # Semstreams Integration
//
// The predicates used by the crawler are registered with the semstreams
// vocabulary under dotted names (colid.resource.*, colid.version.*) so that
// tooling can display short names. Alias maps a full IRI back to its
// dotted name.
package colid
