package colid

import "github.com/c360studio/semstreams/vocabulary"

// Dotted predicate names registered with the semstreams vocabulary.
const (
	ResourcePID       = "colid.resource.pid"
	ResourceBaseURI   = "colid.resource.base_uri"
	ResourceLifecycle = "colid.resource.lifecycle_status"
	ResourceDraft     = "colid.resource.draft"
	ResourceType      = "colid.resource.type"
	ResourceLabel     = "colid.resource.label"
	ResourceKeyword   = "colid.resource.keyword"
	ResourceAuthor    = "colid.resource.author"
	ResourceSteward   = "colid.resource.data_steward"

	DistributionMain     = "colid.distribution.main"
	DistributionEndpoint = "colid.distribution.endpoint"

	VersionLater    = "colid.version.later"
	VersionNumber   = "colid.version.number"
	VersionChain    = "colid.version.chain"
	VersionHistoric = "colid.version.historic"
)

var aliases = map[string]string{}

func register(name, iri, description, dataType string) {
	vocabulary.Register(name,
		vocabulary.WithDescription(description),
		vocabulary.WithDataType(dataType),
		vocabulary.WithIRI(iri))
	aliases[iri] = name
}

func init() {
	register(ResourcePID, HasPID, "Stable PID URI of a resource", "iri")
	register(ResourceBaseURI, HasBaseURI, "Base URI shared by all versions of a resource", "iri")
	register(ResourceLifecycle, HasEntryLifecycleStatus, "Entry lifecycle status", "iri")
	register(ResourceDraft, HasDraft, "Draft of a published resource", "iri")
	register(ResourceType, RDFType, "Resource type", "iri")
	register(ResourceLabel, RDFSLabel, "Human readable label", "string")
	register(ResourceKeyword, HasKeyword, "Controlled vocabulary keyword", "iri")
	register(ResourceAuthor, Author, "Author of the entry", "string")
	register(ResourceSteward, HasDataSteward, "Data steward of the entry", "string")

	register(DistributionMain, MainDistribution, "Main distribution endpoint", "entity")
	register(DistributionEndpoint, Distribution, "Distribution endpoint", "entity")

	register(VersionLater, HasLaterVersion, "Next version in the version chain", "iri")
	register(VersionNumber, HasVersion, "Version label", "string")
	register(VersionChain, HasVersions, "All versions of the resource", "entity")
	register(VersionHistoric, HasHistoricVersion, "Historic revision of the entry", "iri")
}

// Alias returns the dotted name registered for iri, or iri itself when the
// predicate is not part of the registered vocabulary.
func Alias(iri string) string {
	if name, ok := aliases[iri]; ok {
		return name
	}
	return iri
}
