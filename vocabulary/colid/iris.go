package colid

// Namespace is the base IRI for the PID ontology terms that are not part of
// the enterprise core.
const Namespace = "https://pid.bayer.com/kos/19050/"

// CoreNamespace is the base IRI for enterprise core terms.
const CoreNamespace = "http://pid.bayer.com/kos/19014/"

// Standard vocabularies used by queries and metadata.
const (
	RDFType        = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	RDFSLabel      = "http://www.w3.org/2000/01/rdf-schema#label"
	RDFSSubClassOf = "http://www.w3.org/2000/01/rdf-schema#subClassOf"
	RDFSRange      = "http://www.w3.org/2000/01/rdf-schema#range"
	SKOSPrefLabel  = "http://www.w3.org/2004/02/skos/core#prefLabel"

	XSDBoolean  = "http://www.w3.org/2001/XMLSchema#boolean"
	XSDDateTime = "http://www.w3.org/2001/XMLSchema#dateTime"
	XSDString   = "http://www.w3.org/2001/XMLSchema#string"
)

// SHACL terms read from metadata property descriptors.
const (
	SHACLPath     = "http://www.w3.org/ns/shacl#path"
	SHACLDatatype = "http://www.w3.org/ns/shacl#datatype"
	SHACLNodeKind = "http://www.w3.org/ns/shacl#nodeKind"
	SHACLClass    = "http://www.w3.org/ns/shacl#class"
	SHACLGroup    = "http://www.w3.org/ns/shacl#group"
	SHACLIRI      = "http://www.w3.org/ns/shacl#IRI"

	// EditWidget and NestedObjectEditor mark properties edited as nested forms.
	EditWidget         = "http://topbraid.org/tosh#editWidget"
	NestedObjectEditor = "http://topbraid.org/tosh#NestedObjectEditor"
)

// Class IRIs.
const (
	// ClassPIDConcept is the root of every resource type hierarchy.
	ClassPIDConcept = CoreNamespace + "PID_Concept"

	// ClassPerson is the range of person-valued properties.
	ClassPerson = CoreNamespace + "Person"
)

// Resource predicate IRIs.
const (
	// HasPID links a resource to its stable PID URI.
	HasPID = CoreNamespace + "hasPID"

	HasBaseURI              = Namespace + "hasBaseURI"
	HasEntryLifecycleStatus = Namespace + "hasEntryLifecycleStatus"

	// HasDraft points from a published resource to its draft.
	HasDraft = Namespace + "hasPidEntryDraft"

	// HasLaterVersion is the forward pointer of the version chain.
	HasLaterVersion = Namespace + "hasLaterVersion"

	HasVersion         = Namespace + "hasVersion"
	HasVersions        = Namespace + "hasVersions"
	HasHistoricVersion = Namespace + "hasHistoricVersion"

	MainDistribution = Namespace + "mainDistribution"
	Distribution     = Namespace + "distribution"
	PointsAt         = Namespace + "pointsAt"

	Author             = Namespace + "author"
	LastChangeUser     = Namespace + "lastChangeUser"
	LastChangeDateTime = Namespace + "lastChangeDateTime"
	DateCreated        = Namespace + "dateCreated"
	HasDataSteward     = Namespace + "hasDataSteward"
	HasRevision        = Namespace + "hasRevision"

	// HasKeyword holds controlled-vocabulary keywords.
	HasKeyword = Namespace + "47119343"

	MetadataGraphConfiguration = Namespace + "646465"

	HasBrokenDataSteward     = Namespace + "hasBrokenDataSteward"
	HasBrokenEndpointContact = Namespace + "hasBrokenEndpointContact"
	HasBrokenPidEntryLink    = Namespace + "hasBrokenPidEntryLink"

	// IsFacet is written into search mappings, not read from the store.
	IsFacet = Namespace + "isFacet"
)

// Entry lifecycle status IRIs.
const (
	LifecycleDraft             = Namespace + "draft"
	LifecyclePublished         = Namespace + "published"
	LifecycleMarkedForDeletion = Namespace + "markedForDeletion"
)

// Property groups.
const (
	GroupLinkTypes                     = Namespace + "LinkTypes"
	GroupInvisibleTechnicalInformation = Namespace + "InvisibleTechnicalInformation"
)

// TechnicalWhitelist lists predicates kept in index documents even though
// their metadata places them in the invisible technical group.
var TechnicalWhitelist = []string{
	HasEntryLifecycleStatus,
	HasBrokenDataSteward,
	HasBrokenEndpointContact,
	HasBrokenPidEntryLink,
}

// IsWhitelisted reports whether predicate is a technical predicate that
// must still be indexed.
func IsWhitelisted(predicate string) bool {
	for _, p := range TechnicalWhitelist {
		if p == predicate {
			return true
		}
	}
	return false
}
