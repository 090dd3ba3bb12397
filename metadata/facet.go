package metadata

import "github.com/c360studio/semcrawl/vocabulary/colid"

// Facet classifications written to colid.IsFacet.
const (
	FacetNever      = "never"
	FacetOnlySearch = "onlySearch"
	FacetAlways     = "always"
)

var facetOnlySearchPaths = map[string]bool{
	colid.HasVersion:     true,
	colid.Author:         true,
	colid.LastChangeUser: true,
	colid.HasDataSteward: true,
}

var facetExcludePaths = map[string]bool{
	colid.HasPID:                     true,
	colid.HasBaseURI:                 true,
	colid.HasEntryLifecycleStatus:    true,
	colid.HasHistoricVersion:         true,
	colid.MetadataGraphConfiguration: true,
}

// FacetType classifies how the search service may facet on p. An empty
// result leaves the property unclassified.
func FacetType(p *Property) string {
	switch {
	case p.str(colid.EditWidget) == colid.NestedObjectEditor,
		p.IsLinkType(),
		facetExcludePaths[p.Key]:
		return FacetNever
	case p.Range() == colid.ClassPerson,
		p.str(colid.SHACLClass) == colid.ClassPerson,
		facetOnlySearchPaths[p.Key]:
		return FacetOnlySearch
	case p.Datatype() == colid.XSDBoolean,
		p.Datatype() == colid.XSDDateTime,
		p.NodeKind() == colid.SHACLIRI:
		return FacetAlways
	}
	return ""
}

// ApplyFacetRules annotates every property of props with its facet type.
func ApplyFacetRules(props []Property) []Property {
	for i := range props {
		if facet := FacetType(&props[i]); facet != "" {
			props[i].Set(colid.IsFacet, facet)
		}
	}
	return props
}
