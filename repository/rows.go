package repository

import (
	"github.com/c360studio/semcrawl/graph"
	"github.com/c360studio/semcrawl/sparql"
)

func termOf(t sparql.Term) graph.Term {
	switch {
	case t.IsIRI():
		return graph.Term{Kind: graph.TermIRI, Value: t.Value}
	case t.IsBlank():
		return graph.Term{Kind: graph.TermBlank, Value: t.Value}
	default:
		return graph.Term{Kind: graph.TermLiteral, Value: t.Value, Datatype: t.Datatype}
	}
}

// ResourceRows maps full-fetch bindings to rows.
func ResourceRows(rs *sparql.ResultSet) []graph.Row {
	bindings := rs.Bindings()
	rows := make([]graph.Row, 0, len(bindings))
	for _, b := range bindings {
		rows = append(rows, graph.Row{
			Subject:          b.Value("subject"),
			Node:             b.Value("object"),
			Predicate:        b.Value("predicate"),
			Value:            termOf(b["object_"]),
			ValuePidURI:      b.Value("objectPidUri"),
			PublishedVersion: b.Value("publishedVersion"),
			Inbound:          b.Value("inbound") == "true",
			InboundPredicate: b.Value("inboundPredicate"),
		})
	}
	return rows
}

// EntityRows maps predicate/object bindings of a single entity to rows.
func EntityRows(rs *sparql.ResultSet) []graph.Row {
	bindings := rs.Bindings()
	rows := make([]graph.Row, 0, len(bindings))
	for _, b := range bindings {
		rows = append(rows, graph.Row{
			Predicate: b.Value("predicate"),
			Value:     termOf(b["object"]),
		})
	}
	return rows
}

// VersionRows maps version-chain bindings to chain members in result order.
func VersionRows(rs *sparql.ResultSet) []graph.VersionOverview {
	bindings := rs.Bindings()
	out := make([]graph.VersionOverview, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, graph.VersionOverview{
			ID:               b.Value("resource"),
			Version:          b.Value("version"),
			PidURI:           b.Value("pidUri"),
			BaseURI:          b.Value("baseUri"),
			LifecycleStatus:  graph.ParseLifecycleStatus(b.Value("entryLifecycleStatus")),
			PublishedVersion: b.Value("publishedResource"),
			LaterVersion:     b.Value("laterVersion"),
		})
	}
	return out
}
