package graph

import "github.com/c360studio/semcrawl/vocabulary/colid"

// MaxFoldDepth bounds how many levels of nested entities Fold expands.
const MaxFoldDepth = 4

// TermKind tells whether a row value is an IRI or a literal.
type TermKind int

const (
	TermLiteral TermKind = iota
	TermIRI
	TermBlank
)

// Term is a value position of a row.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
}

// IsNode reports whether the term can name a node with its own rows.
func (t Term) IsNode() bool {
	return t.Kind == TermIRI || t.Kind == TermBlank
}

// Row is one result row of a full-fetch query.
//
// Subject is the top-level resource the row belongs to. Node is the entity
// that owns Predicate: the subject itself, one of its nested objects, or,
// for inbound rows, the entity pointing at the subject.
type Row struct {
	Subject          string
	Node             string
	Predicate        string
	Value            Term
	ValuePidURI      string
	PublishedVersion string
	Inbound          bool
	InboundPredicate string
}

// FoldEntities folds rows into one entity per subject.
//
// When anchorID is set all rows are taken to describe a single entity that
// carries anchorID as its id, which is how lookups by id are answered when
// the query does not project the subject.
func FoldEntities(rows []Row, anchorID string) []*Entity {
	if anchorID != "" {
		rows = anchor(rows, anchorID)
	}
	var out []*Entity
	for _, group := range groupBySubject(rows) {
		e := foldSubject(group)
		out = append(out, &e)
	}
	return out
}

// FoldResources folds rows into one resource per subject.
func FoldResources(rows []Row) []*Resource {
	var out []*Resource
	for _, group := range groupBySubject(rows) {
		r := &Resource{Entity: foldSubject(group)}
		r.PidURI = r.Entity.PidURI()
		for _, row := range group.rows {
			if row.PublishedVersion != "" {
				r.PublishedVersion = row.PublishedVersion
				break
			}
		}
		out = append(out, r)
	}
	return out
}

type subjectRows struct {
	subject string
	rows    []Row
}

// groupBySubject keeps the order in which subjects first appear.
func groupBySubject(rows []Row) []subjectRows {
	index := map[string]int{}
	var groups []subjectRows
	for _, row := range rows {
		i, ok := index[row.Subject]
		if !ok {
			i = len(groups)
			index[row.Subject] = i
			groups = append(groups, subjectRows{subject: row.Subject})
		}
		groups[i].rows = append(groups[i].rows, row)
	}
	return groups
}

func anchor(rows []Row, id string) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		if row.Node == "" || row.Node == row.Subject {
			row.Node = id
		}
		row.Subject = id
		out[i] = row
	}
	return out
}

func foldSubject(group subjectRows) Entity {
	path := visited{group.subject: {}}
	return Entity{
		ID:                group.subject,
		Properties:        foldNode(group.rows, group.subject, 0, path),
		InboundProperties: foldInbound(group.rows, group.subject),
	}
}

// visited holds the node ids on the current expansion path. Each branch
// gets its own copy so that siblings may expand the same node.
type visited map[string]struct{}

func (v visited) with(id string) visited {
	next := make(visited, len(v)+1)
	for k := range v {
		next[k] = struct{}{}
	}
	next[id] = struct{}{}
	return next
}

func foldNode(rows []Row, node string, depth int, path visited) Properties {
	depth++
	props := Properties{}
	for _, row := range rows {
		if row.Node != node {
			continue
		}
		props.Add(row.Predicate, foldValue(rows, row, depth, path))
	}
	return props
}

func foldValue(rows []Row, row Row, depth int, path visited) Value {
	target := row.Value.Value
	if row.Value.IsNode() && depth <= MaxFoldDepth && ownsRows(rows, target) {
		if _, seen := path[target]; !seen {
			return Nested(&Entity{
				ID:         target,
				Properties: foldNode(rows, target, depth, path.with(target)),
			})
		}
	}
	if row.ValuePidURI != "" {
		return Reference(row.ValuePidURI)
	}
	if row.Value.IsNode() {
		return Reference(target)
	}
	return Scalar(target)
}

func ownsRows(rows []Row, node string) bool {
	for _, row := range rows {
		if row.Node == node {
			return true
		}
	}
	return false
}

// foldInbound groups inbound rows by inbound predicate, then by the entity
// that points at the subject. Version links are left to the version chain.
func foldInbound(rows []Row, subject string) Properties {
	byPredicate := map[string][]Row{}
	var predicates []string
	for _, row := range rows {
		if !row.Inbound || row.InboundPredicate == "" || row.InboundPredicate == colid.HasLaterVersion {
			continue
		}
		if _, ok := byPredicate[row.InboundPredicate]; !ok {
			predicates = append(predicates, row.InboundPredicate)
		}
		byPredicate[row.InboundPredicate] = append(byPredicate[row.InboundPredicate], row)
	}

	props := Properties{}
	for _, predicate := range predicates {
		group := byPredicate[predicate]
		var sources []string
		seen := map[string]bool{}
		for _, row := range group {
			if !seen[row.Node] {
				seen[row.Node] = true
				sources = append(sources, row.Node)
			}
		}
		for _, source := range sources {
			var own []Row
			for _, row := range group {
				if row.Node == source {
					own = append(own, row)
				}
			}
			path := visited{subject: {}, source: {}}
			props.Add(predicate, Nested(&Entity{
				ID:         source,
				Properties: foldNode(own, source, 1, path),
			}))
		}
	}
	return props
}
