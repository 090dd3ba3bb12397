package sparql

// Term types used in SPARQL JSON results.
const (
	TypeURI          = "uri"
	TypeLiteral      = "literal"
	TypeTypedLiteral = "typed-literal"
	TypeBlank        = "bnode"
)

// Term is one bound value of a result row.
type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// IsIRI reports whether the term is an IRI.
func (t Term) IsIRI() bool {
	return t.Type == TypeURI
}

// IsBlank reports whether the term is a blank node.
func (t Term) IsBlank() bool {
	return t.Type == TypeBlank
}

// Binding is one result row keyed by variable name.
type Binding map[string]Term

// Value returns the value bound to name, or an empty string.
func (b Binding) Value(name string) string {
	return b[name].Value
}

// Term returns the term bound to name.
func (b Binding) Term(name string) (Term, bool) {
	t, ok := b[name]
	return t, ok
}

// ResultSet is a decoded application/sparql-results+json document.
type ResultSet struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean,omitempty"`
}

// Bindings returns the result rows.
func (r *ResultSet) Bindings() []Binding {
	if r == nil {
		return nil
	}
	return r.Results.Bindings
}

// Empty reports whether the result has no rows.
func (r *ResultSet) Empty() bool {
	return len(r.Bindings()) == 0
}
