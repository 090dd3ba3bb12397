// Package sparql builds parameterized graph pattern queries and executes
// them against a SPARQL 1.1 protocol endpoint.
package sparql

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ErrInvalidIRI is returned when a value bound with SetURI is not an
// absolute IRI.
var ErrInvalidIRI = errors.New("invalid IRI")

// Query is parameterized query text. Parameters are written as @name in the
// command text and substituted when the query is built. Values are encoded
// as IRIs or quoted literals and are never spliced in raw.
type Query struct {
	text   string
	params map[string]string
	err    error
}

// NewQuery returns a query for the given command text.
func NewQuery(text string) *Query {
	return &Query{text: text, params: map[string]string{}}
}

// SetURI binds name to an IRI.
func (q *Query) SetURI(name, iri string) *Query {
	if err := ValidateIRI(iri); err != nil {
		q.fail(fmt.Errorf("parameter %s: %w", name, err))
		return q
	}
	q.params[name] = "<" + iri + ">"
	return q
}

// SetLiteral binds name to a quoted string literal.
func (q *Query) SetLiteral(name, value string) *Query {
	q.params[name] = `"` + escapeLiteral(value) + `"`
	return q
}

// SetTypedLiteral binds name to a literal with a datatype IRI.
func (q *Query) SetTypedLiteral(name, value, datatype string) *Query {
	if err := ValidateIRI(datatype); err != nil {
		q.fail(fmt.Errorf("parameter %s datatype: %w", name, err))
		return q
	}
	q.params[name] = `"` + escapeLiteral(value) + `"^^<` + datatype + ">"
	return q
}

// SetFromGraphs binds name to one FROM clause per graph.
func (q *Query) SetFromGraphs(name string, graphs []string) *Query {
	if len(graphs) == 0 {
		q.fail(fmt.Errorf("parameter %s: no graphs", name))
		return q
	}
	var b strings.Builder
	for i, g := range graphs {
		if err := ValidateIRI(g); err != nil {
			q.fail(fmt.Errorf("parameter %s: %w", name, err))
			return q
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("FROM <" + g + ">")
	}
	q.params[name] = b.String()
	return q
}

// SetValues binds name to a space separated list of IRIs, for use inside
// a VALUES block.
func (q *Query) SetValues(name string, iris []string) *Query {
	parts := make([]string, 0, len(iris))
	for _, iri := range iris {
		if err := ValidateIRI(iri); err != nil {
			q.fail(fmt.Errorf("parameter %s: %w", name, err))
			return q
		}
		parts = append(parts, "<"+iri+">")
	}
	q.params[name] = strings.Join(parts, " ")
	return q
}

func (q *Query) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

// Build substitutes every parameter and returns the final query text.
func (q *Query) Build() (string, error) {
	if q.err != nil {
		return "", q.err
	}

	var b strings.Builder
	var missing []string
	text := q.text
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '@' {
			b.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(text) && isIdentChar(text[j]) {
			j++
		}
		if j == i+1 {
			b.WriteByte(c)
			continue
		}
		name := text[i+1 : j]
		value, ok := q.params[name]
		if !ok {
			missing = append(missing, name)
		}
		b.WriteString(value)
		i = j - 1
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("unbound parameters: %s", strings.Join(missing, ", "))
	}
	return b.String(), nil
}

// String returns the built query, or an empty string if it cannot be built.
func (q *Query) String() string {
	s, err := q.Build()
	if err != nil {
		return ""
	}
	return s
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// ValidateIRI checks that s is an absolute IRI that can be written between
// angle brackets.
func ValidateIRI(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty", ErrInvalidIRI)
	}
	if strings.ContainsAny(s, "<>\"{}|^`\\ \t\r\n") {
		return fmt.Errorf("%w: %q contains forbidden characters", ErrInvalidIRI, s)
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidIRI, err)
	}
	if !u.IsAbs() {
		return fmt.Errorf("%w: %q is not absolute", ErrInvalidIRI, s)
	}
	return nil
}

func escapeLiteral(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return r.Replace(s)
}
