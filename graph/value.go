package graph

import (
	"encoding/json"
	"fmt"
)

// ValueKind discriminates the variants of a property value.
type ValueKind int

const (
	// KindScalar is a literal such as a string, number or date.
	KindScalar ValueKind = iota
	// KindReference is an IRI that was not expanded into an entity.
	KindReference
	// KindNested is an inline entity.
	KindNested
)

var kindNames = map[ValueKind]string{
	KindScalar:    "scalar",
	KindReference: "reference",
	KindNested:    "nested",
}

func (k ValueKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k ValueKind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown value kind %d", int(k))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ValueKind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown value kind %q", text)
}

// Value is a single property value. Exactly one of Text or Entity is
// meaningful, selected by Kind.
type Value struct {
	Kind   ValueKind
	Text   string
	Entity *Entity
}

// Scalar returns a literal value.
func Scalar(text string) Value {
	return Value{Kind: KindScalar, Text: text}
}

// Reference returns an IRI value.
func Reference(iri string) Value {
	return Value{Kind: KindReference, Text: iri}
}

// Nested returns an inline entity value.
func Nested(e *Entity) Value {
	return Value{Kind: KindNested, Entity: e}
}

// String returns the literal, the IRI, or the id of the nested entity.
func (v Value) String() string {
	if v.Kind == KindNested {
		if v.Entity == nil {
			return ""
		}
		return v.Entity.ID
	}
	return v.Text
}

// IsNested reports whether v holds an inline entity.
func (v Value) IsNested() bool {
	return v.Kind == KindNested && v.Entity != nil
}

// sameAs is the identity used for deduplication within a predicate.
func (v Value) sameAs(other Value) bool {
	return v.Kind == other.Kind && v.String() == other.String()
}

type valueJSON struct {
	Kind   ValueKind `json:"kind"`
	Value  string    `json:"value,omitempty"`
	Entity *Entity   `json:"entity,omitempty"`
}

// MarshalJSON encodes the value with its discriminator.
func (v Value) MarshalJSON() ([]byte, error) {
	out := valueJSON{Kind: v.Kind}
	if v.Kind == KindNested {
		out.Entity = v.Entity
	} else {
		out.Value = v.Text
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a value written by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var in valueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Kind {
	case KindNested:
		if in.Entity == nil {
			return fmt.Errorf("nested value without entity")
		}
		*v = Nested(in.Entity)
	case KindReference:
		*v = Reference(in.Value)
	default:
		*v = Scalar(in.Value)
	}
	return nil
}
