package indexing

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/c360studio/semcrawl/graph"
	"github.com/c360studio/semcrawl/vocabulary/colid"
)

// volatile predicates change without changing the content of a resource.
var volatile = map[string]bool{
	colid.LastChangeDateTime:         true,
	colid.LastChangeUser:             true,
	colid.HasEntryLifecycleStatus:    true,
	colid.HasDraft:                   true,
	colid.HasLaterVersion:            true,
	colid.MetadataGraphConfiguration: true,
	colid.HasRevision:                true,
}

// Hasher computes content hashes of resources.
type Hasher struct {
	labels LabelResolver
}

// NewHasher creates a hasher resolving keyword labels through labels.
func NewHasher(labels LabelResolver) *Hasher {
	return &Hasher{labels: labels}
}

// Hash returns the hex SHA-512 of the canonical form of r. Keywords are
// hashed by label so a relabelled term changes the hash.
func (h *Hasher) Hash(ctx context.Context, r *graph.Resource) (string, error) {
	canonical, err := h.canonical(ctx, &r.Entity)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("marshal canonical form: %w", err)
	}
	sum := sha512.Sum512(data)
	return hex.EncodeToString(sum[:]), nil
}

func (h *Hasher) canonical(ctx context.Context, e *graph.Entity) (map[string][]string, error) {
	out := make(map[string][]string, len(e.Properties))
	for predicate, values := range e.Properties {
		if volatile[predicate] {
			continue
		}
		texts := make([]string, 0, len(values))
		for _, v := range values {
			text, err := h.value(ctx, predicate, v)
			if err != nil {
				return nil, err
			}
			texts = append(texts, text)
		}
		sort.Strings(texts)
		out[predicate] = texts
	}
	return out, nil
}

func (h *Hasher) value(ctx context.Context, predicate string, v graph.Value) (string, error) {
	if v.IsNested() {
		nested, err := h.canonical(ctx, v.Entity)
		if err != nil {
			return "", err
		}
		data, err := json.Marshal(nested)
		if err != nil {
			return "", fmt.Errorf("marshal nested entity: %w", err)
		}
		return string(data), nil
	}
	if predicate == colid.HasKeyword && h.labels != nil {
		if label, err := h.labels.Label(ctx, v.Text); err == nil {
			return label, nil
		}
	}
	return v.Text, nil
}
