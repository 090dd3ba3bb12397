// Package storage provides the shared cache of resolved resources, metadata
// and entities, backed by a NATS KV bucket or by process memory.
package storage

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
)

// Namespace groups cache keys by the kind of value they hold.
type Namespace string

const (
	NamespaceResource Namespace = "resource"
	NamespaceMetadata Namespace = "metadata"
	NamespaceEntity   Namespace = "entity"
)

func (n Namespace) valid() bool {
	switch n {
	case NamespaceResource, NamespaceMetadata, NamespaceEntity:
		return true
	}
	return false
}

// Key is a typed cache key.
type Key struct {
	Namespace Namespace
	ID        string
}

// String returns the readable form "namespace:id".
func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Namespace, k.ID)
}

// ParseKey parses the readable form produced by String.
func ParseKey(s string) (Key, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Key{}, fmt.Errorf("%w: %s", ErrInvalidKey, s)
	}
	ns := Namespace(parts[0])
	if !ns.valid() {
		return Key{}, fmt.Errorf("%w: unknown namespace %s", ErrInvalidKey, parts[0])
	}
	return Key{Namespace: ns, ID: parts[1]}, nil
}

// ResourceKey keys the resolved draft/published pair of a PID.
func ResourceKey(pidURI string) Key {
	return Key{Namespace: NamespaceResource, ID: pidURI}
}

// MetadataKey keys the metadata of one entity type.
func MetadataKey(entityType string) Key {
	return Key{Namespace: NamespaceMetadata, ID: "type|" + entityType}
}

// MergedMetadataKey keys the merged metadata of several entity types. The
// key does not depend on the order of types.
func MergedMetadataKey(entityTypes []string) Key {
	sorted := append([]string(nil), entityTypes...)
	sort.Strings(sorted)
	return Key{Namespace: NamespaceMetadata, ID: "merged|" + strings.Join(sorted, ",")}
}

// InstantiableTypesKey keys the instantiable subtypes of firstType.
func InstantiableTypesKey(firstType string) Key {
	return Key{Namespace: NamespaceMetadata, ID: "instantiable|" + firstType}
}

// EntityKey keys a single folded entity.
func EntityKey(id string) Key {
	return Key{Namespace: NamespaceEntity, ID: id}
}

// subject encodes k as a KV key. IDs are IRIs, which may hold characters
// KV keys do not allow.
func (k Key) subject() string {
	return string(k.Namespace) + "." + base64.RawURLEncoding.EncodeToString([]byte(k.ID))
}

func keyFromSubject(s string) (Key, error) {
	ns, enc, ok := strings.Cut(s, ".")
	if !ok || !Namespace(ns).valid() {
		return Key{}, fmt.Errorf("%w: %s", ErrInvalidKey, s)
	}
	id, err := base64.RawURLEncoding.DecodeString(enc)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return Key{Namespace: Namespace(ns), ID: string(id)}, nil
}
