// Package registration is the client of the registration service, the
// source of metadata and taxonomies.
package registration

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/c360studio/semcrawl/metadata"
	"github.com/c360studio/semcrawl/rest"
)

// Taxonomy is one term of a taxonomy as returned by the taxonomy list.
type Taxonomy struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	HasParent  bool           `json:"hasParent"`
	HasChild   bool           `json:"hasChild"`
	Children   []Taxonomy     `json:"children,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Client calls the registration service.
type Client struct {
	rest *rest.Client
}

// NewClient creates a registration service client.
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{rest: rest.New("registration service", baseURL, token, logger)}
}

// TaxonomyList returns the taxonomy of taxonomyType.
func (c *Client) TaxonomyList(ctx context.Context, taxonomyType string) ([]Taxonomy, error) {
	var out []Taxonomy
	q := url.Values{"taxonomyType": {taxonomyType}}
	if err := c.rest.Do(ctx, http.MethodGet, "/api/v3/taxonomyList", q, nil, &out); err != nil {
		return nil, fmt.Errorf("taxonomy list %s: %w", taxonomyType, err)
	}
	return out, nil
}

// Metadata returns the properties of entityType.
func (c *Client) Metadata(ctx context.Context, entityType string) ([]metadata.Property, error) {
	var out []metadata.Property
	q := url.Values{"entityType": {entityType}}
	if err := c.rest.Do(ctx, http.MethodGet, "/api/v3/metadata", q, nil, &out); err != nil {
		return nil, fmt.Errorf("metadata %s: %w", entityType, err)
	}
	return out, nil
}

// InstantiableTypes returns the concrete subtypes of firstType.
func (c *Client) InstantiableTypes(ctx context.Context, firstType string) ([]string, error) {
	var out []string
	q := url.Values{"firstEntityType": {firstType}}
	if err := c.rest.Do(ctx, http.MethodGet, "/api/v3/metadata/entityTypes/instantiable", q, nil, &out); err != nil {
		return nil, fmt.Errorf("instantiable types of %s: %w", firstType, err)
	}
	return out, nil
}

// MergedMetadata returns the union of the properties of entityTypes.
func (c *Client) MergedMetadata(ctx context.Context, entityTypes []string) ([]metadata.Property, error) {
	var out []metadata.Property
	if err := c.rest.Do(ctx, http.MethodPost, "/api/v3/metadata/merged", nil, entityTypes, &out); err != nil {
		return nil, fmt.Errorf("merged metadata: %w", err)
	}
	return out, nil
}
