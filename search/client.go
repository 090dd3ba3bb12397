// Package search is the client of the search service that owns the index.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/c360studio/semcrawl/metadata"
	"github.com/c360studio/semcrawl/rest"
)

// Mapping is the metadata pushed when a new index is created, keyed by
// predicate IRI.
type Mapping map[string]metadata.Property

// Client calls the search service.
type Client struct {
	rest *rest.Client
}

// NewClient creates a search service client.
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{rest: rest.New("search service", baseURL, token, logger)}
}

// CreateIndex creates a new index for mapping. The index stays inactive
// until SwitchIndex.
func (c *Client) CreateIndex(ctx context.Context, mapping Mapping) error {
	if err := c.rest.Do(ctx, http.MethodPost, "/api/index/create", nil, mapping, nil); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// SwitchIndex promotes the most recently created index.
func (c *Client) SwitchIndex(ctx context.Context) error {
	if err := c.rest.Do(ctx, http.MethodPost, "/api/index/switchIndex", nil, nil, nil); err != nil {
		return fmt.Errorf("switch index: %w", err)
	}
	return nil
}
