package sparql

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/c360studio/semstreams/pkg/retry"

	"github.com/c360studio/semcrawl/fault"
)

// Store executes queries and returns their bindings.
type Store interface {
	Query(ctx context.Context, q *Query) (*ResultSet, error)
}

// maxResultSize caps the size of a decoded result document.
const maxResultSize = 256 << 20

// Client talks to a SPARQL 1.1 protocol query endpoint.
type Client struct {
	endpoint string
	user     string
	password string
	http     *http.Client
	logger   *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBasicAuth sets credentials sent with every query.
func WithBasicAuth(user, password string) ClientOption {
	return func(c *Client) {
		c.user = user
		c.password = password
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.http = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for the query endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 60 * time.Second},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query builds q and posts it to the endpoint. Server errors and transport
// failures are retried; client errors are not.
func (c *Client) Query(ctx context.Context, q *Query) (*ResultSet, error) {
	text, err := q.Build()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var result *ResultSet
	err = retry.Do(ctx, retry.DefaultConfig(), func() error {
		rs, err := c.queryOnce(ctx, text)
		if err != nil {
			return err
		}
		result = rs
		return nil
	})
	if err != nil {
		c.logger.Debug("SPARQL query failed",
			"endpoint", c.endpoint,
			"error", err,
			"retryable", !retry.IsNonRetryable(err))
		return nil, err
	}
	return result, nil
}

func (c *Client) queryOnce(ctx context.Context, text string) (*ResultSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(text))
	if err != nil {
		return nil, retry.NonRetryable(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/sparql-query")
	req.Header.Set("Accept", "application/sparql-results+json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, retry.NonRetryable(ctx.Err())
		}
		return nil, fmt.Errorf("query endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		upstream := &fault.UpstreamError{Service: "triple store", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		if resp.StatusCode < 500 {
			return nil, retry.NonRetryable(upstream)
		}
		return nil, upstream
	}

	var rs ResultSet
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResultSize)).Decode(&rs); err != nil {
		return nil, retry.NonRetryable(fmt.Errorf("decode results: %w", err))
	}
	return &rs, nil
}
