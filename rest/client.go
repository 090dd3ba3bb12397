// Package rest is a small JSON-over-HTTP client shared by the clients of
// the registration and search services.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/c360studio/semstreams/pkg/retry"

	"github.com/c360studio/semcrawl/fault"
)

// DefaultTimeout bounds a single HTTP attempt.
const DefaultTimeout = 30 * time.Second

// maxResponseSize caps decoded response bodies.
const maxResponseSize = 64 << 20

// Client calls one upstream service.
type Client struct {
	Service string
	BaseURL string
	// Token is sent as a bearer token when set.
	Token  string
	HTTP   *http.Client
	Logger *slog.Logger
}

// New creates a client for the service at baseURL.
func New(service, baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		Service: service,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: DefaultTimeout},
		Logger:  logger,
	}
}

// Do sends body as JSON to path and decodes the response into out when out
// is not nil. Non-2xx responses return a *fault.UpstreamError; server
// errors and transport failures are retried.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", c.Service, err)
		}
	}

	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
		return c.once(ctx, method, target, payload, out)
	})
	if err != nil {
		c.Logger.Debug("Upstream call failed",
			"service", c.Service,
			"method", method,
			"path", path,
			"error", err)
		return err
	}
	return nil
}

func (c *Client) once(ctx context.Context, method, target string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return retry.NonRetryable(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return retry.NonRetryable(ctx.Err())
		}
		return fmt.Errorf("call %s: %w", c.Service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		upstream := &fault.UpstreamError{Service: c.Service, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		if resp.StatusCode < 500 {
			return retry.NonRetryable(upstream)
		}
		return upstream
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return retry.NonRetryable(fmt.Errorf("decode %s response: %w", c.Service, err))
	}
	return nil
}
