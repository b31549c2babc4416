// Package apiclient is the thin HTTP wrapper around the Mai-AI backend.
//
// Every call is a single request: no retries and no client-side timeout.
// Callers bound a call's lifetime with the context they pass in.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Batdan007/MaiAI-Birth/internal/logging"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// RequestIDHeader is attached to every outgoing request
const RequestIDHeader = "X-Request-ID"

// DefaultPresetsTTL is how long preset lists are cached per token
const DefaultPresetsTTL = 15 * time.Minute

// Client talks to the backend API
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *Metrics
	logger     *slog.Logger
	presetsTTL time.Duration
	presets    *cache.Cache
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records request metrics
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithPresetsTTL sets the preset cache lifetime. Zero disables caching.
func WithPresetsTTL(ttl time.Duration) Option {
	return func(c *Client) { c.presetsTTL = ttl }
}

// New creates a client for the backend at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
		presetsTTL: DefaultPresetsTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.presetsTTL > 0 {
		c.presets = cache.New(c.presetsTTL, 2*c.presetsTTL)
	}
	return c
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs one request. endpoint is the route template used as a metric
// label; path is the concrete path. body and out may be nil. token is sent
// as a bearer credential only when non-empty.
func (c *Client) do(ctx context.Context, endpoint, method, path, token string, body, out any) error {
	requestID := uuid.New().String()
	log := logging.WithRequest(c.logger, requestID, method, path)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(endpoint, method, 0, time.Since(start))
		c.metrics.failure(endpoint, "transport")
		log.Warn("backend request failed", "error", err)
		return transportError(err)
	}
	defer resp.Body.Close()
	c.metrics.observe(endpoint, method, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.failure(endpoint, "status")
		apiErr := &APIError{Status: resp.StatusCode, Message: decodeDetail(resp.Body)}
		log.Debug("backend returned error", "status", resp.StatusCode, "detail", apiErr.Message)
		return apiErr
	}

	log.Debug("backend request ok", "status", resp.StatusCode, "took", time.Since(start))
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.failure(endpoint, "decode")
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// decodeDetail extracts {detail} from an error body, falling back to
// FallbackMessage when the body is not that shape.
func decodeDetail(r io.Reader) string {
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return FallbackMessage
	}
	if detail, ok := body.Detail.(string); ok && detail != "" {
		return detail
	}
	return FallbackMessage
}
