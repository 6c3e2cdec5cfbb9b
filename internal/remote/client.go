// Package remote is the HTTP client of the query service.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/leapstack-labs/leapquery/pkg/core"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 10 * time.Second

// Config configures the client.
type Config struct {
	// BaseURL is the service root, e.g. http://localhost:8765.
	BaseURL string
	// Timeout for individual requests (default: DefaultTimeout).
	Timeout time.Duration
	// Transport allows injecting a custom HTTP transport.
	Transport http.RoundTripper
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Client talks to the query service. It implements editor.QueryService and
// editor.Previewer.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		logger: logger,
	}
}

// Create persists a new query.
func (c *Client) Create(ctx context.Context, req core.CreateRequest) (*core.Query, error) {
	var out core.Query
	if err := c.do(ctx, "create", http.MethodPost, "/api/data_queries", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update renames a query and replaces its options.
func (c *Client) Update(ctx context.Context, id, name string, options core.Options) (*core.Query, error) {
	body := map[string]any{"name": name, "options": options}
	var out core.Query
	if err := c.do(ctx, "update", http.MethodPatch, "/api/data_queries/"+url.PathEscape(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns one query.
func (c *Client) Get(ctx context.Context, id string) (*core.Query, error) {
	var out core.Query
	if err := c.do(ctx, "get", http.MethodGet, "/api/data_queries/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns the queries of an app version; an empty versionID lists all.
func (c *Client) List(ctx context.Context, versionID string) ([]core.Query, error) {
	path := "/api/data_queries"
	if versionID != "" {
		path += "?" + url.Values{"app_version_id": {versionID}}.Encode()
	}
	var out struct {
		DataQueries []core.Query `json:"data_queries"`
	}
	if err := c.do(ctx, "list", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.DataQueries, nil
}

// Delete removes a query.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete", http.MethodDelete, "/api/data_queries/"+url.PathEscape(id), nil, nil)
}

// Preview resolves q on the service without persisting it.
func (c *Client) Preview(ctx context.Context, q core.Query) (any, error) {
	var out map[string]any
	if err := c.do(ctx, "preview", http.MethodPost, "/api/data_queries/preview", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do sends one request. Non-2xx responses become *core.PersistenceError
// carrying the service's error message.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &core.PersistenceError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &core.PersistenceError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	c.logger.Debug("query service call",
		slog.String("op", op),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if jsonErr := json.Unmarshal(data, &e); jsonErr != nil || e.Error == "" {
			e.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return &core.PersistenceError{Op: op, Message: e.Error, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}
