// Package jira is a small typed client for the Jira REST API v3, covering
// the calls the triage dashboard makes: search, issue update, comments,
// changelog and the authenticated user.
package jira

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

	"github.com/lorrc/defect-triage/internal/core/ports"
)

const apiPrefix = "/rest/api/3"

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 16 << 20

// Config holds configuration for creating a Jira API Client.
type Config struct {
	// BaseURL is the Jira site root, e.g. https://example.atlassian.net.
	// Must use HTTPS.
	BaseURL string

	// Token is a personal access token sent as a bearer credential.
	Token string

	// Timeout bounds each request when HTTPClient is not supplied.
	// Defaults to 30s.
	Timeout time.Duration

	// HTTPClient is used for all HTTP requests.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client talks to one Jira site with one credential. It never retries.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.TrackerClient = (*Client)(nil)

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("jira: base URL is required")
	}
	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("jira: API client requires HTTPS (got %q)", baseURL)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("jira: no token configured")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		httpClient: httpClient,
		logger:     logger.With("component", "jira"),
	}, nil
}

// BaseURL returns the site root the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do executes an authenticated request. path is relative to the API
// prefix and may carry a query string. On non-2xx responses it returns an
// *APIError.
func (c *Client) do(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("jira: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	url := c.baseURL + apiPrefix + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("jira: creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jira: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("jira: reading response body: %w", err)
	}

	c.logger.DebugContext(ctx, "jira request",
		"method", method,
		"path", path,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, result)
}

func (c *Client) post(ctx context.Context, path string, requestBody, result any) error {
	body, err := c.do(ctx, http.MethodPost, path, requestBody)
	if err != nil {
		return err
	}
	if result != nil {
		return json.Unmarshal(body, result)
	}
	return nil
}

func (c *Client) put(ctx context.Context, path string, requestBody any) error {
	_, err := c.do(ctx, http.MethodPut, path, requestBody)
	return err
}
