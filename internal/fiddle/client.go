// SPDX-License-Identifier: MPL-2.0

package fiddle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// maxJSONResponseBytes is the upper bound on JSON API response size (10 MB).
	// Prevents unbounded memory consumption from malformed responses.
	maxJSONResponseBytes = 10 << 20
)

// ErrNoOutput is returned when the service response carries no output payload
// for a query. It signals that the query could not be answered for this
// version — a data-level failure, not a transport error.
var ErrNoOutput = errors.New("fiddle response contains no output")

type (
	// runRequest is the JSON wire format for a query execution request.
	runRequest struct {
		Query   string `json:"query"`
		Version string `json:"version"`
	}

	// runResponse is the JSON wire format for a query execution response.
	// The output lives in a nested result object; its absence means the
	// query failed on the service side.
	runResponse struct {
		Result struct {
			Output *string `json:"output"`
		} `json:"result"`
	}

	// tagsResponse is the JSON wire format for the tag listing response.
	tagsResponse struct {
		Result struct {
			Tags []string `json:"tags"`
		} `json:"result"`
	}

	// Client queries the hosted execution service.
	Client struct {
		httpClient *http.Client
		baseURL    string // Service base URL (overridable for tests)
		userAgent  string // User-Agent header value
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(f *Client) {
		f.httpClient = c
	}
}

// WithBaseURL overrides the service base URL, primarily for test servers.
func WithBaseURL(base string) ClientOption {
	return func(f *Client) {
		f.baseURL = strings.TrimRight(base, "/")
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(f *Client) {
		f.userAgent = ua
	}
}

// NewClient creates a Client with sensible defaults.
// Defaults: baseURL="https://fiddle.clickhouse.com", httpClient=http.DefaultClient.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    "https://fiddle.clickhouse.com",
		userAgent:  "chref/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunQuery executes a query against the given version through the service.
// Exactly one round-trip is performed; there is no retry. A response without
// the nested output field returns ErrNoOutput.
func (c *Client) RunQuery(ctx context.Context, query, version string) (string, error) {
	payload, err := json.Marshal(runRequest{Query: query, Version: version})
	if err != nil {
		return "", fmt.Errorf("encoding run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/runs", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing run request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("running query for %s: unexpected status %d", version, resp.StatusCode)
	}

	var rr runResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&rr); err != nil {
		return "", fmt.Errorf("running query for %s: decoding response: %w", version, err)
	}

	if rr.Result.Output == nil {
		return "", ErrNoOutput
	}
	return *rr.Result.Output, nil
}

// Tags fetches the list of published version tags from the service.
func (c *Client) Tags(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating tags request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing tags: unexpected status %d", resp.StatusCode)
	}

	var tr tagsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&tr); err != nil {
		return nil, fmt.Errorf("listing tags: decoding response: %w", err)
	}

	return tr.Result.Tags, nil
}
