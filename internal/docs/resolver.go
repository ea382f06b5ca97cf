// SPDX-License-Identifier: MPL-2.0

// Package docs resolves feature names to documentation deep links.
//
// The documentation site has no lookup API. Each known function reference
// page embeds an HTML anchor per documented function, so resolution fetches
// the pages once (cached durably, page fetches are slow and the content is
// stable) and searches the raw text for the anchor of the lowercased feature
// name. Not every function is documented; resolution reports absence rather
// than failing.
package docs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JosephRedfern/clickhouse-function-reference/internal/cache"
)

// DefaultBaseURL is the function reference section of the documentation site.
// Page names append to it; anchors append to the page URL.
const DefaultBaseURL = "https://clickhouse.com/docs/en/sql-reference/functions"

// cachePagesOp is the cache bucket for fetched page payloads.
const cachePagesOp = "doc_pages"

// maxPageBytes bounds a single fetched page (4 MB).
const maxPageBytes = 4 << 20

// DefaultPages lists the known function reference pages.
func DefaultPages() []string {
	return []string{
		"arithmetic-functions",
		"array-functions",
		"array-join",
		"bit-functions",
		"bitmap-functions",
		"comparison-functions",
		"conditional-functions",
		"date-time-functions",
		"distance-functions",
		"encoding-functions",
		"encryption-functions",
		"ext-dict-functions",
		"functions-for-nulls",
		"geo",
		"hash-functions",
		"in-functions",
		"introspection",
		"ip-address-functions",
		"json-functions",
		"logical-functions",
		"math-functions",
		"nlp-functions",
		"other-functions",
		"random-functions",
		"rounding-functions",
		"splitting-merging-functions",
		"string-functions",
		"string-replace-functions",
		"string-search-functions",
		"time-window-functions",
		"tuple-functions",
		"tuple-map-functions",
		"type-conversion-functions",
		"url-functions",
		"uuid-functions",
	}
}

type (
	// ResolverOption configures a Resolver.
	ResolverOption func(*Resolver)

	// Resolver maps feature names to documentation URLs by anchor search
	// over the known reference pages.
	Resolver struct {
		httpClient *http.Client
		baseURL    string
		pages      []string
		store      *cache.Store

		fetched map[string]string // page name -> payload, filled on first use
	}
)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) {
		r.httpClient = c
	}
}

// WithBaseURL overrides the documentation base URL, primarily for test servers.
func WithBaseURL(base string) ResolverOption {
	return func(r *Resolver) {
		r.baseURL = strings.TrimRight(base, "/")
	}
}

// WithPages overrides the page list.
func WithPages(pages []string) ResolverOption {
	return func(r *Resolver) {
		r.pages = pages
	}
}

// WithStore caches fetched page payloads in the given store across runs.
func WithStore(s *cache.Store) ResolverOption {
	return func(r *Resolver) {
		r.store = s
	}
}

// NewResolver creates a Resolver with the default page list.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		pages:      DefaultPages(),
		fetched:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PageURL returns the full URL of a reference page.
func (r *Resolver) PageURL(page string) string {
	return r.baseURL + "/" + page
}

// Resolve returns the deep link for a feature name, or found=false when no
// page carries its anchor. Page fetch failures are errors; an undocumented
// feature is not.
func (r *Resolver) Resolve(ctx context.Context, feature string) (url string, found bool, err error) {
	anchor := strings.ToLower(feature)
	needle := fmt.Sprintf("id=%q", anchor)

	for _, page := range r.pages {
		content, err := r.page(ctx, page)
		if err != nil {
			return "", false, err
		}
		if strings.Contains(content, needle) {
			return r.PageURL(page) + "#" + anchor, true, nil
		}
	}
	return "", false, nil
}

// ResolveAll resolves every feature that has a documentation anchor.
// Undocumented features are simply absent from the result.
func (r *Resolver) ResolveAll(ctx context.Context, features []string) (map[string]string, error) {
	links := make(map[string]string)
	for _, feature := range features {
		url, found, err := r.Resolve(ctx, feature)
		if err != nil {
			return nil, err
		}
		if found {
			links[feature] = url
		}
	}
	return links, nil
}

// page returns a reference page's payload, memoized in-process and, when a
// store is configured, cached durably across runs.
func (r *Resolver) page(ctx context.Context, name string) (string, error) {
	if content, ok := r.fetched[name]; ok {
		return content, nil
	}

	fetch := func() ([]byte, error) {
		return r.fetch(ctx, name)
	}

	var payload []byte
	var err error
	if r.store != nil {
		payload, err = r.store.Cached(cachePagesOp, []string{name}, fetch)
	} else {
		payload, err = fetch()
	}
	if err != nil {
		return "", err
	}

	content := string(payload)
	r.fetched[name] = content
	return content, nil
}

func (r *Resolver) fetch(ctx context.Context, page string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.PageURL(page), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating page request for %s: %w", page, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page %s: %w", page, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching page %s: unexpected status %d", page, resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading page %s: %w", page, err)
	}
	return payload, nil
}
