// Package catalogstore talks to the curated-catalog document store over
// HTTP. The store exposes a filtered collection API: GET with
// filters[field][$eq] query parameters, POST/PUT with a {"data": ...}
// envelope, bearer-token auth.
package catalogstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/printshop/catalog/internal/domain/catalog"
)

// maxResponseSize caps document-store response bodies (10MB).
const maxResponseSize = 10 * 1024 * 1024

// Config holds connection settings for the document store.
type Config struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
}

// Validate checks that the config is usable.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("catalogstore: base URL is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("catalogstore: invalid base URL: %w", err)
	}
	return nil
}

// Client is the HTTP client for the curated-catalog store.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a document-store client with the given configuration.
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
	}, nil
}

type listResponse struct {
	Data []ProductDocument `json:"data"`
}

type dataEnvelope struct {
	Data ProductDocument `json:"data"`
}

func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &catalog.TransientError{Op: "catalog-store " + method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &catalog.TransientError{Op: "catalog-store read body", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, catalog.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &catalog.AuthError{Err: fmt.Errorf("catalog-store returned %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &catalog.RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode >= 500:
		return nil, &catalog.TransientError{
			Op:  "catalog-store " + method + " " + path,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(data, 200)),
		}
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("catalog-store %s %s: status %d: %s", method, path, resp.StatusCode, truncate(data, 200))
	}
	return data, nil
}

func parseRetryAfter(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func truncate(data []byte, n int) string {
	if len(data) > n {
		return string(data[:n]) + "..."
	}
	return string(data)
}

// GetProduct fetches the document for a SKU. Returns catalog.ErrNotFound
// when the store has no matching record.
func (c *Client) GetProduct(ctx context.Context, sku string) (*ProductDocument, error) {
	query := url.Values{}
	query.Set("filters[sku][$eq]", sku)

	data, err := c.doRequest(ctx, http.MethodGet, "/api/products", query, nil)
	if err != nil {
		return nil, err
	}

	var list listResponse
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("catalogstore: decode product list: %w", err)
	}
	if len(list.Data) == 0 {
		return nil, catalog.ErrNotFound
	}
	return &list.Data[0], nil
}

// ListTopProducts returns curated products ordered by score, highest first.
func (c *Client) ListTopProducts(ctx context.Context, limit int) ([]ProductDocument, error) {
	if limit <= 0 {
		limit = 500
	}
	query := url.Values{}
	query.Set("filters[isTopProduct][$eq]", "true")
	query.Set("sort", "topProductScore:desc")
	query.Set("pagination[limit]", strconv.Itoa(limit))

	data, err := c.doRequest(ctx, http.MethodGet, "/api/products", query, nil)
	if err != nil {
		return nil, err
	}
	var list listResponse
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("catalogstore: decode product list: %w", err)
	}
	return list.Data, nil
}

// CreateProduct inserts a new document.
func (c *Client) CreateProduct(ctx context.Context, doc ProductDocument) error {
	doc.DocumentID = ""
	_, err := c.doRequest(ctx, http.MethodPost, "/api/products", nil, dataEnvelope{Data: doc})
	if err != nil {
		return &catalog.PersistenceError{Target: "catalog-store", Err: err}
	}
	return nil
}

// UpdateProduct replaces the document addressed by documentID.
func (c *Client) UpdateProduct(ctx context.Context, documentID string, doc ProductDocument) error {
	if documentID == "" {
		return &catalog.PersistenceError{Target: "catalog-store", Err: errors.New("empty document id")}
	}
	doc.DocumentID = ""
	_, err := c.doRequest(ctx, http.MethodPut, "/api/products/"+documentID, nil, dataEnvelope{Data: doc})
	if err != nil {
		return &catalog.PersistenceError{Target: "catalog-store", Err: err}
	}
	return nil
}

// Upsert creates the document or updates the existing one for the same
// SKU. Curation fields the store owns are carried over from the existing
// record so a sync never resets them.
func (c *Client) Upsert(ctx context.Context, doc ProductDocument) error {
	existing, err := c.GetProduct(ctx, doc.SKU)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return c.CreateProduct(ctx, doc)
	case err != nil:
		return &catalog.PersistenceError{Target: "catalog-store", Err: err}
	}

	doc.UsageCount = existing.UsageCount
	doc.IsTopProduct = existing.IsTopProduct
	doc.TopProductScore = existing.TopProductScore
	return c.UpdateProduct(ctx, existing.DocumentID, doc)
}

// TrackUsage increments the usage counter for a SKU. Missing SKUs are
// not an error; callers treat tracking as best effort.
func (c *Client) TrackUsage(ctx context.Context, sku string) error {
	existing, err := c.GetProduct(ctx, sku)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	doc := *existing
	doc.UsageCount++
	return c.UpdateProduct(ctx, existing.DocumentID, doc)
}

// Health verifies the store is reachable and the token is accepted.
func (c *Client) Health(ctx context.Context) error {
	query := url.Values{}
	query.Set("pagination[limit]", "1")
	_, err := c.doRequest(ctx, http.MethodGet, "/api/products", query, nil)
	return err
}
