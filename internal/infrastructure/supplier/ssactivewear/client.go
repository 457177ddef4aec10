// Package ssactivewear integrates the S&S Activewear REST API, a
// straightforward Basic-auth JSON API with page/perPage pagination and
// per-style inventory and pricing endpoints.
package ssactivewear

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/printshop/catalog/internal/domain/catalog"
	"github.com/printshop/catalog/internal/infrastructure/ratelimit"
	"github.com/printshop/catalog/internal/infrastructure/retry"
	"github.com/printshop/catalog/internal/infrastructure/supplier"
)

const maxResponseSize = 10 * 1024 * 1024

// Client talks to the S&S Activewear API.
type Client struct {
	config     *Config
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	log        *zap.Logger

	retryOpts []retry.Option
}

func NewClient(config *Config, limiter *ratelimit.Limiter, log *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: time.Duration(timeout) * time.Second},
		limiter:    limiter,
		log:        log,
	}, nil
}

func (c *Client) Supplier() catalog.SupplierCode { return catalog.SupplierSSActivewear }

// SetRetryOptions overrides the retry policy for this client. Tests use
// it to inject a fake timer.
func (c *Client) SetRetryOptions(opts ...retry.Option) { c.retryOpts = opts }

func (c *Client) baseURL() string {
	if c.config.BaseURL != "" {
		return c.config.BaseURL
	}
	return DefaultBaseURL
}

// Authenticate is a no-op: the API key is sent with every request.
func (c *Client) Authenticate(context.Context) error { return nil }

func (c *Client) doGet(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	endpoint := c.baseURL() + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.config.AccountNumber, c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &catalog.TransientError{Op: "ssactivewear GET " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &catalog.TransientError{Op: "ssactivewear GET " + path, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return data, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, catalog.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &catalog.AuthError{Supplier: catalog.SupplierSSActivewear,
			Err: fmt.Errorf("GET %s returned %d", path, resp.StatusCode)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &catalog.RateLimitError{
			Supplier:   catalog.SupplierSSActivewear,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= 500:
		return nil, &catalog.TransientError{Op: "ssactivewear GET " + path,
			Err: fmt.Errorf("status %d", resp.StatusCode)}
	default:
		return nil, fmt.Errorf("ssactivewear GET %s: unexpected status %d", path, resp.StatusCode)
	}
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

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return retry.Do(ctx, func() error {
		data, err := c.doGet(ctx, path, query)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, out)
	}, c.retryOpts...)
}

// HealthCheck probes the categories endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	return retry.Do(ctx, func() error {
		_, err := c.doGet(ctx, "/v2/categories", nil)
		return err
	}, c.retryOpts...)
}

// ListPage fetches one page of styles. Pages are 1-based.
func (c *Client) ListPage(ctx context.Context, req supplier.PageRequest) (*supplier.Page, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(req.Page))
	query.Set("perPage", strconv.Itoa(req.PageSize))
	if !req.UpdatedSince.IsZero() {
		query.Set("updatedSince", req.UpdatedSince.UTC().Format(time.RFC3339))
	}
	if req.Category != "" {
		query.Set("category", req.Category)
	}
	if req.Brand != "" {
		query.Set("brand", req.Brand)
	}

	var envelope listEnvelope
	if err := c.getJSON(ctx, "/v2/products", query, &envelope); err != nil {
		return nil, err
	}

	records := make([]supplier.Record, 0, len(envelope.Products))
	for i := range envelope.Products {
		records = append(records, &envelope.Products[i])
	}
	return &supplier.Page{Records: records, HasMore: envelope.HasMore}, nil
}

// GetProduct fetches one style.
func (c *Client) GetProduct(ctx context.Context, id string) (supplier.Record, error) {
	var product Product
	if err := c.getJSON(ctx, "/v2/products/"+url.PathEscape(id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ListVariants returns the style's inventory lines; S&S models discrete
// variants as stock lines, one per color x size.
func (c *Client) ListVariants(ctx context.Context, id string) ([]supplier.Record, error) {
	return c.GetInventory(ctx, id)
}

// GetInventory fetches stock lines for a style.
func (c *Client) GetInventory(ctx context.Context, id string) ([]supplier.Record, error) {
	var lines []InventoryLine
	if err := c.getJSON(ctx, "/v2/products/"+url.PathEscape(id)+"/inventory", nil, &lines); err != nil {
		return nil, err
	}
	records := make([]supplier.Record, 0, len(lines))
	for i := range lines {
		records = append(records, &lines[i])
	}
	return records, nil
}

// GetPricing fetches the quantity tiers for a style.
func (c *Client) GetPricing(ctx context.Context, id string) ([]supplier.Record, error) {
	var rows []PriceRow
	if err := c.getJSON(ctx, "/v2/products/"+url.PathEscape(id)+"/pricing", nil, &rows); err != nil {
		return nil, err
	}
	records := make([]supplier.Record, 0, len(rows))
	for i := range rows {
		records = append(records, &rows[i])
	}
	return records, nil
}

var _ supplier.Client = (*Client)(nil)
