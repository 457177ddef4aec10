// Package ascolour integrates the AS Colour REST API. Catalog and
// inventory calls authenticate with a subscription key header; pricing
// calls additionally need a JWT bearer token obtained from the
// authentication endpoint. A 401 on a bearer-authed call triggers one
// transparent re-authentication before the request is retried.
package ascolour

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/printshop/catalog/internal/domain/catalog"
	"github.com/printshop/catalog/internal/infrastructure/ratelimit"
	"github.com/printshop/catalog/internal/infrastructure/retry"
	"github.com/printshop/catalog/internal/infrastructure/supplier"
)

const maxResponseSize = 10 * 1024 * 1024

// Client talks to the AS Colour API.
type Client struct {
	config     *Config
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	log        *zap.Logger

	mu     sync.Mutex
	bearer string

	retryOpts []retry.Option
}

// NewClient builds a client. The limiter is shared with every other
// caller hitting the same supplier.
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

func (c *Client) Supplier() catalog.SupplierCode { return catalog.SupplierASColour }

// SetRetryOptions overrides the retry policy for this client. Tests use
// it to inject a fake timer.
func (c *Client) SetRetryOptions(opts ...retry.Option) { c.retryOpts = opts }

func (c *Client) baseURL() string {
	if c.config.BaseURL != "" {
		return c.config.BaseURL
	}
	return DefaultBaseURL
}

func (c *Client) setBearer(token string) {
	c.mu.Lock()
	c.bearer = token
	c.mu.Unlock()
}

func (c *Client) getBearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bearer
}

// Authenticate exchanges email/password for a bearer token. It is a
// no-op when no account credentials are configured; catalog and
// inventory endpoints work on the subscription key alone.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.config.Email == "" || c.config.Password == "" {
		return nil
	}
	return retry.Do(ctx, func() error { return c.authenticate(ctx) }, c.retryOpts...)
}

func (c *Client) authenticate(ctx context.Context) error {
	if err := c.limiter.Acquire(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{
		"email":    c.config.Email,
		"password": c.config.Password,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL()+"/v1/api/authentication", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Subscription-Key", c.config.SubscriptionKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &catalog.TransientError{Op: "ascolour authenticate", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &catalog.TransientError{Op: "ascolour authenticate", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &catalog.AuthError{Supplier: catalog.SupplierASColour,
			Err: fmt.Errorf("credentials rejected with status %d", resp.StatusCode)}
	case resp.StatusCode >= 500:
		return &catalog.TransientError{Op: "ascolour authenticate",
			Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return &catalog.AuthError{Supplier: catalog.SupplierASColour,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var auth authResponse
	if err := json.Unmarshal(data, &auth); err != nil {
		return &catalog.AuthError{Supplier: catalog.SupplierASColour,
			Err: fmt.Errorf("decode token response: %w", err)}
	}
	token := auth.bearer()
	if token == "" {
		return &catalog.AuthError{Supplier: catalog.SupplierASColour,
			Err: fmt.Errorf("authentication response carried no token")}
	}
	c.setBearer(token)
	c.log.Debug("ascolour bearer token refreshed")
	return nil
}

// doGet performs one rate-limited GET. When withBearer is set and the
// server answers 401, the client re-authenticates once and replays the
// request before giving up.
func (c *Client) doGet(ctx context.Context, path string, query url.Values, withBearer bool) ([]byte, error) {
	data, status, err := c.dispatch(ctx, path, query, withBearer)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized && withBearer {
		if err := c.authenticate(ctx); err != nil {
			return nil, err
		}
		data, status, err = c.dispatch(ctx, path, query, withBearer)
		if err != nil {
			return nil, err
		}
	}
	return c.checkStatus(path, status, data)
}

func (c *Client) dispatch(ctx context.Context, path string, query url.Values, withBearer bool) ([]byte, int, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, 0, err
	}

	endpoint := c.baseURL() + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Subscription-Key", c.config.SubscriptionKey)
	req.Header.Set("Accept", "application/json")
	if withBearer {
		if bearer := c.getBearer(); bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &catalog.TransientError{Op: "ascolour GET " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, 0, &catalog.TransientError{Op: "ascolour GET " + path, Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, resp.StatusCode, &catalog.RateLimitError{
			Supplier:   catalog.SupplierASColour,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return data, resp.StatusCode, nil
}

func (c *Client) checkStatus(path string, status int, data []byte) ([]byte, error) {
	switch {
	case status == http.StatusOK:
		return data, nil
	case status == http.StatusNotFound:
		return nil, catalog.ErrNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, &catalog.AuthError{Supplier: catalog.SupplierASColour,
			Err: fmt.Errorf("GET %s returned %d", path, status)}
	case status >= 500:
		return nil, &catalog.TransientError{Op: "ascolour GET " + path,
			Err: fmt.Errorf("status %d", status)}
	default:
		return nil, fmt.Errorf("ascolour GET %s: unexpected status %d", path, status)
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

// HealthCheck probes a cheap catalog endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	query := url.Values{}
	query.Set("pageNumber", "1")
	query.Set("pageSize", "1")
	return retry.Do(ctx, func() error {
		_, err := c.doGet(ctx, "/v1/catalog/colours", query, false)
		return err
	}, c.retryOpts...)
}

// ListPage fetches one catalog page. AS Colour pages are 1-based.
func (c *Client) ListPage(ctx context.Context, req supplier.PageRequest) (*supplier.Page, error) {
	query := url.Values{}
	query.Set("pageNumber", strconv.Itoa(req.Page))
	query.Set("pageSize", strconv.Itoa(req.PageSize))
	if !req.UpdatedSince.IsZero() {
		query.Set("updatedSince", req.UpdatedSince.UTC().Format(time.RFC3339))
	}
	if req.Category != "" {
		query.Set("productType", req.Category)
	}

	var list listResponse
	err := retry.Do(ctx, func() error {
		data, err := c.doGet(ctx, "/v1/catalog/products", query, false)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &list)
	}, c.retryOpts...)
	if err != nil {
		return nil, err
	}

	records := make([]supplier.Record, 0, len(list.Data))
	for i := range list.Data {
		records = append(records, &list.Data[i])
	}
	return &supplier.Page{
		Records: records,
		HasMore: len(list.Data) == req.PageSize,
	}, nil
}

// GetProduct fetches one style by its code.
func (c *Client) GetProduct(ctx context.Context, id string) (supplier.Record, error) {
	var product Product
	err := retry.Do(ctx, func() error {
		data, err := c.doGet(ctx, "/v1/catalog/products/"+url.PathEscape(id), nil, false)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &product)
	}, c.retryOpts...)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListVariants returns the per-colour-size stock lines of a style. AS
// Colour has no separate variant endpoint; the inventory lines carry
// the full colour x size grid.
func (c *Client) ListVariants(ctx context.Context, id string) ([]supplier.Record, error) {
	return c.GetInventory(ctx, id)
}

// GetInventory fetches stock lines for a style.
func (c *Client) GetInventory(ctx context.Context, id string) ([]supplier.Record, error) {
	var items []InventoryItem
	err := retry.Do(ctx, func() error {
		data, err := c.doGet(ctx, "/v1/inventory/items/"+url.PathEscape(id), nil, false)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &items)
	}, c.retryOpts...)
	if err != nil {
		return nil, err
	}
	records := make([]supplier.Record, 0, len(items))
	for i := range items {
		records = append(records, &items[i])
	}
	return records, nil
}

// GetPricing fetches the quantity-break tiers of a style. This endpoint
// requires the bearer token.
func (c *Client) GetPricing(ctx context.Context, id string) ([]supplier.Record, error) {
	var tiers []PriceTier
	err := retry.Do(ctx, func() error {
		data, err := c.doGet(ctx, "/v1/pricing/items/"+url.PathEscape(id), nil, true)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &tiers)
	}, c.retryOpts...)
	if err != nil {
		return nil, err
	}
	records := make([]supplier.Record, 0, len(tiers))
	for i := range tiers {
		records = append(records, &tiers[i])
	}
	return records, nil
}

var _ supplier.Client = (*Client)(nil)
