// Package sanmar integrates the SanMar bulk feed: an extended product
// data CSV published over SFTP, optionally zipped. There is no per-item
// API; the whole feed is downloaded once per sync and paged locally.
package sanmar

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/printshop/catalog/internal/domain/catalog"
	"github.com/printshop/catalog/internal/infrastructure/supplier"
)

// Client serves supplier records out of a parsed feed snapshot. The
// feed is loaded lazily on the first call that needs it and kept for
// the client's lifetime.
type Client struct {
	config  *Config
	fetcher *Fetcher
	log     *zap.Logger

	mu        sync.Mutex
	loaded    bool
	styles    []*Style
	byCode    map[string]*Style
	rowErrors []*catalog.RowError
}

func NewClient(config *Config, log *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config:  config,
		fetcher: NewFetcher(config, log),
		log:     log,
	}, nil
}

func (c *Client) Supplier() catalog.SupplierCode { return catalog.SupplierSanMar }

// Authenticate is a no-op; SFTP credentials are checked on download.
func (c *Client) Authenticate(context.Context) error { return nil }

// HealthCheck verifies the feed source: the local file when downloads
// are bypassed, the remote file otherwise.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.config.NoDownload || c.config.LocalFile != "" {
		path := c.config.LocalFile
		if path == "" {
			path = c.localFallbackPath()
		}
		if _, err := os.Stat(path); err != nil {
			return &catalog.TransientError{Op: "sanmar stat " + path, Err: err}
		}
		return nil
	}
	return c.fetcher.Ping(ctx)
}

func (c *Client) localFallbackPath() string {
	dir := c.config.LocalDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, c.config.fileName())
}

// ensureLoaded downloads (unless bypassed), extracts, and parses the
// feed exactly once.
func (c *Client) ensureLoaded(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}

	path := c.config.LocalFile
	if path == "" && c.config.NoDownload {
		path = c.localFallbackPath()
	}
	if path == "" {
		fetched, err := c.fetcher.Fetch(ctx)
		if err != nil {
			return err
		}
		path = fetched
	} else {
		extracted, err := ExtractFeed(path)
		if err != nil {
			return err
		}
		path = extracted
	}

	file, err := os.Open(path)
	if err != nil {
		return &catalog.TransientError{Op: "sanmar open feed " + path, Err: err}
	}
	defer file.Close()

	styles, rowErrors, err := ParseFeed(file)
	if err != nil {
		return err
	}

	c.styles = styles
	c.rowErrors = rowErrors
	c.byCode = make(map[string]*Style, len(styles))
	for _, style := range styles {
		c.byCode[style.Code] = style
	}
	c.loaded = true

	c.log.Info("parsed supplier feed",
		zap.String("path", path),
		zap.Int("styles", len(styles)),
		zap.Int("malformedRows", len(rowErrors)))
	return nil
}

// RowErrors returns the malformed rows skipped while parsing the feed.
// Empty until the feed has been loaded.
func (c *Client) RowErrors() []*catalog.RowError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rowErrors
}

func styleMatches(style *Style, req supplier.PageRequest) bool {
	if req.Category == "" && req.Brand == "" {
		return true
	}
	for _, row := range style.Rows {
		if req.Category != "" && !strings.EqualFold(row.Category, req.Category) {
			continue
		}
		if req.Brand != "" && !strings.EqualFold(row.Mill, req.Brand) {
			continue
		}
		return true
	}
	return false
}

// ListPage pages through the parsed styles so the sync loop treats the
// bulk feed like any other supplier. Pages are 1-based.
func (c *Client) ListPage(ctx context.Context, req supplier.PageRequest) (*supplier.Page, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	var filtered []*Style
	for _, style := range c.styles {
		if styleMatches(style, req) {
			filtered = append(filtered, style)
		}
	}

	start := (req.Page - 1) * req.PageSize
	if start < 0 || start >= len(filtered) {
		return &supplier.Page{}, nil
	}
	end := start + req.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	records := make([]supplier.Record, 0, end-start)
	for _, style := range filtered[start:end] {
		records = append(records, style)
	}
	return &supplier.Page{Records: records, HasMore: end < len(filtered)}, nil
}

// GetProduct looks a style up in the feed snapshot.
func (c *Client) GetProduct(ctx context.Context, id string) (supplier.Record, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	style, ok := c.byCode[strings.ToUpper(id)]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return style, nil
}

// ListVariants returns the style's feed rows; each row is one variant.
func (c *Client) ListVariants(ctx context.Context, id string) ([]supplier.Record, error) {
	return c.styleRows(ctx, id)
}

// GetInventory returns the same rows; quantities ride on the feed rows.
func (c *Client) GetInventory(ctx context.Context, id string) ([]supplier.Record, error) {
	return c.styleRows(ctx, id)
}

// GetPricing returns the same rows; prices ride on the feed rows.
func (c *Client) GetPricing(ctx context.Context, id string) ([]supplier.Record, error) {
	return c.styleRows(ctx, id)
}

func (c *Client) styleRows(ctx context.Context, id string) ([]supplier.Record, error) {
	record, err := c.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	style := record.(*Style)
	rows := make([]supplier.Record, 0, len(style.Rows))
	for _, row := range style.Rows {
		rows = append(rows, row)
	}
	return rows, nil
}

var _ supplier.Client = (*Client)(nil)
