package sanmar

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/printshop/catalog/internal/domain/catalog"
)

// DefaultFileName is the extended product data file SanMar publishes.
const DefaultFileName = "EPDD.csv"

// Config holds the SFTP feed settings. LocalFile and NoDownload bypass
// the download for offline runs against an already-fetched file.
type Config struct {
	Host           string
	Port           int
	Username       string
	Password       string
	RemoteDir      string
	FileName       string
	LocalDir       string
	LocalFile      string
	NoDownload     bool
	TimeoutSeconds int
}

// Validate checks that either SFTP credentials or a local file are
// available.
func (c *Config) Validate() error {
	if c.NoDownload || c.LocalFile != "" {
		return nil
	}
	if c.Host == "" || c.Username == "" || c.Password == "" {
		return errors.New("sanmar: sftp host, username and password are required unless a local file is given")
	}
	return nil
}

func (c *Config) fileName() string {
	if c.FileName != "" {
		return c.FileName
	}
	return DefaultFileName
}

// FeedRow is one line of the bulk feed: one color x size of one style.
type FeedRow struct {
	Line        int
	UniqueKey   string
	StyleCode   string
	Title       string
	Description string
	Mill        string
	Category    string
	ColorName   string
	Size        string
	Quantity    int
	PiecePrice  decimal.Decimal
	CasePrice   *decimal.Decimal
	FrontImage  string
}

func (r *FeedRow) Supplier() catalog.SupplierCode { return catalog.SupplierSanMar }

func (r *FeedRow) RecordID() string {
	if r.UniqueKey != "" {
		return r.UniqueKey
	}
	return fmt.Sprintf("%s-%s-%s", r.StyleCode, r.ColorName, r.Size)
}

// Style groups every feed row of one style code. It is the record unit
// the transformer consumes.
type Style struct {
	Code string
	Rows []*FeedRow
}

func (s *Style) Supplier() catalog.SupplierCode { return catalog.SupplierSanMar }
func (s *Style) RecordID() string               { return s.Code }
