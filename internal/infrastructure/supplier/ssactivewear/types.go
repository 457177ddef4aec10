package ssactivewear

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printshop/catalog/internal/domain/catalog"
)

// DefaultBaseURL is the S&S Activewear production API.
const DefaultBaseURL = "https://api.ssactivewear.com"

// Config holds S&S Activewear credentials: HTTP Basic auth with the
// account number as user and the API key as password.
type Config struct {
	BaseURL        string
	AccountNumber  string
	APIKey         string
	TimeoutSeconds int
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.AccountNumber == "" || c.APIKey == "" {
		return errors.New("ssactivewear: account number and API key are required")
	}
	if c.BaseURL != "" {
		if _, err := url.Parse(c.BaseURL); err != nil {
			return fmt.Errorf("ssactivewear: invalid base URL: %w", err)
		}
	}
	return nil
}

// Product is the raw style record from /v2/products.
type Product struct {
	StyleID       string        `json:"styleID"`
	StyleName     string        `json:"styleName"`
	BrandName     string        `json:"brandName"`
	Description   string        `json:"description"`
	CategoryName  string        `json:"categoryName"`
	FabricContent string        `json:"fabricContent"`
	PieceWeight   string        `json:"pieceWeight"`
	Colors        []ColorSwatch `json:"colors"`
	Sizes         []string      `json:"sizes"`
	Pricing       []PriceRow    `json:"pricing"`
	Images        []string      `json:"images"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func (p *Product) Supplier() catalog.SupplierCode { return catalog.SupplierSSActivewear }
func (p *Product) RecordID() string               { return p.StyleID }

// ColorSwatch is one entry of a style's color range.
type ColorSwatch struct {
	ColorName       string `json:"colorName"`
	ColorHex        string `json:"color1"`
	ColorFamily     string `json:"colorFamily"`
	ColorFrontImage string `json:"colorFrontImage"`
}

// PriceRow is one quantity tier, embedded in the style record and also
// returned by the pricing endpoint.
type PriceRow struct {
	StyleID   string           `json:"styleID"`
	Quantity  int              `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
	CasePrice *decimal.Decimal `json:"casePrice,omitempty"`
}

func (r *PriceRow) Supplier() catalog.SupplierCode { return catalog.SupplierSSActivewear }
func (r *PriceRow) RecordID() string               { return r.StyleID }

// InventoryLine is one warehouse-aggregated stock line per color x size.
type InventoryLine struct {
	Sku       string `json:"sku"`
	StyleID   string `json:"styleID"`
	ColorName string `json:"colorName"`
	SizeName  string `json:"sizeName"`
	Qty       int    `json:"qty"`
}

func (l *InventoryLine) Supplier() catalog.SupplierCode { return catalog.SupplierSSActivewear }
func (l *InventoryLine) RecordID() string               { return l.Sku }

// listEnvelope is the paginated products response.
type listEnvelope struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	HasMore  bool      `json:"hasMore"`
}
