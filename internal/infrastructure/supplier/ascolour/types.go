package ascolour

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printshop/catalog/internal/domain/catalog"
)

// DefaultBaseURL is the AS Colour production API.
const DefaultBaseURL = "https://api.ascolour.com"

// Config holds AS Colour credentials. SubscriptionKey unlocks the
// catalog and inventory endpoints; Email/Password are exchanged for a
// bearer token required by pricing endpoints and may be empty when
// price enrichment is not used.
type Config struct {
	BaseURL         string
	SubscriptionKey string
	Email           string
	Password        string
	TimeoutSeconds  int
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.SubscriptionKey == "" {
		return errors.New("ascolour: subscription key is required")
	}
	if c.BaseURL != "" {
		if _, err := url.Parse(c.BaseURL); err != nil {
			return fmt.Errorf("ascolour: invalid base URL: %w", err)
		}
	}
	return nil
}

// Product is the raw catalog record AS Colour returns for one style.
type Product struct {
	StyleCode    string   `json:"styleCode"`
	StyleName    string   `json:"styleName"`
	Description  string   `json:"description"`
	ProductType  string   `json:"productType"`
	WebID        int64    `json:"webId"`
	Composition  string   `json:"composition"`
	FabricWeight string   `json:"fabricWeight"`
	Fit          string   `json:"fit"`
	Colours      []Colour `json:"colours"`
	Sizes        []string `json:"sizes"`
	Images       []string `json:"images"`
	Pricing      struct {
		Wholesale decimal.Decimal `json:"wholesale"`
		Currency  string          `json:"currency"`
	} `json:"pricing"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Product) Supplier() catalog.SupplierCode { return catalog.SupplierASColour }
func (p *Product) RecordID() string               { return p.StyleCode }

// Colour is one entry of a style's colour range.
type Colour struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// InventoryItem is one stock line from the inventory endpoint, one per
// colour x size of a style.
type InventoryItem struct {
	SKU       string `json:"sku"`
	StyleCode string `json:"styleCode"`
	Colour    string `json:"colour"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

func (i *InventoryItem) Supplier() catalog.SupplierCode { return catalog.SupplierASColour }
func (i *InventoryItem) RecordID() string               { return i.SKU }

// PriceTier is one quantity break from the pricing endpoint. Pricing
// endpoints require bearer auth.
type PriceTier struct {
	StyleCode string          `json:"styleCode"`
	MinQty    int             `json:"minQty"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
}

func (t *PriceTier) Supplier() catalog.SupplierCode { return catalog.SupplierASColour }
func (t *PriceTier) RecordID() string               { return t.StyleCode }

// listResponse is the paginated envelope used by catalog endpoints.
type listResponse struct {
	Data       []Product `json:"data"`
	PageNumber int       `json:"pageNumber"`
	PageSize   int       `json:"pageSize"`
	TotalPages int       `json:"totalPages"`
}

// authResponse is returned by the authentication endpoint. Older API
// versions used "accessToken".
type authResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
}

func (a authResponse) bearer() string {
	if a.Token != "" {
		return a.Token
	}
	return a.AccessToken
}
