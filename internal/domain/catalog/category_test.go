package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		raw  string
		want Category
	}{
		{"T-Shirts", CategoryTShirts},
		{"tees", CategoryTShirts},
		{"Polo Shirts", CategoryPolos},
		{"Fleece", CategoryHoodies},
		{"Outerwear", CategoryJackets},
		{"Caps", CategoryHats},
		{"Beanies", CategoryHeadwear},
		{"Kids", CategoryYouth},
		{"Totes", CategoryBags},
		{"Chinos Deluxe", CategoryOther},
		{"", CategoryOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCategory(tt.raw, nil), "raw %q", tt.raw)
	}
}

func TestNormalizeCategory_SupplierOverrides(t *testing.T) {
	overrides := map[string]Category{
		"crewneck tee": CategoryTShirts,
		"fleece":       CategoryJackets, // supplier-specific meaning wins
	}

	assert.Equal(t, CategoryTShirts, NormalizeCategory("Crewneck Tee", overrides))
	assert.Equal(t, CategoryJackets, NormalizeCategory("fleece", overrides))
	assert.Equal(t, CategoryHats, NormalizeCategory("caps", overrides), "shared table still applies")
}
