package catalog

import "strings"

// Category is the canonical product category across all suppliers.
type Category string

const (
	CategoryTShirts     Category = "t-shirts"
	CategoryPolos       Category = "polos"
	CategoryHoodies     Category = "hoodies"
	CategoryJackets     Category = "jackets"
	CategoryPants       Category = "pants"
	CategoryShorts      Category = "shorts"
	CategoryBags        Category = "bags"
	CategoryHats        Category = "hats"
	CategoryHeadwear    Category = "headwear"
	CategoryYouth       Category = "youth"
	CategoryAccessories Category = "accessories"
	CategoryOther       Category = "other"
)

// baseCategoryMap covers the category spellings shared by multiple suppliers.
// Supplier transformers layer their own aliases on top via NormalizeCategory.
var baseCategoryMap = map[string]Category{
	"t-shirts":    CategoryTShirts,
	"t-shirt":     CategoryTShirts,
	"tees":        CategoryTShirts,
	"tee":         CategoryTShirts,
	"polos":       CategoryPolos,
	"polo":        CategoryPolos,
	"polo shirts": CategoryPolos,
	"hoodies":     CategoryHoodies,
	"hoodie":      CategoryHoodies,
	"fleece":      CategoryHoodies,
	"sweatshirts": CategoryHoodies,
	"crew":        CategoryHoodies,
	"jackets":     CategoryJackets,
	"jacket":      CategoryJackets,
	"outerwear":   CategoryJackets,
	"pants":       CategoryPants,
	"sweatpants":  CategoryPants,
	"shorts":      CategoryShorts,
	"bags":        CategoryBags,
	"bag":         CategoryBags,
	"totes":       CategoryBags,
	"hats":        CategoryHats,
	"caps":        CategoryHats,
	"cap":         CategoryHats,
	"headwear":    CategoryHeadwear,
	"beanies":     CategoryHeadwear,
	"youth":       CategoryYouth,
	"kids":        CategoryYouth,
	"accessories": CategoryAccessories,
	"accessory":   CategoryAccessories,
}

// NormalizeCategory maps a raw supplier category name to the canonical enum.
// The overrides map carries supplier-specific spellings and wins over the
// shared table. Unmapped values fall back to CategoryOther.
func NormalizeCategory(raw string, overrides map[string]Category) Category {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return CategoryOther
	}
	if overrides != nil {
		if c, ok := overrides[key]; ok {
			return c
		}
	}
	if c, ok := baseCategoryMap[key]; ok {
		return c
	}
	return CategoryOther
}
