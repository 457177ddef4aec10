package catalog

import (
	"regexp"
	"strings"
)

// SupplierCode identifies the source a product was pulled from.
type SupplierCode string

const (
	SupplierASColour     SupplierCode = "ascolour"
	SupplierSSActivewear SupplierCode = "ssactivewear"
	SupplierSanMar       SupplierCode = "sanmar"
)

// AllSuppliers lists every supported supplier code.
func AllSuppliers() []SupplierCode {
	return []SupplierCode{SupplierASColour, SupplierSSActivewear, SupplierSanMar}
}

// IsValid reports whether the code names a supported supplier.
func (s SupplierCode) IsValid() bool {
	switch s {
	case SupplierASColour, SupplierSSActivewear, SupplierSanMar:
		return true
	}
	return false
}

// ParseSupplier normalizes the many spellings found in supplier feeds and
// configuration ("AS Colour", "ss-activewear", "SanMar") to a SupplierCode.
func ParseSupplier(s string) (SupplierCode, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "", "-", "", "&", "").Replace(normalized)
	switch normalized {
	case "ascolour", "ascolor":
		return SupplierASColour, true
	case "ssactivewear", "sactivewear":
		return SupplierSSActivewear, true
	case "sanmar":
		return SupplierSanMar, true
	}
	return "", false
}

var asColourStylePattern = regexp.MustCompile(`^\d{4,5}$`)
var sanMarStylePattern = regexp.MustCompile(`^[A-Z]{2,4}\d+[A-Z]?$`)

// ssBrandPrefixes are style prefixes of brands distributed by S&S Activewear
// (Gildan, Bella+Canvas, Next Level, Comfort Colors, District, ...).
var ssBrandPrefixes = []string{"G", "BC", "NL", "CC", "DT", "LPC", "LST", "IND", "AL", "B"}

// DetectSupplier infers the source supplier from the shape of a bare style
// code. Used by the query layer when the caller does not know the supplier.
func DetectSupplier(sku string) SupplierCode {
	styleCode := strings.ToUpper(strings.TrimSpace(sku))

	// Strip an explicit supplier prefix if present (e.g. "SANMAR-PC54").
	for _, code := range AllSuppliers() {
		prefix := strings.ToUpper(string(code)) + "-"
		if strings.HasPrefix(styleCode, prefix) {
			return code
		}
	}

	if asColourStylePattern.MatchString(styleCode) {
		return SupplierASColour
	}

	for _, prefix := range ssBrandPrefixes {
		if strings.HasPrefix(styleCode, prefix) && len(styleCode) > len(prefix) {
			rest := styleCode[len(prefix):]
			if rest[0] >= '0' && rest[0] <= '9' {
				return SupplierSSActivewear
			}
		}
	}

	if sanMarStylePattern.MatchString(styleCode) {
		return SupplierSanMar
	}

	return SupplierSanMar
}

// SplitSKU separates a canonical supplier-prefixed SKU ("SANMAR-PC54") into
// the supplier code and the supplier's own style identifier. Bare style codes
// fall back to shape detection.
func SplitSKU(sku string) (SupplierCode, string) {
	styleCode := strings.ToUpper(strings.TrimSpace(sku))
	for _, code := range AllSuppliers() {
		prefix := strings.ToUpper(string(code)) + "-"
		if strings.HasPrefix(styleCode, prefix) {
			return code, strings.TrimPrefix(styleCode, prefix)
		}
	}
	return DetectSupplier(styleCode), styleCode
}

// PrefixSKU builds the canonical, globally unique SKU for a supplier style.
func PrefixSKU(supplier SupplierCode, styleID string) string {
	return strings.ToUpper(string(supplier)) + "-" + SanitizeSKU(styleID)
}
