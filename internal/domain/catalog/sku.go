package catalog

import "strings"

// SanitizeSKU uppercases a SKU fragment and strips everything except
// alphanumerics and hyphens. Runs of separators ("Navy/White", "Navy White")
// collapse to single hyphens so variant SKUs stay stable across feeds.
func SanitizeSKU(fragment string) string {
	var b strings.Builder
	b.Grow(len(fragment))
	lastHyphen := false
	for _, r := range strings.ToUpper(strings.TrimSpace(fragment)) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// VariantSKU builds the SKU for one color x size combination:
// parent SKU + sanitized color + sanitized size joined by hyphens.
func VariantSKU(parentSKU, color, size string) string {
	parts := []string{SanitizeSKU(parentSKU)}
	if c := SanitizeSKU(color); c != "" {
		parts = append(parts, c)
	}
	if s := SanitizeSKU(size); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "-")
}
