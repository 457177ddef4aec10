package catalog

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PriceBreak is one quantity-based price tier. MaxQty is nil for the last,
// unbounded tier.
type PriceBreak struct {
	MinQty    int              `json:"minQty"`
	MaxQty    *int             `json:"maxQty,omitempty"`
	Price     decimal.Decimal  `json:"price"`
	CasePrice *decimal.Decimal `json:"casePrice,omitempty"`
}

// Pricing holds a product's base price and its quantity-break table.
type Pricing struct {
	BasePrice decimal.Decimal `json:"basePrice"`
	Currency  string          `json:"currency"`
	Breaks    []PriceBreak    `json:"breaks,omitempty"`
}

// NormalizeBreaks sorts price breaks ascending by MinQty, drops duplicates on
// the same MinQty (first wins), and derives each break's MaxQty as one less
// than the next break's MinQty. The table then partitions [1, inf): a missing
// leading tier is anchored at quantity 1 and the last tier is unbounded.
func NormalizeBreaks(breaks []PriceBreak) []PriceBreak {
	if len(breaks) == 0 {
		return nil
	}

	sorted := make([]PriceBreak, len(breaks))
	copy(sorted, breaks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinQty < sorted[j].MinQty
	})

	out := sorted[:0]
	seen := map[int]bool{}
	for _, b := range sorted {
		if b.MinQty < 1 {
			b.MinQty = 1
		}
		if seen[b.MinQty] {
			continue
		}
		seen[b.MinQty] = true
		out = append(out, b)
	}

	// Anchor the first tier at quantity 1 so every quantity resolves.
	out[0].MinQty = 1

	for i := range out {
		if i+1 < len(out) {
			maxQty := out[i+1].MinQty - 1
			out[i].MaxQty = &maxQty
		} else {
			out[i].MaxQty = nil
		}
	}

	return out
}

// BreakFor resolves the applicable tier for a quantity: the break with the
// largest MinQty not exceeding it. Returns false when the table is empty or
// the quantity is below every tier.
func (p *Pricing) BreakFor(quantity int) (PriceBreak, bool) {
	var (
		best  PriceBreak
		found bool
	)
	for _, b := range p.Breaks {
		if b.MinQty <= quantity && (!found || b.MinQty > best.MinQty) {
			best = b
			found = true
		}
	}
	return best, found
}

// PriceFor returns the unit price at the given quantity, falling back to the
// base price when no break applies.
func (p *Pricing) PriceFor(quantity int) decimal.Decimal {
	if b, ok := p.BreakFor(quantity); ok {
		return b.Price
	}
	return p.BasePrice
}
