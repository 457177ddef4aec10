package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNormalizeBreaks(t *testing.T) {
	t.Run("sorts and derives max quantities", func(t *testing.T) {
		breaks := NormalizeBreaks([]PriceBreak{
			{MinQty: 144, Price: price("3.10")},
			{MinQty: 1, Price: price("4.50")},
			{MinQty: 24, Price: price("3.80")},
		})

		require.Len(t, breaks, 3)
		assert.Equal(t, 1, breaks[0].MinQty)
		require.NotNil(t, breaks[0].MaxQty)
		assert.Equal(t, 23, *breaks[0].MaxQty)
		assert.Equal(t, 24, breaks[1].MinQty)
		require.NotNil(t, breaks[1].MaxQty)
		assert.Equal(t, 143, *breaks[1].MaxQty)
		assert.Equal(t, 144, breaks[2].MinQty)
		assert.Nil(t, breaks[2].MaxQty, "last break is unbounded")
	})

	t.Run("anchors first break at quantity one", func(t *testing.T) {
		breaks := NormalizeBreaks([]PriceBreak{
			{MinQty: 12, Price: price("4.00")},
			{MinQty: 72, Price: price("3.50")},
		})

		require.Len(t, breaks, 2)
		assert.Equal(t, 1, breaks[0].MinQty, "table must partition [1, inf)")
	})

	t.Run("drops duplicate tiers", func(t *testing.T) {
		breaks := NormalizeBreaks([]PriceBreak{
			{MinQty: 1, Price: price("4.50")},
			{MinQty: 1, Price: price("9.99")},
			{MinQty: 50, Price: price("4.00")},
		})

		require.Len(t, breaks, 2)
		assert.True(t, breaks[0].Price.Equal(price("4.50")), "first duplicate wins")
	})

	t.Run("no gaps or overlaps", func(t *testing.T) {
		breaks := NormalizeBreaks([]PriceBreak{
			{MinQty: 100, Price: price("3.00")},
			{MinQty: 1, Price: price("5.00")},
			{MinQty: 25, Price: price("4.00")},
			{MinQty: 50, Price: price("3.50")},
		})

		for i := 0; i < len(breaks)-1; i++ {
			require.NotNil(t, breaks[i].MaxQty)
			assert.Equal(t, breaks[i+1].MinQty, *breaks[i].MaxQty+1,
				"break %d must end exactly where break %d starts", i, i+1)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, NormalizeBreaks(nil))
	})
}

func TestPricing_BreakFor(t *testing.T) {
	pricing := Pricing{
		BasePrice: price("4.50"),
		Currency:  "USD",
		Breaks: NormalizeBreaks([]PriceBreak{
			{MinQty: 1, Price: price("4.50")},
			{MinQty: 24, Price: price("3.80")},
			{MinQty: 144, Price: price("3.10")},
		}),
	}

	tests := []struct {
		quantity  int
		wantPrice string
	}{
		{1, "4.50"},
		{23, "4.50"},
		{24, "3.80"},
		{143, "3.80"},
		{144, "3.10"},
		{10000, "3.10"},
	}

	for _, tt := range tests {
		b, ok := pricing.BreakFor(tt.quantity)
		require.True(t, ok, "quantity %d must resolve", tt.quantity)
		assert.True(t, b.Price.Equal(price(tt.wantPrice)),
			"quantity %d: want %s got %s", tt.quantity, tt.wantPrice, b.Price)
	}
}

func TestPricing_PriceFor_FallsBackToBasePrice(t *testing.T) {
	pricing := Pricing{BasePrice: price("7.25"), Currency: "USD"}
	assert.True(t, pricing.PriceFor(10).Equal(price("7.25")))
}
