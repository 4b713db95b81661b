package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEstimateTax(t *testing.T) {
	c := NewCalculator(DefaultRules())

	tests := []struct {
		amount, state, want string
	}{
		{"1000", "Karnataka", "180"},
		{"1000", "gujarat", "150"},
		{"1000", " Tamil Nadu ", "150"},
		{"999.99", "DELHI", "180"},
		{"0", "DELHI", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			got := c.EstimateTax(d(tt.amount), tt.state)
			assert.True(t, d(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestEstimateShipping(t *testing.T) {
	c := NewCalculator(DefaultRules())

	tests := []struct {
		name, amount, state, want string
	}{
		{"free at threshold", "2000", "ASSAM", "0"},
		{"free above threshold", "2500", "Kerala", "0"},
		{"base", "1999.99", "Kerala", "100"},
		{"remote", "500", "Sikkim", "150"},
		{"remote multi-word", "500", "andaman and nicobar", "150"},
		{"nothing left to pay", "0", "Kerala", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.EstimateShipping(d(tt.amount), tt.state)
			assert.True(t, d(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestQuoteAppliesDiscountFirst(t *testing.T) {
	c := NewCalculator(DefaultRules())

	// 2100 - 200 drops below free shipping
	q := c.Quote(d("2100"), d("200"), "Kerala")
	assert.True(t, d("100").Equal(q.Shipping))
	assert.True(t, d("342").Equal(q.Tax))
	assert.True(t, d("2342").Equal(q.Total))

	q = c.Quote(d("100"), d("150"), "Kerala")
	assert.True(t, d("100").Equal(q.Discount))
	assert.True(t, q.Tax.IsZero())
	assert.True(t, d("100").Equal(q.Shipping))
	assert.True(t, d("100").Equal(q.Total))
}

func TestQuoteShipsEmptyCartFree(t *testing.T) {
	c := NewCalculator(DefaultRules())

	q := c.Quote(decimal.Zero, decimal.Zero, "Sikkim")
	assert.True(t, q.Shipping.IsZero())
	assert.True(t, q.Total.IsZero())
}
