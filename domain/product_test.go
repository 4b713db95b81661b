package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProductActivePrice(t *testing.T) {
	p := Product{Price: d("1000")}
	assert.True(t, d("1000").Equal(p.ActivePrice()))
	assert.EqualValues(t, 0, p.DiscountPercentage())

	p.SalePrice = decimal.NewNullDecimal(d("750"))
	assert.True(t, d("750").Equal(p.ActivePrice()))
	assert.EqualValues(t, 25, p.DiscountPercentage())

	p.SalePrice = decimal.NewNullDecimal(d("1200"))
	assert.True(t, d("1000").Equal(p.ActivePrice()))
}

func TestCartItemSameVariant(t *testing.T) {
	one, two := uint(1), uint(2)

	a := CartItem{ProductID: 5, SizeID: &one, ColorID: &two}
	b := CartItem{ProductID: 5, SizeID: &one, ColorID: &two}
	assert.True(t, a.SameVariant(b))
	assert.Equal(t, "5:1:2:0", a.Key())

	b.FabricID = &one
	assert.False(t, a.SameVariant(b))

	c := CartItem{ProductID: 5, SizeID: &two, ColorID: &two}
	assert.False(t, a.SameVariant(c))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "black-nida-abaya", Slugify("  Black Nida  Abaya! "))
	assert.Equal(t, "open-front-2024", Slugify("Open-Front / 2024"))
}

func TestPageNormalize(t *testing.T) {
	p := Page{}.Normalize()
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, DefaultPageSize, p.Size)

	p = Page{Number: 3, Size: 500}.Normalize()
	assert.Equal(t, MaxPageSize, p.Size)
	assert.Equal(t, 200, Page{Number: 3, Size: 100}.Offset())

	res := NewPageResult([]int{1, 2}, 25, Page{Number: 1, Size: 10})
	assert.Equal(t, 3, res.TotalPages)
}
