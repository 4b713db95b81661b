// Package pricing estimates the tax and shipping charged on an order.
package pricing

import (
	"strings"

	"abayaStore/domain"

	"github.com/shopspring/decimal"
)

// Rules are the store's tax and shipping parameters.
type Rules struct {
	FreeShippingThreshold decimal.Decimal
	BaseShipping          decimal.Decimal
	RemoteSurcharge       decimal.Decimal
	DefaultTaxRate        decimal.Decimal
	// StateTaxRates override DefaultTaxRate, keyed by upper-case state.
	StateTaxRates map[string]decimal.Decimal
	RemoteStates  map[string]bool
}

func DefaultRules() Rules {
	return Rules{
		FreeShippingThreshold: decimal.NewFromInt(2000),
		BaseShipping:          decimal.NewFromInt(100),
		RemoteSurcharge:       decimal.NewFromInt(50),
		DefaultTaxRate:        decimal.RequireFromString("0.18"),
		StateTaxRates: map[string]decimal.Decimal{
			"GUJARAT":    decimal.RequireFromString("0.15"),
			"TAMIL NADU": decimal.RequireFromString("0.15"),
		},
		RemoteStates: map[string]bool{
			"ASSAM":               true,
			"ARUNACHAL PRADESH":   true,
			"MANIPUR":             true,
			"MEGHALAYA":           true,
			"MIZORAM":             true,
			"NAGALAND":            true,
			"SIKKIM":              true,
			"TRIPURA":             true,
			"ANDAMAN AND NICOBAR": true,
		},
	}
}

type Calculator struct {
	rules Rules
}

func NewCalculator(rules Rules) *Calculator {
	return &Calculator{rules: rules}
}

func normalizeState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

func (c *Calculator) TaxRate(state string) decimal.Decimal {
	if rate, ok := c.rules.StateTaxRates[normalizeState(state)]; ok {
		return rate
	}
	return c.rules.DefaultTaxRate
}

func (c *Calculator) EstimateTax(amount decimal.Decimal, state string) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	return domain.Round2(amount.Mul(c.TaxRate(state)))
}

// EstimateShipping is free at or above the threshold. Any amount below it,
// zero included, pays the base rate.
func (c *Calculator) EstimateShipping(amount decimal.Decimal, state string) decimal.Decimal {
	if amount.GreaterThanOrEqual(c.rules.FreeShippingThreshold) {
		return decimal.Zero
	}

	cost := c.rules.BaseShipping
	if c.rules.RemoteStates[normalizeState(state)] {
		cost = cost.Add(c.rules.RemoteSurcharge)
	}
	return cost
}

type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Quote prices an order. Shipping and tax both apply to the discounted
// amount. A coupon that covers the whole subtotal still leaves shipping to
// pay; only an empty cart ships free.
func (c *Calculator) Quote(subtotal, discount decimal.Decimal, state string) Quote {
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	net := subtotal.Sub(discount)

	q := Quote{
		Subtotal: domain.Round2(subtotal),
		Discount: domain.Round2(discount),
		Shipping: decimal.Zero,
		Tax:      c.EstimateTax(net, state),
	}
	if subtotal.IsPositive() {
		q.Shipping = c.EstimateShipping(net, state)
	}
	q.Total = domain.Round2(net.Add(q.Shipping).Add(q.Tax))
	return q
}
