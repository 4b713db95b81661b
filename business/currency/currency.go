package currency

import (
	"errors"
	"strings"

	"abayaStore/domain"

	"github.com/shopspring/decimal"
)

var ErrZeroRate = errors.New("currency has a zero exchange rate")

// Convert moves amount from one currency to another through the base
// currency: amount / from.rate * to.rate, rounded to two places.
func Convert(amount decimal.Decimal, from, to domain.Currency) (decimal.Decimal, error) {
	if strings.EqualFold(from.Code, to.Code) {
		return amount, nil
	}
	if from.ExchangeRate.IsZero() {
		return decimal.Zero, ErrZeroRate
	}

	return domain.Round2(amount.Div(from.ExchangeRate).Mul(to.ExchangeRate)), nil
}

// Format renders amount as symbol followed by a grouped, two-place figure,
// for example ₹1,234.56.
func Format(amount decimal.Decimal, c domain.Currency) string {
	fixed := amount.StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return c.Symbol + sign + b.String() + "." + frac
}
