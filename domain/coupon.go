package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CouponPercentage = "PERCENTAGE"
	CouponFixed      = "FIXED"
)

type Coupon struct {
	ID                uint                `gorm:"primaryKey" json:"id"`
	Code              string              `gorm:"column:code;uniqueIndex;not null" json:"code"`
	Description       string              `gorm:"column:description" json:"description,omitempty"`
	DiscountType      string              `gorm:"column:discount_type;not null" json:"discount_type"`
	Value             decimal.Decimal     `gorm:"column:value;type:numeric(12,2);not null" json:"value"`
	MinOrderAmount    decimal.Decimal     `gorm:"column:min_order_amount;type:numeric(12,2);default:0" json:"min_order_amount"`
	MaxDiscountAmount decimal.NullDecimal `gorm:"column:max_discount_amount;type:numeric(12,2)" json:"max_discount_amount"`
	StartDate         time.Time           `gorm:"column:start_date;not null" json:"start_date"`
	EndDate           time.Time           `gorm:"column:end_date;not null" json:"end_date"`
	UsageLimit        *int                `gorm:"column:usage_limit" json:"usage_limit,omitempty"`
	UsageCount        int                 `gorm:"column:usage_count;default:0" json:"usage_count"`
	IsActive          bool                `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func (Coupon) TableName() string {
	return "coupons"
}

func (c Coupon) UsageExhausted() bool {
	return c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit
}

func (c Coupon) IsValid(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.StartDate) || now.After(c.EndDate) {
		return false
	}
	return !c.UsageExhausted()
}

// CalculateDiscount returns the discount for an order amount, or zero when
// the coupon does not apply.
func (c Coupon) CalculateDiscount(amount decimal.Decimal, now time.Time) decimal.Decimal {
	if !c.IsValid(now) || amount.LessThan(c.MinOrderAmount) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	if c.DiscountType == CouponPercentage {
		discount = amount.Mul(c.Value).Div(decimal.NewFromInt(100))
	} else {
		discount = c.Value
	}

	if c.MaxDiscountAmount.Valid && discount.GreaterThan(c.MaxDiscountAmount.Decimal) {
		discount = c.MaxDiscountAmount.Decimal
	}
	if discount.GreaterThan(amount) {
		discount = amount
	}

	return Round2(discount)
}
