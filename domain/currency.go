package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Currency struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Code         string          `gorm:"column:code;size:3;uniqueIndex;not null" json:"code"`
	Name         string          `gorm:"column:name;not null" json:"name"`
	Symbol       string          `gorm:"column:symbol;not null" json:"symbol"`
	ExchangeRate decimal.Decimal `gorm:"column:exchange_rate;type:numeric(12,6);not null" json:"exchange_rate"`
	IsDefault    bool            `gorm:"column:is_default;default:false" json:"is_default"`
	IsActive     bool            `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Currency) TableName() string {
	return "currencies"
}

// FallbackCurrency is used when no currency is flagged as default.
func FallbackCurrency() Currency {
	return Currency{
		Code:         "INR",
		Name:         "Indian Rupee",
		Symbol:       "₹",
		ExchangeRate: decimal.NewFromInt(1),
		IsDefault:    true,
		IsActive:     true,
	}
}
