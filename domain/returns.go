package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Return struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ReturnNumber string          `gorm:"column:return_number;uniqueIndex;not null" json:"return_number"`
	OrderID      uint            `gorm:"column:order_id;index;not null" json:"order_id"`
	UserID       uint            `gorm:"column:user_id;index;not null" json:"user_id"`
	Reason       string          `gorm:"column:reason;type:text" json:"reason"`
	Status       ReturnStatus    `gorm:"column:status;not null;default:REQUESTED" json:"status"`
	RefundStatus RefundStatus    `gorm:"column:refund_status;not null;default:PENDING" json:"refund_status"`
	RefundAmount decimal.Decimal `gorm:"column:refund_amount;type:numeric(12,2);default:0" json:"refund_amount"`
	FullOrder    bool            `gorm:"column:full_order;default:false" json:"full_order"`
	AdminNotes   string          `gorm:"column:admin_notes;type:text" json:"admin_notes,omitempty"`
	Items        []ReturnItem    `gorm:"foreignKey:ReturnID" json:"items,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Return) TableName() string {
	return "returns"
}

type ReturnItem struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ReturnID    uint   `gorm:"column:return_id;index;not null" json:"return_id"`
	OrderItemID uint   `gorm:"column:order_item_id;not null" json:"order_item_id"`
	ProductID   uint   `gorm:"column:product_id;not null" json:"product_id"`
	Quantity    int    `gorm:"column:quantity;not null" json:"quantity"`
	Reason      string `gorm:"column:reason" json:"reason,omitempty"`
}

func (ReturnItem) TableName() string {
	return "return_items"
}

// BlocksNewReturn is true for every return that was not cancelled; an order
// gets at most one.
func (r Return) BlocksNewReturn() bool {
	return r.Status != ReturnCancelled
}

type ReturnFilter struct {
	UserID uint
	Status ReturnStatus
	Page   Page
}
