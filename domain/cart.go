package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Cart belongs to exactly one of a user or a guest session.
type Cart struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     *uint      `gorm:"column:user_id;uniqueIndex" json:"user_id,omitempty"`
	SessionKey *string    `gorm:"column:session_key;uniqueIndex" json:"session_key,omitempty"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Cart) TableName() string {
	return "carts"
}

type CartItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CartID     uint      `gorm:"column:cart_id;not null;uniqueIndex:idx_cart_items_variant,priority:1" json:"cart_id"`
	ProductID  uint      `gorm:"column:product_id;not null" json:"product_id"`
	VariantKey string    `gorm:"column:variant_key;size:64;not null;uniqueIndex:idx_cart_items_variant,priority:2" json:"-"`
	SizeID     *uint     `gorm:"column:size_id" json:"size_id,omitempty"`
	ColorID    *uint     `gorm:"column:color_id" json:"color_id,omitempty"`
	FabricID   *uint     `gorm:"column:fabric_id" json:"fabric_id,omitempty"`
	Quantity   int       `gorm:"column:quantity;not null;default:1" json:"quantity"`
	Product    *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Size       *Size     `gorm:"foreignKey:SizeID" json:"size,omitempty"`
	Color      *Color    `gorm:"foreignKey:ColorID" json:"color,omitempty"`
	Fabric     *Fabric   `gorm:"foreignKey:FabricID" json:"fabric,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// Key names the product variant of a line. A cart holds at most one line
// per key.
func (i CartItem) Key() string {
	return fmt.Sprintf("%d:%d:%d:%d", i.ProductID, orZero(i.SizeID), orZero(i.ColorID), orZero(i.FabricID))
}

// SameVariant reports whether two lines describe the same product variant.
func (i CartItem) SameVariant(o CartItem) bool {
	return i.Key() == o.Key()
}

func orZero(v *uint) uint {
	if v == nil {
		return 0
	}
	return *v
}

// CartOwner identifies whose cart an operation targets.
type CartOwner struct {
	UserID     uint
	SessionKey string
}

func (o CartOwner) IsGuest() bool {
	return o.UserID == 0
}

func (o CartOwner) Valid() bool {
	return o.UserID != 0 || o.SessionKey != ""
}

type CartLine struct {
	Item      CartItem        `json:"item"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	InStock   bool            `json:"in_stock"`
	Variant   string          `json:"variant,omitempty"`
}

type CartView struct {
	CartID    uint            `json:"cart_id"`
	Lines     []CartLine      `json:"lines"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Currency  string          `json:"currency"`
}

type CartSummary struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Shipping   decimal.Decimal `json:"shipping"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
	CouponCode string          `json:"coupon_code,omitempty"`
	Currency   string          `json:"currency"`
	ItemCount  int             `json:"item_count"`
}

type WishlistItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"column:user_id;uniqueIndex:idx_wishlist_user_product;not null" json:"user_id"`
	ProductID uint      `gorm:"column:product_id;uniqueIndex:idx_wishlist_user_product;not null" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}
