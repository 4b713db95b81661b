package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CREATE TABLE public.products (
//     id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     name         TEXT NOT NULL,
//     slug         TEXT UNIQUE NOT NULL,
//     sku          TEXT UNIQUE NOT NULL,
//     price        NUMERIC(12,2) NOT NULL,
//     sale_price   NUMERIC(12,2),
//     cost         NUMERIC(12,2),
//     quantity     INTEGER NOT NULL DEFAULT 0,
//     is_active    BOOLEAN DEFAULT TRUE,
//     is_featured  BOOLEAN DEFAULT FALSE,
//     created_at   TIMESTAMPTZ DEFAULT NOW(),
//     updated_at   TIMESTAMPTZ DEFAULT NOW()
// );

type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Slug        string    `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"column:description;type:text" json:"description,omitempty"`
	ParentID    *uint     `gorm:"column:parent_id" json:"parent_id,omitempty"`
	IsActive    bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

type Product struct {
	ID          uint                `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string              `gorm:"column:name;not null" json:"name"`
	Slug        string              `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
	Description string              `gorm:"column:description;type:text" json:"description,omitempty"`
	SKU         string              `gorm:"column:sku;uniqueIndex;not null" json:"sku"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	SalePrice   decimal.NullDecimal `gorm:"column:sale_price;type:numeric(12,2)" json:"sale_price"`
	Cost        decimal.NullDecimal `gorm:"column:cost;type:numeric(12,2)" json:"-"`
	Quantity    int                 `gorm:"column:quantity;not null;default:0" json:"quantity"`
	IsActive    bool                `gorm:"column:is_active;default:true" json:"is_active"`
	IsFeatured  bool                `gorm:"column:is_featured;default:false" json:"is_featured"`
	Categories  []Category          `gorm:"many2many:product_categories" json:"categories,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// ActivePrice is the sale price when one is set below the list price.
func (p Product) ActivePrice() decimal.Decimal {
	if p.SalePrice.Valid && p.SalePrice.Decimal.IsPositive() && p.SalePrice.Decimal.LessThan(p.Price) {
		return p.SalePrice.Decimal
	}
	return p.Price
}

func (p Product) DiscountPercentage() int64 {
	if !p.Price.IsPositive() {
		return 0
	}
	active := p.ActivePrice()
	if active.Equal(p.Price) {
		return 0
	}
	return p.Price.Sub(active).Div(p.Price).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (p Product) InStock() bool {
	return p.Quantity > 0
}

type Size struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Code      string    `gorm:"column:code" json:"code"`
	SortOrder int       `gorm:"column:sort_order;default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

func (Size) TableName() string {
	return "sizes"
}

type Color struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"column:name;uniqueIndex;not null" json:"name"`
	HexCode   string    `gorm:"column:hex_code" json:"hex_code"`
	CreatedAt time.Time `json:"created_at"`
}

func (Color) TableName() string {
	return "colors"
}

type Fabric struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Fabric) TableName() string {
	return "fabrics"
}

// FabricColor lists which colors a fabric is produced in.
type FabricColor struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	FabricID uint `gorm:"column:fabric_id;uniqueIndex:idx_fabric_color;not null" json:"fabric_id"`
	ColorID  uint `gorm:"column:color_id;uniqueIndex:idx_fabric_color;not null" json:"color_id"`
}

func (FabricColor) TableName() string {
	return "fabric_colors"
}

type ProductFilter struct {
	CategoryID uint
	Search     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	InStock    bool
	Featured   bool
	// Sort is one of newest, price_asc, price_desc, name.
	Sort string
	// IncludeInactive is set for dashboard listings only.
	IncludeInactive bool
	Page            Page
}
