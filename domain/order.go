package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	OrderNumber   string            `gorm:"column:order_number;uniqueIndex;not null" json:"order_number"`
	UserID        uint              `gorm:"column:user_id;index;not null" json:"user_id"`
	Status        OrderStatus       `gorm:"column:status;index;not null;default:PENDING" json:"status"`
	PaymentStatus PaymentStatus     `gorm:"column:payment_status;not null;default:PENDING" json:"payment_status"`
	PaymentMethod PaymentMethodType `gorm:"column:payment_method" json:"payment_method"`
	CouponID      *uint             `gorm:"column:coupon_id" json:"coupon_id,omitempty"`
	CouponCode    string            `gorm:"column:coupon_code" json:"coupon_code,omitempty"`

	ShippingName       string `gorm:"column:shipping_name" json:"shipping_name"`
	ShippingPhone      string `gorm:"column:shipping_phone" json:"shipping_phone"`
	ShippingLine1      string `gorm:"column:shipping_line1" json:"shipping_line1"`
	ShippingLine2      string `gorm:"column:shipping_line2" json:"shipping_line2,omitempty"`
	ShippingCity       string `gorm:"column:shipping_city" json:"shipping_city"`
	ShippingState      string `gorm:"column:shipping_state" json:"shipping_state"`
	ShippingPostalCode string `gorm:"column:shipping_postal_code" json:"shipping_postal_code"`
	ShippingCountry    string `gorm:"column:shipping_country" json:"shipping_country"`
	BillingName        string `gorm:"column:billing_name" json:"billing_name"`
	BillingLine1       string `gorm:"column:billing_line1" json:"billing_line1"`
	BillingCity        string `gorm:"column:billing_city" json:"billing_city"`
	BillingState       string `gorm:"column:billing_state" json:"billing_state"`
	BillingPostalCode  string `gorm:"column:billing_postal_code" json:"billing_postal_code"`
	BillingCountry     string `gorm:"column:billing_country" json:"billing_country"`

	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);default:0" json:"discount_amount"`
	ShippingCost   decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2);default:0" json:"shipping_cost"`
	TaxAmount      decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);default:0" json:"tax_amount"`
	Total          decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	CurrencyCode   string          `gorm:"column:currency_code;size:3;default:INR" json:"currency_code"`
	Notes          string          `gorm:"column:notes;type:text" json:"notes,omitempty"`

	Items      []OrderItem      `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	StatusLogs []OrderStatusLog `gorm:"foreignKey:OrderID" json:"status_logs,omitempty"`
	Shipment   *Shipment        `gorm:"foreignKey:OrderID" json:"shipment,omitempty"`
	User       *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

func (o Order) CanBeCancelled() bool {
	return o.Status.CanBeCancelled()
}

func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"column:order_id;index;not null" json:"order_id"`
	ProductID   uint            `gorm:"column:product_id;index;not null" json:"product_id"`
	ProductName string          `gorm:"column:product_name;not null" json:"product_name"`
	SKU         string          `gorm:"column:sku" json:"sku"`
	SizeName    string          `gorm:"column:size_name" json:"size_name,omitempty"`
	ColorName   string          `gorm:"column:color_name" json:"color_name,omitempty"`
	FabricName  string          `gorm:"column:fabric_name" json:"fabric_name,omitempty"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"column:quantity;not null" json:"quantity"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

type OrderStatusLog struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	OrderID    uint        `gorm:"column:order_id;index;not null" json:"order_id"`
	FromStatus OrderStatus `gorm:"column:from_status" json:"from_status"`
	ToStatus   OrderStatus `gorm:"column:to_status;not null" json:"to_status"`
	Note       string      `gorm:"column:note;type:text" json:"note,omitempty"`
	CreatedBy  *uint       `gorm:"column:created_by" json:"created_by,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (OrderStatusLog) TableName() string {
	return "order_status_logs"
}

type Shipment struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	OrderID           uint               `gorm:"column:order_id;uniqueIndex;not null" json:"order_id"`
	Carrier           string             `gorm:"column:carrier" json:"carrier,omitempty"`
	TrackingNumber    string             `gorm:"column:tracking_number" json:"tracking_number,omitempty"`
	Status            ShipmentStatus     `gorm:"column:status;not null" json:"status"`
	EstimatedDelivery *time.Time         `gorm:"column:estimated_delivery" json:"estimated_delivery,omitempty"`
	ShippedAt         *time.Time         `gorm:"column:shipped_at" json:"shipped_at,omitempty"`
	DeliveredAt       *time.Time         `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	Tracking          []ShipmentTracking `gorm:"foreignKey:ShipmentID" json:"tracking,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

func (Shipment) TableName() string {
	return "shipments"
}

type ShipmentTracking struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ShipmentID  uint           `gorm:"column:shipment_id;index;not null" json:"shipment_id"`
	Status      ShipmentStatus `gorm:"column:status;not null" json:"status"`
	Location    string         `gorm:"column:location" json:"location,omitempty"`
	Description string         `gorm:"column:description" json:"description,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (ShipmentTracking) TableName() string {
	return "shipment_tracking"
}

type OrderFilter struct {
	UserID uint
	Status OrderStatus
	Search string
	Range  DateRange
	Page   Page
}
