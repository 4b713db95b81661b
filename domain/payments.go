package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	GatewayStripe   = "stripe"
	GatewayRazorpay = "razorpay"
	GatewayXendit   = "xendit"
)

type Payment struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	OrderID          uint              `gorm:"column:order_id;index;not null" json:"order_id"`
	UserID           uint              `gorm:"column:user_id;index;not null" json:"user_id"`
	Gateway          string            `gorm:"column:gateway;not null" json:"gateway"`
	Method           PaymentMethodType `gorm:"column:method" json:"method"`
	Amount           decimal.Decimal   `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Currency         string            `gorm:"column:currency;size:3" json:"currency"`
	Status           PaymentStatus     `gorm:"column:status;not null;default:PENDING" json:"status"`
	GatewayPaymentID string            `gorm:"column:gateway_payment_id;index" json:"gateway_payment_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

type Transaction struct {
	ID                   uint              `gorm:"primaryKey" json:"id"`
	PaymentID            uint              `gorm:"column:payment_id;index;not null" json:"payment_id"`
	OrderID              uint              `gorm:"column:order_id;index;not null" json:"order_id"`
	ParentID             *uint             `gorm:"column:parent_id" json:"parent_id,omitempty"`
	Gateway              string            `gorm:"column:gateway;not null" json:"gateway"`
	Type                 TransactionType   `gorm:"column:type;not null;default:PAYMENT" json:"type"`
	GatewayTransactionID string            `gorm:"column:gateway_transaction_id;index" json:"gateway_transaction_id,omitempty"`
	GatewayOrderID       string            `gorm:"column:gateway_order_id;index" json:"gateway_order_id,omitempty"`
	Amount               decimal.Decimal   `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	RefundedAmount       decimal.Decimal   `gorm:"column:refunded_amount;type:numeric(12,2);default:0" json:"refunded_amount"`
	Currency             string            `gorm:"column:currency;size:3" json:"currency"`
	Status               TransactionStatus `gorm:"column:status;not null;default:INITIATED" json:"status"`
	ErrorMessage         string            `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	GatewayResponse      datatypes.JSON    `gorm:"column:gateway_response" json:"gateway_response,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// Refundable is what is left to refund on a completed payment.
func (t Transaction) Refundable() decimal.Decimal {
	return t.Amount.Sub(t.RefundedAmount)
}

type Refund struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	TransactionID   uint            `gorm:"column:transaction_id;index;not null" json:"transaction_id"`
	OrderID         uint            `gorm:"column:order_id;index;not null" json:"order_id"`
	Amount          decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Reason          string          `gorm:"column:reason" json:"reason,omitempty"`
	Status          RefundStatus    `gorm:"column:status;not null" json:"status"`
	GatewayRefundID string          `gorm:"column:gateway_refund_id" json:"gateway_refund_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (Refund) TableName() string {
	return "refunds"
}

type WebhookEvent struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Gateway      string         `gorm:"column:gateway;uniqueIndex:idx_webhook_gateway_event;not null" json:"gateway"`
	EventID      string         `gorm:"column:event_id;uniqueIndex:idx_webhook_gateway_event;not null" json:"event_id"`
	EventType    string         `gorm:"column:event_type;not null" json:"event_type"`
	Payload      datatypes.JSON `gorm:"column:payload" json:"payload"`
	Processed    bool           `gorm:"column:processed;default:false" json:"processed"`
	ErrorMessage string         `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	ProcessedAt  *time.Time     `gorm:"column:processed_at" json:"processed_at,omitempty"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}

type TransactionFilter struct {
	Gateway string
	Status  TransactionStatus
	OrderID uint
	Range   DateRange
	Page    Page
}

var (
	ErrInvalidSignature   = fmt.Errorf("%w: invalid webhook signature", ErrInvalidInput)
	ErrRefundNotSupported = errors.New("gateway does not support refunds")
)

// PaymentRequest is what a gateway needs to start collecting money for an
// order.
type PaymentRequest struct {
	PaymentID      uint
	OrderID        uint
	OrderNumber    string
	Amount         decimal.Decimal
	Currency       string
	CustomerName   string
	CustomerEmail  string
	Description    string
	IdempotencyKey string
}

// PaymentIntent is the gateway side of a started payment. Clients finish it
// with the client secret (Stripe), the gateway order id (Razorpay) or the
// redirect URL (Xendit).
type PaymentIntent struct {
	GatewayOrderID string `json:"gateway_order_id"`
	ClientSecret   string `json:"client_secret,omitempty"`
	RedirectURL    string `json:"redirect_url,omitempty"`
	PublicKey      string `json:"public_key,omitempty"`
	Raw            []byte `json:"-"`
}

type GatewayEventKind string

const (
	EventPaymentSucceeded GatewayEventKind = "payment_succeeded"
	EventPaymentFailed    GatewayEventKind = "payment_failed"
	EventRefunded         GatewayEventKind = "refunded"
	EventIgnored          GatewayEventKind = "ignored"
)

// GatewayEvent is a webhook normalised across gateways.
type GatewayEvent struct {
	ID   string
	Type string
	Kind GatewayEventKind
	// Reference is matched against a transaction's gateway order or
	// transaction id.
	Reference string
	// PaymentID is the gateway's id for the captured payment.
	PaymentID string
	// OrderRef is our order id or number, taken from the event metadata.
	OrderRef string
	Amount   decimal.Decimal
	// Cumulative marks refund amounts that report the total refunded so far.
	Cumulative bool
	Currency   string
	RefundID   string
	Message    string
}

type RefundRequest struct {
	GatewayTransactionID string
	GatewayOrderID       string
	Amount               decimal.Decimal
	Currency             string
	Reason               string
	IdempotencyKey       string
}

type RefundResult struct {
	GatewayRefundID string
	Status          RefundStatus
	Raw             []byte
}

// MinorUnits converts an amount to the smallest currency unit (cents, paise).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinorUnits is the inverse of MinorUnits.
func FromMinorUnits(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}
