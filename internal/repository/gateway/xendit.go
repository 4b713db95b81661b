package gateway

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"abayaStore/domain"

	"github.com/shopspring/decimal"
)

type XenditConfig struct {
	XenditApi          string
	XenditUrl          string
	SuccessRedirectUrl string
	FailureRedirectUrl string
	CallbackToken      string
	Currency           string
}

type Xendit struct {
	xenditConfig XenditConfig
	client       *client
}

func NewXendit(cfg XenditConfig, breaker BreakerConfig) *Xendit {
	return &Xendit{
		xenditConfig: cfg,
		client:       newClient(domain.GatewayXendit, breaker),
	}
}

func (r *Xendit) Name() string {
	return domain.GatewayXendit
}

type xenditInvoiceRequest struct {
	ExternalID         string          `json:"external_id"`
	Amount             float64         `json:"amount"`
	Description        string          `json:"description"`
	InvoiceDuration    int             `json:"invoice_duration"`
	Customer           *xenditCustomer `json:"customer,omitempty"`
	SuccessRedirectURL string          `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string          `json:"failure_redirect_url,omitempty"`
	Currency           string          `json:"currency"`
	Metadata           map[string]any  `json:"metadata,omitempty"`
}

type xenditCustomer struct {
	GivenNames string `json:"given_names,omitempty"`
	Email      string `json:"email"`
}

type xenditInvoice struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id"`
	Status     string    `json:"status"`
	InvoiceURL string    `json:"invoice_url"`
	ExpiryDate time.Time `json:"expiry_date"`
}

// ExternalID joins our payment id and order number the way invoices carry
// them back in callbacks.
func ExternalID(paymentID uint, orderNumber string) string {
	return fmt.Sprintf("%d|%s", paymentID, orderNumber)
}

// CreatePayment creates a hosted invoice and returns its URL.
func (r *Xendit) CreatePayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentIntent, error) {
	currency := req.Currency
	if r.xenditConfig.Currency != "" {
		currency = r.xenditConfig.Currency
	}

	payload := xenditInvoiceRequest{
		ExternalID:         ExternalID(req.PaymentID, req.OrderNumber),
		Amount:             domain.Round2(req.Amount).InexactFloat64(),
		Description:        fmt.Sprintf("payment order %s", req.OrderNumber),
		InvoiceDuration:    3600,
		SuccessRedirectURL: r.xenditConfig.SuccessRedirectUrl,
		FailureRedirectURL: r.xenditConfig.FailureRedirectUrl,
		Currency:           strings.ToUpper(currency),
		Metadata:           map[string]any{"order_id": req.OrderID},
	}
	if req.CustomerEmail != "" {
		payload.Customer = &xenditCustomer{GivenNames: req.CustomerName, Email: req.CustomerEmail}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return domain.PaymentIntent{}, err
	}
	httpReq, err := http.NewRequest(http.MethodPost, r.xenditConfig.XenditUrl, bytes.NewReader(data))
	if err != nil {
		return domain.PaymentIntent{}, err
	}
	httpReq.Header.Add("Content-Type", "application/json")
	httpReq.SetBasicAuth(r.xenditConfig.XenditApi, "")
	if req.IdempotencyKey != "" {
		httpReq.Header.Add("X-IDEMPOTENCY-KEY", req.IdempotencyKey)
	}

	body, err := r.client.do(ctx, httpReq)
	if err != nil {
		return domain.PaymentIntent{}, err
	}

	var invoice xenditInvoice
	if err := json.Unmarshal(body, &invoice); err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("xendit: decode invoice: %w", err)
	}
	if invoice.InvoiceURL == "" {
		return domain.PaymentIntent{}, fmt.Errorf("xendit: invoice %q has no url", invoice.ID)
	}

	return domain.PaymentIntent{
		GatewayOrderID: invoice.ID,
		RedirectURL:    invoice.InvoiceURL,
		Raw:            body,
	}, nil
}

func (r *Xendit) VerifyWebhook(headers http.Header, _ []byte) error {
	token := headers.Get("x-callback-token")
	expected := r.xenditConfig.CallbackToken
	if token == "" || expected == "" {
		return domain.ErrInvalidSignature
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
		return domain.ErrInvalidSignature
	}
	return nil
}

// xenditCallback is the invoice callback body.
type xenditCallback struct {
	ID             string          `json:"id"`
	ExternalID     string          `json:"external_id"`
	Status         string          `json:"status"`
	Amount         decimal.Decimal `json:"amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	PaymentMethod  string          `json:"payment_method"`
	PaymentChannel string          `json:"payment_channel"`
	Currency       string          `json:"currency"`
	PaidAt         *time.Time      `json:"paid_at"`
}

func (r *Xendit) ParseWebhook(body []byte) (domain.GatewayEvent, error) {
	var cb xenditCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return domain.GatewayEvent{}, fmt.Errorf("%w: xendit callback: %v", domain.ErrInvalidInput, err)
	}
	if cb.ID == "" {
		return domain.GatewayEvent{}, fmt.Errorf("%w: xendit callback without id", domain.ErrInvalidInput)
	}

	ev := domain.GatewayEvent{
		ID:        cb.ID + ":" + cb.Status,
		Type:      "invoice." + strings.ToLower(cb.Status),
		Kind:      domain.EventIgnored,
		Reference: cb.ID,
		PaymentID: cb.ID,
		Amount:    cb.PaidAmount,
		Currency:  cb.Currency,
	}

	// external_id is <payment id>|<order number>
	if parts := strings.SplitN(cb.ExternalID, "|", 2); len(parts) == 2 {
		if _, err := strconv.ParseUint(parts[0], 10, 64); err == nil {
			ev.OrderRef = parts[1]
		}
	}

	switch strings.ToUpper(cb.Status) {
	case "PAID", "SETTLED":
		ev.Kind = domain.EventPaymentSucceeded
		if ev.Amount.IsZero() {
			ev.Amount = cb.Amount
		}
	case "EXPIRED":
		ev.Kind = domain.EventPaymentFailed
		ev.Message = "invoice expired"
	}
	return ev, nil
}

func (r *Xendit) Refund(context.Context, domain.RefundRequest) (domain.RefundResult, error) {
	return domain.RefundResult{}, domain.ErrRefundNotSupported
}
