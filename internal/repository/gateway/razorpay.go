package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"abayaStore/domain"

	"github.com/pobyzaarif/goshortcute"
)

type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	BaseURL       string
	Currency      string
}

type Razorpay struct {
	cfg    RazorpayConfig
	client *client
}

func NewRazorpay(cfg RazorpayConfig, breaker BreakerConfig) *Razorpay {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.razorpay.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Razorpay{cfg: cfg, client: newClient(domain.GatewayRazorpay, breaker)}
}

func (r *Razorpay) Name() string {
	return domain.GatewayRazorpay
}

func (r *Razorpay) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, r.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	basicAuth := goshortcute.StringtoBase64Encode(r.cfg.KeyID + ":" + r.cfg.KeySecret)
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", "Basic "+basicAuth)
	return r.client.do(ctx, req)
}

type razorpayOrder struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreatePayment creates a Razorpay order. Checkout on the client needs the
// order id and the public key id.
func (r *Razorpay) CreatePayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentIntent, error) {
	currency := req.Currency
	if currency == "" {
		currency = r.cfg.Currency
	}

	body, err := r.post(ctx, "/v1/orders", map[string]any{
		"amount":   domain.MinorUnits(req.Amount),
		"currency": strings.ToUpper(currency),
		"receipt":  req.OrderNumber,
		"notes": map[string]string{
			"order_id":   strconv.FormatUint(uint64(req.OrderID), 10),
			"payment_id": strconv.FormatUint(uint64(req.PaymentID), 10),
		},
	})
	if err != nil {
		return domain.PaymentIntent{}, err
	}

	var order razorpayOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("razorpay: decode order: %w", err)
	}
	return domain.PaymentIntent{
		GatewayOrderID: order.ID,
		PublicKey:      r.cfg.KeyID,
		Raw:            body,
	}, nil
}

// RazorpaySignature is hex HMAC-SHA256 of message under secret.
func RazorpaySignature(secret string, message []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

func (r *Razorpay) VerifyWebhook(headers http.Header, body []byte) error {
	sig := headers.Get("X-Razorpay-Signature")
	if sig == "" || r.cfg.WebhookSecret == "" {
		return domain.ErrInvalidSignature
	}
	if !hmac.Equal([]byte(sig), []byte(RazorpaySignature(r.cfg.WebhookSecret, body))) {
		return domain.ErrInvalidSignature
	}
	return nil
}

// VerifyPaymentSignature checks the signature handed to the browser after a
// successful checkout.
func (r *Razorpay) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	expected := RazorpaySignature(r.cfg.KeySecret, []byte(orderID+"|"+paymentID))
	return hmac.Equal([]byte(signature), []byte(expected))
}

type razorpayEvent struct {
	Event     string `json:"event"`
	CreatedAt int64  `json:"created_at"`
	Payload   struct {
		Payment struct {
			Entity struct {
				ID               string            `json:"id"`
				OrderID          string            `json:"order_id"`
				Amount           int64             `json:"amount"`
				Currency         string            `json:"currency"`
				ErrorDescription string            `json:"error_description"`
				Notes            map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
		Refund struct {
			Entity struct {
				ID        string            `json:"id"`
				PaymentID string            `json:"payment_id"`
				Amount    int64             `json:"amount"`
				Currency  string            `json:"currency"`
				Notes     map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"refund"`
	} `json:"payload"`
}

// ParseWebhook normalises a Razorpay event. Razorpay does not put an event id
// in the body, so the entity id and event name identify the delivery.
func (r *Razorpay) ParseWebhook(body []byte) (domain.GatewayEvent, error) {
	var raw razorpayEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.GatewayEvent{}, fmt.Errorf("%w: razorpay event: %v", domain.ErrInvalidInput, err)
	}
	if raw.Event == "" {
		return domain.GatewayEvent{}, fmt.Errorf("%w: razorpay event without name", domain.ErrInvalidInput)
	}

	payment := raw.Payload.Payment.Entity
	refund := raw.Payload.Refund.Entity

	ev := domain.GatewayEvent{
		Type:      raw.Event,
		Kind:      domain.EventIgnored,
		Reference: payment.OrderID,
		PaymentID: payment.ID,
		OrderRef:  payment.Notes["order_id"],
		Currency:  payment.Currency,
		Amount:    domain.FromMinorUnits(payment.Amount),
	}

	switch raw.Event {
	case "payment.captured":
		ev.Kind = domain.EventPaymentSucceeded
	case "payment.failed":
		ev.Kind = domain.EventPaymentFailed
		ev.Message = payment.ErrorDescription
	case "refund.processed":
		ev.Kind = domain.EventRefunded
		ev.Reference = refund.PaymentID
		ev.PaymentID = refund.PaymentID
		ev.RefundID = refund.ID
		ev.Amount = domain.FromMinorUnits(refund.Amount)
		ev.Currency = refund.Currency
		if ref := refund.Notes["order_id"]; ref != "" {
			ev.OrderRef = ref
		}
	}

	entity := payment.ID
	if refund.ID != "" {
		entity = refund.ID
	}
	if entity == "" {
		entity = strconv.FormatInt(raw.CreatedAt, 10)
	}
	ev.ID = entity + ":" + raw.Event
	return ev, nil
}

type razorpayRefund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (r *Razorpay) Refund(ctx context.Context, req domain.RefundRequest) (domain.RefundResult, error) {
	if req.GatewayTransactionID == "" {
		return domain.RefundResult{}, fmt.Errorf("%w: razorpay refund needs a captured payment id", domain.ErrInvalidState)
	}

	body, err := r.post(ctx, "/v1/payments/"+req.GatewayTransactionID+"/refund", map[string]any{
		"amount":  domain.MinorUnits(req.Amount),
		"notes":   map[string]string{"reason": req.Reason},
		"receipt": req.IdempotencyKey,
	})
	if err != nil {
		return domain.RefundResult{}, err
	}

	var refund razorpayRefund
	if err := json.Unmarshal(body, &refund); err != nil {
		return domain.RefundResult{}, fmt.Errorf("razorpay: decode refund: %w", err)
	}

	status := domain.RefundCompleted
	switch refund.Status {
	case "pending":
		status = domain.RefundProcessing
	case "failed":
		status = domain.RefundFailed
	}
	return domain.RefundResult{GatewayRefundID: refund.ID, Status: status, Raw: body}, nil
}
