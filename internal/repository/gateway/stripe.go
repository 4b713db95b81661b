package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"abayaStore/domain"
)

const stripeSignatureTolerance = 300 * time.Second

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	Currency      string
}

type Stripe struct {
	cfg    StripeConfig
	client *client
	now    func() time.Time
}

func NewStripe(cfg StripeConfig, breaker BreakerConfig) *Stripe {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.stripe.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Stripe{cfg: cfg, client: newClient(domain.GatewayStripe, breaker), now: time.Now}
}

func (s *Stripe) Name() string {
	return domain.GatewayStripe
}

func (s *Stripe) post(ctx context.Context, path string, form url.Values, idempotencyKey string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodPost, s.cfg.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	return s.client.do(ctx, req)
}

func (s *Stripe) currency(c string) string {
	if c == "" {
		c = s.cfg.Currency
	}
	return strings.ToLower(c)
}

type stripeIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// CreatePayment creates a PaymentIntent; the client confirms it with the
// returned client secret.
func (s *Stripe) CreatePayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(domain.MinorUnits(req.Amount), 10))
	form.Set("currency", s.currency(req.Currency))
	form.Set("description", req.Description)
	form.Set("metadata[order_id]", strconv.FormatUint(uint64(req.OrderID), 10))
	form.Set("metadata[order_number]", req.OrderNumber)
	form.Set("metadata[payment_id]", strconv.FormatUint(uint64(req.PaymentID), 10))
	if req.CustomerEmail != "" {
		form.Set("receipt_email", req.CustomerEmail)
	}

	body, err := s.post(ctx, "/v1/payment_intents", form, req.IdempotencyKey)
	if err != nil {
		return domain.PaymentIntent{}, err
	}

	var intent stripeIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("stripe: decode payment intent: %w", err)
	}
	return domain.PaymentIntent{
		GatewayOrderID: intent.ID,
		ClientSecret:   intent.ClientSecret,
		Raw:            body,
	}, nil
}

// VerifyWebhook checks the Stripe-Signature header, t=<unix>,v1=<hex>[,v1=...].
func (s *Stripe) VerifyWebhook(headers http.Header, body []byte) error {
	header := headers.Get("Stripe-Signature")
	if header == "" || s.cfg.WebhookSecret == "" {
		return domain.ErrInvalidSignature
	}

	var (
		timestamp  string
		signatures []string
	)
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			signatures = append(signatures, v)
		}
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil || len(signatures) == 0 {
		return domain.ErrInvalidSignature
	}
	if age := s.now().Sub(time.Unix(ts, 0)); age > stripeSignatureTolerance || age < -stripeSignatureTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", domain.ErrInvalidSignature)
	}

	expected := StripeSignature(s.cfg.WebhookSecret, timestamp, body)
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return domain.ErrInvalidSignature
}

// StripeSignature is the v1 signature of body sent at timestamp.
func StripeSignature(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID               string            `json:"id"`
			Amount           int64             `json:"amount"`
			AmountRefunded   int64             `json:"amount_refunded"`
			Currency         string            `json:"currency"`
			PaymentIntent    string            `json:"payment_intent"`
			Metadata         map[string]string `json:"metadata"`
			LastPaymentError *struct {
				Message string `json:"message"`
			} `json:"last_payment_error"`
			Refunds struct {
				Data []struct {
					ID string `json:"id"`
				} `json:"data"`
			} `json:"refunds"`
		} `json:"object"`
	} `json:"data"`
}

func (s *Stripe) ParseWebhook(body []byte) (domain.GatewayEvent, error) {
	var raw stripeEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.GatewayEvent{}, fmt.Errorf("%w: stripe event: %v", domain.ErrInvalidInput, err)
	}
	if raw.ID == "" {
		return domain.GatewayEvent{}, fmt.Errorf("%w: stripe event without id", domain.ErrInvalidInput)
	}

	obj := raw.Data.Object
	ev := domain.GatewayEvent{
		ID:       raw.ID,
		Type:     raw.Type,
		Kind:     domain.EventIgnored,
		OrderRef: obj.Metadata["order_id"],
		Currency: strings.ToUpper(obj.Currency),
	}

	switch raw.Type {
	case "payment_intent.succeeded":
		ev.Kind = domain.EventPaymentSucceeded
		ev.Reference = obj.ID
		ev.PaymentID = obj.ID
		ev.Amount = domain.FromMinorUnits(obj.Amount)
	case "payment_intent.payment_failed":
		ev.Kind = domain.EventPaymentFailed
		ev.Reference = obj.ID
		if obj.LastPaymentError != nil {
			ev.Message = obj.LastPaymentError.Message
		}
	case "charge.refunded":
		ev.Kind = domain.EventRefunded
		ev.Reference = obj.PaymentIntent
		ev.Amount = domain.FromMinorUnits(obj.AmountRefunded)
		ev.Cumulative = true
		if len(obj.Refunds.Data) > 0 {
			ev.RefundID = obj.Refunds.Data[0].ID
		}
	}
	return ev, nil
}

type stripeRefund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (s *Stripe) Refund(ctx context.Context, req domain.RefundRequest) (domain.RefundResult, error) {
	intent := req.GatewayTransactionID
	if intent == "" {
		intent = req.GatewayOrderID
	}

	form := url.Values{}
	form.Set("payment_intent", intent)
	form.Set("amount", strconv.FormatInt(domain.MinorUnits(req.Amount), 10))
	if req.Reason != "" {
		form.Set("metadata[reason]", req.Reason)
	}

	body, err := s.post(ctx, "/v1/refunds", form, req.IdempotencyKey)
	if err != nil {
		return domain.RefundResult{}, err
	}

	var refund stripeRefund
	if err := json.Unmarshal(body, &refund); err != nil {
		return domain.RefundResult{}, fmt.Errorf("stripe: decode refund: %w", err)
	}

	status := domain.RefundCompleted
	switch refund.Status {
	case "pending", "requires_action":
		status = domain.RefundProcessing
	case "failed", "canceled":
		status = domain.RefundFailed
	}
	return domain.RefundResult{GatewayRefundID: refund.ID, Status: status, Raw: body}, nil
}
