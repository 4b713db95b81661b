package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"abayaStore/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripeCreatePayment(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "idem-1", r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		_, _ = io.WriteString(w, `{"id":"pi_123","client_secret":"pi_123_secret","status":"requires_payment_method"}`)
	}))
	defer srv.Close()

	s := NewStripe(StripeConfig{SecretKey: "sk_test", BaseURL: srv.URL, Currency: "inr"}, BreakerConfig{})
	intent, err := s.CreatePayment(context.Background(), domain.PaymentRequest{
		PaymentID:      3,
		OrderID:        9,
		OrderNumber:    "202503-000009",
		Amount:         decimal.RequireFromString("1802.50"),
		IdempotencyKey: "idem-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "pi_123", intent.GatewayOrderID)
	assert.Equal(t, "pi_123_secret", intent.ClientSecret)
	assert.Equal(t, "180250", form.Get("amount"))
	assert.Equal(t, "inr", form.Get("currency"))
	assert.Equal(t, "9", form.Get("metadata[order_id]"))
}

func TestStripeVerifyWebhook(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s := NewStripe(StripeConfig{WebhookSecret: "whsec"}, BreakerConfig{})
	s.now = func() time.Time { return now }

	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	ts := strconv.FormatInt(now.Unix(), 10)
	good := StripeSignature("whsec", ts, body)

	tests := []struct {
		name   string
		header string
		ok     bool
	}{
		{"valid", fmt.Sprintf("t=%s,v1=%s", ts, good), true},
		{"valid among several", fmt.Sprintf("t=%s,v1=deadbeef,v1=%s", ts, good), true},
		{"wrong secret", fmt.Sprintf("t=%s,v1=%s", ts, StripeSignature("other", ts, body)), false},
		{"stale", fmt.Sprintf("t=%d,v1=%s", now.Add(-10*time.Minute).Unix(), StripeSignature("whsec", strconv.FormatInt(now.Add(-10*time.Minute).Unix(), 10), body)), false},
		{"missing", "", false},
		{"garbage", "nonsense", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := http.Header{}
			if tc.header != "" {
				h.Set("Stripe-Signature", tc.header)
			}
			err := s.VerifyWebhook(h, body)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidSignature)
			}
		})
	}
}

func TestStripeParseWebhook(t *testing.T) {
	s := NewStripe(StripeConfig{}, BreakerConfig{})

	ev, err := s.ParseWebhook([]byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":150000,"currency":"inr","metadata":{"order_id":"9"}}}}`))
	require.NoError(t, err)
	assert.Equal(t, domain.EventPaymentSucceeded, ev.Kind)
	assert.Equal(t, "pi_1", ev.Reference)
	assert.Equal(t, "9", ev.OrderRef)
	assert.True(t, ev.Amount.Equal(decimal.NewFromInt(1500)))

	ev, err = s.ParseWebhook([]byte(`{"id":"evt_2","type":"charge.refunded","data":{"object":{"id":"ch_1","payment_intent":"pi_1","amount_refunded":50000,"refunds":{"data":[{"id":"re_1"}]}}}}`))
	require.NoError(t, err)
	assert.Equal(t, domain.EventRefunded, ev.Kind)
	assert.Equal(t, "pi_1", ev.Reference)
	assert.Equal(t, "re_1", ev.RefundID)
	assert.True(t, ev.Cumulative)
	assert.True(t, ev.Amount.Equal(decimal.NewFromInt(500)))

	ev, err = s.ParseWebhook([]byte(`{"id":"evt_3","type":"customer.created","data":{"object":{}}}`))
	require.NoError(t, err)
	assert.Equal(t, domain.EventIgnored, ev.Kind)

	_, err = s.ParseWebhook([]byte(`{`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRazorpayCreatePaymentAndRefund(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_key", user)
		assert.Equal(t, "rzp_secret", pass)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch r.URL.Path {
		case "/v1/orders":
			assert.Equal(t, float64(99900), body["amount"])
			assert.Equal(t, "202503-000001", body["receipt"])
			_, _ = io.WriteString(w, `{"id":"order_abc","status":"created"}`)
		case "/v1/payments/pay_1/refund":
			assert.Equal(t, float64(10000), body["amount"])
			_, _ = io.WriteString(w, `{"id":"rfnd_1","status":"processed"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	r := NewRazorpay(RazorpayConfig{KeyID: "rzp_key", KeySecret: "rzp_secret", BaseURL: srv.URL, Currency: "INR"}, BreakerConfig{})

	intent, err := r.CreatePayment(context.Background(), domain.PaymentRequest{OrderNumber: "202503-000001", Amount: decimal.NewFromInt(999)})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", intent.GatewayOrderID)
	assert.Equal(t, "rzp_key", intent.PublicKey)

	res, err := r.Refund(context.Background(), domain.RefundRequest{GatewayTransactionID: "pay_1", Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	assert.Equal(t, "rfnd_1", res.GatewayRefundID)
	assert.Equal(t, domain.RefundCompleted, res.Status)

	_, err = r.Refund(context.Background(), domain.RefundRequest{Amount: decimal.NewFromInt(100)})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, []string{"/v1/orders", "/v1/payments/pay_1/refund"}, paths)
}

func TestRazorpaySignatures(t *testing.T) {
	r := NewRazorpay(RazorpayConfig{KeySecret: "key_secret", WebhookSecret: "hook_secret"}, BreakerConfig{})
	body := []byte(`{"event":"payment.captured"}`)

	h := http.Header{}
	h.Set("X-Razorpay-Signature", RazorpaySignature("hook_secret", body))
	assert.NoError(t, r.VerifyWebhook(h, body))

	h.Set("X-Razorpay-Signature", RazorpaySignature("hook_secret", []byte(`{"event":"tampered"}`)))
	assert.ErrorIs(t, r.VerifyWebhook(h, body), domain.ErrInvalidSignature)

	sig := RazorpaySignature("key_secret", []byte("order_abc|pay_1"))
	assert.True(t, r.VerifyPaymentSignature("order_abc", "pay_1", sig))
	assert.False(t, r.VerifyPaymentSignature("order_abc", "pay_2", sig))
}

func TestRazorpayParseWebhook(t *testing.T) {
	r := NewRazorpay(RazorpayConfig{}, BreakerConfig{})

	ev, err := r.ParseWebhook([]byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_abc","amount":99900,"currency":"INR","notes":{"order_id":"4"}}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "pay_1:payment.captured", ev.ID)
	assert.Equal(t, domain.EventPaymentSucceeded, ev.Kind)
	assert.Equal(t, "order_abc", ev.Reference)
	assert.Equal(t, "pay_1", ev.PaymentID)
	assert.Equal(t, "4", ev.OrderRef)

	ev, err = r.ParseWebhook([]byte(`{"event":"refund.processed","payload":{"refund":{"entity":{"id":"rfnd_1","payment_id":"pay_1","amount":10000}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "rfnd_1:refund.processed", ev.ID)
	assert.Equal(t, domain.EventRefunded, ev.Kind)
	assert.Equal(t, "pay_1", ev.Reference)
	assert.False(t, ev.Cumulative)
	assert.True(t, ev.Amount.Equal(decimal.NewFromInt(100)))
}

func TestXenditInvoiceAndCallback(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "xnd_secret", user)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_, _ = io.WriteString(w, `{"id":"inv_1","status":"PENDING","invoice_url":"https://checkout.xendit.co/inv_1"}`)
	}))
	defer srv.Close()

	x := NewXendit(XenditConfig{XenditApi: "xnd_secret", XenditUrl: srv.URL, CallbackToken: "cb-token"}, BreakerConfig{})

	intent, err := x.CreatePayment(context.Background(), domain.PaymentRequest{PaymentID: 12, OrderNumber: "202503-000002", Amount: decimal.NewFromInt(250000), Currency: "IDR"})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.xendit.co/inv_1", intent.RedirectURL)
	assert.Equal(t, "12|202503-000002", payload["external_id"])
	assert.Equal(t, float64(250000), payload["amount"])

	h := http.Header{}
	h.Set("x-callback-token", "cb-token")
	assert.NoError(t, x.VerifyWebhook(h, nil))
	h.Set("x-callback-token", "forged")
	assert.ErrorIs(t, x.VerifyWebhook(h, nil), domain.ErrInvalidSignature)

	ev, err := x.ParseWebhook([]byte(`{"id":"inv_1","external_id":"12|202503-000002","status":"PAID","paid_amount":250000}`))
	require.NoError(t, err)
	assert.Equal(t, domain.EventPaymentSucceeded, ev.Kind)
	assert.Equal(t, "202503-000002", ev.OrderRef)
	assert.Equal(t, "inv_1", ev.Reference)

	ev, err = x.ParseWebhook([]byte(`{"id":"inv_1","external_id":"12|202503-000002","status":"EXPIRED"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.EventPaymentFailed, ev.Kind)

	_, err = x.Refund(context.Background(), domain.RefundRequest{})
	assert.ErrorIs(t, err, domain.ErrRefundNotSupported)
}

func TestBreakerOpensAfterServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewStripe(StripeConfig{BaseURL: srv.URL}, BreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute})
	req := domain.PaymentRequest{Amount: decimal.NewFromInt(1)}

	for i := 0; i < 2; i++ {
		_, err := s.CreatePayment(context.Background(), req)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	}

	_, err := s.CreatePayment(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stripe unavailable")
	assert.Equal(t, 2, calls)
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad amount"}}`)
	}))
	defer srv.Close()

	s := NewStripe(StripeConfig{BaseURL: srv.URL}, BreakerConfig{MaxFailures: 1})
	for i := 0; i < 3; i++ {
		_, err := s.CreatePayment(context.Background(), domain.PaymentRequest{Amount: decimal.NewFromInt(1)})
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr), "attempt %d", i)
	}
}
