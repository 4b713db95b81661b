package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"abayaStore/business/payments"
	"abayaStore/domain"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type fakeWebhooks struct {
	gateway string
	body    string
	sig     string
	err     error
}

func (f *fakeWebhooks) HandleWebhook(_ context.Context, gateway string, headers http.Header, body []byte) error {
	f.gateway = gateway
	f.body = string(body)
	f.sig = headers.Get("X-Razorpay-Signature")
	return f.err
}

func TestHandleWebhook(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"processed", nil, http.StatusOK},
		{"bad signature", domain.ErrInvalidSignature, http.StatusBadRequest},
		{"unknown gateway", fmt.Errorf("%w: paypal", payments.ErrUnsupportedGateway), http.StatusBadRequest},
		{"storage failure", errors.New("could not save webhook event"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &fakeWebhooks{err: tt.err}
			e := echo.New()
			e.POST("/webhooks/:gateway", NewWebhookController(processor).HandleWebhook)

			payload := `{"event":"payment.captured"}`
			rec := do(e, http.MethodPost, "/webhooks/razorpay", strings.NewReader(payload),
				http.Header{"X-Razorpay-Signature": {"abc123"}})

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "razorpay", processor.gateway)
			assert.Equal(t, payload, processor.body)
			assert.Equal(t, "abc123", processor.sig)
		})
	}
}

type fakePayments struct {
	PaymentsService
	in payments.InitiateInput
}

func (f *fakePayments) InitiatePayment(_ context.Context, _ uint, in payments.InitiateInput) (payments.InitiateResult, error) {
	f.in = in
	return payments.InitiateResult{}, nil
}

func TestInitiatePaymentRequiresUser(t *testing.T) {
	e := echo.New()
	e.POST("/payments/initiate", NewPaymentsHandler(&fakePayments{}).InitiatePayment)

	rec := do(e, http.MethodPost, "/payments/initiate", jsonBody(`{}`), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInitiatePayment(t *testing.T) {
	svc := &fakePayments{}
	e := echo.New()
	e.POST("/payments/initiate", NewPaymentsHandler(svc).InitiatePayment, as(4, domain.RoleCustomer))

	rec := do(e, http.MethodPost, "/payments/initiate", jsonBody(`{"order_id":12,"gateway":"stripe"}`), nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, payments.InitiateInput{OrderID: 12, Gateway: "stripe"}, svc.in)

	rec = do(e, http.MethodPost, "/payments/initiate", jsonBody(`{"order_id":12,"gateway":"paypal"}`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
