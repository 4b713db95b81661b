package rest

import (
	"context"
	"errors"
	"io"
	"net/http"

	"abayaStore/business/payments"
	"abayaStore/domain"
	"abayaStore/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// maxWebhookBody caps what a gateway may post to us.
const maxWebhookBody = 1 << 20

type (
	PaymentsHandler struct {
		validate        *validator.Validate
		paymentsService PaymentsService
	}

	PaymentsService interface {
		InitiatePayment(ctx context.Context, userID uint, in payments.InitiateInput) (payments.InitiateResult, error)
		VerifyRazorpayPayment(ctx context.Context, userID uint, in payments.RazorpayVerifyInput) (domain.Transaction, error)
		ListPayments(ctx context.Context, userID uint, page domain.Page) (domain.PageResult[domain.Payment], error)
		GetTransaction(ctx context.Context, userID, id uint) (domain.Transaction, error)
	}

	WebhookProcessor interface {
		HandleWebhook(ctx context.Context, gateway string, headers http.Header, body []byte) error
	}

	WebhookController struct {
		processor WebhookProcessor
	}
)

func NewPaymentsHandler(paymentsService PaymentsService) *PaymentsHandler {
	return &PaymentsHandler{
		validate:        validator.New(),
		paymentsService: paymentsService,
	}
}

func (h *PaymentsHandler) InitiatePayment(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}

	var request payments.InitiateInput
	if err := bindAndValidate(c, h.validate, &request); err != nil {
		return err
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.paymentsService.InitiatePayment(ctx, userID, request)
	if err != nil {
		return fail(c, "Failed to initiate payment", err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(res))
}

// VerifyRazorpay confirms a Razorpay checkout from the client callback.
func (h *PaymentsHandler) VerifyRazorpay(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}

	var request payments.RazorpayVerifyInput
	if err := bindAndValidate(c, h.validate, &request); err != nil {
		return err
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	txn, err := h.paymentsService.VerifyRazorpayPayment(ctx, userID, request)
	if err != nil {
		return fail(c, "Failed to verify razorpay payment", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(txn))
}

func (h *PaymentsHandler) GetAllPayments(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.paymentsService.ListPayments(ctx, userID, pageFrom(c))
	if err != nil {
		return fail(c, "Failed to get all payments", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(list))
}

func (h *PaymentsHandler) GetTransaction(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	txn, err := h.paymentsService.GetTransaction(ctx, userID, id)
	if err != nil {
		return fail(c, "Failed to get transaction", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(txn))
}

// PaidResponse is the landing page gateways redirect to after checkout.
func (h *PaymentsHandler) PaidResponse(c echo.Context) error {
	return c.JSON(http.StatusOK, fres.Response.StatusOK("Your payment was received and is being confirmed."))
}

func NewWebhookController(processor WebhookProcessor) *WebhookController {
	return &WebhookController{processor: processor}
}

// HandleWebhook passes the raw body to the gateway named by :gateway.
// Bad signatures and payloads get 400; anything else gets 500 so the
// gateway retries.
func (ctrl *WebhookController) HandleWebhook(c echo.Context) error {
	gateway := c.Param("gateway")

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		logger.Warn("Failed to read webhook body", "gateway", gateway, "error", err.Error())
		return c.JSON(http.StatusBadRequest, fres.Response.StatusBadRequest("Invalid request"))
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := ctrl.processor.HandleWebhook(ctx, gateway, c.Request().Header, body); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			logger.Warn("Rejected webhook", "gateway", gateway, "error", err.Error())
			return c.JSON(http.StatusBadRequest, fres.Response.StatusBadRequest(err.Error()))
		}
		logger.Error("Failed to process webhook", err, "gateway", gateway)
		return c.JSON(http.StatusInternalServerError, fres.Response.StatusInternalServerError(http.StatusInternalServerError))
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(http.StatusOK))
}
