package rest

import (
	"context"
	"net/http"

	"abayaStore/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type AddressService interface {
	ListAddresses(ctx context.Context, userID uint) ([]domain.Address, error)
	GetAddress(ctx context.Context, userID, id uint) (domain.Address, error)
	CreateAddress(ctx context.Context, userID uint, addr *domain.Address) (*domain.Address, error)
	UpdateAddress(ctx context.Context, userID, id uint, data *domain.Address) (*domain.Address, error)
	DeleteAddress(ctx context.Context, userID, id uint) error
	SetDefaultAddress(ctx context.Context, userID, id uint) (*domain.Address, error)
	ListPaymentMethods(ctx context.Context, userID uint) ([]domain.PaymentMethod, error)
	AddPaymentMethod(ctx context.Context, userID uint, method *domain.PaymentMethod, gatewayToken string) (*domain.PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, userID, id uint) error
	SetDefaultPaymentMethod(ctx context.Context, userID, id uint) error
}

// AccountHandler serves the signed-in user's address book and saved
// payment methods.
type AccountHandler struct {
	service   AddressService
	validator *validator.Validate
}

func NewAccountHandler(service AddressService) *AccountHandler {
	return &AccountHandler{service: service, validator: validator.New()}
}

type AddressRequest struct {
	FullName   string `json:"full_name" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"required,max=20"`
	Line1      string `json:"line1" validate:"required,max=255"`
	Line2      string `json:"line2" validate:"max=255"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"max=100"`
	Type       string `json:"type" validate:"omitempty,oneof=SHIPPING BILLING"`
	IsDefault  bool   `json:"is_default"`
}

func (r AddressRequest) toDomain() *domain.Address {
	return &domain.Address{
		FullName:   r.FullName,
		Phone:      r.Phone,
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		Type:       r.Type,
		IsDefault:  r.IsDefault,
	}
}

type PaymentMethodRequest struct {
	Type         domain.PaymentMethodType `json:"type" validate:"required"`
	Provider     string                   `json:"provider" validate:"max=50"`
	Last4        string                   `json:"last4" validate:"omitempty,len=4,numeric"`
	ExpiryMonth  int                      `json:"expiry_month" validate:"omitempty,min=1,max=12"`
	ExpiryYear   int                      `json:"expiry_year" validate:"omitempty,min=2000"`
	GatewayToken string                   `json:"gateway_token"`
}

func (h *AccountHandler) ListAddresses(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	addresses, err := h.service.ListAddresses(ctx, userID)
	if err != nil {
		return fail(c, "Failed to list addresses", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(addresses))
}

func (h *AccountHandler) GetAddress(c echo.Context) error {
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

	addr, err := h.service.GetAddress(ctx, userID, id)
	if err != nil {
		return fail(c, "Failed to get address", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(addr))
}

func (h *AccountHandler) CreateAddress(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	var req AddressRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	addr, err := h.service.CreateAddress(ctx, userID, req.toDomain())
	if err != nil {
		return fail(c, "Failed to create address", err)
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(addr))
}

func (h *AccountHandler) UpdateAddress(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var req AddressRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	addr, err := h.service.UpdateAddress(ctx, userID, id, req.toDomain())
	if err != nil {
		return fail(c, "Failed to update address", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(addr))
}

func (h *AccountHandler) DeleteAddress(c echo.Context) error {
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

	if err := h.service.DeleteAddress(ctx, userID, id); err != nil {
		return fail(c, "Failed to delete address", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK("Address deleted successfully"))
}

func (h *AccountHandler) SetDefaultAddress(c echo.Context) error {
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

	addr, err := h.service.SetDefaultAddress(ctx, userID, id)
	if err != nil {
		return fail(c, "Failed to set default address", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(addr))
}

func (h *AccountHandler) ListPaymentMethods(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	methods, err := h.service.ListPaymentMethods(ctx, userID)
	if err != nil {
		return fail(c, "Failed to list payment methods", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(methods))
}

func (h *AccountHandler) AddPaymentMethod(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	var req PaymentMethodRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	method, err := h.service.AddPaymentMethod(ctx, userID, &domain.PaymentMethod{
		Type:        req.Type,
		Provider:    req.Provider,
		Last4:       req.Last4,
		ExpiryMonth: req.ExpiryMonth,
		ExpiryYear:  req.ExpiryYear,
	}, req.GatewayToken)
	if err != nil {
		return fail(c, "Failed to add payment method", err)
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(method))
}

func (h *AccountHandler) DeletePaymentMethod(c echo.Context) error {
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

	if err := h.service.DeletePaymentMethod(ctx, userID, id); err != nil {
		return fail(c, "Failed to delete payment method", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK("Payment method deleted successfully"))
}

func (h *AccountHandler) SetDefaultPaymentMethod(c echo.Context) error {
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

	if err := h.service.SetDefaultPaymentMethod(ctx, userID, id); err != nil {
		return fail(c, "Failed to set default payment method", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK("Default payment method updated"))
}
