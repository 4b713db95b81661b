package rest

import (
	"context"
	"net/http"

	"abayaStore/business/currency"
	"abayaStore/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type CurrencyService interface {
	GetDefault(ctx context.Context) (domain.Currency, error)
	ListActive(ctx context.Context) ([]domain.Currency, error)
	ListAll(ctx context.Context) ([]domain.Currency, error)
	ConvertBetween(ctx context.Context, amount decimal.Decimal, fromCode, toCode string) (currency.Conversion, error)
	CreateCurrency(ctx context.Context, c *domain.Currency) (*domain.Currency, error)
	UpdateCurrency(ctx context.Context, code string, data *domain.Currency) (*domain.Currency, error)
	SetDefault(ctx context.Context, code string) (*domain.Currency, error)
}

type CurrencyHandler struct {
	service   CurrencyService
	validator *validator.Validate
}

func NewCurrencyHandler(service CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{service: service, validator: validator.New()}
}

type CurrencyRequest struct {
	Code         string          `json:"code" validate:"omitempty,len=3,alpha"`
	Name         string          `json:"name" validate:"required,max=50"`
	Symbol       string          `json:"symbol" validate:"required,max=5"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	IsDefault    bool            `json:"is_default"`
	IsActive     *bool           `json:"is_active"`
}

func (r CurrencyRequest) toDomain() *domain.Currency {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &domain.Currency{
		Code:         r.Code,
		Name:         r.Name,
		Symbol:       r.Symbol,
		ExchangeRate: r.ExchangeRate,
		IsDefault:    r.IsDefault,
		IsActive:     active,
	}
}

// ListCurrencies returns active currencies, or all of them for staff
// passing all=true.
func (h *CurrencyHandler) ListCurrencies(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	var (
		list []domain.Currency
		err  error
	)
	if c.QueryParam("all") == "true" && isStaff(c) {
		list, err = h.service.ListAll(ctx)
	} else {
		list, err = h.service.ListActive(ctx)
	}
	if err != nil {
		return fail(c, "Failed to list currencies", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(list))
}

func (h *CurrencyHandler) GetDefault(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	def, err := h.service.GetDefault(ctx)
	if err != nil {
		return fail(c, "Failed to get default currency", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(def))
}

// Convert handles ?amount=&from=&to=. Missing codes mean the default
// currency.
func (h *CurrencyHandler) Convert(c echo.Context) error {
	amount, err := decimal.NewFromString(c.QueryParam("amount"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, fres.Response.StatusBadRequest("amount must be a number"))
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	conv, err := h.service.ConvertBetween(ctx, amount, c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return fail(c, "Failed to convert amount", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(conv))
}

func (h *CurrencyHandler) CreateCurrency(c echo.Context) error {
	var req CurrencyRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}
	if req.Code == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "code is required"})
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	created, err := h.service.CreateCurrency(ctx, req.toDomain())
	if err != nil {
		return fail(c, "Failed to create currency", err)
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(created))
}

func (h *CurrencyHandler) UpdateCurrency(c echo.Context) error {
	var req CurrencyRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	updated, err := h.service.UpdateCurrency(ctx, c.Param("code"), req.toDomain())
	if err != nil {
		return fail(c, "Failed to update currency", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(updated))
}

func (h *CurrencyHandler) SetDefault(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	updated, err := h.service.SetDefault(ctx, c.Param("code"))
	if err != nil {
		return fail(c, "Failed to set default currency", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(updated))
}
