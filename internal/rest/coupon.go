package rest

import (
	"context"
	"net/http"
	"time"

	"abayaStore/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type CouponService interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (domain.Coupon, decimal.Decimal, error)
	CreateCoupon(ctx context.Context, c *domain.Coupon) (*domain.Coupon, error)
	UpdateCoupon(ctx context.Context, id uint, c *domain.Coupon) (*domain.Coupon, error)
	GetCoupon(ctx context.Context, id uint) (domain.Coupon, error)
	ListCoupons(ctx context.Context, page domain.Page) (domain.PageResult[domain.Coupon], error)
	DeleteCoupon(ctx context.Context, id uint) error
}

type CouponHandler struct {
	service   CouponService
	validator *validator.Validate
}

func NewCouponHandler(service CouponService) *CouponHandler {
	return &CouponHandler{service: service, validator: validator.New()}
}

type ValidateCouponRequest struct {
	Code     string          `json:"code" validate:"required,max=50"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type ValidateCouponResponse struct {
	Code         string          `json:"code"`
	Description  string          `json:"description,omitempty"`
	DiscountType string          `json:"discount_type"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
}

type CouponRequest struct {
	Code              string           `json:"code" validate:"required,max=50"`
	Description       string           `json:"description"`
	DiscountType      string           `json:"discount_type" validate:"required,oneof=PERCENTAGE FIXED"`
	Value             decimal.Decimal  `json:"value"`
	MinOrderAmount    decimal.Decimal  `json:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	StartDate         time.Time        `json:"start_date" validate:"required"`
	EndDate           time.Time        `json:"end_date" validate:"required"`
	UsageLimit        *int             `json:"usage_limit"`
	IsActive          *bool            `json:"is_active"`
}

func (r CouponRequest) toDomain() *domain.Coupon {
	c := &domain.Coupon{
		Code:           r.Code,
		Description:    r.Description,
		DiscountType:   r.DiscountType,
		Value:          r.Value,
		MinOrderAmount: r.MinOrderAmount,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		UsageLimit:     r.UsageLimit,
		IsActive:       true,
	}
	if r.MaxDiscountAmount != nil {
		c.MaxDiscountAmount = decimal.NewNullDecimal(*r.MaxDiscountAmount)
	}
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
	return c
}

func (h *CouponHandler) ValidateCoupon(c echo.Context) error {
	var req ValidateCouponRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}
	if req.Subtotal.IsNegative() {
		return c.JSON(http.StatusBadRequest, fres.Response.StatusBadRequest("subtotal cannot be negative"))
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	coupon, discount, err := h.service.Validate(ctx, req.Code, req.Subtotal)
	if err != nil {
		return fail(c, "Coupon rejected", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(ValidateCouponResponse{
		Code:         coupon.Code,
		Description:  coupon.Description,
		DiscountType: coupon.DiscountType,
		Discount:     discount,
		Total:        domain.Round2(req.Subtotal.Sub(discount)),
	}))
}

func (h *CouponHandler) ListCoupons(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	coupons, err := h.service.ListCoupons(ctx, pageFrom(c))
	if err != nil {
		return fail(c, "Failed to list coupons", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(coupons))
}

func (h *CouponHandler) GetCoupon(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	coupon, err := h.service.GetCoupon(ctx, id)
	if err != nil {
		return fail(c, "Failed to get coupon", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(coupon))
}

func (h *CouponHandler) CreateCoupon(c echo.Context) error {
	var req CouponRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	coupon, err := h.service.CreateCoupon(ctx, req.toDomain())
	if err != nil {
		return fail(c, "Failed to create coupon", err)
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(coupon))
}

func (h *CouponHandler) UpdateCoupon(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var req CouponRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	coupon, err := h.service.UpdateCoupon(ctx, id, req.toDomain())
	if err != nil {
		return fail(c, "Failed to update coupon", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(coupon))
}

func (h *CouponHandler) DeleteCoupon(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.service.DeleteCoupon(ctx, id); err != nil {
		return fail(c, "Failed to delete coupon", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK("Coupon deleted successfully"))
}
