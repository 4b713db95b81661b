package rest

import (
	"context"
	"net/http"

	"abayaStore/business/returns"
	"abayaStore/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type ReturnsService interface {
	RequestReturn(ctx context.Context, userID uint, in returns.ReturnRequest) (domain.Return, error)
	ListReturns(ctx context.Context, userID uint, page domain.Page) (domain.PageResult[domain.Return], error)
	GetReturn(ctx context.Context, userID, id uint) (domain.Return, error)
	CancelReturn(ctx context.Context, userID, id uint) (domain.Return, error)
}

type ReturnsHandler struct {
	service   ReturnsService
	validator *validator.Validate
}

func NewReturnsHandler(service ReturnsService) *ReturnsHandler {
	return &ReturnsHandler{service: service, validator: validator.New()}
}

func (h *ReturnsHandler) RequestReturn(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	var req returns.ReturnRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	ret, err := h.service.RequestReturn(ctx, userID, req)
	if err != nil {
		return fail(c, "Failed to request return", err)
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(ret))
}

func (h *ReturnsHandler) ListReturns(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.service.ListReturns(ctx, userID, pageFrom(c))
	if err != nil {
		return fail(c, "Failed to list returns", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(list))
}

func (h *ReturnsHandler) GetReturn(c echo.Context) error {
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

	ret, err := h.service.GetReturn(ctx, userID, id)
	if err != nil {
		return fail(c, "Failed to get return", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(ret))
}

func (h *ReturnsHandler) CancelReturn(c echo.Context) error {
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

	ret, err := h.service.CancelReturn(ctx, userID, id)
	if err != nil {
		return fail(c, "Failed to cancel return", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(ret))
}
