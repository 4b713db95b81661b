package rest

import (
	"context"
	"net/http"

	"abayaStore/business/orders"
	"abayaStore/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	OrdersHandler struct {
		validate      *validator.Validate
		ordersService OrdersService
	}

	OrdersService interface {
		Checkout(ctx context.Context, userID uint, in orders.CheckoutInput) (domain.Order, error)
		ListOrders(ctx context.Context, userID uint, filter domain.OrderFilter) (domain.PageResult[domain.Order], error)
		GetOrder(ctx context.Context, userID uint, ref string) (domain.Order, error)
		CancelOrder(ctx context.Context, userID uint, ref, reason string) (domain.Order, error)
		TrackOrder(ctx context.Context, userID uint, ref string) (domain.Shipment, error)
	}

	CancelInput struct {
		Reason string `json:"reason" validate:"max=500"`
	}
)

func NewOrdersHandler(ordersService OrdersService) *OrdersHandler {
	return &OrdersHandler{
		validate:      validator.New(),
		ordersService: ordersService,
	}
}

func (h *OrdersHandler) Checkout(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}

	var request orders.CheckoutInput
	if err := bindAndValidate(c, h.validate, &request); err != nil {
		return err
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	order, err := h.ordersService.Checkout(ctx, userID, request)
	if err != nil {
		return fail(c, "Failed to place order", err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(order))
}

// GetAllOrders lists the caller's orders, optionally by ?status=.
func (h *OrdersHandler) GetAllOrders(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.ordersService.ListOrders(ctx, userID, domain.OrderFilter{
		Status: domain.OrderStatus(c.QueryParam("status")),
		Page:   pageFrom(c),
	})
	if err != nil {
		return fail(c, "Failed to get all orders", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(list))
}

// GetOrder accepts an order id or order number.
func (h *OrdersHandler) GetOrder(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	order, err := h.ordersService.GetOrder(ctx, userID, c.Param("id"))
	if err != nil {
		return fail(c, "Failed to get order", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(order))
}

func (h *OrdersHandler) CancelOrder(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}

	var request CancelInput
	if err := bindAndValidate(c, h.validate, &request); err != nil {
		return err
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	order, err := h.ordersService.CancelOrder(ctx, userID, c.Param("id"), request.Reason)
	if err != nil {
		return fail(c, "Failed to cancel order", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(order))
}

func (h *OrdersHandler) TrackOrder(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	shipment, err := h.ordersService.TrackOrder(ctx, userID, c.Param("id"))
	if err != nil {
		return fail(c, "Failed to track order", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(shipment))
}
