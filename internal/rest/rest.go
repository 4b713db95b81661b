package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"abayaStore/business/coupon"
	userService "abayaStore/business/user"
	"abayaStore/domain"
	"abayaStore/internal/middleware"
	"abayaStore/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const defaultTimeout = 10 * time.Second

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

var errUnauthorized = ResponseError{Message: "unauthorized"}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, userService.ErrRoleChangeNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, userService.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, userService.ErrInvalidVerifyLink),
		errors.Is(err, userService.ErrInvalidRole),
		errors.Is(err, coupon.ErrCouponNotFound),
		errors.Is(err, coupon.ErrCouponInactive),
		errors.Is(err, coupon.ErrCouponNotStarted),
		errors.Is(err, coupon.ErrCouponExpired),
		errors.Is(err, coupon.ErrCouponExhausted),
		errors.Is(err, coupon.ErrMinimumNotMet):
		return http.StatusBadRequest
	case errors.Is(err, userService.ErrIncorrectPassword),
		errors.Is(err, userService.ErrEmailNotVerified),
		errors.Is(err, userService.ErrAccountLocked):
		return http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// fail logs err and writes it with the mapped status. Internal errors are
// not echoed back to the client.
func fail(c echo.Context, msg string, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, err, "path", c.Path())
		return c.JSON(status, ResponseError{Message: http.StatusText(status)})
	}
	logger.Warn(msg, "error", err.Error(), "path", c.Path())
	return c.JSON(status, ResponseError{Message: err.Error()})
}

// bindAndValidate returns an *echo.HTTPError so callers stop before touching
// the service; the error handler writes the 400.
func bindAndValidate(c echo.Context, v *validator.Validate, req interface{}) error {
	if err := c.Bind(req); err != nil {
		logger.Warn("Invalid request body", "error", err.Error(), "path", c.Path())
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := v.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func paramID(c echo.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func badID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid id"})
}

func currentUser(c echo.Context) (uint, bool) {
	return middleware.UserID(c)
}

func errInvalidQuery(name string) error {
	return errors.New("invalid " + name)
}

func isStaff(c echo.Context) bool {
	role := middleware.Role(c)
	return role == domain.RoleAdmin || role == domain.RoleStaff
}

func pageFrom(c echo.Context) domain.Page {
	number, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	return domain.Page{Number: number, Size: size}.Normalize()
}

// dateRangeFrom reads from/to query params as YYYY-MM-DD. The end date is
// inclusive, so the range runs to the start of the following day.
func dateRangeFrom(c echo.Context) (domain.DateRange, error) {
	var rng domain.DateRange
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return rng, errors.New("from must be YYYY-MM-DD")
		}
		rng.From = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return rng, errors.New("to must be YYYY-MM-DD")
		}
		rng.To = t.AddDate(0, 0, 1)
	}
	return rng, nil
}

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), defaultTimeout)
}
