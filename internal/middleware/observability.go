package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"abayaStore/domain"
	"abayaStore/pkg/metrics"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo/v4"
)

// Metrics records request counts and latencies by route template.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil && status < http.StatusBadRequest {
				status = http.StatusInternalServerError
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// RateLimit limits requests per client IP. A non-positive limit disables it.
func RateLimit(requests int, window time.Duration) echo.MiddlewareFunc {
	if requests <= 0 || window <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return echo.WrapMiddleware(httprate.LimitByIP(requests, window))
}

// ActivityRecorder stores dashboard audit entries.
type ActivityRecorder interface {
	Record(ctx context.Context, entry domain.ActivityLog)
}

// Activity records successful mutating requests under action. The entity id
// is taken from the :id path parameter when there is one.
func Activity(recorder ActivityRecorder, action, entityType string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err != nil || c.Response().Status >= http.StatusBadRequest {
				return err
			}
			if c.Request().Method == http.MethodGet || c.Request().Method == http.MethodHead {
				return nil
			}

			entry := domain.ActivityLog{
				Action:     action,
				EntityType: entityType,
				EntityID:   c.Param("id"),
				IPAddress:  c.RealIP(),
				UserAgent:  c.Request().UserAgent(),
				Metadata: map[string]interface{}{
					"method": c.Request().Method,
					"path":   c.Request().URL.Path,
					"status": c.Response().Status,
				},
			}
			if id, ok := UserID(c); ok {
				entry.UserID = &id
			}
			entry.Description = action + " " + entityType
			if entry.EntityID != "" {
				entry.Description += " " + entry.EntityID
			}
			recorder.Record(c.Request().Context(), entry)
			return nil
		}
	}
}
