package middleware

import (
	"net/http"

	"abayaStore/pkg/logger"

	jsonres "abayaStore/pkg/response"

	"github.com/labstack/echo/v4"
)

type PolicyEnforcer interface {
	Allowed(role, resource, action string) (bool, error)
}

// Authorize asks the policy whether the caller's role may perform action on
// resource. It must run after authentication.
func Authorize(enforcer PolicyEnforcer, resource, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, err := enforcer.Allowed(Role(c), resource, action)
			if err != nil {
				logger.Error("Authorization check failed", err, "resource", resource, "action", action)
				return c.JSON(http.StatusInternalServerError, jsonres.Error("INTERNAL_ERROR", "Authorization check failed", nil))
			}
			if !allowed {
				return forbidden("You do not have access to this resource").respond(c)
			}
			return next(c)
		}
	}
}
