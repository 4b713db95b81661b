package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"abayaStore/domain"
	"abayaStore/pkg/logger"
	"abayaStore/pkg/utils"

	jsonres "abayaStore/pkg/response"

	"github.com/labstack/echo/v4"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
	ContextToken  = "token"
)

// TokenValidator checks that a token is still present in the token store.
type TokenValidator interface {
	ValidateTokenFromRedis(ctx context.Context, token string) (string, error)
}

type authFailure struct {
	status  int
	code    string
	message string
}

func (f *authFailure) respond(c echo.Context) error {
	return c.JSON(f.status, jsonres.Error(f.code, f.message, nil))
}

func unauthorized(message string) *authFailure {
	return &authFailure{status: http.StatusUnauthorized, code: "UNAUTHORIZED", message: message}
}

func forbidden(message string) *authFailure {
	return &authFailure{status: http.StatusForbidden, code: "FORBIDDEN", message: message}
}

// authenticate validates the bearer token against the JWT signature and the
// token store, and stores the caller in the echo context.
func authenticate(c echo.Context, tokenValidator TokenValidator) *authFailure {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return unauthorized("Missing authorization header")
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return unauthorized("Invalid authorization format")
	}
	tokenString := tokenParts[1]

	claims, err := utils.ParseJWT(tokenString)
	if err != nil {
		logger.Warn("Failed to parse JWT", "error", err.Error())
		return unauthorized("Invalid token")
	}

	expAt, err := claims.GetExpirationTime()
	if err != nil || expAt == nil || time.Now().After(expAt.Time) {
		return forbidden("Token expired")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := tokenValidator.ValidateTokenFromRedis(ctx, tokenString)
	if err != nil {
		logger.Warn("Token not found in Redis", "error", err.Error())
		return unauthorized("Token expired or invalid")
	}
	if userID != claims.UserID {
		logger.Warn("UserID mismatch between JWT and Redis", "jwt_user_id", claims.UserID)
		return unauthorized("Invalid token")
	}

	userIDUint, err := strconv.ParseUint(claims.UserID, 10, 64)
	if err != nil {
		logger.Error("Invalid user ID in token", err)
		return forbidden("Invalid user ID in token")
	}

	c.Set(ContextUserID, uint(userIDUint))
	c.Set(ContextRole, strings.ToUpper(claims.Role))
	c.Set(ContextToken, tokenString)
	return nil
}

// AuthMiddlewareWithRedis requires a valid, unrevoked bearer token.
func AuthMiddlewareWithRedis(tokenValidator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if failure := authenticate(c, tokenValidator); failure != nil {
				return failure.respond(c)
			}
			return next(c)
		}
	}
}

// OptionalAuth resolves the caller when a token is sent and lets anonymous
// requests through. A token that is sent but invalid is still rejected.
func OptionalAuth(tokenValidator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}
			if failure := authenticate(c, tokenValidator); failure != nil {
				return failure.respond(c)
			}
			return next(c)
		}
	}
}

// QueryToken promotes a ?token= query parameter to a bearer header. Browser
// websocket clients cannot set headers.
func QueryToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if tok := c.QueryParam("token"); tok != "" && req.Header.Get("Authorization") == "" {
				req.Header.Set("Authorization", "Bearer "+tok)
			}
			return next(c)
		}
	}
}

func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(ContextUserID).(uint)
	return id, ok && id != 0
}

func Role(c echo.Context) string {
	role, _ := c.Get(ContextRole).(string)
	return role
}

func requireRole(message string, allowed ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := Role(c)
			for _, r := range allowed {
				if role == r {
					return next(c)
				}
			}
			return forbidden(message).respond(c)
		}
	}
}

func AdminOnly() echo.MiddlewareFunc {
	return requireRole("Admin access required", domain.RoleAdmin)
}

func StaffOrAdmin() echo.MiddlewareFunc {
	return requireRole("Staff access required", domain.RoleAdmin, domain.RoleStaff)
}

// SelfOrAdmin lets admins through and limits everyone else to the user named
// by the :id path parameter.
func SelfOrAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			loggedInUserID, ok := UserID(c)
			if !ok {
				return unauthorized("User not authenticated").respond(c)
			}
			if Role(c) == domain.RoleAdmin {
				return next(c)
			}

			requestedID, err := strconv.ParseUint(c.Param("id"), 10, 64)
			if err != nil {
				return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", "Invalid user ID", nil))
			}
			if uint(requestedID) != loggedInUserID {
				return forbidden("You can only access your own data").respond(c)
			}
			return next(c)
		}
	}
}
