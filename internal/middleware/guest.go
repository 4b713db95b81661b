package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	HeaderGuestID  = "X-Guest-ID"
	ContextGuestID = "guest_id"
)

// GuestSession gives every request a guest session key. A valid X-Guest-ID
// header is reused, otherwise a new one is issued. The key is always echoed
// back so clients can keep it.
func GuestSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(HeaderGuestID)
			if !ValidGuestID(key) {
				key = uuid.NewString()
			}
			c.Set(ContextGuestID, key)
			c.Response().Header().Set(HeaderGuestID, key)
			return next(c)
		}
	}
}

// ValidGuestID reports whether key has the shape of an issued guest key.
func ValidGuestID(key string) bool {
	_, err := uuid.Parse(key)
	return err == nil
}

func GuestID(c echo.Context) string {
	key, _ := c.Get(ContextGuestID).(string)
	return key
}
