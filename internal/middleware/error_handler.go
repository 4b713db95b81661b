package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"abayaStore/pkg/logger"

	jsonres "abayaStore/pkg/response"

	"github.com/labstack/echo/v4"
)

// ErrorHandler renders errors that escape handlers in the same envelope the
// middleware rejections use.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := http.StatusText(status)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		message = fmt.Sprint(he.Message)
		if he.Internal != nil {
			logger.Warn("HTTP error", "status", status, "error", he.Internal.Error())
		}
	} else {
		logger.Error("Unhandled error", err, "path", c.Path(), "method", c.Request().Method)
	}

	code := strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	if code == "" {
		code = "ERROR"
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, jsonres.Error(code, message, nil))
	}
	if err != nil {
		logger.Error("Failed to write error response", err)
	}
}
