package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	apperrors "github.com/suteetoe/jobboard/internal/errors"
	"github.com/suteetoe/jobboard/pkg/logger"
	"go.uber.org/zap"
)

var statusByCode = map[apperrors.ErrorCode]int{
	apperrors.ErrCodeValidation:   http.StatusBadRequest,
	apperrors.ErrCodeForeignKey:   http.StatusBadRequest,
	apperrors.ErrCodeNotFound:     http.StatusNotFound,
	apperrors.ErrCodeUnauthorized: http.StatusUnauthorized,
	apperrors.ErrCodeForbidden:    http.StatusForbidden,
	apperrors.ErrCodeConflict:     http.StatusConflict,
	apperrors.ErrCodeRateLimited:  http.StatusTooManyRequests,
	apperrors.ErrCodeTimeout:      http.StatusGatewayTimeout,
	apperrors.ErrCodeCanceled:     http.StatusServiceUnavailable,
	apperrors.ErrCodeInternal:     http.StatusInternalServerError,
}

// ErrorBody renders an error as a JSON body and picks its status.
// Validation errors keep field-level detail; everything else is {"detail": ...}.
func ErrorBody(err error) (int, interface{}) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status, ok := statusByCode[appErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		if status == http.StatusInternalServerError {
			return status, echo.Map{"detail": "A server error occurred."}
		}
		if appErr.Code == apperrors.ErrCodeValidation {
			switch {
			case len(appErr.Fields) > 0:
				return status, appErr.Fields
			case appErr.Field != "":
				return status, echo.Map{appErr.Field: []string{appErr.Message}}
			default:
				return status, echo.Map{"non_field_errors": []string{appErr.Message}}
			}
		}
		return status, echo.Map{"detail": appErr.Message}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := fmt.Sprint(he.Message)
		switch he.Code {
		case http.StatusNotFound:
			msg = apperrors.MsgNotFound
		case http.StatusMethodNotAllowed:
			msg = "Method not allowed."
		}
		return he.Code, echo.Map{"detail": msg}
	}

	return http.StatusInternalServerError, echo.Map{"detail": "A server error occurred."}
}

// HTTPErrorHandler writes errors returned by handlers and middleware.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := ErrorBody(err)
	log := logger.FromEcho(c)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Error(err))
	}
	if status == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="api"`)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		log.Error("Failed to write error response", zap.Error(err))
	}
}
