// Package handler exposes the job board over HTTP with echo.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	apperrors "github.com/suteetoe/jobboard/internal/errors"
)

// bind decodes the JSON request body into dst. An empty body leaves dst untouched.
func bind(c echo.Context, dst interface{}) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusBadRequest {
			return echo.NewHTTPError(http.StatusBadRequest, "JSON parse error - "+fmt.Sprint(he.Message))
		}
		return err
	}
	return nil
}

// pathID parses a numeric path parameter. Anything else cannot match a row.
func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.NotFound(apperrors.MsgNotFound)
	}
	return uint(id), nil
}
