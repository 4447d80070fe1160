// Package response renders the uniform JSON envelope: {"data": ...} on
// success and {"error": {"code", "message"}} on failure.
package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	apperr "scheduler/internal/errors"
)

// errorKindKey lets the request logger report the taxonomy kind of a failure.
const errorKindKey = "response.error_kind"

// Success wraps a payload in the success envelope.
type Success struct {
	Data interface{} `json:"data"`
}

// OK writes a 200 success envelope.
func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Success{Data: data})
}

// Error writes the error envelope for err.
func Error(c echo.Context, err *apperr.Error) error {
	c.Set(errorKindKey, err.Kind.String())
	return c.JSON(err.Status(), err.ToErrorResponse())
}

// ErrorKind returns the taxonomy kind recorded for a failed request, if any.
func ErrorKind(c echo.Context) string {
	kind, _ := c.Get(errorKindKey).(string)
	return kind
}

// ErrorHandler returns an echo.HTTPErrorHandler that renders every error
// through the envelope. Causes of internal errors are logged, never sent.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		appErr := fromEcho(err)
		if appErr.Kind == apperr.KindInternal {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("uri", c.Request().RequestURI).
				Msg("internal error")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			c.Set(errorKindKey, appErr.Kind.String())
			writeErr = c.NoContent(appErr.Status())
		} else {
			writeErr = Error(c, appErr)
		}
		if writeErr != nil {
			log.Error().Err(writeErr).Msg("write error response")
		}
	}
}

// fromEcho maps framework errors (unknown route, bad method, bind
// failures) onto the taxonomy.
func fromEcho(err error) *apperr.Error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return apperr.Internal(err)
	}

	message := fmt.Sprint(he.Message)
	switch {
	case he.Code == http.StatusNotFound:
		return &apperr.Error{Kind: apperr.KindRouteNotFound, Err: err}
	case he.Code == http.StatusMethodNotAllowed:
		return &apperr.Error{Kind: apperr.KindMethodNotAllowed, Err: err}
	case he.Code == http.StatusUnauthorized:
		return &apperr.Error{Kind: apperr.KindUnauthorized, Err: err}
	case he.Code >= http.StatusInternalServerError:
		return apperr.Internal(err)
	case he.Code == http.StatusBadRequest:
		return &apperr.Error{Kind: apperr.KindValidation, Message: message, Err: err}
	default:
		// 413, 415 and other client errors keep their status
		return &apperr.Error{Kind: apperr.KindRequest, Message: message, Code: he.Code, Err: err}
	}
}
