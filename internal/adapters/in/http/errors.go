package http

import (
	"errors"
	"net/http"

	"gasdelivery/internal/core/application/routing"
	"gasdelivery/internal/core/application/usecases/commands"
	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/core/ports"
	"gasdelivery/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// statusOf classifies a use case error. Unknown errors are server faults.
func statusOf(err error) int {
	switch {
	case errs.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, ports.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, commands.ErrNotAssignedDriver):
		return http.StatusForbidden
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, commands.ErrDriverUnavailable),
		errors.Is(err, ports.ErrOrderExists),
		errors.Is(err, ports.ErrLoginTaken),
		errors.Is(err, routing.ErrNoActiveRoute):
		return http.StatusConflict
	case errors.Is(err, routing.ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail converts err into an echo.HTTPError. Server faults are logged and
// their details are not sent to the client.
func (s *Server) fail(err error) error {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("Request failed", "error", err)
		return echo.NewHTTPError(code, http.StatusText(code)).SetInternal(err)
	}
	return echo.NewHTTPError(code, err.Error()).SetInternal(err)
}

func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, message)
}

func forbidden(message string) error {
	return echo.NewHTTPError(http.StatusForbidden, message)
}
