package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/and161185/clinic-keeper/internal/errs"
)

// statusOf maps service sentinels to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errs.IsDomainRule(err), errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// toHTTP converts err into an echo error. Internal failures are not echoed
// back to the client.
func toHTTP(err error) *echo.HTTPError {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		return echo.NewHTTPError(code, "internal").SetInternal(err)
	}
	return echo.NewHTTPError(code, err.Error())
}

func notFound(what, id string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusNotFound, what+" "+id+" not found")
}

func badBody(err error) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
}
