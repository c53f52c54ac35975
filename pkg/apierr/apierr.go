package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error tags returned in the "error" field of every failure body.
const (
	TagValidation  = "VALIDATION"
	TagJWT         = "JSONWEBTOKEN"
	TagCredentials = "CREDENTIALS"
	TagRole        = "ROLE"
	TagOwnership   = "OWNERSHIP"
	TagNotFound    = "NOT_FOUND"
	TagMethod      = "METHOD_NOT_ALLOWED"
	TagConflict    = "CONFLICT"
	TagRateLimit   = "RATE_LIMIT"
	TagDatabase    = "DATABASE"
	TagInternal    = "INTERNAL"
)

// New builds an echo error rendered as {"error": tag, "message": msg}.
func New(status int, tag, msg string) *echo.HTTPError {
	return echo.NewHTTPError(status, echo.Map{"error": tag, "message": msg})
}

func Validation(msg string) *echo.HTTPError {
	return New(http.StatusBadRequest, TagValidation, msg)
}

func Unauthorized(msg string) *echo.HTTPError {
	return New(http.StatusUnauthorized, TagJWT, msg)
}

func Internal(msg string) *echo.HTTPError {
	return New(http.StatusInternalServerError, TagInternal, msg)
}

// TagForStatus picks the tag for errors raised by echo itself.
func TagForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return TagValidation
	case http.StatusUnauthorized:
		return TagJWT
	case http.StatusForbidden:
		return TagRole
	case http.StatusNotFound:
		return TagNotFound
	case http.StatusMethodNotAllowed:
		return TagMethod
	case http.StatusConflict:
		return TagConflict
	case http.StatusTooManyRequests:
		return TagRateLimit
	}
	if status >= http.StatusInternalServerError {
		return TagInternal
	}
	return TagValidation
}

// Handler rewrites errors that are not already tagged, such as unknown routes,
// wrong methods and rate limiting, into the tagged body before next renders them.
func Handler(next echo.HTTPErrorHandler) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			tagged := Internal(http.StatusText(http.StatusInternalServerError))
			tagged.Internal = err
			next(tagged, c)
			return
		}
		if _, ok := he.Message.(echo.Map); ok {
			next(he, c)
			return
		}
		msg := fmt.Sprint(he.Message)
		if he.Message == nil || msg == "" {
			msg = http.StatusText(he.Code)
		}
		next(New(he.Code, TagForStatus(he.Code), msg), c)
	}
}
