package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/validation"
	"github.com/Skotchmaster/course_market/pkg/apierr"
)

// bindAndValidate reads the request into req and runs the struct validator.
func bindAndValidate(c echo.Context, l *slog.Logger, event string, req any) error {
	if err := c.Bind(req); err != nil {
		l.Warn(event, "status", 400, "reason", "invalid body", "error", err)
		return apierr.Validation("invalid body")
	}
	if err := c.Validate(req); err != nil {
		msg := validation.Describe(err)
		l.Warn(event, "status", 400, "reason", "validation failed", "error", msg)
		return apierr.Validation(msg)
	}
	return nil
}

// serviceError maps service sentinels to HTTP errors. Anything unknown becomes
// a 500 tagged with fallback.
func serviceError(l *slog.Logger, event, fallback string, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", 400, "error", err)
		return apierr.Validation(err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		l.Warn(event, "status", 401, "error", err)
		return apierr.New(http.StatusUnauthorized, apierr.TagCredentials, "invalid email or password")
	case errors.Is(err, service.ErrForbidden):
		l.Warn(event, "status", 403, "error", err)
		return apierr.New(http.StatusForbidden, apierr.TagOwnership, "you do not own this course")
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "error", err)
		return apierr.New(http.StatusNotFound, apierr.TagNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		l.Warn(event, "status", 409, "error", err)
		return apierr.New(http.StatusConflict, apierr.TagConflict, err.Error())
	default:
		l.Error(event, "status", 500, "error", err)
		return apierr.New(http.StatusInternalServerError, fallback, "internal error")
	}
}
