package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/transport"
	"github.com/Skotchmaster/course_market/pkg/apierr"
	"github.com/Skotchmaster/course_market/pkg/logging"
	authmw "github.com/Skotchmaster/course_market/pkg/middleware/auth"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.signup")

	var req transport.SignupRequest
	if err := bindAndValidate(c, l, "signup_failed", &req); err != nil {
		return err
	}

	res, err := h.Svc.Signup(ctx, req)
	if err != nil {
		return serviceError(l, "signup_failed", apierr.TagDatabase, err)
	}

	l.Info("signup_success", "user_id", res.User.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "user created",
		"token":   res.Token,
		"user":    res.User,
	})
}

func (h *UserHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.login")

	var req transport.LoginRequest
	if err := bindAndValidate(c, l, "login_failed", &req); err != nil {
		return err
	}

	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		return serviceError(l, "login_failed", apierr.TagDatabase, err)
	}

	l.Info("login_success")
	return c.JSON(http.StatusOK, echo.Map{
		"message":       "logged in",
		"token":         res.Token,
		"isCourseMaker": res.IsCourseMaker,
	})
}

func (h *UserHTTP) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.profile")

	userID, ok := authmw.UserID(c)
	if !ok {
		return apierr.Unauthorized("missing or invalid token")
	}

	user, err := h.Svc.Profile(ctx, userID)
	if err != nil {
		return serviceError(l, "profile_failed", apierr.TagDatabase, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"data": user})
}

func (h *UserHTTP) PurchaseCourse(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.purchase_course")

	userID, ok := authmw.UserID(c)
	if !ok {
		return apierr.Unauthorized("missing or invalid token")
	}

	var req transport.PurchaseCourseRequest
	if err := bindAndValidate(c, l, "purchase_failed", &req); err != nil {
		return err
	}

	if err := h.Svc.PurchaseCourse(ctx, userID, req.CourseID); err != nil {
		return serviceError(l, "purchase_failed", apierr.TagDatabase, err)
	}

	l.Info("purchase_success", "course_id", req.CourseID)
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "course purchased",
		"courseId": req.CourseID,
	})
}

func (h *UserHTTP) Purchases(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.purchases")

	userID, ok := authmw.UserID(c)
	if !ok {
		return apierr.Unauthorized("missing or invalid token")
	}

	courses, err := h.Svc.Purchases(ctx, userID)
	if err != nil {
		return serviceError(l, "purchases_failed", apierr.TagDatabase, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"courses": courses})
}
