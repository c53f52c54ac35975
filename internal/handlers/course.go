package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/transport"
	"github.com/Skotchmaster/course_market/internal/util"
	"github.com/Skotchmaster/course_market/pkg/apierr"
	"github.com/Skotchmaster/course_market/pkg/logging"
	authmw "github.com/Skotchmaster/course_market/pkg/middleware/auth"
)

type CourseHTTP struct {
	Svc *service.CourseService
}

func pageParams(c echo.Context) (int, int) {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	return util.Normalize(page, size)
}

func (h *CourseHTTP) GetCourses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course.get_courses")

	page, size := pageParams(c)
	res, err := h.Svc.ListCourses(ctx, page, size)
	if err != nil {
		return serviceError(l, "get_courses_error", apierr.TagDatabase, err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *CourseHTTP) GetCourse(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course.get_course")

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return apierr.Validation("id is required")
	}

	course, err := h.Svc.GetCourse(ctx, id)
	if err != nil {
		return serviceError(l, "get_course_error", apierr.TagDatabase, err)
	}

	return c.JSON(http.StatusOK, course)
}

func (h *CourseHTTP) SearchCourses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course.search")

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		l.Warn("search_error", "status", 400, "reason", "empty query")
		return apierr.Validation("q is required")
	}

	page, size := pageParams(c)
	total, items, err := h.Svc.SearchCourses(ctx, q, page, size)
	if err != nil {
		return serviceError(l, "search_error", apierr.TagInternal, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total":   total,
		"courses": items,
	})
}

func (h *CourseHTTP) CreateCourse(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course.create")

	makerID, ok := authmw.UserID(c)
	if !ok {
		return apierr.Unauthorized("missing or invalid token")
	}

	var req transport.CreateCourseRequest
	if err := bindAndValidate(c, l, "create_course_error", &req); err != nil {
		return err
	}

	course, err := h.Svc.CreateCourse(ctx, makerID, req)
	if err != nil {
		return serviceError(l, "create_course_error", apierr.TagDatabase, err)
	}

	l.Info("create_course_success", "course_id", course.ID)
	return c.JSON(http.StatusCreated, course)
}

func (h *CourseHTTP) UpdateCourseContent(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course.update_content")

	makerID, ok := authmw.UserID(c)
	if !ok {
		return apierr.Unauthorized("missing or invalid token")
	}

	var req transport.UpdateCourseContentRequest
	if err := bindAndValidate(c, l, "update_course_error", &req); err != nil {
		return err
	}

	course, err := h.Svc.UpdateCourseContent(ctx, makerID, req)
	if err != nil {
		return serviceError(l, "update_course_error", apierr.TagDatabase, err)
	}

	l.Info("update_course_success", "course_id", course.ID)
	return c.JSON(http.StatusOK, course)
}

func (h *CourseHTTP) DeleteCourse(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course.delete")

	makerID, ok := authmw.UserID(c)
	if !ok {
		return apierr.Unauthorized("missing or invalid token")
	}

	var req transport.DeleteCourseRequest
	if err := bindAndValidate(c, l, "delete_course_error", &req); err != nil {
		return err
	}

	if err := h.Svc.DeleteCourse(ctx, makerID, req.CourseID); err != nil {
		return serviceError(l, "delete_course_error", apierr.TagDatabase, err)
	}

	l.Info("delete_course_success", "course_id", req.CourseID)
	return c.NoContent(http.StatusNoContent)
}

func (h *CourseHTTP) MyCourses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course.my_courses")

	makerID, ok := authmw.UserID(c)
	if !ok {
		return apierr.Unauthorized("missing or invalid token")
	}

	courses, err := h.Svc.MyCourses(ctx, makerID)
	if err != nil {
		return serviceError(l, "my_courses_error", apierr.TagDatabase, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"courses": courses})
}
