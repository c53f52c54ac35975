package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/course_market/pkg/apierr"
)

func TestGetCourses(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		env.createCourse(t, "maker", fmt.Sprintf("course %d", i))
	}

	rec, c := env.doJSONRequest(http.MethodGet, "/course/all?page=2&size=2", nil, "u", false)
	require.NoError(t, env.C.GetCourses(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	data, ok := body["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 1)

	meta, ok := body["meta"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, meta["page"])
	assert.EqualValues(t, 2, meta["size"])
	assert.EqualValues(t, 3, meta["total"])
	assert.EqualValues(t, 2, meta["total_pages"])
	assert.Equal(t, true, meta["has_prev"])
	assert.Equal(t, false, meta["has_next"])
}

func TestGetCourses_BadParamsFallBack(t *testing.T) {
	env := newTestEnv(t)
	env.createCourse(t, "maker", "only")

	rec, c := env.doJSONRequest(http.MethodGet, "/course/all?page=abc&size=-3", nil, "u", false)
	require.NoError(t, env.C.GetCourses(c))

	meta := decode(t, rec)["meta"].(map[string]any)
	assert.EqualValues(t, 1, meta["page"])
	assert.EqualValues(t, 20, meta["size"])
}

func TestGetCourse(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, "maker", "Go")

	rec, c := env.doJSONRequest(http.MethodGet, "/course/"+course.ID, nil, "u", false)
	c.SetParamNames("id")
	c.SetParamValues(course.ID)
	require.NoError(t, env.C.GetCourse(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, course.ID, body["id"])
	assert.Equal(t, "maker", body["courseMaker"])

	_, c = env.doJSONRequest(http.MethodGet, "/course/missing", nil, "u", false)
	c.SetParamNames("id")
	c.SetParamValues("missing")
	requireHTTPError(t, env.C.GetCourse(c), http.StatusNotFound, apierr.TagNotFound)
}

func TestCreateCourse(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/course/create", map[string]any{
		"title":       "Concurrency in Go",
		"description": "channels",
		"price":       25.5,
		"imageUrl":    "https://img.example.com/c.png",
	}, "maker-1", true)
	require.NoError(t, env.C.CreateCourse(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "maker-1", body["courseMaker"])
	assert.Equal(t, 25.5, body["price"])
	assert.Equal(t, "https://img.example.com/c.png", body["imageUrl"])

	tests := []struct {
		name string
		body any
	}{
		{name: "missing title", body: map[string]any{"price": 1}},
		{name: "negative price", body: map[string]any{"title": "x", "price": -1}},
		{name: "bad image url", body: map[string]any{"title": "x", "imageUrl": "not a url"}},
		{name: "price as string", body: `{"title":"x","price":"free"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := env.doJSONRequest(http.MethodPost, "/course/create", tt.body, "maker-1", true)
			requireHTTPError(t, env.C.CreateCourse(c), http.StatusBadRequest, apierr.TagValidation)
		})
	}
}

func TestUpdateCourseContent(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, "owner", "Draft")

	rec, c := env.doJSONRequest(http.MethodPut, "/course/course-content", map[string]any{
		"courseId":    course.ID,
		"title":       "Final",
		"description": "now with content",
	}, "owner", true)
	require.NoError(t, env.C.UpdateCourseContent(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Final", body["title"])
	assert.Equal(t, "now with content", body["description"])
	assert.EqualValues(t, 10, body["price"])

	_, c = env.doJSONRequest(http.MethodPut, "/course/course-content", map[string]any{
		"courseId": course.ID,
		"title":    "Hijacked",
	}, "someone-else", true)
	requireHTTPError(t, env.C.UpdateCourseContent(c), http.StatusForbidden, apierr.TagOwnership)

	_, c = env.doJSONRequest(http.MethodPut, "/course/course-content", map[string]any{
		"courseId": course.ID,
	}, "owner", true)
	requireHTTPError(t, env.C.UpdateCourseContent(c), http.StatusBadRequest, apierr.TagValidation)

	_, c = env.doJSONRequest(http.MethodPut, "/course/course-content", map[string]any{
		"courseId": "missing",
		"price":    3,
	}, "owner", true)
	requireHTTPError(t, env.C.UpdateCourseContent(c), http.StatusNotFound, apierr.TagNotFound)
}

func TestDeleteCourse(t *testing.T) {
	env := newTestEnv(t)
	byBody := env.createCourse(t, "owner", "one")
	byQuery := env.createCourse(t, "owner", "two")

	_, c := env.doJSONRequest(http.MethodDelete, "/course/delete", map[string]any{"courseId": byBody.ID}, "intruder", true)
	requireHTTPError(t, env.C.DeleteCourse(c), http.StatusForbidden, apierr.TagOwnership)

	rec, c := env.doJSONRequest(http.MethodDelete, "/course/delete", map[string]any{"courseId": byBody.ID}, "owner", true)
	require.NoError(t, env.C.DeleteCourse(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, c = env.doJSONRequest(http.MethodDelete, "/course/delete?courseId="+byQuery.ID, nil, "owner", true)
	require.NoError(t, env.C.DeleteCourse(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, c = env.doJSONRequest(http.MethodDelete, "/course/delete", nil, "owner", true)
	requireHTTPError(t, env.C.DeleteCourse(c), http.StatusBadRequest, apierr.TagValidation)

	_, c = env.doJSONRequest(http.MethodDelete, "/course/delete?courseId="+byQuery.ID, nil, "owner", true)
	requireHTTPError(t, env.C.DeleteCourse(c), http.StatusNotFound, apierr.TagNotFound)
}

func TestMyCourses(t *testing.T) {
	env := newTestEnv(t)
	mine := env.createCourse(t, "alice", "A")
	env.createCourse(t, "bob", "B")

	rec, c := env.doJSONRequest(http.MethodGet, "/course/myCourses", nil, "alice", true)
	require.NoError(t, env.C.MyCourses(c))
	require.Equal(t, http.StatusOK, rec.Code)

	courses := decode(t, rec)["courses"].([]any)
	require.Len(t, courses, 1)
	assert.Equal(t, mine.ID, courses[0].(map[string]any)["id"])
}

func TestSearchCourses_StoreFallback(t *testing.T) {
	env := newTestEnv(t)
	env.createCourse(t, "m", "Golang 101")
	env.createCourse(t, "m", "Python 101")

	rec, c := env.doJSONRequest(http.MethodGet, "/course/search?q=golang", nil, "u", false)
	require.NoError(t, env.C.SearchCourses(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.EqualValues(t, 1, body["total"])
	assert.Len(t, body["courses"], 1)

	_, c = env.doJSONRequest(http.MethodGet, "/course/search", nil, "u", false)
	requireHTTPError(t, env.C.SearchCourses(c), http.StatusBadRequest, apierr.TagValidation)
}
