package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/course_market/internal/handlers"
	"github.com/Skotchmaster/course_market/internal/repo"
	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/pkg/apierr"
	pkgdb "github.com/Skotchmaster/course_market/pkg/db"
	"github.com/Skotchmaster/course_market/pkg/logging"
	metricsmw "github.com/Skotchmaster/course_market/pkg/middleware/metrics"
)

var testSecret = []byte("router-test-secret")

func newTestServer(t *testing.T, rateLimit float64) *echo.Echo {
	t.Helper()

	db, err := pkgdb.Open(context.Background(), pkgdb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	store := repo.NewGormRepo(db)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	return New(logging.NewWithWriter(io.Discard, "error"), &Deps{
		UserHandler: &handlers.UserHTTP{Svc: &service.UserService{
			Repo:      store,
			JWTSecret: testSecret,
			HashCost:  bcrypt.MinCost,
		}},
		CourseHandler: &handlers.CourseHTTP{Svc: &service.CourseService{Repo: store}},
		JWTSecret:     testSecret,
		Metrics:       metricsmw.New("course_market_test"),
		Ready:         store.Ping,
		AuthRateLimit: rateLimit,
	})
}

type client struct {
	t *testing.T
	e *echo.Echo
}

func (cl client) do(method, target, token string, body any) (int, map[string]any) {
	cl.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(cl.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	cl.e.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec.Code, out
}

func (cl client) signup(email string, maker bool) string {
	cl.t.Helper()
	status, body := cl.do(http.MethodPost, "/user/signup", "", map[string]any{
		"email":         email,
		"password":      "secret",
		"isCourseMaker": maker,
	})
	require.Equal(cl.t, http.StatusCreated, status, body)
	return body["token"].(string)
}

func TestRouter_FullFlow(t *testing.T) {
	cl := client{t: t, e: newTestServer(t, 0)}

	makerToken := cl.signup("maker@example.com", true)
	learnerToken := cl.signup("learner@example.com", false)

	status, body := cl.do(http.MethodPost, "/user/login", "", map[string]any{"email": "maker@example.com", "password": "secret"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["isCourseMaker"])

	status, body = cl.do(http.MethodPost, "/course/create", makerToken, map[string]any{"title": "Go in practice", "price": 30})
	require.Equal(t, http.StatusCreated, status, body)
	courseID := body["id"].(string)

	status, body = cl.do(http.MethodPost, "/course/create", learnerToken, map[string]any{"title": "Nope", "price": 1})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "ROLE", body["error"])

	status, body = cl.do(http.MethodGet, "/course/all", learnerToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = cl.do(http.MethodGet, "/course/"+courseID, learnerToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = cl.do(http.MethodPost, "/user/purchase-course", learnerToken, map[string]any{"courseId": courseID})
	require.Equal(t, http.StatusOK, status, body)

	status, body = cl.do(http.MethodGet, "/course/purchases", learnerToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["courses"], 1)

	status, body = cl.do(http.MethodGet, "/user/profile", learnerToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{courseID}, body["data"].(map[string]any)["purchases"])

	status, body = cl.do(http.MethodPut, "/course/course-content", makerToken, map[string]any{"courseId": courseID, "price": 35})
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 35, body["price"])

	status, body = cl.do(http.MethodGet, "/course/myCourses", makerToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["courses"], 1)

	status, _ = cl.do(http.MethodDelete, "/course/delete?courseId="+courseID, makerToken, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = cl.do(http.MethodGet, "/course/purchases", learnerToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["courses"])
}

func TestRouter_Auth(t *testing.T) {
	cl := client{t: t, e: newTestServer(t, 0)}

	status, body := cl.do(http.MethodGet, "/user/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "JSONWEBTOKEN", body["error"])

	status, _ = cl.do(http.MethodGet, "/course/all", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = cl.do(http.MethodPost, "/course/create", "", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = cl.do(http.MethodGet, "/user/profile/", cl.signup("slash@example.com", false), nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	cl := client{t: t, e: newTestServer(t, 0)}

	status, _ := cl.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = cl.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	cl.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "course_market_test_http_requests_total")
}

func TestRouter_NotReady(t *testing.T) {
	e := New(logging.NewWithWriter(io.Discard, "error"), &Deps{
		UserHandler:   &handlers.UserHTTP{},
		CourseHandler: &handlers.CourseHTTP{},
		JWTSecret:     testSecret,
		Ready:         func(context.Context) error { return errors.New("store down") },
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_AuthRateLimit(t *testing.T) {
	cl := client{t: t, e: newTestServer(t, 1)}

	login := map[string]any{"email": "nobody@example.com", "password": "pw"}

	status, _ := cl.do(http.MethodPost, "/user/login", "", login)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := cl.do(http.MethodPost, "/user/login", "", login)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, apierr.TagRateLimit, body["error"])
}

func TestRouter_UnknownRoutesUseErrorShape(t *testing.T) {
	cl := client{t: t, e: newTestServer(t, 0)}

	tests := []struct {
		name   string
		method string
		target string
		status int
		tag    string
	}{
		{name: "unknown path", method: http.MethodGet, target: "/nope", status: http.StatusNotFound, tag: apierr.TagNotFound},
		{name: "unknown nested path", method: http.MethodGet, target: "/user/nope/deeper", status: http.StatusNotFound, tag: apierr.TagNotFound},
		{name: "wrong method", method: http.MethodDelete, target: "/user/login", status: http.StatusMethodNotAllowed, tag: apierr.TagMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := cl.do(tt.method, tt.target, "", nil)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.tag, body["error"])
			assert.NotEmpty(t, body["message"])
		})
	}
}
