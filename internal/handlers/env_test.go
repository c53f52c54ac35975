package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/repo"
	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/transport"
	"github.com/Skotchmaster/course_market/internal/validation"
	pkgdb "github.com/Skotchmaster/course_market/pkg/db"
	authmw "github.com/Skotchmaster/course_market/pkg/middleware/auth"
)

type testEnv struct {
	E     *echo.Echo
	Store *repo.GormRepo
	U     *UserHTTP
	C     *CourseHTTP
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := pkgdb.Open(context.Background(), pkgdb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	store := repo.NewGormRepo(db)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	e := echo.New()
	e.Validator = validation.New()

	return &testEnv{
		E:     e,
		Store: store,
		U: &UserHTTP{Svc: &service.UserService{
			Repo:      store,
			JWTSecret: []byte("test-jwt-secret"),
			HashCost:  bcrypt.MinCost,
		}},
		C: &CourseHTTP{Svc: &service.CourseService{Repo: store}},
	}
}

// doJSONRequest builds a context as if UserAuth had accepted a token for userID.
func (env *testEnv) doJSONRequest(method, target string, body any, userID string, maker bool) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)

	if userID != "" {
		c.Set(authmw.CtxUserID, userID)
		c.Set(authmw.CtxIsCourseMaker, maker)
	}
	return rec, c
}

func (env *testEnv) signup(t *testing.T, email string, maker bool) *models.User {
	t.Helper()
	res, err := env.U.Svc.Signup(context.Background(), transport.SignupRequest{
		Email:         email,
		Password:      "secret",
		IsCourseMaker: &maker,
	})
	require.NoError(t, err)
	return res.User
}

func (env *testEnv) createCourse(t *testing.T, makerID, title string) *models.Course {
	t.Helper()
	course, err := env.C.Svc.CreateCourse(context.Background(), makerID, transport.CreateCourseRequest{Title: title, Price: 10})
	require.NoError(t, err)
	return course
}

// requireHTTPError checks a handler error's status and "error" tag.
func requireHTTPError(t *testing.T, err error, status int, tag string) {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected *echo.HTTPError, got %v", err)
	require.Equal(t, status, he.Code)
	m, ok := he.Message.(echo.Map)
	require.True(t, ok, "message is %T", he.Message)
	require.Equal(t, tag, m["error"])
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
