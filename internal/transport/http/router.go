package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/course_market/internal/handlers"
	"github.com/Skotchmaster/course_market/internal/validation"
	"github.com/Skotchmaster/course_market/pkg/apierr"
	"github.com/Skotchmaster/course_market/pkg/logging"
	authmw "github.com/Skotchmaster/course_market/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/course_market/pkg/middleware/logging"
	metricsmw "github.com/Skotchmaster/course_market/pkg/middleware/metrics"
)

type Deps struct {
	UserHandler   *handlers.UserHTTP
	CourseHandler *handlers.CourseHTTP
	JWTSecret     []byte
	Metrics       *metricsmw.Metrics
	// Ready reports whether the store answers; nil means always ready.
	Ready func(ctx context.Context) error
	// AuthRateLimit is requests per second per client IP on signup and login. Zero disables it.
	AuthRateLimit float64
}

func authRateLimiter(limit float64) echo.MiddlewareFunc {
	if limit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	burst := int(limit)
	if burst < 1 {
		burst = 1
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(limit),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
	})
}

// New builds the echo instance with the common middleware chain and all routes.
func New(base *slog.Logger, d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = apierr.Handler(e.DefaultHTTPErrorHandler)

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.CORS(),
		loggingmw.RequestLogger(base),
	)
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.Ready(ctx); err != nil {
			logging.FromContext(ctx).Warn("readiness_failed", "status", 503, "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", d.Metrics.Handler())
	}

	userAuth := authmw.UserAuth(d.JWTSecret)
	makerAuth := authmw.CourseMakerAuth(d.JWTSecret)
	limiter := authRateLimiter(d.AuthRateLimit)

	user := e.Group("/user")
	user.POST("/signup", d.UserHandler.Signup, limiter)
	user.POST("/login", d.UserHandler.Login, limiter)
	user.GET("/profile", d.UserHandler.Profile, userAuth)
	user.POST("/purchase-course", d.UserHandler.PurchaseCourse, userAuth)

	course := e.Group("/course")
	course.GET("/all", d.CourseHandler.GetCourses, userAuth)
	course.GET("/purchases", d.UserHandler.Purchases, userAuth)
	course.GET("/search", d.CourseHandler.SearchCourses, userAuth)
	course.GET("/:id", d.CourseHandler.GetCourse, userAuth)

	course.POST("/create", d.CourseHandler.CreateCourse, makerAuth)
	course.DELETE("/delete", d.CourseHandler.DeleteCourse, makerAuth)
	course.PUT("/course-content", d.CourseHandler.UpdateCourseContent, makerAuth)
	course.GET("/myCourses", d.CourseHandler.MyCourses, makerAuth)
}
