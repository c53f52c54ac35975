package authmw

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/course_market/pkg/apierr"
	"github.com/Skotchmaster/course_market/pkg/tokens"
)

const (
	CtxClaims        = "user"
	CtxUserID        = "user_id"
	CtxIsCourseMaker = "is_course_maker"
)

// TokenLookup accepts "Authorization: Bearer <jwt>" as well as the bare token.
const TokenLookup = "header:Authorization:Bearer ,header:Authorization"

// UserAuth rejects requests without a valid access token and stores the
// caller's id and role flag on the echo context.
func UserAuth(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  CtxClaims,
		TokenLookup: TokenLookup,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return tokens.AccessClaimsFromToken(auth, secret)
		},
		SuccessHandler: func(c echo.Context) {
			claims, ok := c.Get(CtxClaims).(*tokens.AccessClaims)
			if !ok {
				return
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxIsCourseMaker, claims.IsCourseMaker)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return apierr.Unauthorized("missing or invalid token")
		},
	})
}

// RequireCourseMaker must run after UserAuth.
func RequireCourseMaker(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := UserID(c); !ok {
			return apierr.Unauthorized("missing or invalid token")
		}
		if !IsCourseMaker(c) {
			return apierr.New(http.StatusForbidden, apierr.TagRole, "only course makers can do this")
		}
		return next(c)
	}
}

// CourseMakerAuth is UserAuth followed by RequireCourseMaker.
func CourseMakerAuth(secret []byte) echo.MiddlewareFunc {
	userAuth := UserAuth(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return userAuth(RequireCourseMaker(next))
	}
}

func UserID(c echo.Context) (string, bool) {
	id, ok := c.Get(CtxUserID).(string)
	return id, ok && id != ""
}

func IsCourseMaker(c echo.Context) bool {
	v, _ := c.Get(CtxIsCourseMaker).(bool)
	return v
}
