package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-catalog/pkg/auth"
)

const (
	AuthorizationHeader = "Authorization"
	bearer              = "Bearer "
)

type TokenParser interface {
	Parse(tokenStr string) (auth.Identity, error)
}

type SessionReader interface {
	Identity(ctx context.Context) (auth.Identity, bool)
}

// Authenticate resolves the caller from a bearer token first, then from the page session.
// Anonymous requests pass through with no identity in the context.
func Authenticate(tokens TokenParser, sessions SessionReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			var (
				id auth.Identity
				ok bool
			)
			if authorization := req.Header.Get(AuthorizationHeader); authorization != "" {
				if !strings.HasPrefix(authorization, bearer) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
				}
				parsed, err := tokens.Parse(strings.TrimPrefix(authorization, bearer))
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
				}
				id, ok = parsed, true
			} else if sessions != nil {
				id, ok = sessions.Identity(req.Context())
			}
			if ok {
				c.SetRequest(req.WithContext(auth.SetAuthContext(req.Context(), id)))
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the request identity; the zero Identity is anonymous.
func IdentityFrom(c echo.Context) auth.Identity {
	id, _ := auth.GetAuthContext(c.Request().Context())
	return id
}

// RequireAPI answers 401 or 403 JSON when the caller may not perform act.
func RequireAPI(act auth.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := auth.Authorize(IdentityFrom(c), act, auth.Resource{})
			switch {
			case err == nil:
				return next(c)
			case errors.Is(err, auth.ErrUnauthenticated):
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			default:
				return echo.NewHTTPError(http.StatusForbidden, err.Error())
			}
		}
	}
}

// RequirePage sends anonymous callers to the login form and others to the access denied page.
func RequirePage(act auth.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := auth.Authorize(IdentityFrom(c), act, auth.Resource{})
			switch {
			case err == nil:
				return next(c)
			case errors.Is(err, auth.ErrUnauthenticated):
				return c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(c.Request().URL.RequestURI()))
			default:
				return c.Redirect(http.StatusSeeOther, "/access-denied")
			}
		}
	}
}
