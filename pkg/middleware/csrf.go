package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/labstack/echo/v4"
)

const (
	CSRFFieldName  = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
	csrfContextKey = "csrf_token"
)

// CSRF protects form posts. Requests carrying a bearer token are the JSON API and skip it.
func CSRF(key []byte, secure bool) echo.MiddlewareFunc {
	protect := csrf.Protect(
		key,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.Path("/"),
		csrf.FieldName(CSRFFieldName),
		csrf.RequestHeader(CSRFHeaderName),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if strings.HasPrefix(c.Request().Header.Get(AuthorizationHeader), bearer) {
				return next(c)
			}
			req := c.Request()
			if !secure {
				req = csrf.PlaintextHTTPRequest(req)
			}

			var nextErr error
			protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				c.SetRequest(r)
				c.Set(csrfContextKey, csrf.Token(r))
				nextErr = next(c)
			})).ServeHTTP(c.Response(), req)
			return nextErr
		}
	}
}

// CSRFToken returns the token issued for the current request.
func CSRFToken(c echo.Context) string {
	token, _ := c.Get(csrfContextKey).(string)
	return token
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"CSRF token invalid or missing"}`))
		return
	}
	http.Error(w, "Your session has expired or the form submission was invalid. Go back and try again.", http.StatusForbidden)
}
