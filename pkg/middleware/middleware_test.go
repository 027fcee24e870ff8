package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-catalog/pkg/auth"
)

type stubSessions struct {
	id auth.Identity
	ok bool
}

func (s stubSessions) Identity(context.Context) (auth.Identity, bool) { return s.id, s.ok }

func TestAuthenticateAndRequireAPI(t *testing.T) {
	t.Parallel()
	tokens := auth.NewTokens("secret", time.Hour)
	librarian := auth.Identity{UserID: uuid.New(), Name: "Administrator", Role: auth.RoleLibrarian}
	member := auth.Identity{UserID: uuid.New(), Name: "Ann", Role: auth.RoleMember, MemberID: uuid.New()}

	libToken, _, err := tokens.Issue(librarian)
	require.NoError(t, err)
	memToken, _, err := tokens.Issue(member)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		sessions   SessionReader
		wantStatus int
		wantBody   string
	}{
		{
			name:       "librarian bearer",
			header:     "Bearer " + libToken,
			wantStatus: http.StatusOK,
			wantBody:   "Administrator",
		},
		{
			name:       "member bearer forbidden",
			header:     "Bearer " + memToken,
			wantStatus: http.StatusForbidden,
			wantBody:   `{"message":"access denied"}`,
		},
		{
			name:       "anonymous",
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"message":"authentication required"}`,
		},
		{
			name:       "garbage token",
			header:     "Bearer nope",
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"message":"invalid token"}`,
		},
		{
			name:       "basic scheme",
			header:     "Basic abc",
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"message":"invalid authorization header"}`,
		},
		{
			name:       "librarian session",
			sessions:   stubSessions{id: librarian, ok: true},
			wantStatus: http.StatusOK,
			wantBody:   "Administrator",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := echo.New()
			g := e.Group("/api", Authenticate(tokens, tt.sessions))
			g.POST("/books", func(c echo.Context) error {
				return c.String(http.StatusOK, IdentityFrom(c).Name)
			}, RequireAPI(auth.ManageCatalog))

			req := httptest.NewRequest(http.MethodPost, "/api/books", nil)
			if tt.header != "" {
				req.Header.Set(AuthorizationHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantBody, strings.TrimSpace(rec.Body.String()))
		})
	}
}

func TestRequirePage(t *testing.T) {
	t.Parallel()
	member := auth.Identity{UserID: uuid.New(), Role: auth.RoleMember, MemberID: uuid.New()}

	tests := []struct {
		name         string
		sessions     SessionReader
		wantStatus   int
		wantLocation string
	}{
		{
			name:         "anonymous goes to login",
			sessions:     stubSessions{},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login?next=%2Fadmin%3Ftab%3D1",
		},
		{
			name:         "member is denied",
			sessions:     stubSessions{id: member, ok: true},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/access-denied",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := echo.New()
			e.GET("/admin", func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			}, Authenticate(auth.NewTokens("k", time.Hour), tt.sessions), RequirePage(auth.ViewDashboard))

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin?tab=1", nil))
			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantLocation, rec.Header().Get(echo.HeaderLocation))
		})
	}
}

func TestCSRF(t *testing.T) {
	t.Parallel()
	key := []byte("0123456789abcdef0123456789abcdef")
	e := echo.New()
	e.Use(CSRF(key, false))
	e.POST("/reviews", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reviews", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/reviews", nil)
	req.Header.Set(AuthorizationHeader, "Bearer token")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()
	e := echo.New()
	e.Use(SecurityHeaders)
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Contains(t, rec.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
}
