package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2/memstore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-catalog/pkg/auth"
)

func newTestManager() *Manager {
	return NewManagerWithStore(memstore.New(), Config{Lifetime: time.Hour})
}

func TestManager_SignInIdentity(t *testing.T) {
	t.Parallel()
	m := newTestManager()

	want := auth.Identity{
		UserID:   uuid.New(),
		Email:    "ann@library.local",
		Name:     "Ann",
		Role:     auth.RoleMember,
		MemberID: uuid.New(),
	}

	signIn := m.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := m.Identity(r.Context())
		require.False(t, ok)
		require.NoError(t, m.SignIn(r.Context(), want))
		m.FlashSuccess(r.Context(), "welcome")
	}))
	rec := httptest.NewRecorder()
	signIn.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "library_session", cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)

	read := m.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := m.Identity(r.Context())
		require.True(t, ok)
		require.Equal(t, want, got)
		require.Equal(t, Flash{Success: "welcome"}, m.PopFlash(r.Context()))
		require.Equal(t, Flash{}, m.PopFlash(r.Context()))
		require.NoError(t, m.SignOut(r.Context()))
		_, ok = m.Identity(r.Context())
		require.False(t, ok)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	read.ServeHTTP(httptest.NewRecorder(), req)
}

func TestManager_LibrarianHasNoMember(t *testing.T) {
	t.Parallel()
	m := newTestManager()
	h := m.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.SignIn(r.Context(), auth.Identity{UserID: uuid.New(), Name: "Administrator", Role: auth.RoleLibrarian}))
		got, ok := m.Identity(r.Context())
		require.True(t, ok)
		require.True(t, got.IsLibrarian())
		require.Equal(t, uuid.Nil, got.MemberID)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestManager_Peek(t *testing.T) {
	t.Parallel()
	m := newTestManager()
	want := auth.Identity{UserID: uuid.New(), Name: "Administrator", Role: auth.RoleLibrarian}

	rec := httptest.NewRecorder()
	m.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.SignIn(r.Context(), want))
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))

	req := httptest.NewRequest(http.MethodGet, "/hub", nil)
	_, ok := m.Peek(req)
	require.False(t, ok)

	req.AddCookie(rec.Result().Cookies()[0])
	got, ok := m.Peek(req)
	require.True(t, ok)
	require.Equal(t, want, got)
}
