package handler_test

import (
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/pkg/auth"
)

var csrfField = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// browser keeps cookies between page requests.
type browser struct {
	t       *testing.T
	f       *fixture
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, f *fixture) *browser {
	return &browser{t: t, f: f, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(r *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	b.f.router.ServeHTTP(w, r)
	for _, c := range w.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return w
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, target, http.NoBody))
}

func (b *browser) post(target string, form url.Values) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("Referer", "http://example.com"+target)
	return b.do(r)
}

// token reads the CSRF field rendered into a page.
func (b *browser) token(page string) string {
	m := csrfField.FindStringSubmatch(page)
	require.Len(b.t, m, 2, "csrf field not rendered")
	return html.UnescapeString(m[1])
}

func TestPages_HomeRedirects(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	w := newBrowser(t, f).get("/")
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))
}

func TestPages_LibrarianPagesNeedLogin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	w := newBrowser(t, f).get("/admin")
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/login?next=%2Fadmin", w.Header().Get("Location"))
}

func TestPages_FormWithoutCSRFIsRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	w := newBrowser(t, f).post("/login", url.Values{"email": {"admin@library.local"}, "password": {"admin123"}})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestPages_LoginFlow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	b := newBrowser(t, f)

	page := b.get("/login?next=/loans")
	require.Equal(t, http.StatusOK, page.Code)
	require.Contains(t, page.Body.String(), `name="next" value="/loans"`)
	token := b.token(page.Body.String())

	f.svc.EXPECT().Authenticate(gomock.Any(), "admin@library.local", "wrong").Return(auth.Identity{}, errs.ErrInvalidCredentials)
	w := b.post("/login", url.Values{
		"email":      {"admin@library.local"},
		"password":   {"wrong"},
		"csrf_token": {token},
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Invalid email or password.")

	f.svc.EXPECT().Authenticate(gomock.Any(), "admin@library.local", "admin123").Return(librarian, nil)
	w = b.post("/login", url.Values{
		"email":      {"admin@library.local"},
		"password":   {"admin123"},
		"csrf_token": {token},
		"next":       {"/loans"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/loans", w.Header().Get("Location"))

	f.svc.EXPECT().ListLoans(gomock.Any(), librarian, model.LoanFilterOverdue).Return([]model.LoanView{}, nil)
	w = b.get("/loans?status=overdue")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Welcome, Administrator!")

	// a member session is turned away from librarian pages
	f.svc.EXPECT().Authenticate(gomock.Any(), "anna@mail.ru", "secret1").Return(member, nil)
	w = b.post("/login", url.Values{
		"email":      {"anna@mail.ru"},
		"password":   {"secret1"},
		"csrf_token": {token},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/dashboard", w.Header().Get("Location"))

	w = b.get("/members")
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/access-denied", w.Header().Get("Location"))
}

func TestPages_ReturnFailureBecomesFlash(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	b := newBrowser(t, f)
	token := b.token(b.get("/login").Body.String())

	f.svc.EXPECT().Authenticate(gomock.Any(), "admin@library.local", "admin123").Return(librarian, nil)
	b.post("/login", url.Values{"email": {"admin@library.local"}, "password": {"admin123"}, "csrf_token": {token}})

	f.svc.EXPECT().ReturnLoan(gomock.Any(), librarian, bookID).Return(model.Loan{}, errs.ErrAlreadyReturned)
	w := b.post("/loans/"+bookID.String()+"/return", url.Values{"csrf_token": {token}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/loans/"+bookID.String(), w.Header().Get("Location"))

	f.svc.EXPECT().GetLoan(gomock.Any(), librarian, bookID).Return(model.LoanView{
		Loan:      model.Loan{ID: bookID, Status: model.LoanReturned},
		BookTitle: "Go",
	}, nil)
	w = b.get("/loans/" + bookID.String())
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "loan already returned")
}
