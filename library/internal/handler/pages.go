package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/pkg/auth"
	md "github.com/Astemirdum/library-catalog/pkg/middleware"
)

func (h *Handler) pageRoutes(g *echo.Group, loginLimiter echo.MiddlewareFunc) {
	g.GET("/", h.Home)
	g.GET("/login", h.LoginPage)
	g.POST("/login", h.LoginForm, loginLimiter)
	g.POST("/logout", h.Logout)
	g.GET("/access-denied", h.AccessDenied)

	lib := g.Group("", md.RequirePage(auth.ManageCatalog))
	lib.GET("/admin", h.AdminPage)

	lib.GET("/books", h.BooksPage)
	lib.GET("/books/new", h.NewBookPage)
	lib.POST("/books", h.CreateBookForm)
	lib.GET("/books/:id", h.BookPage)
	lib.GET("/books/:id/edit", h.EditBookPage)
	lib.POST("/books/:id/edit", h.UpdateBookForm)
	lib.POST("/books/:id/delete", h.DeleteBookForm)
	lib.POST("/books/:id/toggle", h.ToggleBookForm)
	lib.GET("/books/:id/history", h.BookHistoryPage)

	lib.GET("/categories", h.CategoriesPage)
	lib.GET("/categories/new", h.NewCategoryPage)
	lib.POST("/categories", h.CreateCategoryForm)
	lib.GET("/categories/:id", h.CategoryPage)
	lib.GET("/categories/:id/edit", h.EditCategoryPage)
	lib.POST("/categories/:id/edit", h.UpdateCategoryForm)
	lib.POST("/categories/:id/delete", h.DeleteCategoryForm)

	lib.GET("/members", h.MembersPage)
	lib.GET("/members/new", h.NewMemberPage)
	lib.POST("/members", h.CreateMemberForm)
	lib.GET("/members/:id", h.MemberPage)
	lib.GET("/members/:id/edit", h.EditMemberPage)
	lib.POST("/members/:id/edit", h.UpdateMemberForm)
	lib.POST("/members/:id/toggle", h.ToggleMemberForm)
	lib.POST("/members/:id/delete", h.DeleteMemberForm)
	lib.GET("/members/:id/history", h.MemberHistoryPage)

	lib.GET("/loans", h.LoansPage)
	lib.GET("/loans/new", h.NewLoanPage)
	lib.POST("/loans", h.CreateLoanForm)
	lib.GET("/loans/:id", h.LoanPage)
	lib.POST("/loans/:id/return", h.ReturnLoanForm)

	mem := g.Group("", md.RequirePage(auth.ViewOwnLoans))
	mem.GET("/dashboard", h.DashboardPage)
	mem.GET("/catalog/:id", h.CatalogBookPage)
	mem.POST("/reviews", h.SubmitReviewForm, md.RequirePage(auth.SubmitReview))
	mem.GET("/reviews/:id/edit", h.EditReviewPage)
	mem.POST("/reviews/:id/edit", h.EditReviewForm)
	mem.POST("/reviews/:id/delete", h.DeleteReviewForm)
}

type errorView struct {
	Status  int
	Message string
}

type loginView struct {
	Email string
	Next  string
	Error string
}

// pageError sends access problems to their pages and lets the error handler render the rest.
func (h *Handler) pageError(c echo.Context, err error) error {
	switch code := statusOf(err); code {
	case http.StatusUnauthorized:
		return c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(c.Request().URL.RequestURI()))
	case http.StatusForbidden:
		return c.Redirect(http.StatusSeeOther, "/access-denied")
	case http.StatusInternalServerError:
		return err
	default:
		return echo.NewHTTPError(code, err.Error()).SetInternal(err)
	}
}

// done finishes a form action: a flash message and a redirect on success or on a business failure.
func (h *Handler) done(c echo.Context, err error, okMsg, okURL, failURL string) error {
	ctx := c.Request().Context()
	if err == nil {
		if okMsg != "" {
			h.sessions.FlashSuccess(ctx, okMsg)
		}
		return c.Redirect(http.StatusSeeOther, okURL)
	}
	switch statusOf(err) {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError:
		return h.pageError(c, err)
	}
	h.sessions.FlashError(ctx, err.Error())
	return c.Redirect(http.StatusSeeOther, failURL)
}

func pageID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusNotFound, "page not found")
	}
	return id, nil
}

func homeFor(id auth.Identity) string {
	switch {
	case id.IsLibrarian():
		return "/admin"
	case id.IsMember():
		return "/dashboard"
	}
	return "/login"
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}

func (h *Handler) Home(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, homeFor(md.IdentityFrom(c)))
}

func (h *Handler) LoginPage(c echo.Context) error {
	if id := md.IdentityFrom(c); id.Authenticated() {
		return c.Redirect(http.StatusSeeOther, homeFor(id))
	}
	return h.render(c, http.StatusOK, "login", "Sign in", loginView{Next: safeNext(c.QueryParam("next"))})
}

func (h *Handler) LoginForm(c echo.Context) error {
	ctx := c.Request().Context()
	view := loginView{
		Email: strings.TrimSpace(c.FormValue("email")),
		Next:  safeNext(c.FormValue("next")),
	}
	req := model.LoginRequest{Email: view.Email, Password: c.FormValue("password")}
	if err := c.Validate(&req); err != nil {
		view.Error = "Enter a valid email and password."
		return h.render(c, http.StatusBadRequest, "login", "Sign in", view)
	}
	id, err := h.svc.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidCredentials) {
			h.log.Info("login failed", zap.String("email", req.Email), zap.String("ip", c.RealIP()))
			view.Error = "Invalid email or password."
			return h.render(c, http.StatusUnauthorized, "login", "Sign in", view)
		}
		return err
	}
	if err := h.sessions.SignIn(ctx, id); err != nil {
		return err
	}
	h.log.Info("login", zap.String("user", id.UserID.String()), zap.String("role", id.Role.String()))
	h.sessions.FlashSuccess(ctx, "Welcome, "+id.Name+"!")
	if view.Next != "" {
		return c.Redirect(http.StatusSeeOther, view.Next)
	}
	return c.Redirect(http.StatusSeeOther, homeFor(id))
}

func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.sessions.SignOut(ctx); err != nil {
		return err
	}
	h.sessions.FlashSuccess(ctx, "You have been signed out.")
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) AccessDenied(c echo.Context) error {
	return h.render(c, http.StatusForbidden, "access_denied", "Access denied", nil)
}

func (h *Handler) AdminPage(c echo.Context) error {
	d, err := h.svc.AdminDashboard(c.Request().Context(), md.IdentityFrom(c))
	if err != nil {
		return h.pageError(c, err)
	}
	return h.render(c, http.StatusOK, "admin", "Dashboard", d)
}

func (h *Handler) DashboardPage(c echo.Context) error {
	id := md.IdentityFrom(c)
	if id.IsLibrarian() {
		return c.Redirect(http.StatusSeeOther, "/admin")
	}
	d, err := h.svc.MemberDashboard(c.Request().Context(), id, model.ParseMemberTab(c.QueryParam("tab")))
	if err != nil {
		return h.pageError(c, err)
	}
	return h.render(c, http.StatusOK, "dashboard", "My library", d)
}

func formInt(c echo.Context, name string) (*int, error) {
	s := strings.TrimSpace(c.FormValue(name))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, errs.Validation(name + " must be a number")
	}
	return &v, nil
}

func formDate(c echo.Context, name string) (*time.Time, error) {
	s := strings.TrimSpace(c.FormValue(name))
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, errs.Validation(name + " must be a date")
	}
	return &t, nil
}

func formBool(c echo.Context, name string) bool {
	switch c.FormValue(name) {
	case "on", "true", "1":
		return true
	}
	return false
}

func formIDs(c echo.Context, name string) ([]uuid.UUID, error) {
	params, err := c.FormParams()
	if err != nil {
		return nil, errs.Validation("invalid form")
	}
	ids := make([]uuid.UUID, 0, len(params[name]))
	for _, v := range params[name] {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, errs.Validation(name + " is invalid")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func validateForm(c echo.Context, req any) error {
	if err := c.Validate(req); err != nil {
		return errs.Validation(err.Error())
	}
	return nil
}
