package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Astemirdum/library-catalog/library/internal/hub"
	"github.com/Astemirdum/library-catalog/pkg/auth"
	md "github.com/Astemirdum/library-catalog/pkg/middleware"
	"github.com/Astemirdum/library-catalog/pkg/session"
	"github.com/Astemirdum/library-catalog/pkg/validate"
	_ "github.com/Astemirdum/library-catalog/swagger"
)

// Groups is the book group registry behind the push channel.
type Groups interface {
	Join(bookID string, s hub.Subscriber)
	Leave(bookID string, s hub.Subscriber)
	Drop(s hub.Subscriber) []string
	Publish(ctx context.Context, bookID string, e hub.Event) error
}

type Config struct {
	CSRFKey       []byte
	SecureCookies bool
}

type Handler struct {
	svc      LibraryService
	groups   Groups
	sessions *session.Manager
	tokens   md.TokenParser
	views    *Renderer
	cfg      Config
	log      *zap.Logger
}

func New(svc LibraryService, groups Groups, sessions *session.Manager, tokens md.TokenParser, cfg Config, log *zap.Logger) *Handler {
	return &Handler{
		svc:      svc,
		groups:   groups,
		sessions: sessions,
		tokens:   tokens,
		views:    NewRenderer(),
		cfg:      cfg,
		log:      log.Named("handler"),
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS  = 10
		apiRPS   = 100
		pageRPS  = 50
		loginRPS = rate.Limit(0.2)
		loginMax = 5
	)
	e.HideBanner = true
	e.JSONSerializer = jsonSerializer{}
	e.Renderer = h.views
	e.Validator = validate.NewCustomValidator()
	e.HTTPErrorHandler = h.errorHandler

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))
	e.Use(md.SecurityHeaders)
	e.Use(middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)))
	e.Use(middleware.RequestID())

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	// The upgrade needs the raw writer, so the push channel stays outside the session middleware.
	e.GET("/hub", h.Hub)

	api := e.Group("/api",
		md.NewRateLimiter(apiRPS),
		md.Authenticate(h.tokens, nil),
	)
	api.POST("/auth/login", h.Login, md.NewLoginRateLimiter(loginRPS, loginMax))

	api.GET("/books", h.ListBooks)
	api.GET("/books/search", h.SearchBooks)
	api.GET("/books/:id", h.GetBook)
	api.GET("/books/:id/stats", h.BookStats)

	librarian := api.Group("", md.RequireAPI(auth.ManageCatalog))
	librarian.POST("/books", h.CreateBook)
	librarian.PUT("/books/:id", h.UpdateBook)
	librarian.DELETE("/books/:id", h.DeleteBook)
	librarian.POST("/loans", h.CreateLoan)
	librarian.POST("/loans/:id/return", h.ReturnLoan)

	api.POST("/books/:id/reviews", h.SubmitReview, md.RequireAPI(auth.SubmitReview))
	api.PUT("/reviews/:id", h.EditReview, requireLogin)
	api.DELETE("/reviews/:id", h.DeleteReview, requireLogin)

	pages := e.Group("",
		md.NewRateLimiter(pageRPS),
		echo.WrapMiddleware(h.sessions.LoadAndSave),
		markSession,
		md.CSRF(h.cfg.CSRFKey, h.cfg.SecureCookies),
		md.Authenticate(h.tokens, h.sessions),
	)
	h.pageRoutes(pages, md.NewLoginRateLimiter(loginRPS, loginMax))

	return e
}

const sessionLoadedKey = "session_loaded"

func markSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(sessionLoadedKey, true)
		return next(c)
	}
}

// hasSession reports whether the page session was loaded for this request.
func hasSession(c echo.Context) bool {
	loaded, _ := c.Get(sessionLoadedKey).(bool)
	return loaded
}

func requireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !md.IdentityFrom(c).Authenticated() {
			return echo.NewHTTPError(http.StatusUnauthorized, auth.ErrUnauthenticated.Error())
		}
		return next(c)
	}
}

func (h *Handler) Health(c echo.Context) error {
	if err := h.svc.Ping(c.Request().Context()); err != nil {
		h.log.Error("health", zap.Error(err))
		return c.String(http.StatusServiceUnavailable, "DB UNAVAILABLE")
	}
	return c.String(http.StatusOK, "OK")
}

func isAPI(c echo.Context) bool {
	p := c.Request().URL.Path
	return strings.HasPrefix(p, "/api/") || p == "/hub" || strings.HasPrefix(p, "/manage/") ||
		strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// errorHandler answers JSON on the API and renders the error page everywhere else.
func (h *Handler) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if isAPI(c) {
		c.Echo().DefaultHTTPErrorHandler(err, c)
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok && code < http.StatusInternalServerError {
			msg = m
		}
	}
	if code >= http.StatusInternalServerError {
		h.log.Error("page", zap.String("uri", c.Request().RequestURI), zap.Error(err))
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if rerr := h.render(c, code, "error", "Error", errorView{Status: code, Message: msg}); rerr != nil {
		h.log.Error("render error page", zap.Error(rerr))
	}
}
