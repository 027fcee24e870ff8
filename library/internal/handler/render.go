package handler

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/library-catalog/library/internal/hub"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/pkg/auth"
	md "github.com/Astemirdum/library-catalog/pkg/middleware"
	"github.com/Astemirdum/library-catalog/pkg/session"
)

//go:embed templates
var templateFS embed.FS

// Renderer executes one page template inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02.01.2006")
	},
	"datetime": func(t time.Time) string { return t.Format(hub.ReviewDateLayout) },
	"dateptr": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("02.01.2006")
	},
	"isodate": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"str": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"num": func(v *int) string {
		if v == nil {
			return ""
		}
		return fmt.Sprint(*v)
	},
	"rating":  func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"overdue": func(l model.LoanView) bool { return l.IsOverdue(time.Now()) },
	"daysOverdue": func(l model.LoanView) int {
		return l.DaysOverdue(time.Now())
	},
	"join":     strings.Join,
	"selected": func(set map[uuid.UUID]bool, id uuid.UUID) bool { return set[id] },
	"eq":       func(a, b any) bool { return fmt.Sprint(a) == fmt.Sprint(b) },
}

func NewRenderer() *Renderer {
	layout := template.Must(template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html"))
	files, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		panic(err)
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		name := strings.TrimSuffix(path.Base(f), ".html")
		r.pages[name] = template.Must(template.Must(layout.Clone()).ParseFS(templateFS, f))
	}
	return r
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// page is what every template receives.
type page struct {
	Title     string
	User      auth.Identity
	Flash     session.Flash
	CSRFField string
	CSRFToken string
	Data      any
}

func (h *Handler) render(c echo.Context, code int, name, title string, data any) error {
	p := page{
		Title:     title,
		User:      md.IdentityFrom(c),
		CSRFField: md.CSRFFieldName,
		CSRFToken: md.CSRFToken(c),
		Data:      data,
	}
	if hasSession(c) {
		p.Flash = h.sessions.PopFlash(c.Request().Context())
	}
	return c.Render(code, name, p)
}
