package websvc

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/mkrupp/chroniclex/internal/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	pageList     = "list"
	pageDetail   = "detail"
	pageForm     = "form"
	pageDelete   = "delete"
	pageAuth     = "auth"
	pagePending  = "pending"
	pageNotFound = "not_found"
)

//nolint:gochecknoglobals
var pageNames = []string{pageList, pageDetail, pageForm, pageDelete, pageAuth, pagePending, pageNotFound}

// page is what every template renders: the shared layout fields plus the
// page-specific Data.
type page struct {
	Title   string
	Viewer  domain.Viewer
	Flashes []string
	Error   string
	Data    any
}

// pages holds one template set per page, each parsed together with the layout.
type pages map[string]*template.Template

func parsePages(funcs template.FuncMap) (pages, error) {
	out := make(pages, len(pageNames))

	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}

		out[name] = t
	}

	return out, nil
}

// render executes the named page into a buffer first, so a template error
// never leaves a half-written response.
func (p pages) render(w http.ResponseWriter, status int, name string, data page) error {
	t, ok := p[name]
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownPage, name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return nil
}

// pagination describes the page links of the post list.
type pagination struct {
	Page       int
	TotalPages int
}

func (p pagination) HasPrev() bool { return p.Page > 1 }
func (p pagination) HasNext() bool { return p.Page < p.TotalPages }
func (p pagination) Prev() int     { return p.Page - 1 }
func (p pagination) Next() int     { return p.Page + 1 }

// Pages lists every page number.
func (p pagination) Pages() []int {
	out := make([]int, 0, p.TotalPages)
	for i := 1; i <= p.TotalPages; i++ {
		out = append(out, i)
	}

	return out
}
