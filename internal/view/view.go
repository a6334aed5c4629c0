// Package view renders the dashboard's HTML pages.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/leadreach/leadreach/internal/model"
	"github.com/leadreach/leadreach/internal/service"
)

var (
	//go:embed templates/*.html
	templateFS embed.FS

	//go:embed static
	staticFS embed.FS
)

// Page names.
const (
	PageLogin     = "login"
	PageDashboard = "dashboard"
	PageDiscover  = "discover"
	PageGroup     = "group"
	PageNotFound  = "not_found"
	PageError     = "error"
)

var pages = []string{PageLogin, PageDashboard, PageDiscover, PageGroup, PageNotFound, PageError}

// View modes of the dashboard.
const (
	ViewCards = "cards"
	ViewTable = "table"
)

// NormalizeViewMode maps anything but "table" to cards.
func NormalizeViewMode(mode string) string {
	if mode == ViewTable {
		return ViewTable
	}
	return ViewCards
}

// Page is the data every template receives.
type Page struct {
	Title     string
	User      *model.User
	CSRFToken string
	Flashes   []model.Flash
	Content   any
}

// LoginContent backs the login form.
type LoginContent struct {
	Username string
	Next     string
	Error    string
}

// DashboardContent backs the group overview.
type DashboardContent struct {
	Stats    service.Stats
	Groups   []model.BusinessGroup
	Total    int
	Query    string
	ViewMode string
	Error    string
}

// Shown is the number of groups after filtering.
func (d DashboardContent) Shown() int {
	return len(d.Groups)
}

// DiscoverContent backs the discover form.
type DiscoverContent struct {
	Keywords string
	Cities   string
	Limit    int
	Error    string
}

// GroupContent backs the group details page.
type GroupContent struct {
	ID      string
	Details *model.GroupDetails
}

// Renderer executes the embedded templates.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page against the shared layout.
func New() (*Renderer, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("templates dir: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		tmpl, err := template.New("layout.html").Funcs(Funcs()).ParseFS(sub, "layout.html", name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render writes page with status. Output is buffered so a template error
// never leaves a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page *Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded stylesheet under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// Funcs returns the template helpers.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"join":       Join,
		"date":       Date,
		"number":     Number,
		"tel":        Tel,
		"pathEscape": url.PathEscape,
	}
}

// Join renders a list as "a, b".
func Join(items []string) string {
	return strings.Join(items, ", ")
}

// Date renders a time as YYYY-MM-DD, empty for the zero time.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// Number renders an integer with thousands separators.
func Number(n int) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

// Tel builds a tel: link for a phone number.
func Tel(phone string) template.URL {
	var b strings.Builder
	for _, r := range phone {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return template.URL("tel:" + b.String())
}
