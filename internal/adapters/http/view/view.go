// Package view renders the course pages and progress fragments from
// embedded html/template files.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"rpotraining/internal/application/projections"
	"rpotraining/internal/application/router"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData is everything the layout needs for one full page.
type PageData struct {
	CourseTitle string
	View        router.View
	CSRFField   template.HTML
	Now         time.Time
}

type pageModel struct {
	PageData
	Year         int
	ErrorMessage string
}

type controlModel struct {
	Control   projections.SessionControl
	CSRFField template.HTML
}

// Renderer executes the embedded templates. Safe for concurrent use.
type Renderer struct {
	tpl *template.Template
}

var funcs = template.FuncMap{
	"pageHref": router.PageHref,
	// session fragments are course-owned markup and rendered verbatim
	"trusted": func(s string) template.HTML { return template.HTML(s) },
	"controlData": func(c projections.SessionControl, field template.HTML) controlModel {
		return controlModel{Control: c, CSRFField: field}
	},
}

// New parses the embedded templates.
// PRE: none
// POST: returns a ready renderer or a parse error
func New() (*Renderer, error) {
	tpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tpl: tpl}, nil
}

func (r *Renderer) fragment(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// ModuleBadge renders "<completed>/<total> sessions", the percentage and a
// bar whose width is the percentage.
func (r *Renderer) ModuleBadge(b projections.ModuleBadge) (template.HTML, error) {
	return r.fragment("badge", b)
}

// OverallBanner renders the course-wide indicator, hidden when nothing is complete.
func (r *Renderer) OverallBanner(b projections.OverallBanner) (template.HTML, error) {
	return r.fragment("banner", b)
}

// ContinuePrompt renders the link to the next incomplete session, hidden when there is none.
func (r *Renderer) ContinuePrompt(p projections.ContinuePrompt) (template.HTML, error) {
	return r.fragment("continue", p)
}

// Progress renders the banner, the continue prompt and every module badge.
// Served to clients that refresh indicators without a page load.
func (r *Renderer) Progress(cv projections.CatalogueView) (template.HTML, error) {
	return r.fragment("progress", cv)
}

// ModuleMenu renders a module's session list and its back control.
func (r *Renderer) ModuleMenu(m projections.ModuleMenu) (template.HTML, error) {
	return r.fragment("menu", m)
}

// CompletionControl renders the mark-complete form for a session.
func (r *Renderer) CompletionControl(c projections.SessionControl, csrfField template.HTML) (template.HTML, error) {
	return r.fragment("control", controlModel{Control: c, CSRFField: csrfField})
}

// Page writes the full layout for a navigation result.
// PRE: p.View came from router.Navigate
// POST: nothing is written to w on template errors
func (r *Renderer) Page(w io.Writer, p PageData) error {
	if p.Now.IsZero() {
		p.Now = time.Now()
	}
	model := pageModel{
		PageData:     p,
		Year:         p.Now.Year(),
		ErrorMessage: router.ErrorMessage,
	}
	var buf bytes.Buffer
	if err := r.tpl.ExecuteTemplate(&buf, "layout.html", model); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
