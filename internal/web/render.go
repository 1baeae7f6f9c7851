package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/yenulab/yenu/internal/errors"
	"github.com/yenulab/yenu/internal/recipe"
	"github.com/yenulab/yenu/internal/store"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "recipes"
}

// ListPageData is the template data for the recipe list page.
type ListPageData struct {
	PageData
	Query      string
	Tag        string
	Ingredient string
	Result     *store.SearchOutput
	PrevPage   int
	NextPage   int
}

// renderedStep pairs a step with its markdown-rendered text.
type renderedStep struct {
	HTML      template.HTML
	ImagePath string
}

// DetailPageData is the template data for the recipe detail page.
type DetailPageData struct {
	PageData
	Slug   string
	Recipe *recipe.Recipe
	Steps  []renderedStep
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string) *Renderer {
	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}

	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"list":   "list.html",
		"detail": "detail.html",
		"error":  "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
	}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and status code.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		log.Printf("template %q not found", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("template execution error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError writes an error response with content negotiation: JSON for
// API clients, a full error page otherwise.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	var yErr *errors.Error
	if !stderrors.As(err, &yErr) {
		yErr = errors.NewInternal(err)
	}

	// Internal errors carry os-level detail (file paths); log the real
	// message and report a generic one.
	message := yErr.Message
	if yErr.Code == errors.ErrInternal {
		log.Printf("internal error: %s", yErr.Message)
		message = "an internal error occurred"
	}

	if wantsJSON(req) {
		errorObj := map[string]any{
			"code":    string(yErr.Code),
			"message": message,
			"status":  yErr.Status,
		}
		if yErr.Code != errors.ErrInternal && yErr.Details != nil {
			errorObj["details"] = yErr.Details
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(yErr.Status)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": errorObj})
		return
	}

	r.renderPageStatus(w, yErr.Status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", yErr.Status),
			Version: r.version,
		},
		StatusCode: yErr.Status,
		Message:    message,
	})
}

// wantsJSON reports whether the request should get a JSON response.
func wantsJSON(req *http.Request) bool {
	return strings.HasPrefix(req.URL.Path, "/api/") ||
		strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts markdown text to HTML using goldmark.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}
