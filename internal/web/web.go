// Package web renders the server-side pages.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/contact/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

// DashboardView is the data behind dashboard.html.
type DashboardView struct {
	Email    string
	Contacts []entity.Contact
	// Flash is set when the request carried ?success=...
	Flash   bool
	Success bool
}

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	t, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: t}, nil
}

// Render executes the named page into a buffer first so a template error
// never leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
