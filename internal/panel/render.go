package panel

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer renders the control surface page from the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded template bundle.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("panel").Funcs(template.FuncMap{
		"fmtValue": FormatReadout,
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse panel templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the HTML page for the view.
func (r *Renderer) Render(w io.Writer, view *View) error {
	if err := r.tmpl.ExecuteTemplate(w, "panel.tmpl", view); err != nil {
		return fmt.Errorf("render panel: %w", err)
	}
	return nil
}
