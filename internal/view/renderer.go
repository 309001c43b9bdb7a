// Package view renders named views. The request core only depends on the
// Renderer interface; the shipped implementation is a small html/template
// set compiled from embedded files.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer renders a named view with the given locals.
type Renderer interface {
	Render(w io.Writer, view string, data map[string]any) error
}

// TemplateRenderer renders views from the embedded template set.
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses the embedded templates.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	t, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &TemplateRenderer{templates: t}, nil
}

// Render implements Renderer.
func (r *TemplateRenderer) Render(w io.Writer, view string, data map[string]any) error {
	t := r.templates.Lookup(view)
	if t == nil {
		return fmt.Errorf("unknown view %q", view)
	}
	if err := t.Execute(w, data); err != nil {
		return fmt.Errorf("rendering view %q: %w", view, err)
	}
	return nil
}
