package web

import (
	"embed"
	"html/template"

	"etiket/internal/core"
)

// TemplatesFS embeds HTML templates for server-side rendering.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets (css/js).
//
//go:embed static/*
var StaticFS embed.FS

// Funcs are the helpers available to every template.
var Funcs = template.FuncMap{
	"lira": core.FormatLira,
}

// ParseTemplates parses every embedded template with Funcs.
func ParseTemplates() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(TemplatesFS, "templates/*.html")
}
