package server

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the shared layout from the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(name).ParseFS(TemplateFilesFS(), "layout.html", name)
}

// mustParseTemplate is used by handler constructors; a broken embedded template is a build defect.
func mustParseTemplate(name string) *template.Template {
	tmpl, err := ParseTemplate(name)
	if err != nil {
		panic("Failed to parse " + name + " template: " + err.Error())
	}
	return tmpl
}

func renderTemplate(w http.ResponseWriter, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", contentTypeHTML)
	w.Header().Set("Cache-Control", "no-store")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		log.Err(err).Str("template", tmpl.Name()).Msg("Failed to render template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}
