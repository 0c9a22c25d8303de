package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/tidehaven/authportal/internal/session"
)

//go:embed templates/*
var templatesFS embed.FS

// PageData is the payload every rendered page receives.
type PageData struct {
	Title           string
	IsAuthenticated bool
	Profile         *session.Profile
	Flashes         []session.Flash
}

// View holds the parsed page templates, each paired with the shared layout.
type View struct {
	pages map[string]*template.Template
}

func NewView() (*View, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"welcome", "dashboard"} {
		tmpl, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &View{pages: pages}, nil
}

func (v *View) Render(w http.ResponseWriter, page string, data PageData) error {
	tmpl, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("unknown page: %s", page)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tmpl.ExecuteTemplate(w, "layout", data)
}
