package surface

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	"github.com/woozymasta/quakemap/assets"
)

// PageTitle is the title of the map page.
const PageTitle = "Earthquakes and Tectonic Plates"

type pageData struct {
	Title string
	CSS   template.CSS
	JS    template.JS
	View  View
}

// Page renders the map page for the current view.
type Page struct {
	tmpl *template.Template
	m    *minify.M
	css  string
	js   string
}

// NewPage parses the embedded template and minifies the static CSS and JS once.
func NewPage() (*Page, error) {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)

	cssMin, err := m.String("text/css", assets.Style)
	if err != nil {
		return nil, fmt.Errorf("minify css: %w", err)
	}

	jsMin, err := m.String("text/javascript", assets.Script)
	if err != nil {
		return nil, fmt.Errorf("minify js: %w", err)
	}

	tmpl, err := template.New("index").Parse(assets.IndexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	return &Page{tmpl: tmpl, m: m, css: cssMin, js: jsMin}, nil
}

// Render executes the template for v and minifies the result.
func (p *Page) Render(v View) ([]byte, error) {
	var buf bytes.Buffer
	err := p.tmpl.Execute(&buf, pageData{
		Title: PageTitle,
		CSS:   template.CSS(p.css),
		JS:    template.JS(p.js),
		View:  v,
	})
	if err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	out, err := p.m.Bytes("text/html", buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("minify html: %w", err)
	}

	return out, nil
}
