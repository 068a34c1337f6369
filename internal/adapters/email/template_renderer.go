package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	texttemplate "text/template"

	"eventcrm/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

var htmlFuncs = template.FuncMap{
	// trusted marks staff-authored HTML as safe; recipient data never flows through it.
	"trusted": func(s string) template.HTML { return template.HTML(s) },
}

type templateRenderer struct {
	html *template.Template
	text *texttemplate.Template
}

// NewTemplateRenderer parses the embedded templates once and returns an EmailTemplateRenderer.
// Template "<name>" renders templates/<name>.html and templates/<name>.txt.
func NewTemplateRenderer() (domain.EmailTemplateRenderer, error) {
	h, err := template.New("html").Funcs(htmlFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	t, err := texttemplate.New("text").ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}
	return &templateRenderer{html: h, text: t}, nil
}

func (r *templateRenderer) Render(templateName string, data any) (string, string, error) {
	var htmlBuf, textBuf bytes.Buffer
	if err := r.html.ExecuteTemplate(&htmlBuf, templateName+".html", data); err != nil {
		return "", "", fmt.Errorf("render html: %w", err)
	}
	if err := r.text.ExecuteTemplate(&textBuf, templateName+".txt", data); err != nil {
		return "", "", fmt.Errorf("render text: %w", err)
	}
	return htmlBuf.String(), textBuf.String(), nil
}
