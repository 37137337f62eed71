package handler

import (
	"embed"
	"html/template"
	"io/fs"
	"path"
)

const (
	baseTemplate = "base.html"
	tmplPath     = "templates"
)

//go:embed templates/*.html
var templateFS embed.FS

// MustLoadTemplates parses every page template together with base.html.
func MustLoadTemplates() map[string]*template.Template {
	return mustLoadTemplates(templateFS, tmplPath)
}

func mustLoadTemplates(fsys fs.FS, dir string) map[string]*template.Template {
	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		panic("can't read templates: " + err.Error())
	}

	templates := make(map[string]*template.Template)
	for _, f := range files {
		if path.Ext(f.Name()) != ".html" || f.Name() == baseTemplate {
			continue
		}
		templates[f.Name()] = template.Must(template.New(baseTemplate).ParseFS(
			fsys,
			path.Join(dir, baseTemplate),
			path.Join(dir, f.Name()),
		))
	}
	return templates
}
