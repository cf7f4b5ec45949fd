package dashboard

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	pageTmpl  = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))
	errorTmpl = template.Must(template.ParseFS(templateFS, "templates/error.html"))
)

// Render writes the dashboard HTML for p.
func Render(w io.Writer, p *Page) error {
	return pageTmpl.Execute(w, p)
}

// ErrorPage is the operator-facing page shown when the dataset cannot be
// loaded. Nothing else is rendered in that case.
type ErrorPage struct {
	Title   string
	Heading string
	Detail  string
}

// RenderError writes the dataset failure page.
func RenderError(w io.Writer, e ErrorPage) error {
	if e.Title == "" {
		e.Title = DefaultTitle
	}
	return errorTmpl.Execute(w, e)
}
