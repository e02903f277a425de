// Package views is the default page set for folio: one embedded
// html/template page per view, wrapped in the shared layout and exposed as
// templ components.
package views

import (
	"embed"
	"html/template"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/folio"
	"github.com/eringen/folio/markdown"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"markdown": renderMarkdown,
	"date":     formatDate,
	"excerpt":  folio.Excerpt,
}

// Default returns the bundled ViewFuncs. It panics if an embedded template
// fails to parse, which only happens when the binary itself is broken.
func Default() folio.ViewFuncs {
	return folio.ViewFuncs{
		About:      page("about"),
		Home:       page("home"),
		Articles:   page("articles"),
		Categories: page("categories"),
		AddArticle: page("addArticle"),
		Article:    page("article"),
		Modify:     page("modify"),
		NotFound:   page("notFound"),
	}
}

func page(name string) func(folio.ViewModel) templ.Component {
	t := template.Must(template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
		"templates/layout.html",
		"templates/"+name+".html",
	))
	return func(vm folio.ViewModel) templ.Component {
		return templ.FromGoHTML(t, vm)
	}
}

// renderMarkdown falls back to escaped source text if conversion fails.
func renderMarkdown(src string) template.HTML {
	out, err := markdown.Render(src)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}
