// Package views renders the HTML pages. Most pages are html/template files
// combined with the shared layout; templ components are wrapped in the same
// layout through withLayout. Every page is exposed as a templ.Component.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/pavelanni/protu/internal/api"
	appI18n "github.com/pavelanni/protu/internal/i18n"
	"github.com/pavelanni/protu/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = mustParse(templateFS)

// Notice is a flash message shown at the top of a page.
type Notice struct {
	Error bool
	Text  string
}

// Page is embedded by every page's data.
type Page struct {
	Title  string
	Notice *Notice
}

func mustParse(fsys fs.FS) map[string]*template.Template {
	names, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		panic(err)
	}
	out := make(map[string]*template.Template)
	for _, name := range names {
		base := strings.TrimSuffix(strings.TrimPrefix(name, "templates/"), ".html")
		if base == "layout" || base == "partials" {
			continue
		}
		t := template.New("layout.html").Funcs(funcMap(context.Background()))
		out[base] = template.Must(t.ParseFS(fsys, "templates/layout.html", "templates/partials.html", name))
	}
	return out
}

func funcMap(ctx context.Context) template.FuncMap {
	return template.FuncMap{
		"T":  func(id string) string { return appI18n.T(ctx, id) },
		"Tp": func(id string, n int) string { return appI18n.Tp(ctx, id, n) },
		"Td": func(id string, kv ...any) string {
			data := make(map[string]any, len(kv)/2)
			for i := 0; i+1 < len(kv); i += 2 {
				data[fmt.Sprint(kv[i])] = kv[i+1]
			}
			return appI18n.Td(ctx, id, data)
		},
		"path": func(p string) string { return model.BasePathFromContext(ctx) + p },
		"csrf": func() string { return model.CSRFTokenFromContext(ctx) },
		"lang": func() string { return appI18n.LangFromContext(ctx) },
		"user": func() string {
			if s := model.SessionFromContext(ctx); s != nil {
				return s.Username
			}
			return ""
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return "N/A"
			}
			return t.Format("Jan 2, 2006")
		},
		"slug":    api.CoursePath,
		"percent": func(f float64) string { return fmt.Sprintf("%.0f%%", f) },
	}
}

// render executes page name with data, binding the template functions to ctx.
func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		base, ok := pages[name]
		if !ok {
			return fmt.Errorf("unknown page %q", name)
		}
		t, err := base.Clone()
		if err != nil {
			return fmt.Errorf("clone template %s: %w", name, err)
		}
		if err := t.Funcs(funcMap(ctx)).ExecuteTemplate(w, "layout.html", data); err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		return nil
	})
}

type shellData struct {
	Page
	Body template.HTML
}

// withLayout renders body inside the shared layout.
func withLayout(p Page, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		html, err := templ.ToGoHTML(ctx, body)
		if err != nil {
			return fmt.Errorf("render body: %w", err)
		}
		return render("shell", shellData{Page: p, Body: html}).Render(ctx, w)
	})
}
