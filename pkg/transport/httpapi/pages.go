package httpapi

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

const pageStyle = `
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    a { color: #0066cc; }
    h1, h2, h3 { color: #0066cc; }
    table { border-collapse: collapse; width: 100%; max-width: 900px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; vertical-align: top; }
    th { background: #f0f4f8; color: #0066cc; }
    .meta { color: #333; font-size: 0.9rem; margin-top: 0.5rem; }
    .back { margin-bottom: 1rem; }
    .btn { display: inline-block; padding: 0.5rem 1rem; background: #0066cc; color: #fff; text-decoration: none; border-radius: 4px; }
    code { background: #f5f5f5; padding: 0 0.25rem; }
`

const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Snowbird</title>
  <style>{{.Style}}</style>
</head>
<body>
  <h1>Snowbird</h1>
  <p class="meta">{{.Healthy}}</p>
  {{if not .Resources}}
  <p>No resources registered.</p>
  {{else}}
  <table>
    <thead><tr><th>Resource</th><th>Version</th><th>Actions</th><th>Description</th></tr></thead>
    <tbody>
      {{range .Resources}}
      <tr>
        <td><a href="/resources/{{.Name}}/">{{.Name}}</a></td>
        <td>{{.Version}}</td>
        <td>{{len .Actions}}</td>
        <td>{{.Description}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>
  {{end}}
</body>
</html>
`

const resourcePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Name}} – Snowbird</title>
  <style>{{.Style}}</style>
</head>
<body>
  <p class="back"><a href="/">← All resources</a></p>
  <h1>{{.Name}}</h1>
  {{if .Description}}<p class="meta">{{.Description}}</p>{{end}}
  <p><a href="/resources/{{.Name}}/docs" class="btn">View API (Swagger)</a></p>
  {{range .Actions}}
  <h3>{{.Name}}</h3>
  {{if .Description}}<p>{{.Description}}</p>{{end}}
  <p><code>sb {{$.Name}} {{.Name}}{{range .Params}}{{if .Required}} &lt;{{.Name}}&gt;{{else}} [--{{.Name}}]{{end}}{{end}}</code></p>
  {{if .Params}}
  <table>
    <thead><tr><th>Parameter</th><th>Kind</th><th>Required</th><th>Default</th><th>Description</th></tr></thead>
    <tbody>
      {{range .Params}}
      <tr><td>{{.Name}}</td><td>{{.Kind}}</td><td>{{.Required}}</td><td>{{if not .Required}}{{.Default}}{{end}}</td><td>{{.Description}}</td></tr>
      {{end}}
    </tbody>
  </table>
  {{end}}
  {{end}}
</body>
</html>
`

const swaggerUIPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>API – {{.Name}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      SwaggerUIBundle({
        url: "{{.SpecURL}}",
        dom_id: "#swagger-ui",
        presets: [
          SwaggerUIBundle.presets.apis,
          SwaggerUIBundle.SwaggerUIStandalonePreset
        ]
      });
    };
  </script>
</body>
</html>
`

var (
	homeTmpl     = template.Must(template.New("home").Parse(homePageTemplate))
	resourceTmpl = template.Must(template.New("resource").Parse(resourcePageTemplate))
	swaggerTmpl  = template.Must(template.New("swagger").Parse(swaggerUIPage))
)

type homeData struct {
	Style     template.CSS
	Healthy   string
	Resources []registry.ResourceDescription
}

type resourceData struct {
	Style template.CSS
	registry.ResourceDescription
}

func render(w http.ResponseWriter, tmpl *template.Template, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		slog.Error(fmt.Sprintf("%s - %s template execute: %v", logPrefix, tmpl.Name(), err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) describe(name string) (registry.ResourceDescription, bool) {
	for _, d := range s.dispatcher.Registry().Describe() {
		if d.Name == name {
			return d, true
		}
	}
	return registry.ResourceDescription{}, false
}

func (s *Server) handleHome() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		render(w, homeTmpl, homeData{
			Style:     template.CSS(pageStyle),
			Healthy:   s.healthy(),
			Resources: s.dispatcher.Registry().Describe(),
		})
	}
}

func (s *Server) handleResourceDetail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		desc, ok := s.describe(chi.URLParam(r, "resource"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		render(w, resourceTmpl, resourceData{Style: template.CSS(pageStyle), ResourceDescription: desc})
	}
}

func (s *Server) handleDocs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		desc, ok := s.describe(chi.URLParam(r, "resource"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		specURL := scheme + "://" + r.Host + "/resources/" + url.PathEscape(desc.Name) + "/openapi.json"
		render(w, swaggerTmpl, map[string]string{"Name": desc.Name, "SpecURL": specURL})
	}
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	desc, ok := s.describe(chi.URLParam(r, "resource"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	writeJSON(w, http.StatusOK, buildOpenAPISpec(desc))
}
