// Package swagger serves the OpenAPI document of the control API and a
// plain HTML index built from it.
package swagger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Error constants.
var (
	ErrServe = errors.New("swagger serve failed")
)

// OpenAPI contains the embedded OpenAPI YAML specification.
//
//go:embed openapi.yaml
var OpenAPI []byte

// Operation is one documented route.
type Operation struct {
	Method  string
	Path    string
	Summary string
}

type document struct {
	Info struct {
		Title   string `yaml:"title"`
		Version string `yaml:"version"`
	} `yaml:"info"`
	Paths map[string]map[string]struct {
		Summary string `yaml:"summary"`
	} `yaml:"paths"`
}

// Operations lists the documented routes sorted by path then method.
func Operations() ([]Operation, error) {
	var doc document
	if err := yaml.Unmarshal(OpenAPI, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServe, err)
	}
	var ops []Operation
	for path, methods := range doc.Paths {
		for method, op := range methods {
			ops = append(ops, Operation{Method: strings.ToUpper(method), Path: path, Summary: op.Summary})
		}
	}
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Path != ops[j].Path {
			return ops[i].Path < ops[j].Path
		}
		return ops[i].Method < ops[j].Method
	})
	return ops, nil
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html>
  <head><meta charset="utf-8"><title>API Docs</title></head>
  <body>
    <h1>API Docs</h1>
    <p><a href="/openapi.yaml">openapi.yaml</a></p>
    <table>
      {{- range .}}
      <tr><td>{{.Method}}</td><td><code>{{.Path}}</code></td><td>{{.Summary}}</td></tr>
      {{- end}}
    </table>
  </body>
</html>
`))

// Register attaches the docs routes to mux.
// Routes:
//
//	GET /api-docs      -> HTML index of the operations
//	GET /openapi.yaml  -> Embedded OpenAPI document
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("/api-docs", func(w http.ResponseWriter, r *http.Request) {
		ops, err := Operations()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = indexTemplate.Execute(w, ops)
	})

	mux.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})
}
