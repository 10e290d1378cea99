package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"maps"
	"path"
	"strings"
	"sync"
)

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	Imports    []ImportInfo `json:"imports"`
	CSSBundle  string       `json:"cssBundle"`
}

type ImportInfo struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external"`
}

// Pipeline builds the static bundles and renders pages that reference them.
type Pipeline struct {
	config   Config
	metadata *BuildMetadata
	pages    map[string]*template.Template
	mu       sync.RWMutex
}

// New creates a new asset pipeline with the given configuration
func New(config Config) *Pipeline {
	return &Pipeline{
		config: config,
	}
}

// NewWithTemplates creates a pipeline and parses the pages in fsys.
//
// fsys must contain layout.html, which defines the "layout" template, and a
// pages/ directory with one file per page. Each page is parsed into its own
// copy of the layout so pages can define the same blocks.
func NewWithTemplates(config Config, fsys fs.FS, customFuncs template.FuncMap) (*Pipeline, error) {
	p := New(config)

	funcs := template.FuncMap{
		"marshal": marshal,
		"scripts": p.Scripts,
		"styles":  p.Styles,
	}

	// Merge custom functions
	maps.Copy(funcs, customFuncs)

	base, err := template.New("layout.html").Funcs(funcs).ParseFS(fsys, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	files, err := fs.Glob(fsys, "pages/*.html")
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, errors.New("no page templates found")
	}

	p.pages = make(map[string]*template.Template, len(files))
	for _, file := range files {
		tmpl, err := template.Must(base.Clone()).ParseFS(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", file, err)
		}
		p.pages[strings.TrimSuffix(path.Base(file), ".html")] = tmpl
	}

	return p, nil
}

// Render executes the layout with the named page.
func (p *Pipeline) Render(w io.Writer, page string, data any) error {
	tmpl, ok := p.pages[page]
	if !ok {
		return fmt.Errorf("page template %q not found", page)
	}

	return tmpl.ExecuteTemplate(w, "layout", data)
}

func marshal(value any) string {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		panic(errors.New("context can only be json serializable"))
	}

	return buf.String()
}
