package assets

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/wolfeidau/bundlekit/internal/manifest"
)

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	CSSBundle  string       `json:"cssBundle"`
	Imports    []ImportInfo `json:"imports"`
	Exports    []string     `json:"exports"`
}

type ImportInfo struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// Pipeline runs esbuild for a manifest and tracks the resulting outputs
type Pipeline struct {
	config   Config
	manifest *manifest.Manifest
	rules    []compiledRule
	metadata *BuildMetadata
	tmpl     *template.Template
	mu       sync.RWMutex
}

// New creates a pipeline for the manifest, loading the HTML template named by its html plugin
func New(m *manifest.Manifest, config Config) (*Pipeline, error) {
	if m == nil {
		return nil, errors.New("manifest is required")
	}

	root, err := filepath.Abs(config.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	config.Root = root

	if config.MetafilePath == "" {
		config.MetafilePath = filepath.Join(m.Output.Path, "meta.json")
	}
	if !filepath.IsAbs(config.MetafilePath) {
		config.MetafilePath = filepath.Join(root, config.MetafilePath)
	}

	rules, err := compileRules(m.Module.Rules, config.Root)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		config:   config,
		manifest: m,
		rules:    rules,
	}

	tmpl, err := loadTemplate(m)
	if err != nil {
		return nil, err
	}
	p.tmpl = tmpl

	return p, nil
}

// LoadMetafile parses an esbuild metafile and replaces the cached metadata
func (p *Pipeline) LoadMetafile(data []byte) error {
	var metadata BuildMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return fmt.Errorf("failed to parse metafile: %w", err)
	}

	p.mu.Lock()
	p.metadata = &metadata
	p.mu.Unlock()
	return nil
}

func (p *Pipeline) writeMetafile(data string) error {
	if err := os.MkdirAll(filepath.Dir(p.config.MetafilePath), 0o750); err != nil {
		return err
	}
	return os.WriteFile(p.config.MetafilePath, []byte(data), 0600)
}

func loadTemplate(m *manifest.Manifest) (*template.Template, error) {
	funcs := template.FuncMap{
		"marshal": marshal,
		"safe": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec
		},
	}

	html, ok := m.Plugin(manifest.PluginHTML)
	if !ok {
		return template.New("index").Funcs(funcs).Parse(defaultIndexTemplate)
	}

	path, _ := html.Options["template"].(string)
	if _, err := os.Stat(path); path == "" || errors.Is(err, os.ErrNotExist) {
		return template.New("index").Funcs(funcs).Parse(defaultIndexTemplate)
	}

	tmpl, err := template.New(filepath.Base(path)).Funcs(funcs).ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html template: %w", err)
	}
	return tmpl, nil
}

func marshal(value any) string {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		panic(errors.New("context can only be json serializable"))
	}

	return buf.String()
}

const defaultIndexTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{range .Styles}}<link rel="stylesheet" href="{{.}}">
{{end}}</head>
<body>
<div id="root"></div>
{{range .Scripts}}<script type="module" src="{{.}}"></script>
{{end}}</body>
</html>
`
