package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

// Build runs esbuild with the translated manifest and loads metadata
func (p *Pipeline) Build() error {
	opts, err := p.Options()
	if err != nil {
		return err
	}

	log.Info().Strs("entrypoints", p.entryNames()).Str("outdir", opts.Outdir).Msg("Building assets")

	result := api.Build(opts)

	if len(result.Errors) > 0 {
		logMessages(result.Errors)
		return ErrBuildFailed
	}

	for _, file := range result.OutputFiles {
		log.Info().Str("file", file.Path).Msg("Built file")
	}

	return nil
}

// Watch builds once then rebuilds on every source change until ctx is done
func (p *Pipeline) Watch(ctx context.Context) error {
	opts, err := p.Options()
	if err != nil {
		return err
	}

	buildCtx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		logMessages(ctxErr.Errors)
		return ErrBuildFailed
	}
	defer buildCtx.Dispose()

	if result := buildCtx.Rebuild(); len(result.Errors) > 0 {
		// keep watching so fixing the source recovers the build
		logMessages(result.Errors)
	}

	if err := buildCtx.Watch(api.WatchOptions{}); err != nil {
		return err
	}
	log.Info().Strs("entrypoints", p.entryNames()).Msg("Watching for changes")

	<-ctx.Done()
	return nil
}

func logMessages(msgs []api.Message) {
	for _, msg := range msgs {
		evt := log.Error().Str("error", msg.Text)
		if msg.Location != nil {
			evt = evt.Str("file", msg.Location.File).Int("line", msg.Location.Line)
		}
		evt.Msg("Build error")
	}
}

func (p *Pipeline) entryNames() []string {
	names := make([]string, 0, len(p.manifest.Entry))
	for _, ep := range p.manifest.Entry {
		names = append(names, ep.Name)
	}
	return names
}

// LoadScripts returns the ordered list of script URLs needed for the given entry,
// its stylesheet URLs and the main entrypoint URL
func (p *Pipeline) LoadScripts(entryName string) ([]string, []string, string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, nil, "", ErrNotBuilt
	}

	scripts := []string{}
	styles := []string{}
	visited := make(map[string]bool)
	entryPointPath := entryNamespace + ":" + entryName

	// Find the output file for this entrypoint
	for outputPath, info := range p.metadata.Outputs {
		if info.EntryPoint == entryPointPath {
			entrypoint := p.publicURL(outputPath)
			scripts = append(scripts, entrypoint)
			visited[outputPath] = true
			if info.CSSBundle != "" {
				styles = append(styles, p.publicURL(info.CSSBundle))
			}
			p.addDependencies(info, &scripts, visited)
			return scripts, styles, entrypoint, nil
		}
	}

	return nil, nil, "", ErrEntryNotFound
}

func (p *Pipeline) addDependencies(output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if imp.Kind == "dynamic-import" || !strings.HasSuffix(imp.Path, ".js") {
			continue
		}
		if !visited[imp.Path] {
			visited[imp.Path] = true
			*scripts = append(*scripts, p.publicURL(imp.Path))

			if chunkInfo, exists := p.metadata.Outputs[imp.Path]; exists {
				p.addDependencies(chunkInfo, scripts, visited)
			}
		}
	}
}

// publicURL maps a metafile output path onto the URL it is served from.
func (p *Pipeline) publicURL(outputPath string) string {
	outdir := p.manifest.Output.Path
	if !filepath.IsAbs(outdir) {
		outdir = filepath.Join(p.config.Root, outdir)
	}

	rel := filepath.ToSlash(outputPath)
	if dir, err := filepath.Rel(p.config.Root, outdir); err == nil {
		rel = strings.TrimPrefix(rel, filepath.ToSlash(dir)+"/")
	}

	public := p.manifest.Output.PublicPath
	if public == "" {
		public = "/"
	}
	if strings.Contains(public, "://") {
		return strings.TrimSuffix(public, "/") + "/" + rel
	}
	return path.Join("/", public, rel)
}

// pageData collects the scripts and styles for every entry in declaration order
func (p *Pipeline) pageData(ctx any) (map[string]any, error) {
	var scripts, styles []string
	seen := map[string]bool{}

	for _, name := range p.entryNames() {
		entryScripts, entryStyles, _, err := p.LoadScripts(name)
		if err != nil {
			return nil, err
		}
		for _, s := range append(entryScripts, entryStyles...) {
			if seen[s] {
				continue
			}
			seen[s] = true
			if strings.HasSuffix(s, ".css") {
				styles = append(styles, s)
			} else {
				scripts = append(scripts, s)
			}
		}
	}

	return map[string]any{
		"Title":   p.config.Title,
		"Scripts": scripts,
		"Styles":  styles,
		"Context": ctx,
	}, nil
}

// RenderIndex writes index.html with every entry's scripts and styles into the output directory
func (p *Pipeline) RenderIndex() error {
	data, err := p.pageData(nil)
	if err != nil {
		return err
	}

	outdir := p.manifest.Output.Path
	if !filepath.IsAbs(outdir) {
		outdir = filepath.Join(p.config.Root, outdir)
	}
	if err := os.MkdirAll(outdir, 0o750); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(outdir, "index.html"))
	if err != nil {
		return err
	}
	defer f.Close()

	return p.render(f, data)
}

// render executes the template and injects tags the template did not place itself.
func (p *Pipeline) render(w io.Writer, data map[string]any) error {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return err
	}

	scripts, _ := data["Scripts"].([]string)
	styles, _ := data["Styles"].([]string)
	_, err := io.WriteString(w, injectTags(buf.String(), scripts, styles))
	return err
}

func injectTags(page string, scripts, styles []string) string {
	var head, body strings.Builder
	for _, s := range styles {
		if !strings.Contains(page, s) {
			fmt.Fprintf(&head, "<link rel=\"stylesheet\" href=%q>\n", s)
		}
	}
	for _, s := range scripts {
		if !strings.Contains(page, s) {
			fmt.Fprintf(&body, "<script type=\"module\" src=%q></script>\n", s)
		}
	}

	page = insertBefore(page, "</head>", head.String())
	return insertBefore(page, "</body>", body.String())
}

func insertBefore(page, marker, tags string) string {
	if tags == "" {
		return page
	}
	idx := strings.LastIndex(page, marker)
	if idx == -1 {
		return page + tags
	}
	return page[:idx] + tags + page[idx:]
}

// Handler returns an http.HandlerFunc that renders the HTML entry with its scripts
func (p *Pipeline) Handler(contextFn func(ctx context.Context) any) (http.HandlerFunc, error) {
	if p.tmpl == nil {
		return nil, errors.New("template not loaded")
	}

	if contextFn == nil {
		contextFn = func(ctx context.Context) any {
			return nil
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		data, err := p.pageData(contextFn(r.Context()))
		if err != nil {
			log.Error().Err(err).Msg("Failed to load scripts")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := p.render(w, data); err != nil {
			log.Error().Err(err).Msg("Failed to render template")
		}
	}, nil
}
