package assets

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/bundlekit/internal/manifest"
)

// entryNamespace holds the virtual modules that stitch an entry's module list together.
const entryNamespace = "bundlekit-entry"

// Options translates the manifest into esbuild build options
func (p *Pipeline) Options() (api.BuildOptions, error) {
	m := p.manifest

	if len(m.Entry) == 0 {
		return api.BuildOptions{}, ErrNoEntryPoints
	}

	entryPoints := make([]api.EntryPoint, 0, len(m.Entry))
	for _, ep := range m.Entry {
		entryPoints = append(entryPoints, api.EntryPoint{
			InputPath:  entryNamespace + ":" + ep.Name,
			OutputPath: ep.Name,
		})
	}

	_, minify := m.Plugin(manifest.PluginUglify)
	splitting := m.CountPlugins(manifest.PluginCommonsChunk) > 0

	opts := api.BuildOptions{
		EntryPointsAdvanced: entryPoints,
		AbsWorkingDir:       p.config.Root,
		Bundle:              true,
		Splitting:           splitting,
		Write:               true,
		JSX:                 api.JSXAutomatic,
		Outdir:              m.Output.Path,
		PublicPath:          m.Output.PublicPath,
		EntryNames:          entryNames(m.Output.Filename),
		ChunkNames:          "chunks/[name]-[hash]",
		AssetNames:          assetNames(p.rules),
		Format:              cond(splitting, api.FormatESModule, api.FormatIIFE),
		MinifyWhitespace:    minify,
		MinifyIdentifiers:   minify,
		MinifySyntax:        minify,
		TreeShaking:         api.TreeShakingTrue,
		Sourcemap:           sourceMap(m.Devtool),
		Metafile:            true,
		ResolveExtensions:   m.Resolve.Extensions,
		NodePaths:           m.Resolve.Modules,
		Define:              defines(m),
		Loader:              p.loaders(),
	}

	opts.Plugins = []api.Plugin{
		p.entryPlugin(),
		p.assetPlugin(),
	}
	if p.injectsStyles() {
		opts.Plugins = append(opts.Plugins, p.styleInjectPlugin())
	}
	if _, ok := m.Plugin(manifest.PluginProgress); ok {
		opts.Plugins = append(opts.Plugins, progressPlugin())
	}
	opts.Plugins = append(opts.Plugins, p.outputPlugin())

	return opts, nil
}

// entryNames converts a webpack filename template into an esbuild entry name template.
func entryNames(filename string) string {
	if filename == "" {
		return "[name]"
	}
	name := strings.NewReplacer("[chunkhash]", "[hash]", "[contenthash]", "[hash]").Replace(filename)
	return strings.TrimSuffix(name, ".js")
}

// assetNames derives the emitted asset template from the url-loader name templates,
// keeping the deepest directory every asset rule shares.
func assetNames(rules []compiledRule) string {
	var dirs []string
	for _, r := range rules {
		if r.kind != ruleAsset {
			continue
		}
		if name := r.AssetName(); name != "" {
			dirs = append(dirs, path.Clean(path.Dir(name)))
		}
	}
	if len(dirs) == 0 {
		return "[name]-[hash]"
	}

	common := dirs[0]
	for _, dir := range dirs[1:] {
		for common != "." && common != dir && !strings.HasPrefix(dir, common+"/") {
			common = path.Dir(common)
		}
	}
	if common == "." {
		return "[name]-[hash]"
	}
	return common + "/[name]-[hash]"
}

func sourceMap(devtool string) api.SourceMap {
	switch {
	case devtool == "":
		return api.SourceMapNone
	case strings.Contains(devtool, "eval"), strings.Contains(devtool, "inline"):
		return api.SourceMapInline
	default:
		return api.SourceMapLinked
	}
}

func defines(m *manifest.Manifest) map[string]string {
	define, ok := m.Plugin(manifest.PluginDefine)
	if !ok {
		return map[string]string{
			"process.env.NODE_ENV": fmt.Sprintf("%q", cond(m.Mode.IsProduction(), "production", "development")),
		}
	}

	out := make(map[string]string, len(define.Options))
	for k, v := range define.Options {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// loaders maps every extension a rule covers onto the esbuild loader for the first
// rule that claims it.
func (p *Pipeline) loaders() map[string]api.Loader {
	loaders := map[string]api.Loader{}
	var skipped []string

	for _, r := range p.rules {
		for _, ext := range r.extensions() {
			if _, seen := loaders[ext]; !seen {
				loaders[ext] = loaderFor(r, ext)
			}
		}
		for _, proc := range r.Use {
			if !nativeProcessor(proc.Loader) {
				skipped = append(skipped, proc.Loader)
			}
		}
	}

	if len(skipped) > 0 {
		sort.Strings(skipped)
		log.Debug().Strs("processors", skipped).Msg("Processors without an esbuild equivalent are skipped")
	}

	return loaders
}

func nativeProcessor(loader string) bool {
	switch loader {
	case manifest.LoaderBabel, manifest.LoaderTS, manifest.LoaderCSS, manifest.LoaderURL,
		manifest.LoaderStyle, manifest.LoaderExtract:
		return true
	default:
		return false
	}
}

// injectsStyles reports whether styles are injected at runtime instead of extracted.
func (p *Pipeline) injectsStyles() bool {
	if _, ok := p.manifest.Plugin(manifest.PluginExtractText); ok {
		return false
	}
	for _, r := range p.rules {
		if r.kind == ruleStyle && r.HasLoader(manifest.LoaderStyle) {
			return true
		}
	}
	return false
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
