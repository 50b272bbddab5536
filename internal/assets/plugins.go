package assets

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/bundlekit/internal/manifest"
)

// entryPlugin serves one virtual module per manifest entry that imports the
// entry's modules in load order.
func (p *Pipeline) entryPlugin() api.Plugin {
	return api.Plugin{
		Name: "bundlekit-entries",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: "^" + entryNamespace + ":"},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{
						Path:      strings.TrimPrefix(args.Path, entryNamespace+":"),
						Namespace: entryNamespace,
					}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: entryNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					modules, ok := p.manifest.Entry.Lookup(args.Path)
					if !ok {
						return api.OnLoadResult{}, fmt.Errorf("unknown entry %q", args.Path)
					}
					contents := entrySource(modules)
					return api.OnLoadResult{
						Contents:   &contents,
						ResolveDir: p.config.Root,
						Loader:     api.LoaderJS,
					}, nil
				})
		},
	}
}

func entrySource(modules []string) string {
	var b strings.Builder
	for _, mod := range modules {
		fmt.Fprintf(&b, "import %q;\n", mod)
	}
	return b.String()
}

// assetPlugin applies the url-loader size threshold: small files become data URIs,
// the rest are emitted as files.
func (p *Pipeline) assetPlugin() api.Plugin {
	filter := filterFor(p.rules, ruleAsset)

	return api.Plugin{
		Name: "bundlekit-assets",
		Setup: func(build api.PluginBuild) {
			if filter == "" {
				return
			}
			build.OnLoad(api.OnLoadOptions{Filter: filter, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					rule, ok := firstApplicable(p.rules, ruleAsset, args.Path)
					if !ok {
						return api.OnLoadResult{}, nil
					}
					limit, ok := rule.InlineLimit()
					if !ok {
						return api.OnLoadResult{}, nil
					}

					data, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					contents := string(data)

					disposition := manifest.DispositionFor(int64(len(data)), limit)
					log.Debug().
						Str("path", args.Path).
						Int("bytes", len(data)).
						Stringer("disposition", disposition).
						Msg("Asset")

					return api.OnLoadResult{
						Contents: &contents,
						Loader:   cond(disposition == manifest.Inline, api.LoaderDataURL, api.LoaderFile),
					}, nil
				})
		},
	}
}

// styleInjectPlugin turns stylesheets into modules that append a <style> tag at
// runtime. Class names map to themselves so CSS module lookups keep working.
func (p *Pipeline) styleInjectPlugin() api.Plugin {
	filter := filterFor(p.rules, ruleStyle)

	return api.Plugin{
		Name: "bundlekit-style-inject",
		Setup: func(build api.PluginBuild) {
			if filter == "" {
				return
			}
			build.OnLoad(api.OnLoadOptions{Filter: filter, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					if _, ok := firstApplicable(p.rules, ruleStyle, args.Path); !ok {
						return api.OnLoadResult{}, nil
					}

					data, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}

					contents, err := styleModule(string(data))
					if err != nil {
						return api.OnLoadResult{}, err
					}
					return api.OnLoadResult{
						Contents: &contents,
						Loader:   api.LoaderJS,
					}, nil
				})
		},
	}
}

func styleModule(css string) (string, error) {
	literal, err := json.Marshal(css)
	if err != nil {
		return "", err
	}
	return "const style = document.createElement(\"style\");\n" +
		"style.textContent = " + string(literal) + ";\n" +
		"document.head.appendChild(style);\n" +
		"export default new Proxy({}, { get: (_, key) => key });\n", nil
}

func progressPlugin() api.Plugin {
	return api.Plugin{
		Name: "bundlekit-progress",
		Setup: func(build api.PluginBuild) {
			var started time.Time

			build.OnStart(func() (api.OnStartResult, error) {
				started = time.Now()
				log.Info().Msg("Build started")
				return api.OnStartResult{}, nil
			})

			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				log.Info().
					Int("errors", len(result.Errors)).
					Int("warnings", len(result.Warnings)).
					Dur("duration", time.Since(started)).
					Msg("Build finished")
				return api.OnEndResult{}, nil
			})
		},
	}
}

// outputPlugin persists the metafile and renders the HTML entry after every
// successful build, including watch rebuilds.
func (p *Pipeline) outputPlugin() api.Plugin {
	return api.Plugin{
		Name: "bundlekit-output",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if len(result.Errors) > 0 || result.Metafile == "" {
					return api.OnEndResult{}, nil
				}
				if err := p.writeMetafile(result.Metafile); err != nil {
					return api.OnEndResult{}, err
				}
				if err := p.LoadMetafile([]byte(result.Metafile)); err != nil {
					return api.OnEndResult{}, err
				}
				if _, ok := p.manifest.Plugin(manifest.PluginHTML); ok {
					if err := p.RenderIndex(); err != nil {
						return api.OnEndResult{}, err
					}
				}
				return api.OnEndResult{}, nil
			})
		},
	}
}
