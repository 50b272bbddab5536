package manifest

import (
	"path/filepath"
)

// Plugin names understood by the asset pipeline.
const (
	PluginProgress      = "progress-bar"
	PluginCommonsChunk  = "commons-chunk"
	PluginHTML          = "html"
	PluginExtractText   = "extract-text"
	PluginDefine        = "define"
	PluginLoaderOptions = "loader-options"
	PluginUglify        = "uglify-js"
	PluginDll           = "dll"
)

// Loader names used in transform rules.
const (
	LoaderBabel   = "babel-loader"
	LoaderTS      = "ts-loader"
	LoaderStyle   = "style-loader"
	LoaderExtract = "extract-text-loader"
	LoaderCSS     = "css-loader"
	LoaderPostCSS = "postcss-loader"
	LoaderSass    = "sass-loader"
	LoaderURL     = "url-loader"
)

const (
	// AssetInlineLimit is the url-loader size threshold in bytes.
	AssetInlineLimit int64 = 100000

	DevServerPort = 3080
	APIBackend    = "http://localhost:3000"
)

// Options carries the inputs that are not environment dependent.
type Options struct {
	// Root is the project directory every path is resolved against.
	Root     string
	Language LanguageMode
}

func (o Options) path(elem ...string) string {
	root := o.Root
	if root == "" {
		root = "."
	}
	return filepath.Join(append([]string{root}, elem...)...)
}

// profile holds every field that differs between environments.
type profile struct {
	production bool
	cache      bool
	devtool    string
	filename   string
	// styleHead is the first loader of the style chain: extraction or in-memory injection.
	styleHead Processor
}

func profileFor(env Environment) (profile, error) {
	switch env {
	case Production:
		return profile{
			production: true,
			devtool:    "source-map",
			filename:   "[name].bundle.[chunkhash].js",
			styleHead: Processor{
				Loader:  LoaderExtract,
				Options: map[string]any{"fallback": LoaderStyle},
			},
		}, nil
	case Development:
		return profile{
			cache:     true,
			devtool:   "cheap-eval-source-map",
			filename:  "[name].bundle.js",
			styleHead: Processor{Loader: LoaderStyle},
		}, nil
	default:
		return profile{}, &ConfigurationError{Field: "environment", Value: string(env)}
	}
}

// Build assembles the application manifest for env.
func Build(env Environment, opts Options) (*Manifest, error) {
	prof, err := profileFor(env)
	if err != nil {
		return nil, err
	}

	if opts.Language == "" {
		opts.Language = JavaScript
	}
	if opts.Language != JavaScript && opts.Language != TypeScript {
		return nil, &ConfigurationError{Field: "language", Value: string(opts.Language)}
	}
	typed := opts.Language == TypeScript

	appEntry := "app.js"
	extensions := []string{".js", ".jsx", ".json"}
	if typed {
		appEntry = "app.tsx"
		extensions = append(extensions, ".ts", ".tsx")
	}

	return &Manifest{
		Mode:    env,
		Cache:   prof.cache,
		Entry:   Entries{{Name: "app", Modules: []string{"babel-polyfill", appEntry}}},
		Devtool: prof.devtool,
		Resolve: Resolve{
			Extensions: extensions,
			Modules:    []string{opts.path("src"), opts.path("node_modules")},
		},
		Output: Output{
			Filename:   prof.filename,
			Path:       opts.path("dist"),
			PublicPath: "/",
		},
		DevServer: devServer(),
		Module:    Module{Rules: rules(prof, opts, typed)},
		Plugins:   plugins(prof, opts),
	}, nil
}

func devServer() *DevServer {
	return &DevServer{
		HistoryAPIFallback: true,
		Compress:           true,
		Port:               DevServerPort,
		Stats:              Stats{ChunkModules: false},
		Proxy: []ProxyRule{{
			Context:     []string{"/api"},
			Target:      APIBackend,
			PathRewrite: map[string]string{"^/api": ""},
			Secure:      false,
		}},
	}
}

func rules(prof profile, opts Options, typed bool) []TransformRule {
	return compact(
		&TransformRule{
			Test:    `\.js(x?)$`,
			Exclude: []string{"node_modules"},
			Use:     []Processor{{Loader: LoaderBabel}},
		},
		when(typed, &TransformRule{
			Test:    `\.tsx?$`,
			Exclude: []string{"node_modules"},
			Use:     []Processor{{Loader: LoaderBabel}, {Loader: LoaderTS}},
		}),
		&TransformRule{
			Test:    `\.scss$`,
			Exclude: []string{"node_modules"},
			Use: []Processor{
				prof.styleHead,
				{Loader: LoaderCSS, Options: map[string]any{
					"modules":        true,
					"localIdentName": "[name]__[local]___[hash:base64:5]",
					"importLoaders":  1,
					"minimize":       map[string]any{"mergeLonghand": false},
				}},
				{Loader: LoaderPostCSS, Options: map[string]any{
					"sourceMap": true,
					"plugins":   []string{"autoprefixer"},
				}},
				{Loader: LoaderSass, Options: map[string]any{
					"sourceMap":    true,
					"includePaths": []string{opts.path("src", "styles")},
				}},
			},
		},
		assetRule(`\.(png|svg|jpg|gif)$`, "./assets/images/[name]-[hash].[ext]", nil),
		// svg is also an image; fonts are limited to the fonts folder.
		assetRule(`\.(woff|woff2|eot|ttf|svg)$`, "./assets/fonts/[name]-[hash].[ext]",
			[]string{opts.path("src", "assets", "fonts")}),
	)
}

func assetRule(test, name string, include []string) *TransformRule {
	return &TransformRule{
		Test:    test,
		Include: include,
		Use: []Processor{{Loader: LoaderURL, Options: map[string]any{
			"name":  name,
			"limit": AssetInlineLimit,
		}}},
	}
}

func plugins(prof profile, opts Options) []PluginDescriptor {
	return compact(
		&PluginDescriptor{Name: PluginProgress},
		&PluginDescriptor{Name: PluginCommonsChunk, Options: map[string]any{
			"name":      "vendor",
			"minChunks": "node_modules",
		}},
		&PluginDescriptor{Name: PluginCommonsChunk, Options: map[string]any{
			"name": "manifest",
		}},
		&PluginDescriptor{Name: PluginHTML, Options: map[string]any{
			"template": opts.path("src", "index.html"),
		}},
		when(prof.production, &PluginDescriptor{Name: PluginExtractText, Options: map[string]any{
			"filename":  "./css/[name]-[hash].css",
			"allChunks": true,
		}}),
		when(prof.production, &PluginDescriptor{Name: PluginDefine, Options: map[string]any{
			"process.env.NODE_ENV": `"production"`,
		}}),
		when(prof.production, &PluginDescriptor{Name: PluginLoaderOptions, Options: map[string]any{
			"minimize": true,
			"debug":    true,
		}}),
		when(prof.production, &PluginDescriptor{Name: PluginUglify, Options: map[string]any{
			"compress":  map[string]any{"screw_ie8": true, "warnings": false},
			"sourceMap": true,
		}}),
	)
}

func when[T any](cond bool, v *T) *T {
	if cond {
		return v
	}
	return nil
}

// compact drops absent entries, keeping the order of the rest.
func compact[T any](items ...*T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out
}
