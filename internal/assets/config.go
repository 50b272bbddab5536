package assets

type Config struct {
	// Project root esbuild resolves relative paths against
	Root string
	// Path to metafile (defaults to meta.json in the output directory)
	MetafilePath string
	// Page title passed to the HTML template
	Title string
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		Root:  ".",
		Title: "App",
	}
}
