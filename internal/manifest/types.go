package manifest

// Manifest is the configuration record handed to the bundler. Field names follow the
// webpack schema so the encoded form can be consumed as-is.
type Manifest struct {
	Mode      Environment        `json:"mode,omitempty" yaml:"mode,omitempty"`
	Context   string             `json:"context,omitempty" yaml:"context,omitempty"`
	Cache     bool               `json:"cache" yaml:"cache"`
	Entry     Entries            `json:"entry" yaml:"entry"`
	Devtool   string             `json:"devtool,omitempty" yaml:"devtool,omitempty"`
	Resolve   Resolve            `json:"resolve" yaml:"resolve"`
	Output    Output             `json:"output" yaml:"output"`
	DevServer *DevServer         `json:"devServer,omitempty" yaml:"devServer,omitempty"`
	Module    Module             `json:"module" yaml:"module"`
	Plugins   []PluginDescriptor `json:"plugins" yaml:"plugins"`
}

// EntryPoint is a named chunk and the modules it bootstraps, in load order.
type EntryPoint struct {
	Name    string
	Modules []string
}

// Entries keeps entry points in declaration order; it encodes as an object.
type Entries []EntryPoint

// Lookup returns the modules of the named entry.
func (e Entries) Lookup(name string) ([]string, bool) {
	for _, ep := range e {
		if ep.Name == name {
			return ep.Modules, true
		}
	}
	return nil, false
}

type Resolve struct {
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	Modules    []string `json:"modules" yaml:"modules"`
}

type Output struct {
	Filename   string `json:"filename" yaml:"filename"`
	Path       string `json:"path" yaml:"path"`
	PublicPath string `json:"publicPath,omitempty" yaml:"publicPath,omitempty"`
	Library    string `json:"library,omitempty" yaml:"library,omitempty"`
}

type DevServer struct {
	HistoryAPIFallback bool        `json:"historyApiFallback" yaml:"historyApiFallback"`
	Compress           bool        `json:"compress" yaml:"compress"`
	Port               int         `json:"port" yaml:"port"`
	Stats              Stats       `json:"stats" yaml:"stats"`
	Proxy              []ProxyRule `json:"proxy" yaml:"proxy"`
}

type Stats struct {
	ChunkModules bool `json:"chunkModules" yaml:"chunkModules"`
}

// ProxyRule forwards requests under Context to Target, rewriting the path with PathRewrite.
type ProxyRule struct {
	Context     []string          `json:"context" yaml:"context"`
	Target      string            `json:"target" yaml:"target"`
	PathRewrite map[string]string `json:"pathRewrite,omitempty" yaml:"pathRewrite,omitempty"`
	Secure      bool              `json:"secure" yaml:"secure"`
}

type Module struct {
	Rules []TransformRule `json:"rules" yaml:"rules"`
}

// TransformRule maps a file pattern onto a processor chain.
type TransformRule struct {
	Test    string      `json:"test" yaml:"test"`
	Include []string    `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude []string    `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Use     []Processor `json:"use" yaml:"use"`
}

// Processor is one loader in a rule chain. Options are opaque to the builder.
type Processor struct {
	Loader  string         `json:"loader" yaml:"loader"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// PluginDescriptor is passed through to the bundler's plugin system untouched.
type PluginDescriptor struct {
	Name    string         `json:"name" yaml:"name"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// Plugin returns the first plugin with the given name.
func (m *Manifest) Plugin(name string) (PluginDescriptor, bool) {
	for _, p := range m.Plugins {
		if p.Name == name {
			return p, true
		}
	}
	return PluginDescriptor{}, false
}

// CountPlugins returns how many plugins carry the given name.
func (m *Manifest) CountPlugins(name string) int {
	n := 0
	for _, p := range m.Plugins {
		if p.Name == name {
			n++
		}
	}
	return n
}

// HasLoader reports whether the rule chain contains the loader.
func (r TransformRule) HasLoader(loader string) bool {
	for _, p := range r.Use {
		if p.Loader == loader {
			return true
		}
	}
	return false
}
