package manifest

import "slices"

var vendorLibraries = []string{
	"react",
	"react-dom",
	"react-router",
	"react-redux",
	"redux",
	"redux-thunk",
	"redux-form",
	"moment",
	"axios",
	"classnames",
}

// VendorLibraries returns the third-party modules prebuilt into the vendor bundle.
func VendorLibraries() []string {
	return slices.Clone(vendorLibraries)
}

// BuildVendor assembles the vendor prebuild (DLL) manifest. It does not vary by environment.
func BuildVendor(opts Options) *Manifest {
	return &Manifest{
		Context: ".",
		Entry:   Entries{{Name: "vendor", Modules: VendorLibraries()}},
		Output: Output{
			Filename: "[name].dll.js",
			Path:     opts.path("src", "vendor"),
			Library:  "[name]",
		},
		Resolve: Resolve{
			Modules: []string{opts.path("node_modules")},
		},
		Module: Module{Rules: []TransformRule{}},
		Plugins: []PluginDescriptor{
			{Name: PluginDll, Options: map[string]any{
				"name": "[name]",
				"path": opts.path("src", "vendor", "[name].json"),
			}},
			{Name: PluginUglify},
		},
	}
}
