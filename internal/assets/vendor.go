package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/bundlekit/internal/manifest"
)

// SymbolManifest records which global property exposes each vendor module.
type SymbolManifest struct {
	Name    string            `json:"name"`
	Content map[string]string `json:"content"`
}

// BuildVendor prebuilds the vendor entry of a DLL manifest into a single global
// library bundle and writes the exported symbol manifest next to it
func BuildVendor(m *manifest.Manifest, config Config) (*SymbolManifest, error) {
	if len(m.Entry) == 0 {
		return nil, ErrNoEntryPoints
	}
	entry := m.Entry[0]

	root, err := filepath.Abs(config.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	symbols := &SymbolManifest{
		Name:    expandName(m.Output.Library, entry.Name),
		Content: make(map[string]string, len(entry.Modules)),
	}
	for i, name := range identifiers(entry.Modules) {
		symbols.Content[entry.Modules[i]] = name
	}

	_, minify := m.Plugin(manifest.PluginUglify)
	outfile := filepath.Join(m.Output.Path, expandName(m.Output.Filename, entry.Name))

	log.Info().Strs("modules", entry.Modules).Str("outfile", outfile).Msg("Building vendor bundle")

	result := api.Build(api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   vendorSource(entry.Modules),
			ResolveDir: root,
			Sourcefile: entry.Name + ".js",
			Loader:     api.LoaderJS,
		},
		AbsWorkingDir:     root,
		Bundle:            true,
		Write:             true,
		Outfile:           outfile,
		Format:            api.FormatIIFE,
		GlobalName:        symbols.Name,
		NodePaths:         m.Resolve.Modules,
		MinifyWhitespace:  minify,
		MinifyIdentifiers: minify,
		MinifySyntax:      minify,
		Define: map[string]string{
			"process.env.NODE_ENV": `"production"`,
		},
	})
	if len(result.Errors) > 0 {
		logMessages(result.Errors)
		return nil, ErrBuildFailed
	}

	if dll, ok := m.Plugin(manifest.PluginDll); ok {
		target, _ := dll.Options["path"].(string)
		if target != "" {
			if err := writeSymbols(expandName(target, entry.Name), symbols); err != nil {
				return nil, fmt.Errorf("failed to write vendor manifest: %w", err)
			}
		}
	}

	return symbols, nil
}

func vendorSource(modules []string) string {
	var b strings.Builder
	names := identifiers(modules)
	for i, mod := range modules {
		fmt.Fprintf(&b, "import * as %s from %q;\n", names[i], mod)
	}
	fmt.Fprintf(&b, "export { %s };\n", strings.Join(names, ", "))
	return b.String()
}

// identifiers maps each module onto a distinct identifier, suffixing repeats with a counter.
func identifiers(modules []string) []string {
	names := make([]string, 0, len(modules))
	used := make(map[string]bool, len(modules))
	for _, mod := range modules {
		base := identifier(mod)
		name := base
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		used[name] = true
		names = append(names, name)
	}
	return names
}

func writeSymbols(path string, symbols *SymbolManifest) error {
	data, err := json.MarshalIndent(symbols, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func expandName(template, name string) string {
	if template == "" {
		return name
	}
	return strings.ReplaceAll(template, "[name]", name)
}

// identifier turns a module specifier into a valid JavaScript identifier.
func identifier(mod string) string {
	var b strings.Builder
	for i, r := range mod {
		switch {
		case unicode.IsLetter(r), r == '$', r == '_':
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
