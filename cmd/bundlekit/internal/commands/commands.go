package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wolfeidau/bundlekit/internal/manifest"
)

type Globals struct {
	Debug   bool
	Version string
}

// TargetFlags select the manifest a command works on
type TargetFlags struct {
	Env  string `help:"build environment (production or development)" default:"development" env:"BUNDLEKIT_ENV"`
	Lang string `help:"script language mode (javascript or typescript)" default:"javascript" env:"BUNDLEKIT_LANG"`
	Root string `help:"project root directory" default:"." env:"BUNDLEKIT_ROOT" type:"existingdir"`
}

// Options resolves the project root to an absolute path and parses the language mode
func (f *TargetFlags) Options() (manifest.Options, error) {
	lang, err := manifest.ParseLanguageMode(f.Lang)
	if err != nil {
		return manifest.Options{}, err
	}

	root, err := filepath.Abs(f.Root)
	if err != nil {
		return manifest.Options{}, fmt.Errorf("failed to resolve project root: %w", err)
	}

	return manifest.Options{Root: root, Language: lang}, nil
}

// Manifest parses the environment and builds the application manifest
func (f *TargetFlags) Manifest() (*manifest.Manifest, manifest.Options, error) {
	env, err := manifest.ParseEnvironment(f.Env)
	if err != nil {
		return nil, manifest.Options{}, err
	}

	opts, err := f.Options()
	if err != nil {
		return nil, manifest.Options{}, err
	}

	m, err := manifest.Build(env, opts)
	if err != nil {
		return nil, manifest.Options{}, err
	}
	return m, opts, nil
}

// OutputFlags control where encoded manifests are written
type OutputFlags struct {
	Format string `help:"output format" default:"json" enum:"json,yaml" short:"f"`
	Out    string `help:"write to file instead of stdout" short:"o" type:"path"`
}

func (o *OutputFlags) write(stdout io.Writer, m *manifest.Manifest) error {
	if o.Out == "" {
		return manifest.Encode(stdout, m, manifest.Format(o.Format))
	}

	f, err := os.Create(o.Out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", o.Out, err)
	}
	defer f.Close()

	return manifest.Encode(f, m, manifest.Format(o.Format))
}
