package commands

import (
	"os"

	"github.com/wolfeidau/bundlekit/internal/logger"
	"github.com/wolfeidau/bundlekit/internal/manifest"
)

type ManifestCmd struct {
	TargetFlags `embed:""`
	OutputFlags `embed:""`
}

func (c *ManifestCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	m, _, err := c.Manifest()
	if err != nil {
		return err
	}

	log.Debug().Str("env", string(m.Mode)).Int("rules", len(m.Module.Rules)).Int("plugins", len(m.Plugins)).Msg("Manifest built")

	return c.write(os.Stdout, m)
}

type VendorCmd struct {
	Root  string `help:"project root directory" default:"." env:"BUNDLEKIT_ROOT" type:"existingdir"`
	Build bool   `help:"bundle the vendor libraries with esbuild instead of printing the manifest"`

	OutputFlags `embed:""`
}

func (c *VendorCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	opts, err := (&TargetFlags{Root: c.Root, Lang: string(manifest.JavaScript)}).Options()
	if err != nil {
		return err
	}
	m := manifest.BuildVendor(opts)

	if !c.Build {
		return c.write(os.Stdout, m)
	}

	symbols, err := buildVendor(m, opts.Root)
	if err != nil {
		return err
	}

	log.Info().Str("library", symbols.Name).Int("modules", len(symbols.Content)).Msg("Vendor bundle built")
	return nil
}
