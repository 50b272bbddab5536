package commands

import (
	"fmt"

	"github.com/wolfeidau/bundlekit/internal/assets"
	"github.com/wolfeidau/bundlekit/internal/logger"
	"github.com/wolfeidau/bundlekit/internal/manifest"
)

type BuildCmd struct {
	TargetFlags `embed:""`

	Title    string `help:"page title for the generated HTML entry" default:"App"`
	Metafile string `help:"path for the esbuild metafile (defaults to meta.json in the output directory)" type:"path"`
}

func (c *BuildCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	m, opts, err := c.Manifest()
	if err != nil {
		return err
	}

	log.Info().Str("version", globals.Version).Str("env", string(m.Mode)).Str("root", opts.Root).Msg("Starting build")

	pipeline, err := assets.New(m, assets.Config{
		Root:         opts.Root,
		MetafilePath: c.Metafile,
		Title:        c.Title,
	})
	if err != nil {
		return fmt.Errorf("failed to load assets pipeline: %w", err)
	}

	if err := pipeline.Build(); err != nil {
		return fmt.Errorf("failed to build js assets: %w", err)
	}

	log.Info().Str("outdir", m.Output.Path).Msg("Build complete")
	return nil
}

func buildVendor(m *manifest.Manifest, root string) (*assets.SymbolManifest, error) {
	symbols, err := assets.BuildVendor(m, assets.Config{Root: root})
	if err != nil {
		return nil, fmt.Errorf("failed to build vendor bundle: %w", err)
	}
	return symbols, nil
}
