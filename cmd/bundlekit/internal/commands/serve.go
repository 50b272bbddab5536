package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/bundlekit/internal/assets"
	"github.com/wolfeidau/bundlekit/internal/devserver"
	"github.com/wolfeidau/bundlekit/internal/logger"
)

type ServeCmd struct {
	TargetFlags `embed:""`

	Port  int    `help:"override the dev server port from the manifest" default:"0" env:"BUNDLEKIT_PORT"`
	Title string `help:"page title for the generated HTML entry" default:"App"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	m, opts, err := c.Manifest()
	if err != nil {
		return err
	}
	if c.Port != 0 && m.DevServer != nil {
		m.DevServer.Port = c.Port
	}

	pipeline, err := assets.New(m, assets.Config{Root: opts.Root, Title: c.Title})
	if err != nil {
		return fmt.Errorf("failed to load assets pipeline: %w", err)
	}

	srv, err := devserver.New(m, pipeline, log)
	if err != nil {
		return err
	}

	log.Info().Str("version", globals.Version).Str("env", string(m.Mode)).Msg("Starting dev server")
	return srv.Run(ctx)
}
