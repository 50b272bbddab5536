package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/wolfeidau/bundlekit/cmd/bundlekit/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Manifest commands.ManifestCmd `cmd:"" help:"Print the application manifest"`
		Vendor   commands.VendorCmd   `cmd:"" help:"Print or build the vendor (DLL) manifest"`
		Describe commands.DescribeCmd `cmd:"" help:"Summarise manifest rules and plugins as tables"`
		Build    commands.BuildCmd    `cmd:"" help:"Bundle the application with esbuild"`
		Serve    commands.ServeCmd    `cmd:"" help:"Start the development server"`
		Debug    bool                 `help:"Enable debug mode." env:"BUNDLEKIT_DEBUG"`
		Version  kong.VersionFlag
	}
)

func main() {
	// .env is optional; values already in the environment win.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
