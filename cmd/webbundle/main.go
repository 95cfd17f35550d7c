package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/webbundle/cmd/webbundle/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug      bool `help:"Enable debug mode."`
		Version    kong.VersionFlag
		Mode       string `help:"Build mode, prod enables minification of the app bundle." env:"WEBBUNDLE_MODE"`
		SourceRoot string `help:"Directory containing the entry points." default:"src" env:"WEBBUNDLE_SOURCE_ROOT"`
		OutDir     string `help:"Output directory for bundles." default:"dist" env:"WEBBUNDLE_OUT_DIR"`
		Project    string `help:"YAML project file overriding the flags above." type:"existingfile" env:"WEBBUNDLE_PROJECT"`

		Build  commands.BuildCmd  `cmd:"" help:"Build bundles."`
		Config commands.ConfigCmd `cmd:"" help:"Print the build configurations as YAML."`
		Watch  commands.WatchCmd  `cmd:"" help:"Rebuild bundles when sources change."`
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Debug:      cli.Debug,
		Version:    version,
		Mode:       cli.Mode,
		SourceRoot: cli.SourceRoot,
		OutDir:     cli.OutDir,
		Project:    cli.Project,
	})
	cmd.FatalIfErrorf(err)
}
