package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/wolfeidau/leadtrack/cmd/server/internal/commands"
	"github.com/wolfeidau/leadtrack/internal/config"
)

var (
	version = "dev"
	cli     struct {
		Debug     bool            `help:"Enable debug mode." env:"LEADTRACK_DEBUG"`
		Config    kong.ConfigFlag `help:"Path to a YAML settings file." env:"LEADTRACK_CONFIG"`
		Version   kong.VersionFlag
		Serve     commands.ServeCmd     `cmd:"" help:"Start the web server (HTML pages + JSON API)"`
		Migrate   commands.MigrateCmd   `cmd:"" help:"Apply pending database migrations"`
		Provision commands.ProvisionCmd `cmd:"" help:"Create an organisation with its organisor and default categories"`
		Assets    commands.AssetsCmd    `cmd:"" help:"Bundle the UI assets into the static root"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("leadtrack"),
		kong.Description("Track sales leads across organisors and their agents."),
		kong.Configuration(config.YAML, "/etc/leadtrack/config.yaml", "~/.config/leadtrack/config.yaml"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
