package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/providertoken/cmd/providertoken/internal/commands"
	"github.com/wolfeidau/providertoken/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Token    commands.TokenCmd    `cmd:"" help:"Sign a provider authentication token"`
		Keygen   commands.KeygenCmd   `cmd:"" help:"Generate a P-256 signing key pair"`
		Profiles commands.ProfilesCmd `cmd:"" help:"List configured profiles"`
		Config   string               `help:"Profiles config file (default: ~/.providertoken/config.yaml)" type:"path" env:"PROVIDERTOKEN_CONFIG"`
		Debug    bool                 `help:"Enable debug mode."`
		Version  kong.VersionFlag
	}
)

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load(".env")

	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("providertoken"),
		kong.Description("Issue ES256 provider authentication tokens."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	log.Logger = logger.Setup(cli.Debug)

	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version, Config: cli.Config})
	cmd.FatalIfErrorf(err)
}
