package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/pennywise-app/pennywise-cli/cmd/cli/internal/commands"
	"github.com/pennywise-app/pennywise-cli/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Login    commands.LoginCmd    `cmd:"" help:"Log in to the backend"`
		Register commands.RegisterCmd `cmd:"" help:"Create an account and log in"`
		Logout   commands.LogoutCmd   `cmd:"" help:"Log out (local always, server best effort)"`
		Whoami   commands.WhoamiCmd   `cmd:"" help:"Show the current profile"`
		Log      commands.LogCmd      `cmd:"" help:"Record a transaction from natural language"`
		Recent   commands.RecentCmd   `cmd:"" help:"List recent transactions"`
		Summary  commands.SummaryCmd  `cmd:"" help:"Show the monthly summary"`
		Token    commands.TokenCmd    `cmd:"" help:"Inspect the current access token"`
		Debug    bool                 `help:"Enable debug mode."`
		Server   string               `help:"Backend URL override."`
		Config   string               `help:"Config file path."`
		Version  kong.VersionFlag
	}
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	log.Logger = logger.Setup(cli.Debug)

	err := cmd.Run(&commands.Globals{
		Debug:   cli.Debug,
		Server:  cli.Server,
		Config:  cli.Config,
		Version: version,
	})
	cmd.FatalIfErrorf(err)
}
