package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Config   string           `short:"c" type:"path" default:"holdem.hcl" help:"HCL table configuration (defaults apply if missing)"`
	Debug    bool             `help:"Enable debug logging"`
	Play     PlayCmd          `cmd:"" default:"1" help:"Play at the terminal against the AI"`
	Serve    ServeCmd         `cmd:"" help:"Run a table and expose the human seat over a websocket"`
	Simulate SimulateCmd      `cmd:"" help:"Run AI-only tables as fast as possible"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("holdem"),
		kong.Description("Texas Hold'em against AI opponents"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
