package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// CLI represents the main CLI structure
type CLI struct {
	Config   string `help:"Path to configuration file" type:"path"`
	LogLevel string `help:"Log level override"`

	Serve   ServeCmd   `cmd:"" default:"1" help:"Run the chat service (default)"`
	Migrate MigrateCmd `cmd:"" help:"Database migrations"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("taskchat"),
		kong.Description("Conversational task management service"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	err := ctx.Run(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
