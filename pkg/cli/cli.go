// Package cli holds the oncall command tree.
package cli

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/arnavshah/oncall-api-go/pkg/config"
)

type CLI struct {
	config.Config `embed:""`

	Server    ServerCmd    `cmd:"" help:"run the HTTP API"`
	Bot       BotCmd       `cmd:"" help:"run the Telegram bot"`
	Suggest   SuggestCmd   `cmd:"" help:"suggest who should handle a building now"`
	Classify  ClassifyCmd  `cmd:"" help:"detect the building or zone in an issue text"`
	Buildings BuildingsCmd `cmd:"" help:"list buildings"`
	Validate  ValidateCmd  `cmd:"" help:"check a roster file"`
	History   HistoryCmd   `cmd:"" help:"show selection counts for a day"`
	Keygen    KeygenCmd    `cmd:"" help:"generate an API key"`
	Version   VersionCmd   `cmd:"" help:"print the version"`
}

// NewParser builds the kong parser. Commands receive ctx, the parsed
// *config.Config and out through their Run arguments.
func NewParser(cli *CLI, ctx context.Context, out io.Writer) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("oncall"),
		kong.Description("On-call suggestion API for campus facilities"),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.BindTo(out, (*io.Writer)(nil)),
		kong.Bind(&cli.Config),
		kong.ConfigureHelp(kong.HelpOptions{
			Tree: true,
		}),
		kong.UsageOnError(),
	)
}

// Run parses os.Args and runs the selected command until SIGINT or SIGTERM.
func Run() {
	config.LoadDotEnv()

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()

	cli := &CLI{}
	parser, err := NewParser(cli, ctx, os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		parser.FatalIfErrorf(err)
	}

	err = kctx.Run()
	parser.FatalIfErrorf(err)
}
