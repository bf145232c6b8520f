package main

import (
	"os"

	"log/slog"

	"github.com/alecthomas/kong"
)

type Context struct {
	Debug bool
}

var cli struct {
	Debug bool `help:"Enable debug logging."`

	Serve  ServeCmd  `cmd:"" help:"Serve the node."`
	Init   InitCmd   `cmd:"" help:"Create the node's identity."`
	Follow FollowCmd `cmd:"" help:"Follow a remote account."`
	Note   NoteCmd   `cmd:"" help:"Publish a note."`
}

func main() {
	ctx := kong.Parse(&cli)
	level := slog.LevelInfo
	if cli.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	err := ctx.Run(&Context{Debug: cli.Debug})
	ctx.FatalIfErrorf(err)
}
