package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"calmh.dev/course-watch/cmd/course-watch/routeinfo"
	"calmh.dev/course-watch/cmd/course-watch/serve"
	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"golang.org/x/exp/slog"
)

type CLI struct {
	Serve     serve.CLI     `cmd:"" default:"" help:"Compute course data from incoming telemetry"`
	RouteInfo routeinfo.CLI `cmd:"" help:"Summarize a GPX route file"`
}

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		NoColor: !isatty.IsTerminal(os.Stderr.Fd()),
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Bind(logger),
	)
	if err := kctx.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Exiting", "error", err)
		os.Exit(1)
	}
}
