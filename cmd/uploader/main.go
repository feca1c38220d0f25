package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/docvault/internal/cli"
	"github.com/dmitrijs2005/docvault/internal/logging"
	"github.com/dmitrijs2005/docvault/internal/server"
	"github.com/dmitrijs2005/docvault/internal/server/config"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.LoadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return cli.ExitUsage
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return cli.ExitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdArgs := config.CommandArgs(args)
	if len(cmdArgs) == 0 || cmdArgs[0] == "help" {
		return cli.Run(ctx, nil, cmdArgs, os.Stdout, os.Stderr)
	}

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return cli.ExitFailed
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn(ctx, "close failed", "error", err)
		}
	}()

	return cli.Run(ctx, app, cmdArgs, os.Stdout, os.Stderr)
}
