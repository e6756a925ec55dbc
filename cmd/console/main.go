package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/opsdesk/internal/buildinfo"
	"github.com/dmitrijs2005/opsdesk/internal/client/cli"
	"github.com/dmitrijs2005/opsdesk/internal/client/config"
	"github.com/dmitrijs2005/opsdesk/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	app, cleanup, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}
	defer cleanup()

	app.Run(ctx)

}
