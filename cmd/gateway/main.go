package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/opsdesk/internal/buildinfo"
	"github.com/dmitrijs2005/opsdesk/internal/client/config"
	"github.com/dmitrijs2005/opsdesk/internal/gateway"
	"github.com/dmitrijs2005/opsdesk/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadConfig()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	gateway.NewApp(cfg, logger).Run(context.Background())

}
