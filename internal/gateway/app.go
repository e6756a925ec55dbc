package gateway

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/opsdesk/internal/client/client"
	"github.com/dmitrijs2005/opsdesk/internal/client/config"
	"github.com/dmitrijs2005/opsdesk/internal/client/services"
	"github.com/dmitrijs2005/opsdesk/internal/logging"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *Server
}

func NewApp(c *config.Config, logger logging.Logger) *App {
	api := client.NewHTTPClient(c.APIBaseURL, c.RequestTimeout)

	h := NewHandler(api,
		services.NewIncidentService(api),
		services.NewNewsService(api),
		services.NewHistoryService(api),
		Options{
			ChatURL:            c.ChatURL,
			SessionMaxAge:      c.SessionMaxAge,
			Secure:             !c.Dev,
			FallbackOperatorID: c.OperatorID,
		},
		logger,
	)

	return &App{
		config: c,
		logger: logger,
		server: NewServer(c.GatewayAddr, NewRouter(h, logger), logger),
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until a termination signal arrives, ctx is cancelled or the
// server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "dev", app.config.Dev)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx, nil); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()
}
