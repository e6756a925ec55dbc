package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/opsdesk/internal/logging"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	address string
	handler http.Handler
	logger  logging.Logger
}

func NewServer(address string, handler http.Handler, logger logging.Logger) *Server {
	return &Server{address: address, handler: handler, logger: logger}
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
// ready, if not nil, receives the bound address once the listener is up.
func (s *Server) Run(ctx context.Context, ready chan<- string) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping gateway...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "gateway shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting gateway", "address", listen.Addr().String())
	if ready != nil {
		ready <- listen.Addr().String()
	}

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
