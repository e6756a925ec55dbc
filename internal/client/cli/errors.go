package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/opsdesk/internal/chat"
	"github.com/dmitrijs2005/opsdesk/internal/client/client"
	"github.com/dmitrijs2005/opsdesk/internal/client/services"
	"github.com/dmitrijs2005/opsdesk/internal/client/session"
)

// userMessage turns an error into the line shown to the operator.
func userMessage(err error) string {
	switch {
	case errors.Is(err, client.ErrTOTPRequired):
		return client.TOTPRequiredMessage
	case errors.Is(err, client.ErrInvalidCredentials):
		return "invalid username or password"
	case errors.Is(err, client.ErrUnauthorized), errors.Is(err, session.ErrNoSession):
		return "session expired"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, try again later"
	case errors.Is(err, client.ErrNotFound):
		return "not found"
	case errors.Is(err, services.ErrNoLocation):
		return "incident has no location"
	case errors.Is(err, chat.ErrNotConnected):
		return "no connection to chat server"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	default:
		return err.Error()
	}
}

// handleErr reports a failed command. A rejected token signs the operator out.
func (a *App) handleErr(ctx context.Context, what string, err error) {
	a.log.Warn(ctx, what, "error", err)
	printlnFn(what+":", userMessage(err))
	if errors.Is(err, client.ErrUnauthorized) {
		a.expire(ctx)
	}
}
