// Package services contains the application services behind the console and
// the gateway: login and logout, the incident inbox, news publishing and chat
// history. Every network call takes the caller's *session.Session explicitly.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/opsdesk/internal/client/client"
	"github.com/dmitrijs2005/opsdesk/internal/client/session"
)

// SessionStore is the slot holding the signed-in operator's session.
type SessionStore interface {
	Get(ctx context.Context) (*session.Session, error)
	Set(ctx context.Context, token, username string) (*session.Session, error)
	Clear(ctx context.Context) error
}

// AuthService defines authentication operations.
//
// Contract:
//   - Login: authenticate against the backend and store the new session.
//     client.ErrTOTPRequired means the same call must be repeated with a code.
//   - Logout: drop the stored session.
//   - Current: return the stored session or session.ErrNoSession.
type AuthService interface {
	Login(ctx context.Context, username, password, totpCode string) (*session.Session, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (*session.Session, error)
}

type authService struct {
	client client.Client
	store  SessionStore
}

func NewAuthService(client client.Client, store SessionStore) AuthService {
	return &authService{client: client, store: store}
}

// Login validates the form locally, calls the backend and, on success,
// overwrites the stored session with the returned token.
func (a *authService) Login(ctx context.Context, username, password, totpCode string) (*session.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", client.ErrValidation)
	}

	token, err := a.client.Login(ctx, username, password, strings.TrimSpace(totpCode))
	if err != nil {
		if errors.Is(err, client.ErrTOTPRequired) {
			return nil, err
		}
		return nil, fmt.Errorf("login error: %w", err)
	}

	sess, err := a.store.Set(ctx, token, username)
	if err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return sess, nil
}

func (a *authService) Logout(ctx context.Context) error {
	return a.store.Clear(ctx)
}

func (a *authService) Current(ctx context.Context) (*session.Session, error) {
	return a.store.Get(ctx)
}
