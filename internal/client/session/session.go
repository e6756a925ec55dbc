// Package session keeps the operator's bearer token: an explicit Session
// value built at login and a Store that persists it in the local database
// until logout or expiry.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultMaxAge is the fixed lifetime of a session from issuance.
const DefaultMaxAge = 7 * 24 * time.Hour

var (
	ErrNoSession  = errors.New("no active session")
	ErrEmptyToken = errors.New("empty token")
)

// Session is the authenticated context handed to every network call.
type Session struct {
	Token      string
	OperatorID string
	Username   string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

type tokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// New builds a Session for token issued at issuedAt. When the token is a JWT,
// user_id, username and exp are read from it without checking the signature;
// the console has no key and the backend verifies it on every call anyway.
// ExpiresAt is the earlier of issuedAt+maxAge and the token's exp.
// fallbackOperatorID fills OperatorID when the token carries none.
func New(token string, issuedAt time.Time, maxAge time.Duration, fallbackOperatorID string) (*Session, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	s := &Session{
		Token:      token,
		OperatorID: fallbackOperatorID,
		IssuedAt:   issuedAt,
		ExpiresAt:  issuedAt.Add(maxAge),
	}

	var c tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err == nil {
		if c.UserID != "" {
			s.OperatorID = c.UserID
		}
		s.Username = c.Username
		if c.ExpiresAt != nil && c.ExpiresAt.Time.Before(s.ExpiresAt) {
			s.ExpiresAt = c.ExpiresAt.Time
		}
	}

	return s, nil
}

// Valid reports whether the session exists and has not expired at now.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.Token != "" && now.Before(s.ExpiresAt)
}

// Display is the short label shown in the console prompt.
func (s *Session) Display() string {
	if s == nil {
		return ""
	}
	if s.Username != "" {
		return s.Username
	}
	if len(s.OperatorID) > 8 {
		return s.OperatorID[:8]
	}
	return s.OperatorID
}
