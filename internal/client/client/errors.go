package client

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable        = errors.New("server unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTOTPRequired       = errors.New("two-factor code required")
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
)

// TOTPRequiredMessage is the backend error text returned when the account has
// two-factor authentication enabled and no code was sent.
const TOTPRequiredMessage = "Требуется код двухфакторной аутентификации"

// APIError is a non-2xx answer from the backend. It unwraps to one of the
// sentinel errors above when the status or message is recognised.
type APIError struct {
	Status  int
	Message string
	kind    error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}
