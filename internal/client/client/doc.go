// Package client contains the console's link to the police backend.
//
// # Overview
//
//  1. The Client interface: login, incidents, news, chat history and the
//     nearest police station lookup.
//  2. HTTPClient, the REST implementation. Authenticated calls send the
//     bearer token passed in by the caller; the package keeps no session.
//  3. Local database bootstrap (InitDatabase, RunMigrations) wiring SQLite and
//     the embedded goose migrations.
//
// # Error Handling
//
// Non-2xx answers come back as *APIError, which unwraps to a sentinel:
// ErrTOTPRequired (the backend asked for a second factor),
// ErrInvalidCredentials (login rejected), ErrUnauthorized, ErrValidation,
// ErrNotFound, ErrUnavailable. Network failures wrap ErrUnavailable.
// Match them with errors.Is.
package client
