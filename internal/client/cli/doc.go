// Package cli provides the interactive operator console.
//
// It wires configuration, the local session database, the backend API
// services and the chat session into a REPL. Typical flow: resume the stored
// session or prompt for credentials, connect the chat, start a background
// watcher that reports connection changes, and execute operator commands.
//
// Key features:
//   - Login (with two-factor code) / Logout
//   - Chat: list users, select one, send, show the conversation
//   - Incidents: list and filter, show, reply, mark read/unread, nearest station
//   - News: list and publish
//
// The REPL is started via App.Run(ctx), which blocks until the operator exits.
// See App, StartChatStatusWatcher, and runREPL for details.
package cli
