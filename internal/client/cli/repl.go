package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Users(ctx context.Context) error
	Select(ctx context.Context, args []string) error
	Send(ctx context.Context, args []string) error
	Messages(ctx context.Context) error
	Incidents(ctx context.Context, args []string) error
	Incident(ctx context.Context, args []string) error
	Reply(ctx context.Context, args []string) error
	MarkUnread(ctx context.Context, args []string) error
	Station(ctx context.Context, args []string) error
	News(ctx context.Context) error
	Publish(ctx context.Context) error
}

// publicCommands may run without a session, like the login page.
var publicCommands = map[string]bool{"help": true, "login": true, "exit": true, "quit": true}

// runREPL starts a simple read–eval–print loop for the operator console.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF, when ctx is done, or when
// the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help                  : show available commands
//	  - login                 : authenticate
//	  - exit | quit           : leave the program
//
//	Logged in:
//	  - users                 : chat roster with unread counters
//	  - select <id>           : open a conversation
//	  - send <text>           : send to the open conversation
//	  - messages              : show the open conversation
//	  - incidents [filter]    : list incidents (all, unread, tag <tag>)
//	  - show <id>             : show an incident and mark it read
//	  - reply <id> <text>     : answer an incident
//	  - unread <id>           : mark an incident unread
//	  - station <id>          : nearest police station to an incident
//	  - news                  : list news
//	  - publish               : publish news
//	  - logout                : log out
//
// Every command but help, login and exit requires a session; without one
// the REPL asks the user to log in first. Any errors returned by command
// handlers are ignored here; handlers report their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("ops> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if !publicCommands[cmd] && !a.isLoggedIn() {
			printlnFn("Please login first")
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: users, select, send, messages, incidents, show, reply, unread, station, news, publish, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "users", "u":
			_ = a.Users(ctx)

		case "select":
			_ = a.Select(ctx, args)

		case "send", "s":
			_ = a.Send(ctx, args)

		case "messages", "m":
			_ = a.Messages(ctx)

		case "incidents", "i":
			_ = a.Incidents(ctx, args)

		case "show":
			_ = a.Incident(ctx, args)

		case "reply":
			_ = a.Reply(ctx, args)

		case "unread":
			_ = a.MarkUnread(ctx, args)

		case "station":
			_ = a.Station(ctx, args)

		case "news":
			_ = a.News(ctx)

		case "publish":
			_ = a.Publish(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
