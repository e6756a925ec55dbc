package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/opsdesk/internal/chat"
)

var errNoChat = errors.New("chat is not running")

func (a *App) notify(n chat.Notice) {
	printlnFn(fmt.Sprintf("[%s] %s", n.Level, n.Text))
}

func (a *App) withChat(ctx context.Context, fn func(c *chat.Conversation)) error {
	a.mu.Lock()
	cs := a.chat
	a.mu.Unlock()
	if cs == nil {
		return errNoChat
	}
	return cs.Do(ctx, fn)
}

// Users prints the chat roster, most recent conversation first.
func (a *App) Users(ctx context.Context) error {
	var (
		users  []chat.User
		active string
	)
	err := a.withChat(ctx, func(c *chat.Conversation) {
		users, active = c.Users(), c.Active()
	})
	if err != nil {
		a.handleErr(ctx, "Chat unavailable", err)
		return err
	}
	if len(users) == 0 {
		printlnFn("No conversations yet")
		return nil
	}
	for _, u := range users {
		printlnFn(formatUser(u, u.ID == active))
	}
	return nil
}

// Select makes the user referenced by args[0] (id or id prefix) active and
// prints the conversation.
func (a *App) Select(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: select <user id>")
		return nil
	}

	var (
		msgs []chat.Message
		user chat.User
		err  error
	)
	cerr := a.withChat(ctx, func(c *chat.Conversation) {
		var id string
		if id, err = c.FindUser(args[0]); err != nil {
			return
		}
		if err = c.SelectUser(id); err != nil {
			return
		}
		user, _ = c.ActiveUser()
		msgs = c.Messages(id)
	})
	if err = errors.Join(cerr, err); err != nil {
		printlnFn("Cannot select user:", userMessage(err))
		return err
	}

	printlnFn("Chat with", user.Name)
	for _, m := range msgs {
		printlnFn(formatMessage(m))
	}
	return nil
}

// Send sends the rest of the line to the active user.
func (a *App) Send(ctx context.Context, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))

	var err error
	cerr := a.withChat(ctx, func(c *chat.Conversation) {
		err = c.SendToActive(ctx, text)
	})
	if cerr != nil {
		a.handleErr(ctx, "Chat unavailable", cerr)
		return cerr
	}
	// the conversation has already shown a notice for err
	return err
}

// Messages prints the active conversation.
func (a *App) Messages(ctx context.Context) error {
	var (
		msgs []chat.Message
		user chat.User
		ok   bool
	)
	err := a.withChat(ctx, func(c *chat.Conversation) {
		if user, ok = c.ActiveUser(); ok {
			msgs = c.Messages(user.ID)
		}
	})
	if err != nil {
		a.handleErr(ctx, "Chat unavailable", err)
		return err
	}
	if !ok {
		printlnFn("No user selected, use: select <user id>")
		return nil
	}
	printlnFn("Chat with", user.Name)
	for _, m := range msgs {
		printlnFn(formatMessage(m))
	}
	return nil
}
