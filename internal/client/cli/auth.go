package cli

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/opsdesk/internal/chat"
	"github.com/dmitrijs2005/opsdesk/internal/client/client"
	"github.com/dmitrijs2005/opsdesk/internal/client/session"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

const stopTimeout = 5 * time.Second

// Login prompts for credentials and signs in. When the account has two-factor
// authentication enabled the backend refuses the first attempt; the operator
// is then asked for the code and the login is repeated once with it.
//
// On success the chat is connected and the incident inbox loaded. A failed
// login prints the reason and leaves the console signed out; the error is
// returned for callers that care.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		printlnFn("Already signed in as", a.session.Display())
		return nil
	}

	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	sess, err := a.authService.Login(ctx, userName, string(password), "")
	if errors.Is(err, client.ErrTOTPRequired) {
		printlnFn(client.TOTPRequiredMessage)
		code, cerr := getSimpleText(a.reader, "Enter 2FA code", a.out)
		if cerr != nil {
			return cerr
		}
		sess, err = a.authService.Login(ctx, userName, string(password), code)
	}
	if err != nil {
		a.log.Warn(ctx, "login unsuccessful", "error", err)
		printlnFn("Login unsuccessful:", userMessage(err))
		return err
	}

	a.log.Info(ctx, "login successful", "operator_id", sess.OperatorID)
	printlnFn("Signed in as", sess.Display())
	a.startSession(ctx, sess)
	return nil
}

// Logout tears the chat down and drops the stored session.
func (a *App) Logout(ctx context.Context) error {
	a.stopChat()
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.session = nil
	a.setMode("")
	printlnFn("Signed out")
	return nil
}

// startSession seeds the chat for sess with stored history, connects it and
// loads the incident inbox. History goes in before the connect so live
// messages always land after it. Failures past the chat connect are reported
// and otherwise ignored.
func (a *App) startSession(ctx context.Context, sess *session.Session) {
	a.session = sess

	if a.newChat != nil {
		cs := a.newChat(sess, chat.NotifierFunc(a.notify))
		a.seedHistory(ctx, cs)
		if err := cs.Start(ctx, ctx); err != nil {
			a.log.Error(ctx, "chat start failed", "error", err)
		} else {
			a.mu.Lock()
			a.chat = cs
			a.mu.Unlock()
		}
	}

	if err := a.incidentService.Refresh(ctx, sess); err != nil {
		a.handleErr(ctx, "Could not load incidents", err)
	}
}

func (a *App) seedHistory(ctx context.Context, cs chatSession) {
	history, err := a.historyService.Load(ctx, a.session)
	if err != nil {
		a.log.Warn(ctx, "chat history unavailable", "error", err)
		return
	}
	_ = cs.Do(ctx, func(c *chat.Conversation) { c.Seed(history) })
}

func (a *App) stopChat() {
	a.mu.Lock()
	cs := a.chat
	a.chat = nil
	a.mu.Unlock()
	if cs == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := cs.Stop(ctx); err != nil {
		a.log.Warn(ctx, "chat stop", "error", err)
	}
}

// expire signs the operator out after the backend rejected the token.
func (a *App) expire(ctx context.Context) {
	if !a.isLoggedIn() {
		return
	}
	printlnFn("Session expired, please login again")
	_ = a.Logout(ctx)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
