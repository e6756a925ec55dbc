package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/opsdesk/internal/chat"
	"github.com/dmitrijs2005/opsdesk/internal/client/client"
	"github.com/dmitrijs2005/opsdesk/internal/client/config"
	"github.com/dmitrijs2005/opsdesk/internal/client/services"
	"github.com/dmitrijs2005/opsdesk/internal/client/session"
	"github.com/dmitrijs2005/opsdesk/internal/logging"
)

// Mode is the chat connection as shown in the prompt.
type Mode string

const (
	ModeOffline    Mode = "offline"
	ModeConnecting Mode = "connecting"
	ModeOnline     Mode = "online"
)

// chatSession is what the console needs from a running chat. *chat.Service
// satisfies it.
type chatSession interface {
	Start(ctx, runCtx context.Context) error
	Stop(ctx context.Context) error
	Do(ctx context.Context, fn func(c *chat.Conversation)) error
	Phase(ctx context.Context) (chat.Phase, error)
}

type chatFactory func(sess *session.Session, notify chat.Notifier) chatSession

type App struct {
	config          *config.Config
	log             logging.Logger
	authService     services.AuthService
	incidentService services.IncidentService
	newsService     services.NewsService
	historyService  services.HistoryService
	newChat         chatFactory
	reader          *bufio.Reader
	out             io.Writer

	session *session.Session
	chat    chatSession

	mu   sync.Mutex
	Mode Mode
}

// NewApp opens the session database and builds the services. The returned
// cleanup closes the database.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, func(), error) {
	db, err := client.InitDatabase(ctx, c.SessionDB)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, nil, err
	}

	api := client.NewHTTPClient(c.APIBaseURL, c.RequestTimeout)
	store := session.NewStore(db, c.SessionMaxAge, c.OperatorID)

	a := &App{
		config:          c,
		log:             log,
		authService:     services.NewAuthService(api, store),
		incidentService: services.NewIncidentService(api),
		newsService:     services.NewNewsService(api),
		historyService:  services.NewHistoryService(api),
		reader:          bufio.NewReader(os.Stdin),
		out:             os.Stdout,
	}
	a.newChat = func(sess *session.Session, notify chat.Notifier) chatSession {
		return chat.NewService(chat.Options{
			ChatURL: c.ChatURL,
			Identity: chat.Identity{
				OperatorID: sess.OperatorID,
				Role:       chat.RolePolice,
				Token:      sess.Token,
			},
			ReconnectDelay:    c.ReconnectDelay,
			SendRatePerMinute: c.SendRatePerMinute,
		}, notify, log)
	}

	return a, func() { _ = db.Close() }, nil
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Mode != mode {
		a.Mode = mode
		a.log.Info(context.Background(), fmt.Sprintf("Switched to %s mode", mode))
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) getStatus() string {
	s := ""
	if a.session != nil {
		s = a.session.Display() + " "
	}
	if m := a.mode(); m != "" {
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Run resumes a stored session or asks for credentials, then serves the REPL
// until the operator exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to the opsdesk console (type 'help' for commands)")

	if sess, err := a.authService.Current(ctx); err == nil {
		printlnFn("Signed in as", sess.Display())
		a.startSession(ctx, sess)
	} else {
		_ = a.Login(ctx)
	}
	defer a.stopChat()

	go a.StartChatStatusWatcher(ctx, time.Second)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

// StartChatStatusWatcher polls the chat phase every interval and reflects it
// in the prompt mode.
func (a *App) StartChatStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.mu.Lock()
			cs := a.chat
			a.mu.Unlock()
			if cs == nil {
				continue
			}

			callCtx, cancel := context.WithTimeout(ctx, time.Second)
			phase, err := cs.Phase(callCtx)
			cancel()
			if err != nil {
				continue
			}
			a.setMode(modeFor(phase))

		case <-ctx.Done():
			return
		}
	}
}

func modeFor(p chat.Phase) Mode {
	switch p {
	case chat.PhaseConnected:
		return ModeOnline
	case chat.PhaseConnecting:
		return ModeConnecting
	default:
		return ModeOffline
	}
}
