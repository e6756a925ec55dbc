package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/dmitrijs2005/opsdesk/internal/chat"
	"github.com/dmitrijs2005/opsdesk/internal/client/models"
	"github.com/dmitrijs2005/opsdesk/internal/client/services"
	"github.com/dmitrijs2005/opsdesk/internal/client/session"
	"github.com/dmitrijs2005/opsdesk/internal/logging"
)

// recLogger records messages so tests can check what was logged.
type recLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, level+" "+msg)
}

func (l *recLogger) Debug(_ context.Context, msg string, _ ...any) { l.add("DEBUG", msg) }
func (l *recLogger) Info(_ context.Context, msg string, _ ...any)  { l.add("INFO", msg) }
func (l *recLogger) Warn(_ context.Context, msg string, _ ...any)  { l.add("WARN", msg) }
func (l *recLogger) Error(_ context.Context, msg string, _ ...any) { l.add("ERROR", msg) }
func (l *recLogger) With(...any) logging.Logger                    { return l }

func (l *recLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}

type loginCall struct {
	user, pass, totp string
}

type fakeAuth struct {
	logins    []loginCall
	loginErrs []error
	sess      *session.Session

	current    *session.Session
	currentErr error

	logoutCalled bool
	logoutErr    error
}

func (f *fakeAuth) Login(_ context.Context, user, pass, totp string) (*session.Session, error) {
	f.logins = append(f.logins, loginCall{user, pass, totp})
	if len(f.loginErrs) > 0 {
		err := f.loginErrs[0]
		f.loginErrs = f.loginErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.sess, nil
}

func (f *fakeAuth) Logout(context.Context) error {
	f.logoutCalled = true
	return f.logoutErr
}

func (f *fakeAuth) Current(context.Context) (*session.Session, error) {
	if f.current == nil && f.currentErr == nil {
		return nil, session.ErrNoSession
	}
	return f.current, f.currentErr
}

type fakeIncidents struct {
	refreshErr   error
	refreshCalls int
	items        []models.Incident
	lastFilter   services.Filter

	replies    map[string]string
	replyErr   error
	markedRead []string
	readErr    error
	unread     []string
	station    *models.NearestStation
	stationErr error
}

func (f *fakeIncidents) Refresh(context.Context, *session.Session) error {
	f.refreshCalls++
	return f.refreshErr
}

func (f *fakeIncidents) List(flt services.Filter) []models.Incident {
	f.lastFilter = flt
	return f.items
}

func (f *fakeIncidents) Get(id string) (models.Incident, bool) {
	for _, i := range f.items {
		if i.ID == id {
			return i, true
		}
	}
	return models.Incident{}, false
}

func (f *fakeIncidents) Tags() []string { return []string{models.TagNew} }

func (f *fakeIncidents) Reply(_ context.Context, _ *session.Session, id, msg string) error {
	if f.replyErr != nil {
		return f.replyErr
	}
	if f.replies == nil {
		f.replies = map[string]string{}
	}
	f.replies[id] = msg
	return nil
}

func (f *fakeIncidents) MarkRead(_ context.Context, _ *session.Session, id string) error {
	if f.readErr != nil {
		return f.readErr
	}
	f.markedRead = append(f.markedRead, id)
	return nil
}

func (f *fakeIncidents) MarkUnread(id string) error {
	f.unread = append(f.unread, id)
	return nil
}

func (f *fakeIncidents) NearestStation(context.Context, string) (*models.NearestStation, error) {
	return f.station, f.stationErr
}

type fakeNews struct {
	items      []models.News
	listErr    error
	drafts     []models.NewsDraft
	publishErr error
}

func (f *fakeNews) List(context.Context) ([]models.News, error) { return f.items, f.listErr }

func (f *fakeNews) Publish(_ context.Context, _ *session.Session, d models.NewsDraft) (*models.News, error) {
	f.drafts = append(f.drafts, d)
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	return &models.News{ID: "n1", Title: d.Title}, nil
}

type fakeHistory struct {
	msgs []models.ChatMessage
	err  error
}

func (f *fakeHistory) Load(context.Context, *session.Session) ([]models.ChatMessage, error) {
	return f.msgs, f.err
}

// fakeLink stands in for the chat supervisor under a real Conversation.
type fakeLink struct {
	state chat.ConnState
	sent  []chat.Envelope
}

func (l *fakeLink) State() chat.ConnState { return l.state }

func (l *fakeLink) Send(_ context.Context, env chat.Envelope) error {
	l.sent = append(l.sent, env)
	return nil
}

// fakeChat runs Do synchronously on a real Conversation.
type fakeChat struct {
	conv *chat.Conversation
	link *fakeLink

	mu      sync.Mutex
	phase   chat.Phase
	started bool
	stopped bool

	// onStart runs when the chat connects, standing in for frames pushed
	// right after the channel opens.
	onStart func(c *chat.Conversation)
}

func newFakeChat(self string, notify chat.Notifier) *fakeChat {
	link := &fakeLink{state: chat.StateConnected}
	return &fakeChat{conv: chat.NewConversation(self, link, notify), link: link, phase: chat.PhaseConnected}
}

func (f *fakeChat) Start(context.Context, context.Context) error {
	f.mu.Lock()
	f.started = true
	onStart := f.onStart
	f.mu.Unlock()
	if onStart != nil {
		onStart(f.conv)
	}
	return nil
}

func (f *fakeChat) Stop(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeChat) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func (f *fakeChat) Do(_ context.Context, fn func(c *chat.Conversation)) error {
	if f.isStopped() {
		return chat.ErrQueueClosed
	}
	fn(f.conv)
	return nil
}

func (f *fakeChat) Phase(context.Context) (chat.Phase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return 0, errors.New("stopped")
	}
	return f.phase, nil
}

type testEnv struct {
	app       *App
	auth      *fakeAuth
	incidents *fakeIncidents
	news      *fakeNews
	history   *fakeHistory
	chats     []*fakeChat
	log       *recLogger

	// chatOnStart is handed to every fake chat the app creates.
	chatOnStart func(c *chat.Conversation)
}

func newTestEnv(input ...string) *testEnv {
	env := &testEnv{
		auth:      &fakeAuth{sess: &session.Session{Token: "tok", OperatorID: "op-1", Username: "ivanov"}},
		incidents: &fakeIncidents{},
		news:      &fakeNews{},
		history:   &fakeHistory{},
		log:       &recLogger{},
	}
	env.app = &App{
		log:             env.log,
		authService:     env.auth,
		incidentService: env.incidents,
		newsService:     env.news,
		historyService:  env.history,
		reader:          bufio.NewReader(strings.NewReader(strings.Join(input, "\n") + "\n")),
		out:             io.Discard,
	}
	env.app.newChat = func(sess *session.Session, n chat.Notifier) chatSession {
		c := newFakeChat(sess.OperatorID, n)
		c.onStart = env.chatOnStart
		env.chats = append(env.chats, c)
		return c
	}
	return env
}

// signIn puts the app into a signed-in state with a running fake chat.
func (e *testEnv) signIn() *fakeChat {
	e.app.startSession(context.Background(), e.auth.sess)
	return e.chats[len(e.chats)-1]
}
