package chat

import (
	"context"
	"time"

	"github.com/dmitrijs2005/opsdesk/internal/logging"
)

// DefaultReconnectDelay is the fixed pause between an unexpected close and
// the next dial.
const DefaultReconnectDelay = 5 * time.Second

// Phase is the supervisor's state.
//
//	Idle -> Connecting -> Connected -> Disconnected -> Connecting -> ...
//
// Terminated is final and reachable from every phase through Stop.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseConnected
	PhaseDisconnected
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseConnected:
		return "connected"
	case PhaseDisconnected:
		return "disconnected"
	case PhaseTerminated:
		return "terminated"
	default:
		return "idle"
	}
}

// Channel is the part of Transport the supervisor drives.
type Channel interface {
	Connect(ctx context.Context, id Identity) (uint64, error)
	Send(ctx context.Context, env Envelope) error
	Close()
	State() ConnState
}

// Timer is a pending reconnect.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d, like time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Supervisor owns the channel and the pending reconnect timer. All methods
// must be called from the event queue; timer callbacks are posted back onto
// it through post.
type Supervisor struct {
	channel   Channel
	identity  Identity
	delay     time.Duration
	afterFunc AfterFunc
	post      func(func()) bool
	notify    Notifier
	log       logging.Logger

	ctx      context.Context
	phase    Phase
	current  uint64
	active   bool
	timer    Timer
	timerSeq uint64
	attempts int
}

type SupervisorOption func(*Supervisor)

// WithAfterFunc replaces time.AfterFunc, letting tests drive the clock.
func WithAfterFunc(f AfterFunc) SupervisorOption {
	return func(s *Supervisor) { s.afterFunc = f }
}

func NewSupervisor(channel Channel, identity Identity, delay time.Duration, post func(func()) bool,
	notify Notifier, log logging.Logger, opts ...SupervisorOption) *Supervisor {
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	s := &Supervisor{
		channel:   channel,
		identity:  identity,
		delay:     delay,
		afterFunc: realAfterFunc,
		post:      post,
		notify:    notify,
		log:       log.With("component", "chat-supervisor"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Supervisor) Phase() Phase { return s.phase }

// State maps the phase onto the connection state used to gate sends. The
// channel can drop before its Closed event reaches the queue, so Connected
// also requires the channel itself to still be connected.
func (s *Supervisor) State() ConnState {
	switch s.phase {
	case PhaseConnected:
		if s.channel.State() != StateConnected {
			return StateDisconnected
		}
		return StateConnected
	case PhaseConnecting:
		return StateConnecting
	default:
		return StateDisconnected
	}
}

// Attempts counts reconnects made since the last successful open.
func (s *Supervisor) Attempts() int { return s.attempts }

// Start leaves Idle and dials. ctx bounds every connection the supervisor
// makes.
func (s *Supervisor) Start(ctx context.Context) {
	if s.phase != PhaseIdle {
		return
	}
	s.ctx = ctx
	s.active = true
	s.connect()
}

// Stop cancels any pending reconnect, closes the channel and moves to
// Terminated. Nothing happens afterwards.
func (s *Supervisor) Stop() {
	if s.phase == PhaseTerminated {
		return
	}
	s.active = false
	s.cancelTimer()
	s.channel.Close()
	s.phase = PhaseTerminated
	s.log.Info(context.Background(), "chat stopped")
}

// Send forwards env to the channel. It returns ErrNotConnected instead of
// letting the channel drop env silently.
func (s *Supervisor) Send(ctx context.Context, env Envelope) error {
	if s.channel.State() != StateConnected {
		return ErrNotConnected
	}
	return s.channel.Send(ctx, env)
}

// Handle applies a transport event. It reports false for events that must be
// ignored: from a replaced connection, or arriving after Stop.
func (s *Supervisor) Handle(ev Event) bool {
	if s.phase == PhaseTerminated || !s.active || ev.ConnID() != s.current {
		return false
	}

	switch e := ev.(type) {
	case Opened:
		s.phase = PhaseConnected
		s.attempts = 0
		s.cancelTimer()
		s.notify.Notify(Notice{Level: LevelSuccess, Text: "Connected to chat server"})

	case Closed:
		s.phase = PhaseDisconnected
		s.notify.Notify(Notice{Level: LevelError, Text: "Connection to chat server lost"})
		s.log.Warn(s.ctx, "chat channel closed", "reason", e.String())
		s.scheduleReconnect()

	case Failed:
		s.log.Warn(s.ctx, "chat channel error", "error", e.Err)
		s.notify.Notify(Notice{Level: LevelError, Text: "Chat connection error"})
	}
	return true
}

func (s *Supervisor) connect() {
	s.phase = PhaseConnecting
	id, err := s.channel.Connect(s.ctx, s.identity)
	if err != nil {
		s.log.Error(s.ctx, "chat connect failed", "error", err)
		s.notify.Notify(Notice{Level: LevelError, Text: "Could not connect to chat server"})
		s.phase = PhaseDisconnected
		s.scheduleReconnect()
		return
	}
	s.current = id
}

// scheduleReconnect arms exactly one timer. A second close while one is
// pending does not add another.
func (s *Supervisor) scheduleReconnect() {
	if !s.active || s.timer != nil {
		return
	}
	s.timerSeq++
	seq := s.timerSeq
	s.timer = s.afterFunc(s.delay, func() {
		s.post(func() { s.fireReconnect(seq) })
	})
}

// fireReconnect runs on the queue when the timer expires. The liveness
// checks cover a Stop or a successful open that raced with the timer.
func (s *Supervisor) fireReconnect(seq uint64) {
	if !s.active || s.phase == PhaseTerminated || seq != s.timerSeq || s.timer == nil {
		return
	}
	s.timer = nil
	if s.phase != PhaseDisconnected {
		return
	}
	s.attempts++
	s.notify.Notify(Notice{Level: LevelInfo, Text: "Trying to reconnect..."})
	s.log.Info(s.ctx, "chat reconnecting", "attempt", s.attempts)
	s.connect()
}

func (s *Supervisor) cancelTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerSeq++
}
