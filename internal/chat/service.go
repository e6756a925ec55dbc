package chat

import (
	"context"
	"time"

	"github.com/dmitrijs2005/opsdesk/internal/logging"
	"github.com/dmitrijs2005/opsdesk/internal/textx"
)

// Options configures a Service.
type Options struct {
	ChatURL           string
	Identity          Identity
	ReconnectDelay    time.Duration
	SendRatePerMinute int
}

// Service is one operator's chat session: the event queue, the transport,
// its reconnect supervisor and the conversation they feed.
type Service struct {
	queue      *Queue
	transport  *Transport
	supervisor *Supervisor
	conv       *Conversation
	log        logging.Logger
}

type ServiceOption func(*serviceSettings)

type serviceSettings struct {
	supervisor   []SupervisorOption
	conversation []ConversationOption
}

func WithSupervisorOptions(opts ...SupervisorOption) ServiceOption {
	return func(s *serviceSettings) { s.supervisor = append(s.supervisor, opts...) }
}

func WithConversationOptions(opts ...ConversationOption) ServiceOption {
	return func(s *serviceSettings) { s.conversation = append(s.conversation, opts...) }
}

func NewService(o Options, notify Notifier, log logging.Logger, opts ...ServiceOption) *Service {
	var set serviceSettings
	for _, opt := range opts {
		opt(&set)
	}
	if notify == nil {
		notify = NotifierFunc(func(Notice) {})
	}

	s := &Service{
		queue: NewQueue(),
		log:   log.With("operator_id", o.Identity.OperatorID),
	}
	s.transport = NewTransport(o.ChatURL, SinkFunc(s.post), s.log)
	s.supervisor = NewSupervisor(s.transport, o.Identity, o.ReconnectDelay, s.queue.Post, notify, s.log, set.supervisor...)

	convOpts := append([]ConversationOption{
		WithSendRate(o.SendRatePerMinute),
		WithTextFilter(textx.Plain),
	}, set.conversation...)
	s.conv = NewConversation(o.Identity.OperatorID, s.supervisor, notify, convOpts...)
	return s
}

func (s *Service) post(ev Event) {
	s.queue.Post(func() { s.dispatch(ev) })
}

func (s *Service) dispatch(ev Event) {
	if !s.supervisor.Handle(ev) {
		return
	}
	if m, ok := ev.(MessageReceived); ok {
		s.conv.ReceiveFrame(m.Frame)
	}
}

// Start connects. runCtx bounds the whole session, not just this call.
func (s *Service) Start(ctx, runCtx context.Context) error {
	return s.queue.Call(ctx, func() { s.supervisor.Start(runCtx) })
}

// Stop tears the session down and stops the queue. The service cannot be
// restarted.
func (s *Service) Stop(ctx context.Context) error {
	err := s.queue.Call(ctx, s.supervisor.Stop)
	s.queue.Close()
	return err
}

// Do runs fn on the event queue with exclusive access to the conversation.
func (s *Service) Do(ctx context.Context, fn func(c *Conversation)) error {
	return s.queue.Call(ctx, func() { fn(s.conv) })
}

// Phase reads the supervisor phase on the queue.
func (s *Service) Phase(ctx context.Context) (Phase, error) {
	var p Phase
	err := s.queue.Call(ctx, func() { p = s.supervisor.Phase() })
	return p, err
}
