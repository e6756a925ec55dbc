package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/dmitrijs2005/opsdesk/internal/logging"
)

const (
	RolePolice = "police"

	maxFrameSize       = 64 << 10
	defaultDialTimeout = 10 * time.Second
)

// Identity addresses the chat channel: who the operator is, in which role,
// and the bearer token sent along with the handshake.
type Identity struct {
	OperatorID string
	Role       string
	Token      string
}

// Transport is the duplex channel to the chat endpoint. It holds at most one
// live connection; Connect replaces whatever was there. It never reconnects
// on its own.
type Transport struct {
	url         string
	sink        EventSink
	log         logging.Logger
	dialTimeout time.Duration

	mu     sync.Mutex
	seq    uint64
	conn   *websocket.Conn
	cancel context.CancelFunc
	state  ConnState
}

func NewTransport(chatURL string, sink EventSink, log logging.Logger) *Transport {
	return &Transport{
		url:         chatURL,
		sink:        sink,
		log:         log.With("component", "chat-transport"),
		dialTimeout: defaultDialTimeout,
	}
}

// Connect tears down any previous channel and starts dialing a new one in
// the background. The returned id tags every event of this attempt.
func (t *Transport) Connect(ctx context.Context, id Identity) (uint64, error) {
	u, err := endpointURL(t.url, id)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	t.teardownLocked()
	t.seq++
	seq := t.seq
	connCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.state = StateConnecting
	t.mu.Unlock()

	go t.run(connCtx, seq, u, id.Token)
	return seq, nil
}

// Send writes env to the channel. When the channel is not connected it
// returns nil without writing anything; callers check State first.
func (t *Transport) Send(ctx context.Context, env Envelope) error {
	t.mu.Lock()
	conn, state := t.conn, t.state
	t.mu.Unlock()

	if state != StateConnected || conn == nil {
		return nil
	}

	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, b); err != nil {
		return fmt.Errorf("chat write: %w", err)
	}
	return nil
}

// Close releases the channel. No events are emitted for it.
func (t *Transport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.teardownLocked()
}

func (t *Transport) State() ConnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// teardownLocked closes the current connection and invalidates its id so
// its read loop exits silently.
func (t *Transport) teardownLocked() {
	t.seq++
	if conn := t.conn; conn != nil {
		cancel := t.cancel
		go func() {
			_ = conn.Close(websocket.StatusNormalClosure, "operator left")
			cancel()
		}()
	} else if t.cancel != nil {
		t.cancel()
	}
	t.conn = nil
	t.cancel = nil
	t.state = StateDisconnected
}

// finish marks attempt seq as ended. It reports false when seq is no longer
// the current attempt, in which case nothing must be emitted.
func (t *Transport) finish(seq uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.seq != seq {
		return false
	}
	if t.cancel != nil {
		t.cancel()
	}
	t.conn = nil
	t.cancel = nil
	t.state = StateDisconnected
	return true
}

func (t *Transport) run(ctx context.Context, seq uint64, u, token string) {
	opts := &websocket.DialOptions{}
	if token != "" {
		opts.HTTPHeader = http.Header{"Authorization": {"Bearer " + token}}
	}

	dialCtx, cancel := context.WithTimeout(ctx, t.dialTimeout)
	conn, _, err := websocket.Dial(dialCtx, u, opts)
	cancel()
	if err != nil {
		if !t.finish(seq) {
			return
		}
		t.log.Warn(ctx, "chat dial failed", "error", err)
		t.sink.Handle(Failed{Source: Source{seq}, Err: err})
		t.sink.Handle(Closed{Source: Source{seq}, Code: -1, Reason: err.Error()})
		return
	}
	conn.SetReadLimit(maxFrameSize)

	t.mu.Lock()
	if t.seq != seq {
		t.mu.Unlock()
		_ = conn.CloseNow()
		return
	}
	t.conn = conn
	t.state = StateConnected
	t.mu.Unlock()

	t.log.Info(ctx, "chat connected")
	t.sink.Handle(Opened{Source: Source{seq}})

	t.readLoop(ctx, seq, conn)
}

func (t *Transport) readLoop(ctx context.Context, seq uint64, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if !t.finish(seq) {
				return
			}
			ev := Closed{Source: Source{seq}, Code: -1, Reason: err.Error()}
			var ce websocket.CloseError
			if errors.As(err, &ce) {
				ev.Code, ev.Reason = ce.Code, ce.Reason
			}
			t.log.Warn(ctx, "chat connection closed", "reason", ev.String())
			t.sink.Handle(ev)
			return
		}

		frame, err := DecodeInbound(data)
		if err != nil {
			t.log.Warn(ctx, "dropping chat frame", "error", err)
			t.sink.Handle(Failed{Source: Source{seq}, Err: err})
			continue
		}
		t.log.Debug(ctx, "chat frame", "sender_id", frame.SenderID)
		t.sink.Handle(MessageReceived{Source: Source{seq}, Frame: frame})
	}
}

// endpointURL appends user_id and role to the chat URL.
func endpointURL(raw string, id Identity) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid chat url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" && u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid chat url scheme %q", u.Scheme)
	}
	role := id.Role
	if role == "" {
		role = RolePolice
	}
	q := u.Query()
	q.Set("user_id", id.OperatorID)
	q.Set("role", role)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
