package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/opsdesk/internal/client/models"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var (
	ErrNotConnected = errors.New("no connection to chat server")
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoActiveUser = errors.New("no user selected")
	ErrUnknownUser  = errors.New("unknown user")
	ErrRateLimited  = errors.New("sending too fast")
)

// Role says who wrote a message.
type Role string

const (
	RoleOperator Role = "operator"
	RoleUser     Role = "user"
)

// Status is the delivery status of a message. It only ever grows.
type Status int

const (
	StatusSent Status = iota
	StatusDelivered
	StatusRead
)

func (s Status) String() string {
	switch s {
	case StatusDelivered:
		return "delivered"
	case StatusRead:
		return "read"
	default:
		return "sent"
	}
}

type Message struct {
	ID     string
	Body   string
	Role   Role
	Time   time.Time
	Status Status
}

type User struct {
	ID              string
	Name            string
	Online          bool
	LastMessage     string
	LastMessageTime time.Time
	Unread          int
}

// Link is what the conversation needs from the channel owner.
type Link interface {
	State() ConnState
	Send(ctx context.Context, env Envelope) error
}

// Conversation is the in-memory projection of the chat: users, their
// messages in arrival order, the active selection and unread counters.
// It is not safe for concurrent use; run it on the event queue.
type Conversation struct {
	self    string
	link    Link
	notify  Notifier
	limiter *rate.Limiter
	filter  func(string) string
	now     func() time.Time
	newID   func() string

	users    map[string]*User
	messages map[string][]Message
	active   string
}

type ConversationOption func(*Conversation)

// WithSendRate limits outbound messages to perMinute, with a small burst.
// Zero or less disables the limit. A send the link fails to write gives its
// token back.
func WithSendRate(perMinute int) ConversationOption {
	return func(c *Conversation) {
		if perMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 5)
	}
}

// WithTextFilter cleans inbound bodies before they are stored.
func WithTextFilter(f func(string) string) ConversationOption {
	return func(c *Conversation) { c.filter = f }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ConversationOption {
	return func(c *Conversation) { c.now = now }
}

// NewConversation builds an empty conversation for operator self.
func NewConversation(self string, link Link, notify Notifier, opts ...ConversationOption) *Conversation {
	c := &Conversation{
		self:     self,
		link:     link,
		notify:   notify,
		limiter:  rate.NewLimiter(rate.Inf, 0),
		filter:   func(s string) string { return s },
		now:      time.Now,
		newID:    uuid.NewString,
		users:    make(map[string]*User),
		messages: make(map[string][]Message),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SelectUser makes id the active conversation, zeroes its unread counter and
// marks its inbound messages as read. Read receipts stay local.
func (c *Conversation) SelectUser(id string) error {
	u, ok := c.users[id]
	if !ok {
		return ErrUnknownUser
	}
	c.active = id
	u.Unread = 0

	msgs := c.messages[id]
	for i := range msgs {
		if msgs[i].Role == RoleUser && msgs[i].Status < StatusRead {
			msgs[i].Status = StatusRead
		}
	}
	return nil
}

// ReceiveMessage appends an inbound message from senderID.
func (c *Conversation) ReceiveMessage(senderID, body string) {
	c.ReceiveFrame(InboundFrame{SenderID: senderID, Message: body})
}

// ReceiveFrame appends f as a delivered message of its sender. Unknown
// senders get a placeholder user. The unread counter grows unless the sender
// is the active selection. Frames sent by this operator, and frames whose id
// is already listed, are ignored.
func (c *Conversation) ReceiveFrame(f InboundFrame) {
	if f.SenderID == "" || f.SenderID == c.self || c.hasMessage(f.SenderID, f.ID) {
		return
	}

	now := c.now()
	at := f.CreatedAt
	if at.IsZero() {
		at = now
	}
	id := f.ID
	if id == "" {
		id = c.newID()
	}
	body := c.filter(f.Message)

	u, ok := c.users[f.SenderID]
	if !ok {
		u = &User{ID: f.SenderID, Name: PlaceholderName(f.SenderID)}
		c.users[f.SenderID] = u
	}

	c.messages[f.SenderID] = append(c.messages[f.SenderID], Message{
		ID:     id,
		Body:   body,
		Role:   RoleUser,
		Time:   at,
		Status: StatusDelivered,
	})

	u.LastMessage = body
	u.LastMessageTime = at
	u.Online = true
	if c.active == f.SenderID {
		u.Unread = 0
	} else {
		u.Unread++
		c.notify.Notify(Notice{Level: LevelInfo, Text: "New message from " + u.Name})
	}
}

// SendMessage transmits body to recipientID and appends it locally with
// status sent. It does nothing but notify when the channel is not connected,
// the body is blank, no recipient is given or the send rate is exceeded.
func (c *Conversation) SendMessage(ctx context.Context, recipientID, body string) error {
	r, err := c.checkSend(recipientID, body)
	if err != nil {
		c.notify.Notify(Notice{Level: LevelWarn, Text: capitalize(err.Error())})
		return err
	}

	if err := c.link.Send(ctx, Envelope{RecipientID: recipientID, Message: body}); err != nil {
		r.CancelAt(c.now())
		c.notify.Notify(Notice{Level: LevelError, Text: "Message was not sent"})
		return err
	}

	now := c.now()
	u, ok := c.users[recipientID]
	if !ok {
		u = &User{ID: recipientID, Name: PlaceholderName(recipientID)}
		c.users[recipientID] = u
	}
	c.messages[recipientID] = append(c.messages[recipientID], Message{
		ID:     c.newID(),
		Body:   body,
		Role:   RoleOperator,
		Time:   now,
		Status: StatusSent,
	})
	u.LastMessage = body
	u.LastMessageTime = now
	return nil
}

// SendToActive sends body to the active selection.
func (c *Conversation) SendToActive(ctx context.Context, body string) error {
	return c.SendMessage(ctx, c.active, body)
}

// checkSend validates a send and reserves one token of the send budget.
func (c *Conversation) checkSend(recipientID, body string) (*rate.Reservation, error) {
	if c.link.State() != StateConnected {
		return nil, ErrNotConnected
	}
	if recipientID == "" {
		return nil, ErrNoActiveUser
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}
	now := c.now()
	r := c.limiter.ReserveN(now, 1)
	if !r.OK() {
		return nil, ErrRateLimited
	}
	if r.DelayFrom(now) > 0 {
		r.CancelAt(now)
		return nil, ErrRateLimited
	}
	return r, nil
}

// AdvanceStatus raises the status of message msgID of userID. Lower or equal
// statuses are ignored; it reports whether anything changed.
func (c *Conversation) AdvanceStatus(userID, msgID string, status Status) bool {
	msgs := c.messages[userID]
	for i := range msgs {
		if msgs[i].ID != msgID {
			continue
		}
		if status <= msgs[i].Status {
			return false
		}
		msgs[i].Status = status
		return true
	}
	return false
}

// Seed loads stored history for this operator, oldest first. Messages the
// operator sent are filed under their recipient, everything else under its
// sender. History counts as read.
func (c *Conversation) Seed(history []models.ChatMessage) {
	for _, m := range history {
		if m.SenderID == nil {
			continue
		}
		peer, role, status := *m.SenderID, RoleUser, StatusRead
		if peer == c.self {
			if m.RecipientID == nil {
				continue
			}
			peer, role = *m.RecipientID, RoleOperator
		}
		if peer == "" || peer == c.self || c.hasMessage(peer, m.ID) {
			continue
		}

		u, ok := c.users[peer]
		if !ok {
			u = &User{ID: peer, Name: PlaceholderName(peer)}
			c.users[peer] = u
		}
		id := m.ID
		if id == "" {
			id = c.newID()
		}
		body := m.Message
		if role == RoleUser {
			body = c.filter(body)
		}
		c.messages[peer] = append(c.messages[peer], Message{ID: id, Body: body, Role: role, Time: m.CreatedAt, Status: status})
		if !m.CreatedAt.Before(u.LastMessageTime) {
			u.LastMessage = body
			u.LastMessageTime = m.CreatedAt
		}
	}
}

// hasMessage reports whether userID already holds a message with id. Empty
// ids never match.
func (c *Conversation) hasMessage(userID, id string) bool {
	if id == "" {
		return false
	}
	for _, m := range c.messages[userID] {
		if m.ID == id {
			return true
		}
	}
	return false
}

func (c *Conversation) Active() string { return c.active }

// ActiveUser returns a copy of the selected user, if any.
func (c *Conversation) ActiveUser() (User, bool) {
	u, ok := c.users[c.active]
	if !ok {
		return User{}, false
	}
	return *u, true
}

func (c *Conversation) Unread(id string) int {
	if u, ok := c.users[id]; ok {
		return u.Unread
	}
	return 0
}

func (c *Conversation) TotalUnread() int {
	n := 0
	for _, u := range c.users {
		n += u.Unread
	}
	return n
}

func (c *Conversation) State() ConnState { return c.link.State() }

// Messages returns a copy of id's messages in arrival order.
func (c *Conversation) Messages(id string) []Message {
	msgs := c.messages[id]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Users returns copies of all users, most recent conversation first.
func (c *Conversation) Users() []User {
	out := make([]User, 0, len(c.users))
	for _, u := range c.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastMessageTime.Equal(out[j].LastMessageTime) {
			return out[i].LastMessageTime.After(out[j].LastMessageTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FindUser resolves a user by exact id or unique id prefix.
func (c *Conversation) FindUser(ref string) (string, error) {
	if _, ok := c.users[ref]; ok {
		return ref, nil
	}
	match := ""
	for id := range c.users {
		if ref != "" && strings.HasPrefix(id, ref) {
			if match != "" {
				return "", ErrUnknownUser
			}
			match = id
		}
	}
	if match == "" {
		return "", ErrUnknownUser
	}
	return match, nil
}

// PlaceholderName is the display name of a user known only by id.
func PlaceholderName(id string) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return "User " + short
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
