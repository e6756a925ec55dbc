package chat

import (
	"fmt"

	"github.com/coder/websocket"
)

// ConnState is the connection state as seen by the conversation.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Event is one of Opened, MessageReceived, Closed or Failed. Every event
// names the connection attempt it belongs to, so events from a channel that
// has since been replaced can be dropped.
type Event interface {
	ConnID() uint64
}

// Source identifies the connection attempt an event came from.
type Source struct {
	Conn uint64
}

func (s Source) ConnID() uint64 { return s.Conn }

type Opened struct {
	Source
}

type MessageReceived struct {
	Source
	Frame InboundFrame
}

// Closed reports an unexpected end of the channel. Code is -1 when the
// channel ended without a close frame (dial failure, network error).
type Closed struct {
	Source
	Code   websocket.StatusCode
	Reason string
}

func (c Closed) String() string {
	if c.Code < 0 {
		return c.Reason
	}
	return fmt.Sprintf("%d %s", c.Code, c.Reason)
}

type Failed struct {
	Source
	Err error
}

// EventSink receives transport events. Implementations must not block.
type EventSink interface {
	Handle(ev Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ev Event)

func (f SinkFunc) Handle(ev Event) { f(ev) }
