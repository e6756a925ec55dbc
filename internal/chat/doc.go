// Package chat is the operator side of the realtime chat: a duplex
// transport to the chat endpoint, a supervisor that reconnects it after a
// fixed delay, and the conversation state those events feed.
//
// Everything that touches state runs on a single Queue. Transport read
// loops and reconnect timers never mutate anything themselves; they post a
// function onto the queue and return.
package chat
