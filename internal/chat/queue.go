package chat

import (
	"context"
	"errors"
	"sync"
)

var ErrQueueClosed = errors.New("event queue closed")

// Queue runs posted functions one at a time, in order, on a single
// goroutine. Transport events, timer callbacks and operator actions all go
// through it, so the state they touch needs no further locking.
//
// Post never blocks. Functions running on the queue must not call Call.
type Queue struct {
	mu     sync.Mutex
	items  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

func NewQueue() *Queue {
	q := &Queue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go q.loop()
	return q
}

// Post schedules fn. It reports false if the queue is already closed.
func (q *Queue) Post(fn func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, fn)
	select {
	case q.wake <- struct{}{}:
	default:
	}
	q.mu.Unlock()
	return true
}

// Call runs fn on the queue and waits for it to finish.
func (q *Queue) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !q.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrQueueClosed
	}

	select {
	case <-finished:
		return nil
	case <-q.done:
		// closed while fn was still queued
		select {
		case <-finished:
			return nil
		default:
			return ErrQueueClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the queue after the function currently running, dropping
// anything still pending, and waits for the loop to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.items = nil
		close(q.wake)
	}
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) loop() {
	defer close(q.done)
	for range q.wake {
		for {
			q.mu.Lock()
			if q.closed || len(q.items) == 0 {
				q.mu.Unlock()
				break
			}
			fn := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()

			fn()
		}
	}
}
