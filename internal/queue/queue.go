// Package queue implements the bounded, FIFO, tick-timeout message queues
// the RTOS provides in the original firmware (xQueueCreate / xQueueSendToBack
// / xQueueSendToBackFromISR / xQueueReceive), as plain buffered channels.
package queue

import (
	"context"
	"time"

	"github.com/rebbleos/appmanager/internal/types"
)

// Queue is a bounded FIFO of T, backed by a buffered channel.
type Queue[T any] struct {
	ch chan T
}

// New creates a queue with the given capacity.
func New[T any](capacity int) *Queue[T] {
	return &Queue[T]{ch: make(chan T, capacity)}
}

// SendTimeout enqueues v, blocking up to timeout. Returns types.ErrFull if
// the queue stayed full for the whole timeout. This is the caller-context
// send variant (posters suspend up to 100 ticks on start, 10 ticks on quit or
// button).
func (q *Queue[T]) SendTimeout(v T, timeout time.Duration) error {
	select {
	case q.ch <- v:
		return nil
	case <-time.After(timeout):
		return types.ErrFull
	}
}

// TrySend enqueues v without blocking, the ISR-safe send variant, which
// never suspends. Returns false if the queue was full.
func (q *Queue[T]) TrySend(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
		return false
	}
}

// Receive blocks up to timeout waiting for a value. The second return value
// is false on timeout.
func (q *Queue[T]) Receive(timeout time.Duration) (T, bool) {
	var zero T
	select {
	case v := <-q.ch:
		return v, true
	case <-time.After(timeout):
		return zero, false
	}
}

// ReceiveCtx blocks until a value arrives or ctx is done (the controller
// task's infinite wait on thread_q, bounded only by cancellation).
func (q *Queue[T]) ReceiveCtx(ctx context.Context) (T, bool) {
	var zero T
	select {
	case v := <-q.ch:
		return v, true
	case <-ctx.Done():
		return zero, false
	}
}

// Drain discards any pending values and returns how many were discarded.
// Used on app start to clear events left over from the previous app.
func (q *Queue[T]) Drain() int {
	n := 0
	for {
		select {
		case <-q.ch:
			n++
		default:
			return n
		}
	}
}

// Len reports the number of values currently queued.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}
