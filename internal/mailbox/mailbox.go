// Package mailbox implements an ordered, unbounded, multi-producer
// single-consumer queue. Senders never block; the single Receiver can
// poll, block with a context, or select on a readiness channel.
package mailbox

import (
	"context"
	"sync"
)

type queue[T any] struct {
	mu    sync.Mutex
	items []T
	// ready holds at most one pending wake-up for the receiver.
	ready chan struct{}
}

// Sender is the producing side of a mailbox. It is a small value; copying it
// yields another sender into the same queue. The zero Sender is invalid and
// Send on it panics.
type Sender[T any] struct {
	q *queue[T]
}

// Receiver is the consuming side of a mailbox. There is exactly one per
// queue and it must only be used from one goroutine at a time.
type Receiver[T any] struct {
	q *queue[T]
}

// New returns the two ends of a fresh, empty mailbox.
func New[T any]() (Sender[T], *Receiver[T]) {
	q := &queue[T]{ready: make(chan struct{}, 1)}
	return Sender[T]{q: q}, &Receiver[T]{q: q}
}

// Send appends v to the queue. It never blocks.
func (s Sender[T]) Send(v T) {
	s.q.mu.Lock()
	s.q.items = append(s.q.items, v)
	s.q.mu.Unlock()

	select {
	case s.q.ready <- struct{}{}:
	default:
	}
}

// Valid reports whether s was obtained from New.
func (s Sender[T]) Valid() bool {
	return s.q != nil
}

// Same reports whether s and other feed the same queue.
func (s Sender[T]) Same(other Sender[T]) bool {
	return s.q == other.q
}

// TryRecv removes and returns the oldest value, or false if the queue is empty.
func (r *Receiver[T]) TryRecv() (T, bool) {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()

	var zero T
	if len(r.q.items) == 0 {
		return zero, false
	}
	v := r.q.items[0]
	r.q.items[0] = zero
	r.q.items = r.q.items[1:]
	if len(r.q.items) == 0 {
		// Let the backing array go once drained.
		r.q.items = nil
	}
	return v, true
}

// Recv blocks until a value is available or ctx is done.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	for {
		if v, ok := r.TryRecv(); ok {
			return v, nil
		}
		select {
		case <-r.q.ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Ready returns a channel that receives a value after one or more sends.
// A wake-up may be spurious; follow it with TryRecv until it reports false.
func (r *Receiver[T]) Ready() <-chan struct{} {
	return r.q.ready
}

// Len returns the number of queued values.
func (r *Receiver[T]) Len() int {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return len(r.q.items)
}

// Sender returns a new sender into this receiver's queue.
func (r *Receiver[T]) Sender() Sender[T] {
	return Sender[T]{q: r.q}
}
