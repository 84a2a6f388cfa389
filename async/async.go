// Package async holds the hand-off primitives between engine goroutines and a
// single-threaded host callback queue.
//
// A Deferred is a completion capability that is settled exactly once. A
// Channel carries callbacks from arbitrary goroutines onto the host's queue;
// Send fails with ErrChannelClosed once the host has torn the queue down, and
// callers on panic or diagnostic paths are expected to ignore that failure.
package async

import (
	"context"
	"errors"
	"sync"
)

// ErrChannelClosed is returned by Send after the host queue has shut down.
var ErrChannelClosed = errors.New("async: channel closed")

// Channel delivers callbacks to the host's callback queue.
type Channel interface {
	Send(fn func()) error
}

// ChannelFunc adapts a function to the Channel interface.
type ChannelFunc func(fn func()) error

func (f ChannelFunc) Send(fn func()) error { return f(fn) }

// Direct runs callbacks on the sending goroutine.
var Direct Channel = ChannelFunc(func(fn func()) error {
	fn()
	return nil
})

// Deferred is a completion capability. Only the first settlement counts.
type Deferred[T any] interface {
	Resolve(v T)
	Reject(err error)
}

// Future is a Go-native Deferred that can be awaited.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

var _ Deferred[struct{}] = (*Future[struct{}])(nil)

// NewFuture returns an unsettled future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve settles the future with v.
func (f *Future[T]) Resolve(v T) {
	f.once.Do(func() {
		f.val = v
		close(f.done)
	})
}

// Reject settles the future with err.
func (f *Future[T]) Reject(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future is settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has been resolved or rejected.
func (f *Future[T]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the future settles or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
