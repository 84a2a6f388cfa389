package jsbind

import (
	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"

	"github.com/wippyai/adae-bridge/async"
)

// LoopChannel delivers callbacks onto a goja event loop.
type LoopChannel struct {
	loop *eventloop.EventLoop
}

var _ async.Channel = LoopChannel{}

// NewLoopChannel returns a channel onto loop.
func NewLoopChannel(loop *eventloop.EventLoop) LoopChannel {
	return LoopChannel{loop: loop}
}

// Send schedules fn on the loop. It fails with async.ErrChannelClosed once
// the loop no longer accepts work.
func (c LoopChannel) Send(fn func()) error {
	if !c.loop.RunOnLoop(func(*goja.Runtime) { fn() }) {
		return async.ErrChannelClosed
	}
	return nil
}

// promise is a Deferred settling a goja promise. Settlement always happens on
// the loop, because every sender goes through a LoopChannel.
type promise[T any] struct {
	b      *binding
	settle func(ok bool, v goja.Value)
	conv   func(T) goja.Value
}

var _ async.Deferred[string] = (*promise[string])(nil)

func newPromise[T any](b *binding, conv func(T) goja.Value) (*promise[T], *goja.Promise) {
	p, resolve, reject := b.vm.NewPromise()
	return &promise[T]{
		b:    b,
		conv: conv,
		settle: func(ok bool, v goja.Value) {
			if ok {
				resolve(v)
			} else {
				reject(v)
			}
		},
	}, p
}

func (p *promise[T]) Resolve(v T) {
	p.settle(true, p.conv(v))
}

func (p *promise[T]) Reject(err error) {
	p.settle(false, p.b.jsError(err))
}
