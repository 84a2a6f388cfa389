package crash

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/adae-bridge/async"
)

// Error is the rejection delivered to crash listeners.
type Error struct {
	Info *Info
}

func (e *Error) Error() string {
	return e.Info.String()
}

type listener struct {
	ch async.Channel
	d  async.Deferred[struct{}]
}

// Bridge holds pending crash listeners. While at least one listener is
// pending, the bridge's hook sits in the process hook slot in front of the
// hook it replaced.
type Bridge struct {
	prev    Hook
	pending []listener
	mu      sync.Mutex
	armed   bool
}

// NewBridge returns an idle bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Listen registers d to be rejected on the next crash, or resolved by Stop.
// Settlement is sent through ch.
func (b *Bridge) Listen(ch async.Channel, d async.Deferred[struct{}]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending = append(b.pending, listener{ch: ch, d: d})
	if b.armed {
		return
	}

	prev := TakeHook()
	b.prev = prev
	b.armed = true
	SetHook(func(info *Info) {
		b.crashed(info)
		prev(info)
	})
	Logger().Debug("crash bridge armed")
}

// ListenFuture registers a Go-native listener.
func (b *Bridge) ListenFuture(ch async.Channel) *async.Future[struct{}] {
	f := async.NewFuture[struct{}]()
	b.Listen(ch, f)
	return f
}

// Stop resolves every pending listener with no crash and restores the hook
// the bridge replaced.
func (b *Bridge) Stop() {
	pending := b.disarm()
	for _, l := range pending {
		d := l.d
		send(l.ch, func() { d.Resolve(struct{}{}) })
	}
	if len(pending) > 0 {
		Logger().Debug("crash bridge stopped", zap.Int("listeners", len(pending)))
	}
}

// Pending returns the number of listeners waiting for a crash.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Armed reports whether the bridge's hook is installed.
func (b *Bridge) Armed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.armed
}

func (b *Bridge) crashed(info *Info) {
	pending := b.disarm()
	err := &Error{Info: info}
	for _, l := range pending {
		d := l.d
		send(l.ch, func() { d.Reject(err) })
	}
	Logger().Debug("crash delivered", zap.Int("listeners", len(pending)))
}

// disarm takes the pending listeners and puts the replaced hook back.
func (b *Bridge) disarm() []listener {
	b.mu.Lock()
	defer b.mu.Unlock()

	pending := b.pending
	b.pending = nil
	if b.armed {
		SetHook(b.prev)
		b.prev = nil
		b.armed = false
	}
	return pending
}

func send(ch async.Channel, fn func()) {
	if err := ch.Send(fn); err != nil {
		Logger().Debug("crash notification dropped", zap.Error(err))
	}
}
