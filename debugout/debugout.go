// Package debugout carries diagnostic text from the engine to a host waiter.
//
// The channel holds either a bounded backlog of messages or a single pending
// waiter, never both. Messages are handed out in arrival order. When the
// backlog is full, the oldest message is evicted and the next oldest is
// replaced with Overflow.
package debugout

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/adae-bridge/async"
)

// DefaultCapacity is the backlog size used by New.
const DefaultCapacity = 100

// Overflow replaces evicted messages.
const Overflow = "-- Overflow: Some elements have been removed --"

type waiter struct {
	ch async.Channel
	d  async.Deferred[string]
}

// Channel is a debug output channel.
type Channel struct {
	waiter  *waiter
	logger  *zap.Logger
	backlog []string
	cap     int
	mu      sync.Mutex
}

// New returns a channel with DefaultCapacity.
func New(logger *zap.Logger) *Channel {
	return NewWithCapacity(logger, DefaultCapacity)
}

// NewWithCapacity returns a channel holding at most capacity messages.
// Capacities below 2 are raised to 2 so the overflow marker always has a
// message to replace.
func NewWithCapacity(logger *zap.Logger, capacity int) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	if capacity < 2 {
		capacity = 2
	}
	return &Channel{
		logger:  logger,
		backlog: make([]string, 0, capacity),
		cap:     capacity,
	}
}

// Get settles d with the oldest queued message, or makes d the pending
// waiter when nothing is queued. A second waiter replaces the first, which
// is then never settled.
func (c *Channel) Get(ch async.Channel, d async.Deferred[string]) {
	c.mu.Lock()
	if len(c.backlog) > 0 {
		msg := c.backlog[0]
		c.backlog[0] = ""
		c.backlog = c.backlog[1:]
		c.mu.Unlock()
		d.Resolve(msg)
		return
	}
	if c.waiter != nil {
		c.logger.Debug("debug output waiter replaced")
	}
	c.waiter = &waiter{ch: ch, d: d}
	c.mu.Unlock()
}

// GetFuture is Get with a Go-native future.
func (c *Channel) GetFuture(ch async.Channel) *async.Future[string] {
	f := async.NewFuture[string]()
	c.Get(ch, f)
	return f
}

// Output delivers msg to the waiter, or queues it.
func (c *Channel) Output(msg string) {
	c.mu.Lock()
	if w := c.waiter; w != nil {
		c.waiter = nil
		c.mu.Unlock()
		if err := w.ch.Send(func() { w.d.Resolve(msg) }); err != nil {
			c.logger.Debug("debug output dropped", zap.Error(err))
		}
		return
	}
	defer c.mu.Unlock()

	if len(c.backlog) >= c.cap {
		// Compact so the slice does not creep through its backing array.
		kept := make([]string, len(c.backlog)-1, c.cap)
		copy(kept, c.backlog[1:])
		kept[0] = Overflow
		c.backlog = kept
	}
	c.backlog = append(c.backlog, msg)
}

// Sink returns Output as a plain function for engine registration.
func (c *Channel) Sink() func(string) {
	return c.Output
}

// Len returns the number of queued messages.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.backlog)
}

// Waiting reports whether a waiter is pending.
func (c *Channel) Waiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiter != nil
}
