package adae

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/adae-bridge/crash"
	"github.com/wippyai/adae-bridge/debugout"
	"github.com/wippyai/adae-bridge/engine"
	"github.com/wippyai/adae-bridge/handle"
	"github.com/wippyai/adae-bridge/resource"
	"github.com/wippyai/adae-bridge/shared"
)

// Context is the process-wide bridge state a host installs once.
type Context struct {
	logger   *zap.Logger
	Crash    *crash.Bridge
	Debug    *debugout.Channel
	once     sync.Once
	unwatch  func()
	unsink   func()
	capacity int
}

// Option configures Init.
type Option func(*Context)

// WithLogger routes every bridge package's logging to l.
func WithLogger(l *zap.Logger) Option {
	return func(c *Context) {
		c.logger = l
	}
}

// WithDebugCapacity bounds the debug backlog. Values below 2 are raised to 2.
func WithDebugCapacity(n int) Option {
	return func(c *Context) {
		c.capacity = n
	}
}

// Init builds the crash bridge and debug channel and registers the channel
// as the engine output sink.
func Init(opts ...Option) *Context {
	c := &Context{capacity: debugout.DefaultCapacity}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	} else {
		engine.SetLogger(c.logger.Named("engine"))
		shared.SetLogger(c.logger.Named("shared"))
		crash.SetLogger(c.logger.Named("crash"))
		handle.SetLogger(c.logger.Named("handle"))
	}

	c.Crash = crash.NewBridge()
	c.Debug = debugout.NewWithCapacity(c.logger.Named("debug"), c.capacity)
	c.unsink = engine.SetOutput(c.Debug.Sink())
	c.unwatch = watchRoots(c.logger.Named("roots"))
	c.logger.Debug("bridge context initialized", zap.Int("debug_capacity", c.capacity))
	return c
}

// Logger returns the logger the context was built with.
func (c *Context) Logger() *zap.Logger {
	return c.logger
}

// Teardown resolves pending crash listeners and unregisters the debug sink
// unless a later Init has replaced it. Safe to call more than once.
func (c *Context) Teardown() {
	c.once.Do(func() {
		c.Crash.Stop()
		c.unsink()
		c.unwatch()
		c.logger.Debug("bridge context torn down")
	})
}

// watchRoots logs anchor lifecycle events of the handle root table.
func watchRoots(l *zap.Logger) (cancel func()) {
	return handle.Roots().Subscribe(resource.ObserverFunc(func(e resource.Event) {
		l.Debug("root "+e.Type.String(),
			zap.Uint32("anchor", uint32(e.Handle)),
			zap.String("type", e.Tag),
			zap.Int("live", handle.Roots().Len()))
	}))
}
