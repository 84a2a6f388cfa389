// Package shared provides the single point of access to an engine.
//
// An Engine handle wraps one *engine.Engine in a cell holding a mutex, the
// engine, a state tag and a reference count. Every facade object holds its
// own clone; all clones see the same lock and the same state. The state
// moves from open to closed exactly once, or from open to poisoned when a
// callback panics under the lock, and never back.
//
// WithInner must not be called again from inside its own callback: the lock
// is not reentrant and there is no acquisition timeout.
package shared

import (
	"iter"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/adae-bridge/engine"
	"github.com/wippyai/adae-bridge/errors"
)

// State is the lifecycle state of the shared cell.
type State int32

const (
	StateOpen State = iota
	StateClosed
	StatePoisoned
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StatePoisoned:
		return "poisoned"
	default:
		return "unknown"
	}
}

// Host-visible failure messages.
const (
	ClosedMessage   = "Engine has already been closed."
	PoisonedMessage = "A panic has occurred while holding a lock on the engine."
)

// Sentinels for errors.Is. Returned errors are fresh values of the same
// phase and kind.
var (
	ErrClosed   = errors.Closed(errors.PhaseShared, ClosedMessage)
	ErrPoisoned = errors.Poisoned(errors.PhaseShared, PoisonedMessage)
)

type cell struct {
	engine *engine.Engine
	mu     sync.Mutex
	state  State
	refs   atomic.Int64
}

// Engine is one reference to a shared engine cell.
type Engine struct {
	c        *cell
	released atomic.Bool
}

// Wrap takes ownership of e.
func Wrap(e *engine.Engine) *Engine {
	c := &cell{engine: e}
	c.refs.Store(1)
	return &Engine{c: c}
}

// New builds a live engine. Clips that fail to preload are yielded by the
// returned sequence; they do not fail construction.
func New(cfg engine.Config) (*Engine, iter.Seq[*engine.ImportError], error) {
	e, failed, err := engine.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	for _, f := range failed {
		Logger().Warn("preload failed", zap.String("path", f.Path), zap.Error(f.Err))
	}
	return Wrap(e), slices.Values(failed), nil
}

// Empty wraps an engine without tracks or audio worker.
func Empty() *Engine {
	return Wrap(engine.Empty())
}

// Dummy wraps an engine without audio worker.
func Dummy() *Engine {
	return Wrap(engine.Dummy())
}

// Clone returns a new reference to the same cell.
func (s *Engine) Clone() *Engine {
	s.c.refs.Add(1)
	return &Engine{c: s.c}
}

// Refs returns the number of live references to the cell.
func (s *Engine) Refs() int64 {
	return s.c.refs.Load()
}

// Release drops this reference. Releasing the last reference closes the
// engine, even a poisoned one. Releasing the same reference twice has no
// effect.
func (s *Engine) Release() {
	if !s.released.CompareAndSwap(false, true) {
		return
	}
	if s.c.refs.Add(-1) > 0 {
		return
	}

	c := s.c
	c.mu.Lock()
	e := c.engine
	c.engine = nil
	if c.state == StateOpen {
		c.state = StateClosed
	}
	c.mu.Unlock()

	if e != nil {
		e.Close()
		Logger().Debug("last engine reference released")
	}
}

// Drop releases the reference. It lets handles drop their engine clone when
// they are collected.
func (s *Engine) Drop() {
	s.Release()
}

// Same reports whether s and o refer to the same cell.
func (s *Engine) Same(o *Engine) bool {
	return o != nil && s.c == o.c
}

// State returns the current state of the cell.
func (s *Engine) State() State {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.state
}

// WithInner runs fn with exclusive access to the engine.
func (s *Engine) WithInner(fn func(*engine.Engine) error) error {
	_, err := With(s, func(e *engine.Engine) (struct{}, error) {
		return struct{}{}, fn(e)
	})
	return err
}

// With runs fn with exclusive access to the engine and returns its result.
// fn is not called when the engine is closed or poisoned. If fn panics, the
// cell is poisoned and the panic continues to unwind.
func With[R any](s *Engine, fn func(*engine.Engine) (R, error)) (R, error) {
	var zero R
	c := s.c

	c.mu.Lock()
	switch c.state {
	case StateClosed:
		c.mu.Unlock()
		return zero, errors.Closed(errors.PhaseShared, ClosedMessage)
	case StatePoisoned:
		c.mu.Unlock()
		return zero, errors.Poisoned(errors.PhaseShared, PoisonedMessage)
	}

	completed := false
	defer func() {
		if !completed {
			c.state = StatePoisoned
			Logger().Error("engine poisoned by panic under lock")
		}
		c.mu.Unlock()
	}()

	r, err := fn(c.engine)
	completed = true
	return r, err
}

// Close takes the engine out of the cell and closes it. Closing a closed or
// poisoned cell does nothing.
func (s *Engine) Close() error {
	c := s.c
	c.mu.Lock()
	if c.state != StateOpen {
		c.mu.Unlock()
		return nil
	}
	e := c.engine
	c.engine = nil
	c.state = StateClosed
	c.mu.Unlock()

	if e != nil {
		e.Close()
	}
	Logger().Debug("engine closed", zap.Int64("refs", c.refs.Load()))
	return nil
}
