package engine

import (
	"fmt"
	"sync/atomic"
)

var output atomic.Pointer[func(string)]

// SetOutput registers the sink that receives engine diagnostics, replacing
// any previous one. A nil fn unregisters whatever sink is set. fn runs with
// the engine lock held and must not call back into the engine.
//
// The returned unset removes fn only while it is still the registered sink,
// so a stale owner cannot drop a newer registration.
func SetOutput(fn func(string)) (unset func()) {
	if fn == nil {
		output.Store(nil)
		return func() {}
	}
	p := &fn
	output.Store(p)
	return func() { output.CompareAndSwap(p, nil) }
}

func emit(msg string) {
	if fn := output.Load(); fn != nil {
		(*fn)(msg)
	}
}

func (e *Engine) debugf(format string, args ...any) {
	if !e.cfg.Debug {
		return
	}
	msg := fmt.Sprintf(format, args...)
	Logger().Debug(msg)
	emit(msg)
}
