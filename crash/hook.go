// Package crash turns panics on engine worker goroutines into asynchronous
// notifications.
//
// Go has no process-wide panic hook, so every engine worker defers Guard.
// Guard recovers the panic, captures its message, location and stack into an
// Info, and hands it to the hook currently installed in the process hook
// slot. The worker does not resume. The default hook logs the crash.
//
// A Bridge chains itself in front of the installed hook while listeners are
// pending and rejects all of them in one batch when a crash arrives.
package crash

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// NoMessage is reported when a panic value carries no readable message.
const NoMessage = "Engine crashed with no message"

// Info describes a recovered worker panic.
type Info struct {
	Value   any
	Message string
	File    string
	Stack   string
	Line    int
	// Column is always 0; Go frames carry no column information.
	Column int
}

// String renders the message, location and stack on separate lines.
func (i *Info) String() string {
	return fmt.Sprintf("%s\n%s:%d:%d\n%s", i.Message, i.File, i.Line, i.Column, i.Stack)
}

// Hook receives crash reports.
type Hook func(*Info)

var (
	hookMu sync.Mutex
	hook   Hook = DefaultHook
)

// DefaultHook logs the crash through the package logger.
func DefaultHook(info *Info) {
	Logger().Error("engine worker panicked",
		zap.String("message", info.Message),
		zap.String("file", info.File),
		zap.Int("line", info.Line),
		zap.String("stack", info.Stack))
}

// SetHook installs h in the process hook slot. A nil h restores the default.
func SetHook(h Hook) {
	if h == nil {
		h = DefaultHook
	}
	hookMu.Lock()
	hook = h
	hookMu.Unlock()
}

// TakeHook returns the installed hook and puts the default hook back.
func TakeHook() Hook {
	hookMu.Lock()
	defer hookMu.Unlock()
	h := hook
	hook = DefaultHook
	return h
}

func currentHook() Hook {
	hookMu.Lock()
	defer hookMu.Unlock()
	return hook
}

// Guard must be deferred directly by a worker goroutine. It recovers a panic
// and reports it to the installed hook.
func Guard() {
	r := recover()
	if r == nil {
		return
	}
	Report(NewInfo(r))
}

// Go runs fn on a new goroutine guarded by Guard.
func Go(fn func()) {
	go func() {
		defer Guard()
		fn()
	}()
}

// Report passes info to the installed hook. A panicking hook is logged and
// otherwise ignored.
func Report(info *Info) {
	h := currentHook()
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("crash hook panicked", zap.Any("panic", r))
		}
	}()
	h(info)
}

// NewInfo builds an Info for the panic value r. Called while a panic is
// unwinding, the location is the panic site; otherwise it is the caller.
func NewInfo(r any) *Info {
	info := &Info{
		Value:   r,
		Message: message(r),
		Stack:   string(debug.Stack()),
	}
	info.File, info.Line = location()
	return info
}

func message(r any) string {
	switch v := r.(type) {
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return NoMessage
	}
}

// location finds the first non-runtime frame below runtime.gopanic, which
// is the function that raised the panic.
func location() (string, int) {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var fallback runtime.Frame
	panicking := false
	for i := 0; ; i++ {
		f, more := frames.Next()
		if i == 0 {
			fallback = f
		}
		if f.Function == "runtime.gopanic" {
			panicking = true
		} else if panicking && !strings.HasPrefix(f.Function, "runtime.") {
			return f.File, f.Line
		}
		if !more {
			break
		}
	}
	return fallback.File, fallback.Line
}
