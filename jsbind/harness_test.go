package jsbind

import (
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"

	adae "github.com/wippyai/adae-bridge"
)

type harness struct {
	t    *testing.T
	loop *eventloop.EventLoop
	ctx  *adae.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := adae.Init()
	loop := eventloop.NewEventLoop()
	loop.Start()

	h := &harness{t: t, loop: loop, ctx: ctx}
	h.do(func(vm *goja.Runtime) { Install(vm, loop, ctx) })
	t.Cleanup(func() {
		loop.Stop()
		ctx.Teardown()
	})
	return h
}

// do runs fn on the loop and waits for it.
func (h *harness) do(fn func(vm *goja.Runtime)) {
	h.t.Helper()
	done := make(chan struct{})
	if !h.loop.RunOnLoop(func(vm *goja.Runtime) {
		defer close(done)
		fn(vm)
	}) {
		h.t.Fatalf("event loop not running")
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		h.t.Fatalf("event loop job timed out")
	}
}

// eval runs src and exports its completion value.
func (h *harness) eval(src string) any {
	h.t.Helper()
	var (
		out any
		err error
	)
	h.do(func(vm *goja.Runtime) {
		var v goja.Value
		v, err = vm.RunString(src)
		if err == nil && v != nil {
			out = v.Export()
		}
	})
	if err != nil {
		h.t.Fatalf("script failed: %v\n%s", err, src)
	}
	return out
}

// throws runs src and returns "Name: message" of the exception, or "" when
// nothing was thrown.
func (h *harness) throws(src string) string {
	h.t.Helper()
	wrapped := "(function(){ try { " + src + "; return ''; } catch (e) { return e.name + ': ' + e.message; } })()"
	s, _ := h.eval(wrapped).(string)
	return s
}

// await polls expr until it is neither undefined nor null.
func (h *harness) await(expr string) any {
	h.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if v := h.eval(expr); v != nil {
			return v
		}
		time.Sleep(5 * time.Millisecond)
	}
	h.t.Fatalf("timed out waiting for %s", expr)
	return nil
}
