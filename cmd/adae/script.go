package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"

	adae "github.com/wippyai/adae-bridge"
	"github.com/wippyai/adae-bridge/jsbind"
)

// scriptRuntime is a goja event loop with the adae module registered.
type scriptRuntime struct {
	loop *eventloop.EventLoop
	app  *adae.Context
}

func newScriptRuntime(app *adae.Context, folders []string, globals bool) *scriptRuntime {
	registry := require.NewRegistry(require.WithGlobalFolders(folders...))
	loop := eventloop.NewEventLoop(eventloop.WithRegistry(registry))
	registry.RegisterNativeModule(jsbind.ModuleName, jsbind.Loader(loop, app))

	rt := &scriptRuntime{loop: loop, app: app}
	if globals {
		loop.Run(func(vm *goja.Runtime) {
			jsbind.Install(vm, loop, app)
		})
	}
	return rt
}

// runFile executes path and returns once the loop has no pending jobs.
func (r *scriptRuntime) runFile(path string) error {
	src, err := readScript(path)
	if err != nil {
		return err
	}
	var runErr error
	r.loop.Run(func(vm *goja.Runtime) {
		_, runErr = vm.RunScript(filepath.Base(path), src)
	})
	return scriptError(runErr)
}

func readScript(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(src), nil
}

// eval runs src on a started loop and waits for the completion value.
func (r *scriptRuntime) eval(src string, timeout time.Duration) (string, error) {
	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	if !r.loop.RunOnLoop(func(vm *goja.Runtime) {
		v, err := vm.RunString(src)
		if err != nil {
			done <- outcome{err: scriptError(err)}
			return
		}
		done <- outcome{text: inspect(vm, v)}
	}) {
		return "", errors.New("event loop stopped")
	}
	select {
	case o := <-done:
		return o.text, o.err
	case <-time.After(timeout):
		return "", fmt.Errorf("evaluation timed out after %s", timeout)
	}
}

func scriptError(err error) error {
	var exc *goja.Exception
	if errors.As(err, &exc) {
		return errors.New(exc.String())
	}
	return err
}

// inspect renders a completion value for the prompt.
func inspect(vm *goja.Runtime, v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return ""
	}
	if goja.IsNull(v) {
		return "null"
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.String()
	}
	if _, isFn := goja.AssertFunction(obj); isFn {
		return "[Function]"
	}
	if p, isPromise := obj.Export().(*goja.Promise); isPromise {
		return "Promise { <" + promiseState(p) + "> }"
	}
	if obj.Get("data") != nil {
		return "{ " + strings.Join(obj.Keys(), ", ") + " }"
	}
	stringify, ok := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("stringify"))
	if !ok {
		return v.String()
	}
	out, err := stringify(goja.Undefined(), v)
	if err != nil || goja.IsUndefined(out) {
		return v.String()
	}
	return out.String()
}

func promiseState(p *goja.Promise) string {
	switch p.State() {
	case goja.PromiseStateFulfilled:
		return "fulfilled"
	case goja.PromiseStateRejected:
		return "rejected"
	default:
		return "pending"
	}
}
