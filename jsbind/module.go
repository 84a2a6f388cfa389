package jsbind

import (
	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"

	adae "github.com/wippyai/adae-bridge"
	"github.com/wippyai/adae-bridge/engine"
	"github.com/wippyai/adae-bridge/handle"
)

// ModuleName is the name scripts pass to require.
const ModuleName = "adae"

// Install defines the module's exports as globals of vm. It must run on
// loop's goroutine.
func Install(vm *goja.Runtime, loop *eventloop.EventLoop, ctx *adae.Context) {
	b := newBinding(vm, NewLoopChannel(loop), ctx)
	exports := b.exports()
	for _, k := range exports.Keys() {
		_ = vm.Set(k, exports.Get(k))
	}
}

// Loader returns a require.ModuleLoader that exposes the module under
// ModuleName:
//
//	registry := require.NewRegistry()
//	loop := eventloop.NewEventLoop(eventloop.WithRegistry(registry))
//	registry.RegisterNativeModule(jsbind.ModuleName, jsbind.Loader(loop, ctx))
func Loader(loop *eventloop.EventLoop, ctx *adae.Context) require.ModuleLoader {
	return func(vm *goja.Runtime, module *goja.Object) {
		b := newBinding(vm, NewLoopChannel(loop), ctx)
		_ = module.Set("exports", b.exports())
	}
}

func (b *binding) exports() *goja.Object {
	exp := b.vm.NewObject()
	_ = exp.Set("Engine", b.engineClass())
	_ = exp.Set("Timestamp", b.timestampClass())
	_ = exp.Set("config", b.configModule())

	_ = exp.Set("meterScale", b.static(handle.Method{Name: "meterScale", Fn: func(c *handle.Call) (any, error) {
		v, err := c.Number(0)
		return result(engine.MeterScale(v), err)
	}}))
	_ = exp.Set("inverseMeterScale", b.static(handle.Method{Name: "inverseMeterScale", Fn: func(c *handle.Call) (any, error) {
		v, err := c.Number(0)
		return result(engine.InverseMeterScale(v), err)
	}}))

	_ = exp.Set("getDebugOutput", func(goja.FunctionCall) goja.Value {
		d, p := newPromise(b, func(msg string) goja.Value { return b.vm.ToValue(msg) })
		b.ctx.Debug.Get(b.ch, d)
		return b.vm.ToValue(p)
	})
	_ = exp.Set("listenForCrash", func(goja.FunctionCall) goja.Value {
		d, p := newPromise(b, func(struct{}) goja.Value { return goja.Undefined() })
		b.ctx.Crash.Listen(b.ch, d)
		return b.vm.ToValue(p)
	})
	_ = exp.Set("stopListeningForCrash", func(goja.FunctionCall) goja.Value {
		b.ctx.Crash.Stop()
		return goja.Undefined()
	})
	return exp
}
