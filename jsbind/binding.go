package jsbind

import (
	stderrors "errors"
	"strconv"
	"sync"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	adae "github.com/wippyai/adae-bridge"
	"github.com/wippyai/adae-bridge/async"
	"github.com/wippyai/adae-bridge/errors"
	"github.com/wippyai/adae-bridge/handle"
	"github.com/wippyai/adae-bridge/resource"
)

const (
	dataKey = "data"
	rootKey = "root"
)

// field is one entry of an object returned to scripts. A slice of fields
// keeps its property order.
type field struct {
	value any
	name  string
}

type fields []field

type binding struct {
	vm     *goja.Runtime
	ch     async.Channel
	ctx    *adae.Context
	logger *zap.Logger
	roots  map[*handle.Handle]resource.Handle
	mu     sync.Mutex
}

func newBinding(vm *goja.Runtime, ch async.Channel, ctx *adae.Context) *binding {
	return &binding{
		vm:     vm,
		ch:     ch,
		ctx:    ctx,
		logger: ctx.Logger().Named("jsbind"),
		roots:  make(map[*handle.Handle]resource.Handle),
	}
}

// wrap materialises h as a script object.
func (b *binding) wrap(h *handle.Handle) *goja.Object {
	obj := b.vm.NewObject()
	_ = obj.DefineDataProperty(dataKey, b.vm.ToValue(h), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE)
	for _, p := range h.Properties() {
		_ = obj.Set(p.Name, b.toJS(p.Value))
	}
	for _, name := range h.Methods() {
		_ = obj.Set(name, func(call goja.FunctionCall) goja.Value {
			return b.invoke(h, name, call.Arguments)
		})
	}
	return obj
}

// anchor keeps h reachable until unanchor, and records the anchor on obj.
func (b *binding) anchor(h *handle.Handle, obj *goja.Object) {
	id := handle.PreventGC(h)
	b.mu.Lock()
	b.roots[h] = id
	b.mu.Unlock()
	_ = obj.DefineDataProperty(rootKey, b.vm.ToValue(uint32(id)), goja.FLAG_FALSE, goja.FLAG_TRUE, goja.FLAG_FALSE)
}

func (b *binding) unanchor(h *handle.Handle) {
	b.mu.Lock()
	id, ok := b.roots[h]
	delete(b.roots, h)
	b.mu.Unlock()
	if ok {
		handle.Release(id)
	}
}

func (b *binding) invoke(h *handle.Handle, name string, args []goja.Value) goja.Value {
	in := make([]any, len(args))
	for i, a := range args {
		in[i] = b.fromJS(a)
	}
	out, err := h.Invoke(name, in...)
	if err != nil {
		panic(b.jsError(err))
	}
	return b.toJS(out)
}

// unwrap returns the handle stored on v, if any.
func (b *binding) unwrap(v goja.Value) (*handle.Handle, bool) {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, false
	}
	d := obj.Get(dataKey)
	if d == nil {
		return nil, false
	}
	h, ok := d.Export().(*handle.Handle)
	return h, ok && h != nil
}

func (b *binding) fromJS(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	if h, ok := b.unwrap(v); ok {
		return h
	}
	if obj, ok := v.(*goja.Object); ok && obj.ClassName() == "Array" {
		n := int(obj.Get("length").ToInteger())
		items := make([]any, n)
		for i := range n {
			items[i] = b.fromJS(obj.Get(strconv.Itoa(i)))
		}
		return items
	}
	return v.Export()
}

func (b *binding) toJS(v any) goja.Value {
	switch v := v.(type) {
	case nil:
		return goja.Undefined()
	case goja.Value:
		return v
	case *handle.Handle:
		if v == nil {
			return goja.Null()
		}
		return b.wrap(v)
	case []*handle.Handle:
		items := make([]any, len(v))
		for i, h := range v {
			items[i] = b.wrap(h)
		}
		return b.vm.NewArray(items...)
	case fields:
		obj := b.vm.NewObject()
		for _, f := range v {
			_ = obj.Set(f.name, b.toJS(f.value))
		}
		return obj
	case []float64:
		items := make([]any, len(v))
		for i, x := range v {
			items[i] = x
		}
		return b.vm.NewArray(items...)
	case float32:
		return b.vm.ToValue(float64(v))
	default:
		return b.vm.ToValue(v)
	}
}

// jsError converts err to a script exception. Range violations become
// RangeError, type mismatches TypeError, everything else Error.
func (b *binding) jsError(err error) *goja.Object {
	name := "Error"
	switch {
	case errors.IsKind(err, errors.KindOutOfRange):
		name = "RangeError"
	case errors.IsKind(err, errors.KindTypeMismatch):
		name = "TypeError"
	}
	obj := b.newError(name, errors.Message(err))
	var e *errors.Error
	if stderrors.As(err, &e) {
		_ = obj.Set("kind", string(e.Kind))
	}
	return obj
}

func (b *binding) newError(name, msg string) *goja.Object {
	ctor, ok := goja.AssertConstructor(b.vm.Get(name))
	if !ok {
		return b.vm.NewGoError(stderrors.New(msg))
	}
	obj, err := ctor(nil, b.vm.ToValue(msg))
	if err != nil {
		return b.vm.NewGoError(stderrors.New(msg))
	}
	return obj
}

func (b *binding) throw(name, msg string) {
	panic(b.newError(name, msg))
}

// result adapts a typed return to a MethodFunc return.
func result[R any](v R, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}
