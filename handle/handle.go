// Package handle attaches opaque Go payloads to host-visible objects.
//
// A Handle carries exactly one payload (its data slot), a list of precomputed
// properties, and a method table that is fixed at construction. Methods are
// dispatched through Invoke, which hands the method a Call whose This is the
// handle; the method then recovers its payload with UnpackThis, which checks
// the payload's type at the boundary instead of coercing it.
//
// The handle owns its payload. When the handle becomes unreachable, or the
// payload is replaced with UpdateData, a payload implementing Dropper is
// dropped. PreventGC anchors a handle in a process-wide root table so that it
// stays reachable while native work depends on it.
package handle

import (
	"fmt"
	"reflect"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/adae-bridge/errors"
	"github.com/wippyai/adae-bridge/resource"
)

// Dropper is implemented by payloads that release resources when their
// handle lets go of them.
type Dropper = resource.Dropper

// MethodFunc is the Go side of a host-callable method.
type MethodFunc func(c *Call) (any, error)

// Method binds a name to a MethodFunc.
type Method struct {
	Fn   MethodFunc
	Name string
}

// Property is a precomputed (name, value) pair copied onto the handle.
type Property struct {
	Value any
	Name  string
}

// Handle is a host-visible object with one opaque payload.
type Handle struct {
	slot    *slot
	methods map[string]MethodFunc
	names   []string
	props   []Property
}

type slot struct {
	data any
	mu   sync.RWMutex
}

func (s *slot) drop() {
	s.mu.Lock()
	data := s.data
	s.data = nil
	s.mu.Unlock()

	if d, ok := data.(Dropper); ok {
		d.Drop()
	}
}

// Encapsulate creates a handle holding data, with the given properties and
// methods. Registering the same method name twice is a programming error and
// panics.
func Encapsulate(data any, props []Property, methods []Method) *Handle {
	h := &Handle{
		slot:    &slot{data: data},
		methods: make(map[string]MethodFunc, len(methods)),
		names:   make([]string, 0, len(methods)),
		props:   append([]Property(nil), props...),
	}
	for _, m := range methods {
		if _, dup := h.methods[m.Name]; dup {
			panic(fmt.Sprintf("handle: method %q registered twice", m.Name))
		}
		h.methods[m.Name] = m.Fn
		h.names = append(h.names, m.Name)
	}

	runtime.AddCleanup(h, func(s *slot) { s.drop() }, h.slot)
	return h
}

// Methods returns the method names in registration order.
func (h *Handle) Methods() []string {
	return append([]string(nil), h.names...)
}

// HasMethod reports whether name is in the method table.
func (h *Handle) HasMethod(name string) bool {
	_, ok := h.methods[name]
	return ok
}

// Properties returns a copy of the handle's properties.
func (h *Handle) Properties() []Property {
	return append([]Property(nil), h.props...)
}

// Property looks up a property by name.
func (h *Handle) Property(name string) (any, bool) {
	for _, p := range h.props {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// DataType returns the dynamic type name of the payload, for diagnostics.
func (h *Handle) DataType() string {
	h.slot.mu.RLock()
	defer h.slot.mu.RUnlock()
	return fmt.Sprintf("%T", h.slot.data)
}

func (h *Handle) load() any {
	h.slot.mu.RLock()
	defer h.slot.mu.RUnlock()
	return h.slot.data
}

// Invoke calls the named method with h as the receiver. A panic raised by the
// method is recovered and returned as an error; the host call fails but the
// process keeps running.
func (h *Handle) Invoke(name string, args ...any) (result any, err error) {
	fn, ok := h.methods[name]
	if !ok {
		return nil, errors.New(errors.PhaseBinding, errors.KindNotFound).
			Path(name).
			Detail("%s has no method %q", h.DataType(), name).
			Build()
	}

	defer func() {
		if r := recover(); r != nil {
			Logger().Debug("method panicked",
				zap.String("method", name),
				zap.Any("panic", r))
			result = nil
			err = errors.Panic(errors.PhaseBinding, r)
		}
	}()

	return fn(&Call{This: h, Name: name, Args: args})
}

// Unpack retrieves the payload of h as a D and passes it to fn. If the payload
// is not a D, fn is not called and a type mismatch error is returned.
func Unpack[D, R any](h *Handle, fn func(D) (R, error)) (R, error) {
	var zero R
	d, err := payload[D](h)
	if err != nil {
		return zero, err
	}
	return fn(d)
}

// UnpackThis is Unpack against the receiver of the current call.
func UnpackThis[D, R any](c *Call, fn func(D) (R, error)) (R, error) {
	var zero R
	if c == nil {
		return zero, errors.InvalidInput(errors.PhaseHandle, "no call receiver")
	}
	d, err := payload[D](c.This)
	if err != nil {
		if e, ok := err.(*errors.Error); ok && c.Name != "" {
			e.Path = append([]string{c.Name}, e.Path...)
		}
		return zero, err
	}
	return fn(d)
}

// Data returns the payload of h as a D.
func Data[D any](h *Handle) (D, error) {
	return payload[D](h)
}

func payload[D any](h *Handle) (D, error) {
	var zero D
	if h == nil {
		return zero, errors.TypeMismatch(errors.PhaseHandle, []string{"data"}, typeName[D](), "nil")
	}
	data := h.load()
	d, ok := data.(D)
	if !ok {
		return zero, errors.TypeMismatch(errors.PhaseHandle, []string{"data"}, typeName[D](), fmt.Sprintf("%T", data))
	}
	return d, nil
}

// UpdateData replaces the payload of h with fn(old). The old payload is
// dropped if it implements Dropper and differs from the new one.
func UpdateData[D any](h *Handle, fn func(D) D) error {
	if h == nil {
		return errors.TypeMismatch(errors.PhaseHandle, []string{"data"}, typeName[D](), "nil")
	}

	h.slot.mu.Lock()
	old, ok := h.slot.data.(D)
	if !ok {
		actual := fmt.Sprintf("%T", h.slot.data)
		h.slot.mu.Unlock()
		return errors.TypeMismatch(errors.PhaseHandle, []string{"data"}, typeName[D](), actual)
	}
	next := fn(old)
	h.slot.data = next
	h.slot.mu.Unlock()

	if d, ok := any(old).(Dropper); ok && !same(old, next) {
		d.Drop()
	}
	return nil
}

func same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	return ta == tb && ta.Comparable() && a == b
}

func typeName[D any]() string {
	return reflect.TypeFor[D]().String()
}
