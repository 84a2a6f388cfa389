package jsbind

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dop251/goja"

	"github.com/wippyai/adae-bridge/engine"
	"github.com/wippyai/adae-bridge/errors"
	"github.com/wippyai/adae-bridge/handle"
)

const twoTo64 = float64(1 << 64)

func timestampHandle(t engine.Timestamp) *handle.Handle {
	return handle.Encapsulate(t, nil, timestampMethods())
}

func timestampMethods() []handle.Method {
	unpack := func(c *handle.Call, fn func(engine.Timestamp) (any, error)) (any, error) {
		return handle.UnpackThis(c, fn)
	}
	return []handle.Method{
		{Name: "getBeatUnits", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(t engine.Timestamp) (any, error) { return t.BeatUnits(), nil })
		}},
		{Name: "getBeats", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(t engine.Timestamp) (any, error) { return t.Beats(), nil })
		}},
		{Name: "getSamples", Fn: func(c *handle.Call) (any, error) {
			rate, err := rangedUint32(c, 0, "sample rate")
			if err != nil {
				return nil, err
			}
			bpm, err := rangedBPM(c, 1)
			if err != nil {
				return nil, err
			}
			return unpack(c, func(t engine.Timestamp) (any, error) {
				return result(t.Samples(rate, bpm))
			})
		}},
		{Name: "equals", Fn: func(c *handle.Call) (any, error) {
			other, err := handle.ArgData[engine.Timestamp](c, 0)
			if err != nil {
				return nil, err
			}
			return unpack(c, func(t engine.Timestamp) (any, error) { return t == other, nil })
		}},
	}
}

// timestampClass builds the Timestamp constructor, which only carries
// statics and throws when called.
func (b *binding) timestampClass() *goja.Object {
	ctor := b.vm.ToValue(func(goja.ConstructorCall) *goja.Object {
		b.throw("Error", "Timestamp cannot be constructed directly. Use the static methods instead.")
		return nil
	}).ToObject(b.vm)

	pair := func(c *handle.Call) (engine.Timestamp, engine.Timestamp, error) {
		x, err := handle.ArgData[engine.Timestamp](c, 0)
		if err != nil {
			return x, x, err
		}
		y, err := handle.ArgData[engine.Timestamp](c, 1)
		return x, y, err
	}
	wrapTS := func(t engine.Timestamp, err error) (any, error) {
		if err != nil {
			return nil, err
		}
		return timestampHandle(t), nil
	}

	statics := []handle.Method{
		{Name: "min", Fn: func(c *handle.Call) (any, error) {
			x, y, err := pair(c)
			return wrapTS(engine.Min(x, y), err)
		}},
		{Name: "max", Fn: func(c *handle.Call) (any, error) {
			x, y, err := pair(c)
			return wrapTS(engine.Max(x, y), err)
		}},
		{Name: "eq", Fn: func(c *handle.Call) (any, error) {
			x, y, err := pair(c)
			return result(x == y, err)
		}},
		{Name: "add", Fn: func(c *handle.Call) (any, error) {
			x, y, err := pair(c)
			if err != nil {
				return nil, err
			}
			return wrapTS(x.Add(y))
		}},
		{Name: "sub", Fn: func(c *handle.Call) (any, error) {
			x, y, err := pair(c)
			if err != nil {
				return nil, err
			}
			return wrapTS(x.Sub(y))
		}},
		{Name: "mul", Fn: func(c *handle.Call) (any, error) {
			t, err := handle.ArgData[engine.Timestamp](c, 0)
			if err != nil {
				return nil, err
			}
			s, err := c.Number(1)
			if err != nil {
				return nil, err
			}
			switch {
			case s < 0:
				return nil, errors.OutOfRange(errors.PhaseTimestamp, []string{"mul"}, s,
					"Timestamp must be multiplied by a value greater than zero. Got "+formatNumber(s))
			case s > math.MaxUint32:
				return nil, errors.OutOfRange(errors.PhaseTimestamp, []string{"mul"}, s,
					"Timestamp must be multiplied by a value smaller than 2^32. Got "+formatNumber(s))
			}
			return wrapTS(t.Mul(truncUint32(s)))
		}},
		{Name: "zero", Fn: func(*handle.Call) (any, error) {
			return timestampHandle(engine.Zero()), nil
		}},
		{Name: "infinity", Fn: func(*handle.Call) (any, error) {
			return timestampHandle(engine.Infinity()), nil
		}},
		{Name: "fromBeatUnits", Fn: func(c *handle.Call) (any, error) {
			u, err := rangedUint32(c, 0, "beat unit")
			if err != nil {
				return nil, err
			}
			return timestampHandle(engine.FromBeatUnits(u)), nil
		}},
		{Name: "fromBeats", Fn: func(c *handle.Call) (any, error) {
			n, err := rangedUint32(c, 0, "beat")
			if err != nil {
				return nil, err
			}
			return wrapTS(engine.FromBeats(n))
		}},
		{Name: "fromSamples", Fn: func(c *handle.Call) (any, error) {
			samples, err := rangedUint64(c, 0, "sample")
			if err != nil {
				return nil, err
			}
			rate, err := rangedUint32(c, 1, "sample rate")
			if err != nil {
				return nil, err
			}
			bpm, err := rangedBPM(c, 2)
			if err != nil {
				return nil, err
			}
			return wrapTS(engine.FromSamples(samples, rate, bpm))
		}},
	}
	for _, m := range statics {
		_ = ctor.Set(m.Name, b.static(m))
	}
	return ctor
}

// static turns m into a plain function without receiver.
func (b *binding) static(m handle.Method) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		args := make([]any, len(call.Arguments))
		for i, a := range call.Arguments {
			args[i] = b.fromJS(a)
		}
		out, err := m.Fn(&handle.Call{Name: m.Name, Args: args})
		if err != nil {
			panic(b.jsError(err))
		}
		return b.toJS(out)
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func rangeError(property, expected string, v float64) error {
	return errors.OutOfRange(errors.PhaseTimestamp, []string{property}, v,
		fmt.Sprintf("Timestamp must have %s value %s. Got %s", property, expected, formatNumber(v)))
}

// truncUint32 drops the fraction of an in-range value; NaN becomes zero.
func truncUint32(v float64) uint32 {
	if math.IsNaN(v) {
		return 0
	}
	return uint32(v)
}

func rangedUint32(c *handle.Call, i int, property string) (uint32, error) {
	v, err := c.Number(i)
	if err != nil {
		return 0, err
	}
	switch {
	case v < 0:
		return 0, rangeError(property, "greater than zero", v)
	case v > math.MaxUint32:
		return 0, rangeError(property, "smaller than 2^32", v)
	}
	return truncUint32(v), nil
}

func rangedUint64(c *handle.Call, i int, property string) (uint64, error) {
	v, err := c.Number(i)
	if err != nil {
		return 0, err
	}
	switch {
	case v < 0:
		return 0, rangeError(property, "greater than zero", v)
	case v > twoTo64:
		return 0, rangeError(property, "smaller than 2^64", v)
	case math.IsNaN(v):
		return 0, nil
	case v >= twoTo64:
		return math.MaxUint64, nil
	}
	return uint64(v), nil
}

func rangedBPM(c *handle.Call, i int) (uint16, error) {
	bpm, err := c.Number(i)
	if err != nil {
		return 0, err
	}
	cents := bpm * 100
	switch {
	case cents < 0:
		return 0, rangeError("BPM", "greater than zero", bpm)
	case cents > math.MaxUint16:
		return 0, rangeError("BPM", "smaller than 2^16 / 100", bpm)
	case math.IsNaN(cents):
		return 0, nil
	}
	return uint16(cents), nil
}
