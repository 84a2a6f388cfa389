package jsbind

import (
	"fmt"
	"math"

	"github.com/dop251/goja"

	"github.com/wippyai/adae-bridge/engine"
	"github.com/wippyai/adae-bridge/errors"
	"github.com/wippyai/adae-bridge/handle"
)

// configModule builds the config namespace: Config, Host and SampleFormat.
func (b *binding) configModule() *goja.Object {
	mod := b.vm.NewObject()
	_ = mod.Set("Config", b.configClass())
	_ = mod.Set("Host", b.hostClass())

	formats := b.vm.NewObject()
	for _, n := range engine.SampleFormatNames {
		_ = formats.Set(n.Name, string(n.Format))
	}
	_ = mod.Set("SampleFormat", formats)
	return mod
}

func (b *binding) configClass() *goja.Object {
	ctor := b.vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		dh, ok := b.unwrap(call.Argument(0))
		if !ok {
			b.throw("TypeError", "Config expects an OutputDevice")
		}
		dev, err := handle.Data[engine.OutputDevice](dh)
		if err != nil {
			panic(b.jsError(err))
		}
		out, err := b.outputConfig(call.Argument(1))
		if err != nil {
			panic(b.jsError(err))
		}
		cfg := engine.DefaultConfig()
		cfg.OutputDevice = dev
		cfg.OutputConfig = out
		return b.wrap(configHandle(cfg))
	}).ToObject(b.vm)

	_ = ctor.Set("default", b.static(handle.Method{Name: "default", Fn: func(*handle.Call) (any, error) {
		return configHandle(engine.DefaultConfig()), nil
	}}))
	return ctor
}

func configHandle(cfg engine.Config) *handle.Handle {
	return handle.Encapsulate(cfg, nil, []handle.Method{
		{Name: "outputDevice", Fn: func(c *handle.Call) (any, error) {
			return handle.UnpackThis(c, func(cfg engine.Config) (any, error) {
				return deviceHandle(cfg.OutputDevice), nil
			})
		}},
		{Name: "outputConfig", Fn: func(c *handle.Call) (any, error) {
			return handle.UnpackThis(c, func(cfg engine.Config) (any, error) {
				return outputConfigFields(cfg.OutputConfig), nil
			})
		}},
	})
}

// outputConfig reads a plain {channels, sampleFormat, sampleRate,
// bufferSize} object.
func (b *binding) outputConfig(v goja.Value) (engine.OutputConfig, error) {
	var out engine.OutputConfig
	obj, ok := v.(*goja.Object)
	if !ok {
		return out, errors.TypeMismatch(errors.PhaseConfig, []string{"outputConfig"}, "object", typeOf(v))
	}

	channels := obj.Get("channels")
	n := toFloat(channels)
	if n < 0 || n > math.MaxUint16 || math.IsNaN(n) {
		return out, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf(
			"Number of channels must an integer representable as an unsigned 16-bit integer. Got %s", valueString(channels)))
	}
	out.Channels = uint16(n)

	format, err := engine.ParseSampleFormat(valueString(obj.Get("sampleFormat")))
	if err != nil {
		return out, err
	}
	out.SampleFormat = format

	rate := obj.Get("sampleRate")
	n = toFloat(rate)
	if n < 0 || n > math.MaxUint32 || math.IsNaN(n) {
		return out, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf(
			"Sample rate must be an integer representable as an unsigned 32-bit integer. Got %s", valueString(rate)))
	}
	out.SampleRate = uint32(n)

	buf := obj.Get("bufferSize")
	if buf != nil && !goja.IsNull(buf) && !goja.IsUndefined(buf) {
		n = toFloat(buf)
		if n < 0 || n > math.MaxUint32 || math.IsNaN(n) {
			return out, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf(
				"Buffer size must be an integer representable as an unsigned 32-bit integer. Got %s", valueString(buf)))
		}
		size := uint32(n)
		out.BufferSize = &size
	}
	return out, nil
}

func toFloat(v goja.Value) float64 {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return math.NaN()
	}
	return v.ToFloat()
}

func valueString(v goja.Value) string {
	if v == nil {
		return "undefined"
	}
	return v.String()
}

func typeOf(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	return v.ExportType().String()
}

func outputConfigFields(c engine.OutputConfig) fields {
	var buf any = goja.Null()
	if c.BufferSize != nil {
		buf = *c.BufferSize
	}
	return fields{
		{name: "channels", value: c.Channels},
		{name: "sampleFormat", value: string(c.SampleFormat)},
		{name: "sampleRate", value: c.SampleRate},
		{name: "bufferSize", value: buf},
	}
}

func (b *binding) hostClass() *goja.Object {
	ctor := b.vm.ToValue(func(goja.ConstructorCall) *goja.Object {
		b.throw("Error", "Host cannot be constructed directly. Use static methods instead.")
		return nil
	}).ToObject(b.vm)

	_ = ctor.Set("available", b.static(handle.Method{Name: "available", Fn: func(*handle.Call) (any, error) {
		hosts := engine.AvailableHosts()
		hs := make([]*handle.Handle, len(hosts))
		for i, h := range hosts {
			hs[i] = hostHandle(h)
		}
		return hs, nil
	}}))
	_ = ctor.Set("default", b.static(handle.Method{Name: "default", Fn: func(*handle.Call) (any, error) {
		return hostHandle(engine.DefaultHost()), nil
	}}))
	return ctor
}

func hostHandle(h engine.Host) *handle.Handle {
	unpack := func(c *handle.Call, fn func(engine.Host) (any, error)) (any, error) {
		return handle.UnpackThis(c, fn)
	}
	return handle.Encapsulate(h, nil, []handle.Method{
		{Name: "name", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(h engine.Host) (any, error) { return h.Name(), nil })
		}},
		{Name: "outputDevices", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(h engine.Host) (any, error) {
				devs, err := h.OutputDevices()
				if err != nil {
					return nil, err
				}
				hs := make([]*handle.Handle, len(devs))
				for i, d := range devs {
					hs[i] = deviceHandle(d)
				}
				return hs, nil
			})
		}},
		{Name: "defaultOutputDevice", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(h engine.Host) (any, error) {
				dev, ok, err := h.DefaultOutputDevice()
				if err != nil {
					return nil, err
				}
				if !ok {
					return nil, errors.InvalidInput(errors.PhaseConfig, "No default output device")
				}
				return deviceHandle(dev), nil
			})
		}},
	})
}

func deviceHandle(d engine.OutputDevice) *handle.Handle {
	unpack := func(c *handle.Call, fn func(engine.OutputDevice) (any, error)) (any, error) {
		return handle.UnpackThis(c, fn)
	}
	return handle.Encapsulate(d, nil, []handle.Method{
		{Name: "host", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(d engine.OutputDevice) (any, error) { return hostHandle(d.Host()), nil })
		}},
		{Name: "name", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(d engine.OutputDevice) (any, error) { return d.Name(), nil })
		}},
		{Name: "supportedConfigRanges", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(d engine.OutputDevice) (any, error) {
				ranges, err := d.SupportedConfigRanges()
				if err != nil {
					return nil, err
				}
				hs := make([]*handle.Handle, len(ranges))
				for i, r := range ranges {
					hs[i] = rangeHandle(r)
				}
				return hs, nil
			})
		}},
		{Name: "defaultConfigRange", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(d engine.OutputDevice) (any, error) {
				r, err := d.DefaultConfigRange()
				if err != nil {
					return nil, err
				}
				return rangeHandle(r), nil
			})
		}},
	})
}

func rangeHandle(r engine.OutputConfigRange) *handle.Handle {
	unpack := func(c *handle.Call, fn func(engine.OutputConfigRange) (any, error)) (any, error) {
		return handle.UnpackThis(c, fn)
	}
	return handle.Encapsulate(r, nil, []handle.Method{
		{Name: "channels", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(r engine.OutputConfigRange) (any, error) { return r.Channels(), nil })
		}},
		{Name: "sampleFormat", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(r engine.OutputConfigRange) (any, error) { return string(r.SampleFormat()), nil })
		}},
		{Name: "sampleRate", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(r engine.OutputConfigRange) (any, error) {
				lo, hi := r.SampleRate()
				return fields{{name: "min", value: lo}, {name: "max", value: hi}}, nil
			})
		}},
		{Name: "bufferSize", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(r engine.OutputConfigRange) (any, error) {
				lo, hi, ok := r.BufferSize()
				if !ok {
					return goja.Null(), nil
				}
				return fields{{name: "min", value: lo}, {name: "max", value: hi}}, nil
			})
		}},
		{Name: "defaultConfig", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(r engine.OutputConfigRange) (any, error) {
				return outputConfigFields(r.DefaultConfig()), nil
			})
		}},
	})
}
