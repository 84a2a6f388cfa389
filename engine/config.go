package engine

import (
	"math"

	"github.com/wippyai/adae-bridge/errors"
)

// SampleFormat names the sample encoding of an output stream.
type SampleFormat string

const (
	SampleFormatI8  SampleFormat = "i8"
	SampleFormatI16 SampleFormat = "i16"
	SampleFormatI32 SampleFormat = "i32"
	SampleFormatI64 SampleFormat = "i64"
	SampleFormatU8  SampleFormat = "u8"
	SampleFormatU16 SampleFormat = "u16"
	SampleFormatU32 SampleFormat = "u32"
	SampleFormatU64 SampleFormat = "u64"
	SampleFormatF32 SampleFormat = "f32"
	SampleFormatF64 SampleFormat = "f64"
)

// SampleFormatNames maps the host-facing constant names to formats.
var SampleFormatNames = []struct {
	Name   string
	Format SampleFormat
}{
	{"Int8", SampleFormatI8},
	{"Int16", SampleFormatI16},
	{"Int32", SampleFormatI32},
	{"Int64", SampleFormatI64},
	{"IntUnsigned8", SampleFormatU8},
	{"IntUnsigned16", SampleFormatU16},
	{"IntUnsigned32", SampleFormatU32},
	{"IntUnsigned64", SampleFormatU64},
	{"Float32", SampleFormatF32},
	{"Float64", SampleFormatF64},
}

// ParseSampleFormat validates s.
func ParseSampleFormat(s string) (SampleFormat, error) {
	for _, n := range SampleFormatNames {
		if string(n.Format) == s {
			return n.Format, nil
		}
	}
	return "", errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Value(s).
		Detail("Invalid sample format: %q", s).
		Build()
}

// OutputConfig is a concrete stream configuration.
type OutputConfig struct {
	// BufferSize is nil when the device picks its own buffer size.
	BufferSize   *uint32
	SampleFormat SampleFormat
	SampleRate   uint32
	Channels     uint16
}

// FrameSize returns the number of frames processed per worker tick.
func (c OutputConfig) FrameSize() uint32 {
	if c.BufferSize != nil && *c.BufferSize > 0 {
		return *c.BufferSize
	}
	return 512
}

// OutputConfigRange describes a span of configurations a device accepts.
type OutputConfigRange struct {
	format     SampleFormat
	minRate    uint32
	maxRate    uint32
	minBuffer  uint32
	maxBuffer  uint32
	channels   uint16
	hasBuffers bool
}

// Channels returns the channel count.
func (r OutputConfigRange) Channels() uint16 { return r.channels }

// SampleFormat returns the sample format.
func (r OutputConfigRange) SampleFormat() SampleFormat { return r.format }

// SampleRate returns the inclusive sample rate bounds.
func (r OutputConfigRange) SampleRate() (lo, hi uint32) { return r.minRate, r.maxRate }

// BufferSize returns the inclusive buffer size bounds. ok is false when the
// device does not report them.
func (r OutputConfigRange) BufferSize() (lo, hi uint32, ok bool) {
	return r.minBuffer, r.maxBuffer, r.hasBuffers
}

// DefaultConfig picks 48 kHz when the range allows it, otherwise the
// highest rate, and leaves the buffer size to the device.
func (r OutputConfigRange) DefaultConfig() OutputConfig {
	rate := uint32(48000)
	if rate < r.minRate || rate > r.maxRate {
		rate = r.maxRate
	}
	return OutputConfig{
		Channels:     r.channels,
		SampleFormat: r.format,
		SampleRate:   rate,
	}
}

// Contains reports whether c is inside the range.
func (r OutputConfigRange) Contains(c OutputConfig) bool {
	if c.Channels != r.channels || c.SampleFormat != r.format {
		return false
	}
	if c.SampleRate < r.minRate || c.SampleRate > r.maxRate {
		return false
	}
	if c.BufferSize != nil && r.hasBuffers {
		if *c.BufferSize < r.minBuffer || *c.BufferSize > r.maxBuffer {
			return false
		}
	}
	return true
}

// Host is an audio host API. The in-memory engine only knows virtual hosts.
type Host struct {
	name string
}

var virtualHosts = []Host{{name: "Null"}, {name: "Virtual"}}

// AvailableHosts lists the hosts on this platform.
func AvailableHosts() []Host {
	return append([]Host(nil), virtualHosts...)
}

// DefaultHost returns the preferred host.
func DefaultHost() Host { return virtualHosts[0] }

// Name returns the host name.
func (h Host) Name() string { return h.name }

// OutputDevices lists the output devices of h.
func (h Host) OutputDevices() ([]OutputDevice, error) {
	switch h.name {
	case "Null":
		return []OutputDevice{nullDevice(h)}, nil
	case "Virtual":
		return []OutputDevice{nullDevice(h), monoDevice(h)}, nil
	default:
		return nil, errors.NotFound(errors.PhaseConfig, "host", h.name)
	}
}

// DefaultOutputDevice returns the preferred device of h. ok is false when
// h has no output devices.
func (h Host) DefaultOutputDevice() (dev OutputDevice, ok bool, err error) {
	devs, err := h.OutputDevices()
	if err != nil || len(devs) == 0 {
		return OutputDevice{}, false, err
	}
	return devs[0], true, nil
}

func nullDevice(h Host) OutputDevice {
	return OutputDevice{
		host: h,
		name: h.name + " Output",
		ranges: []OutputConfigRange{
			{channels: 2, format: SampleFormatF32, minRate: 8000, maxRate: 192000, minBuffer: 64, maxBuffer: 8192, hasBuffers: true},
			{channels: 2, format: SampleFormatI16, minRate: 8000, maxRate: 192000, minBuffer: 64, maxBuffer: 8192, hasBuffers: true},
		},
	}
}

func monoDevice(h Host) OutputDevice {
	return OutputDevice{
		host: h,
		name: h.name + " Mono",
		ranges: []OutputConfigRange{
			{channels: 1, format: SampleFormatF32, minRate: 44100, maxRate: 48000},
		},
	}
}

// OutputDevice is an output endpoint of a host.
type OutputDevice struct {
	host   Host
	name   string
	ranges []OutputConfigRange
}

// Host returns the device's host.
func (d OutputDevice) Host() Host { return d.host }

// Name returns the device name.
func (d OutputDevice) Name() string { return d.name }

// SupportedConfigRanges lists the accepted configuration ranges.
func (d OutputDevice) SupportedConfigRanges() ([]OutputConfigRange, error) {
	if len(d.ranges) == 0 {
		return nil, errors.Unsupported(errors.PhaseConfig, "device "+d.name+" has no output configurations")
	}
	return append([]OutputConfigRange(nil), d.ranges...), nil
}

// DefaultConfigRange returns the preferred range.
func (d OutputDevice) DefaultConfigRange() (OutputConfigRange, error) {
	if len(d.ranges) == 0 {
		return OutputConfigRange{}, errors.Unsupported(errors.PhaseConfig, "device "+d.name+" has no output configurations")
	}
	return d.ranges[0], nil
}

// FindOutputDevice looks a device up by host and device name.
func FindOutputDevice(hostName, deviceName string) (OutputDevice, error) {
	for _, h := range virtualHosts {
		if h.name != hostName {
			continue
		}
		devs, err := h.OutputDevices()
		if err != nil {
			return OutputDevice{}, err
		}
		for _, d := range devs {
			if d.name == deviceName {
				return d, nil
			}
		}
		return OutputDevice{}, errors.NotFound(errors.PhaseConfig, "output device", deviceName)
	}
	return OutputDevice{}, errors.NotFound(errors.PhaseConfig, "host", hostName)
}

// DefaultBPM is the tempo of a new engine.
const DefaultBPM = 120

// Config selects the output device and stream of an engine.
type Config struct {
	OutputDevice OutputDevice
	OutputConfig OutputConfig
	// Preload lists clips imported while the engine is built.
	Preload []string
	// BPM is the timeline tempo. Zero means DefaultBPM.
	BPM float64
	// Debug sends engine diagnostics to the registered output sink.
	Debug bool
}

// DefaultConfig uses the default device of the default host.
func DefaultConfig() Config {
	dev, _, _ := DefaultHost().DefaultOutputDevice()
	rng, _ := dev.DefaultConfigRange()
	out := rng.DefaultConfig()
	buf := uint32(512)
	out.BufferSize = &buf
	return Config{
		OutputDevice: dev,
		OutputConfig: out,
		BPM:          DefaultBPM,
	}
}

// Validate checks that the device accepts the output configuration.
func (c Config) Validate() error {
	if c.OutputDevice.name == "" {
		return errors.InvalidInput(errors.PhaseConfig, "no output device")
	}
	if c.OutputConfig.SampleRate == 0 {
		return errors.OutOfRange(errors.PhaseConfig, []string{"sampleRate"}, 0, "sample rate must be greater than zero")
	}
	if c.BPM != 0 {
		if cents := math.Round(c.BPM * 100); !(cents >= 1 && cents <= math.MaxUint16) {
			return errors.OutOfRange(errors.PhaseConfig, []string{"bpm"}, c.BPM, "BPM must be between 0.01 and 655.35")
		}
	}
	for _, r := range c.OutputDevice.ranges {
		if r.Contains(c.OutputConfig) {
			return nil
		}
	}
	return errors.Unsupported(errors.PhaseConfig, "output configuration not supported by "+c.OutputDevice.name)
}

func (c Config) bpmCents() uint16 {
	if c.BPM <= 0 {
		return DefaultBPM * 100
	}
	return uint16(math.Round(c.BPM * 100))
}
