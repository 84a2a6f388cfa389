package engine

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/wippyai/adae-bridge/errors"
)

// UnitsPerBeat is the timeline resolution.
const UnitsPerBeat = 1024

// Timestamp is a position or duration on the timeline in beat units.
type Timestamp struct {
	units uint32
}

// Zero is the start of the timeline.
func Zero() Timestamp { return Timestamp{} }

// Infinity is the largest representable timestamp.
func Infinity() Timestamp { return Timestamp{units: math.MaxUint32} }

// FromBeatUnits builds a timestamp from raw beat units.
func FromBeatUnits(units uint32) Timestamp { return Timestamp{units: units} }

// FromBeats builds a timestamp from whole beats.
func FromBeats(beats uint32) (Timestamp, error) {
	units := uint64(beats) * UnitsPerBeat
	if units > math.MaxUint32 {
		return Timestamp{}, errors.Overflow(errors.PhaseTimestamp, []string{"fromBeats"}, beats, "timestamp")
	}
	return Timestamp{units: uint32(units)}, nil
}

// FromSamples converts a sample count at the given rate and tempo. The
// result is rounded down to whole beat units.
func FromSamples(samples uint64, sampleRate uint32, bpmCents uint16) (Timestamp, error) {
	if sampleRate == 0 {
		return Timestamp{}, errors.OutOfRange(errors.PhaseTimestamp, []string{"fromSamples", "sampleRate"}, sampleRate,
			"sample rate must be greater than zero")
	}

	// units = samples * bpmCents * 1024 / (sampleRate * 60 * 100)
	hi, lo := bits.Mul64(samples, uint64(bpmCents)*UnitsPerBeat)
	den := uint64(sampleRate) * 60 * 100
	if hi >= den {
		return Timestamp{}, errors.Overflow(errors.PhaseTimestamp, []string{"fromSamples"}, samples, "timestamp")
	}
	units, _ := bits.Div64(hi, lo, den)
	if units > math.MaxUint32 {
		return Timestamp{}, errors.Overflow(errors.PhaseTimestamp, []string{"fromSamples"}, samples, "timestamp")
	}
	return Timestamp{units: uint32(units)}, nil
}

// BeatUnits returns the raw beat units.
func (t Timestamp) BeatUnits() uint32 { return t.units }

// Beats returns the number of whole beats.
func (t Timestamp) Beats() uint32 { return t.units / UnitsPerBeat }

// Samples converts t to a sample count at the given rate and tempo, rounded
// down.
func (t Timestamp) Samples(sampleRate uint32, bpmCents uint16) (uint64, error) {
	if bpmCents == 0 {
		return 0, errors.OutOfRange(errors.PhaseTimestamp, []string{"getSamples", "bpm"}, bpmCents,
			"BPM must be greater than zero")
	}
	// samples = units * sampleRate * 60 * 100 / (bpmCents * 1024)
	hi, lo := bits.Mul64(uint64(t.units), uint64(sampleRate)*60*100)
	den := uint64(bpmCents) * UnitsPerBeat
	if hi >= den {
		return 0, errors.Overflow(errors.PhaseTimestamp, []string{"getSamples"}, t.units, "uint64")
	}
	samples, _ := bits.Div64(hi, lo, den)
	return samples, nil
}

// IsInfinity reports whether t is Infinity.
func (t Timestamp) IsInfinity() bool { return t.units == math.MaxUint32 }

// Add returns t+o.
func (t Timestamp) Add(o Timestamp) (Timestamp, error) {
	sum, carry := bits.Add32(t.units, o.units, 0)
	if carry != 0 {
		return Timestamp{}, errors.New(errors.PhaseTimestamp, errors.KindOverflow).
			Path("add").
			Detail("Timestamp addition with overflow: %v + %v", t, o).
			Build()
	}
	return Timestamp{units: sum}, nil
}

// Sub returns t-o.
func (t Timestamp) Sub(o Timestamp) (Timestamp, error) {
	diff, borrow := bits.Sub32(t.units, o.units, 0)
	if borrow != 0 {
		return Timestamp{}, errors.New(errors.PhaseTimestamp, errors.KindOverflow).
			Path("sub").
			Detail("Timestamp subtraction with overflow: %v - %v", t, o).
			Build()
	}
	return Timestamp{units: diff}, nil
}

// Mul returns t*s.
func (t Timestamp) Mul(s uint32) (Timestamp, error) {
	hi, lo := bits.Mul32(t.units, s)
	if hi != 0 {
		return Timestamp{}, errors.New(errors.PhaseTimestamp, errors.KindOverflow).
			Path("mul").
			Detail("Timestamp multiplication with overflow: %v * %d", t, s).
			Build()
	}
	return Timestamp{units: lo}, nil
}

// Min returns the earlier of a and b.
func Min(a, b Timestamp) Timestamp {
	if a.units < b.units {
		return a
	}
	return b
}

// Max returns the later of a and b.
func Max(a, b Timestamp) Timestamp {
	if a.units > b.units {
		return a
	}
	return b
}

// Before reports whether t is earlier than o.
func (t Timestamp) Before(o Timestamp) bool { return t.units < o.units }

func (t Timestamp) String() string {
	if t.IsInfinity() {
		return "Timestamp(inf)"
	}
	return fmt.Sprintf("Timestamp(%d)", t.units)
}
