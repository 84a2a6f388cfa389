package engine

import (
	"math"
	"sync"
)

// MeterScale maps a linear level to the meter's display scale.
func MeterScale(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Pow(x, 0.25)
}

// InverseMeterScale undoes MeterScale.
func InverseMeterScale(y float64) float64 {
	if y <= 0 {
		return 0
	}
	return y * y * y * y
}

// Meter smoothing constants, per second.
const (
	peakDecay     = 1.5
	longPeakDecay = 0.25
	rmsSmoothing  = 8.0
)

// Meter holds per-channel levels.
type Meter struct {
	peak      [2]float64
	longPeak  [2]float64
	rms       [2]float64
	rmsTarget [2]float64
}

// feed advances the meter by dt seconds with the given input levels.
func (m *Meter) feed(levels [2]float64, dt float64) {
	for ch := range levels {
		l := levels[ch]

		m.peak[ch] = math.Max(l, m.peak[ch]-peakDecay*dt)
		m.longPeak[ch] = math.Max(l, m.longPeak[ch]-longPeakDecay*dt)
		m.peak[ch] = math.Max(m.peak[ch], 0)
		m.longPeak[ch] = math.Max(m.longPeak[ch], 0)

		// A full-scale square wave has RMS equal to its peak; clips are
		// treated that way.
		m.rmsTarget[ch] = l
		k := math.Min(1, rmsSmoothing*dt)
		m.rms[ch] += (m.rmsTarget[ch] - m.rms[ch]) * k
	}
}

// MeterReading is peak, long peak and RMS, each per channel, scaled with
// MeterScale.
type MeterReading struct {
	Peak     [2]float64
	LongPeak [2]float64
	RMS      [2]float64
}

func (m *Meter) read() MeterReading {
	var r MeterReading
	for ch := 0; ch < 2; ch++ {
		r.Peak[ch] = MeterScale(m.peak[ch])
		r.LongPeak[ch] = MeterScale(m.longPeak[ch])
		r.RMS[ch] = MeterScale(m.rms[ch])
	}
	return r
}

// MixerTrack is one channel strip on the mixer.
type MixerTrack struct {
	meter   Meter
	panning float32
	volume  float32
	mu      sync.Mutex
}

func newMixerTrack() *MixerTrack {
	return &MixerTrack{volume: 1}
}

// Panning returns the stereo position, -1 (left) to 1 (right).
func (t *MixerTrack) Panning() float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.panning
}

// SetPanning sets the stereo position.
func (t *MixerTrack) SetPanning(v float32) {
	t.mu.Lock()
	t.panning = v
	t.mu.Unlock()
}

// Volume returns the output gain.
func (t *MixerTrack) Volume() float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

// SetVolume sets the output gain.
func (t *MixerTrack) SetVolume(v float32) {
	t.mu.Lock()
	t.volume = v
	t.mu.Unlock()
}

// ReadMeter returns the current meter reading.
func (t *MixerTrack) ReadMeter() MeterReading {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.meter.read()
}

// SnapRMS drops RMS smoothing and jumps to the current unsmoothed value.
func (t *MixerTrack) SnapRMS() {
	t.mu.Lock()
	t.meter.rms = t.meter.rmsTarget
	t.mu.Unlock()
}

// process applies gain and panning to level, feeds the meter, and returns
// the per-channel output.
func (t *MixerTrack) process(level, dt float64) [2]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	g := level * float64(t.volume)
	p := math.Max(-1, math.Min(1, float64(t.panning)))
	out := [2]float64{g * math.Min(1, 1-p), g * math.Min(1, 1+p)}
	t.meter.feed(out, dt)
	return out
}

func (t *MixerTrack) mix(in [2]float64, dt float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	g := float64(t.volume)
	p := math.Max(-1, math.Min(1, float64(t.panning)))
	out := [2]float64{
		math.Min(1, in[0]*g*math.Min(1, 1-p)),
		math.Min(1, in[1]*g*math.Min(1, 1+p)),
	}
	t.meter.feed(out, dt)
}

// state copies the user-settable parts of the track.
func (t *MixerTrack) state() MixerTrackState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return MixerTrackState{Panning: t.panning, Volume: t.volume}
}

// MixerTrackState is the restorable part of a mixer track.
type MixerTrackState struct {
	Panning float32
	Volume  float32
}
