package engine

import (
	"math"
	"testing"
)

func TestMeterScale_Inverse(t *testing.T) {
	for _, x := range []float64{0, 0.001, 0.25, 0.6, 1} {
		got := InverseMeterScale(MeterScale(x))
		if math.Abs(got-x) > 1e-5 {
			t.Fatalf("InverseMeterScale(MeterScale(%v)) = %v", x, got)
		}
	}
	if MeterScale(-1) != 0 || InverseMeterScale(-1) != 0 {
		t.Fatal("negative input should clamp to zero")
	}
}

func TestMixerTrack_Settings(t *testing.T) {
	m := newMixerTrack()
	if m.Volume() != 1 || m.Panning() != 0 {
		t.Fatalf("defaults: volume=%v panning=%v", m.Volume(), m.Panning())
	}
	m.SetVolume(0.5)
	m.SetPanning(0.5)
	if m.Volume() != 0.5 || m.Panning() != 0.5 {
		t.Fatalf("volume=%v panning=%v", m.Volume(), m.Panning())
	}
}

func TestMixerTrack_Meter(t *testing.T) {
	m := newMixerTrack()
	m.SetPanning(-1)

	m.process(1, 0.01)
	r := m.ReadMeter()
	if r.Peak[0] != 1 || r.Peak[1] != 0 {
		t.Fatalf("hard-left peak = %v", r.Peak)
	}
	if r.RMS[0] >= 1 {
		t.Fatalf("RMS should be smoothed, got %v", r.RMS[0])
	}

	m.SnapRMS()
	if r := m.ReadMeter(); r.RMS[0] != 1 {
		t.Fatalf("snapped RMS = %v, want 1", r.RMS[0])
	}

	// Silence lets the peak fall back.
	for i := 0; i < 100; i++ {
		m.process(0, 0.01)
	}
	if r := m.ReadMeter(); r.Peak[0] != 0 {
		t.Fatalf("peak after decay = %v", r.Peak[0])
	}
}
