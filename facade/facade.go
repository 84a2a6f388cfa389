// Package facade exposes engine entities as small capability interfaces.
//
// Every facade value holds its own clone of the shared engine handle and a
// key. Methods go through shared.With, so every call fails cleanly once the
// engine is closed or poisoned. Drop releases the clone; the engine itself
// shuts down when its last clone is released.
package facade

import (
	"github.com/wippyai/adae-bridge/engine"
	"github.com/wippyai/adae-bridge/errors"
)

// Track is the mixer surface shared by the master and audio tracks.
type Track interface {
	Panning() (float32, error)
	SetPanning(v float32) error
	Volume() (float32, error)
	SetVolume(v float32) error
	ReadMeter() (engine.MeterReading, error)
	SnapMeter() error
	Drop()
}

// MasterTrack is the mixer's master track.
type MasterTrack interface {
	Track
}

// AudioTrack is a mixer track paired with a timeline track.
type AudioTrack interface {
	Track
	Key() (engine.AudioTrackKey, error)
	AddClip(clip StoredAudioClip, start engine.Timestamp, length *engine.Timestamp) (AudioClip, error)
	Clips() ([]AudioClip, error)
	DeleteClip(clip AudioClip) (AudioClipState, error)
	DeleteClips(clips []AudioClip) ([]AudioClipState, error)
	ReconstructClip(state AudioClipState) (AudioClip, error)
	ReconstructClips(states []AudioClipState) ([]AudioClip, error)
	Delete() (AudioTrackState, error)
}

// AudioClip is a stored clip placed on the timeline.
type AudioClip interface {
	Key() engine.AudioClipKey
	Start() (engine.Timestamp, error)
	// Length is nil when the clip plays to the end of its stored clip.
	Length() (*engine.Timestamp, error)
	StoredClip() (StoredAudioClip, error)
	Drop()
}

// StoredAudioClip is imported sample data.
type StoredAudioClip interface {
	Key() engine.StoredAudioClipKey
	SampleRate() (uint32, error)
	Length() (uint64, error)
	Drop()
}

// AudioTrackState is an opaque snapshot of a deleted audio track.
type AudioTrackState struct {
	s engine.AudioTrackState
}

// Key returns the key the track had and will get back on reconstruction.
func (s AudioTrackState) Key() engine.AudioTrackKey { return s.s.Key }

// AudioClipState is an opaque snapshot of a deleted clip.
type AudioClipState struct {
	s engine.AudioClipState
}

// Key returns the key the clip had and will get back on reconstruction.
func (s AudioClipState) Key() engine.AudioClipKey { return s.s.Key }

func errDeleted() error {
	return errors.Deleted(errors.PhaseEngine, "Audio track")
}

func errForeign(what string) error {
	return errors.InvalidInput(errors.PhaseBinding, what+" belongs to a different engine")
}
