package facade

import (
	"fmt"

	"github.com/wippyai/adae-bridge/engine"
	"github.com/wippyai/adae-bridge/errors"
	"github.com/wippyai/adae-bridge/shared"
)

// mixerOps implements Track on top of a resolver for the mixer track.
type mixerOps struct {
	s       *shared.Engine
	resolve func(*engine.Engine) (*engine.MixerTrack, error)
}

func readMixer[R any](m mixerOps, get func(*engine.MixerTrack) R) (R, error) {
	return shared.With(m.s, func(e *engine.Engine) (R, error) {
		var zero R
		t, err := m.resolve(e)
		if err != nil {
			return zero, err
		}
		return get(t), nil
	})
}

func (m mixerOps) writeMixer(set func(*engine.MixerTrack)) error {
	return m.s.WithInner(func(e *engine.Engine) error {
		t, err := m.resolve(e)
		if err != nil {
			return err
		}
		set(t)
		return nil
	})
}

func (m mixerOps) Panning() (float32, error) {
	return readMixer(m, (*engine.MixerTrack).Panning)
}

func (m mixerOps) SetPanning(v float32) error {
	return m.writeMixer(func(t *engine.MixerTrack) { t.SetPanning(v) })
}

func (m mixerOps) Volume() (float32, error) {
	return readMixer(m, (*engine.MixerTrack).Volume)
}

func (m mixerOps) SetVolume(v float32) error {
	return m.writeMixer(func(t *engine.MixerTrack) { t.SetVolume(v) })
}

func (m mixerOps) ReadMeter() (engine.MeterReading, error) {
	return readMixer(m, (*engine.MixerTrack).ReadMeter)
}

func (m mixerOps) SnapMeter() error {
	return m.writeMixer((*engine.MixerTrack).SnapRMS)
}

// Drop releases the engine reference.
func (m mixerOps) Drop() {
	m.s.Release()
}

type masterTrack struct {
	mixerOps
}

func newMasterTrack(s *shared.Engine) *masterTrack {
	return &masterTrack{mixerOps{
		s: s,
		resolve: func(e *engine.Engine) (*engine.MixerTrack, error) {
			return e.Master(), nil
		},
	}}
}

type audioTrack struct {
	mixerOps
	key engine.AudioTrackKey
}

var (
	_ MasterTrack = (*masterTrack)(nil)
	_ AudioTrack  = (*audioTrack)(nil)
)

func newAudioTrack(s *shared.Engine, key engine.AudioTrackKey) *audioTrack {
	t := &audioTrack{key: key}
	t.mixerOps = mixerOps{s: s, resolve: t.mixer}
	return t
}

func (t *audioTrack) mixer(e *engine.Engine) (*engine.MixerTrack, error) {
	if !e.HasAudioTrack(t.key) {
		return nil, errDeleted()
	}
	mk, err := e.AudioMixerTrackKey(t.key)
	if err != nil {
		return nil, err
	}
	return e.MixerTrack(mk)
}

func (t *audioTrack) timeline(e *engine.Engine) (engine.TimelineTrackKey, error) {
	if !e.HasAudioTrack(t.key) {
		return 0, errDeleted()
	}
	return e.AudioTimelineTrackKey(t.key)
}

// Key fails once the track has been deleted.
func (t *audioTrack) Key() (engine.AudioTrackKey, error) {
	return shared.With(t.s, func(e *engine.Engine) (engine.AudioTrackKey, error) {
		if !e.HasAudioTrack(t.key) {
			return 0, errDeleted()
		}
		return t.key, nil
	})
}

func (t *audioTrack) AddClip(clip StoredAudioClip, start engine.Timestamp, length *engine.Timestamp) (AudioClip, error) {
	sc, ok := clip.(*storedAudioClip)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseBinding, []string{"addClip", "clip"},
			"*facade.storedAudioClip", fmt.Sprintf("%T", clip))
	}
	if !t.s.Same(sc.s) {
		return nil, errForeign("clip")
	}

	key, err := shared.With(t.s, func(e *engine.Engine) (engine.AudioClipKey, error) {
		tk, err := t.timeline(e)
		if err != nil {
			return 0, err
		}
		return e.AddAudioClip(tk, sc.key, start, length)
	})
	if err != nil {
		return nil, err
	}
	return newAudioClip(t.s.Clone(), key), nil
}

func (t *audioTrack) Clips() ([]AudioClip, error) {
	keys, err := shared.With(t.s, func(e *engine.Engine) ([]engine.AudioClipKey, error) {
		tk, err := t.timeline(e)
		if err != nil {
			return nil, err
		}
		return e.AudioClips(tk)
	})
	if err != nil {
		return nil, err
	}
	clips := make([]AudioClip, 0, len(keys))
	for _, k := range keys {
		clips = append(clips, newAudioClip(t.s.Clone(), k))
	}
	return clips, nil
}

func (t *audioTrack) DeleteClip(clip AudioClip) (AudioClipState, error) {
	states, err := t.DeleteClips([]AudioClip{clip})
	if err != nil {
		return AudioClipState{}, err
	}
	return states[0], nil
}

func (t *audioTrack) DeleteClips(clips []AudioClip) ([]AudioClipState, error) {
	keys, err := t.clipKeys(clips)
	if err != nil {
		return nil, err
	}
	return shared.With(t.s, func(e *engine.Engine) ([]AudioClipState, error) {
		tk, err := t.timeline(e)
		if err != nil {
			return nil, err
		}
		states := make([]AudioClipState, 0, len(keys))
		for _, k := range keys {
			c, err := e.AudioClip(k)
			if err != nil {
				return nil, err
			}
			if c.Track != tk {
				return nil, errors.InvalidInput(errors.PhaseEngine, fmt.Sprintf("Audio clip %d is not on this track", k))
			}
			st, err := e.AudioClipState(k)
			if err != nil {
				return nil, err
			}
			states = append(states, AudioClipState{s: st})
		}
		if err := e.DeleteAudioClips(keys); err != nil {
			return nil, err
		}
		return states, nil
	})
}

func (t *audioTrack) clipKeys(clips []AudioClip) ([]engine.AudioClipKey, error) {
	keys := make([]engine.AudioClipKey, 0, len(clips))
	for i, c := range clips {
		ac, ok := c.(*audioClip)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseBinding, []string{"clips", fmt.Sprint(i)},
				"*facade.audioClip", fmt.Sprintf("%T", c))
		}
		if !t.s.Same(ac.s) {
			return nil, errForeign("clip")
		}
		keys = append(keys, ac.key)
	}
	return keys, nil
}

func (t *audioTrack) ReconstructClip(state AudioClipState) (AudioClip, error) {
	clips, err := t.ReconstructClips([]AudioClipState{state})
	if err != nil {
		return nil, err
	}
	return clips[0], nil
}

func (t *audioTrack) ReconstructClips(states []AudioClipState) ([]AudioClip, error) {
	raw := make([]engine.AudioClipState, len(states))
	for i, s := range states {
		raw[i] = s.s
	}
	keys, err := shared.With(t.s, func(e *engine.Engine) ([]engine.AudioClipKey, error) {
		tk, err := t.timeline(e)
		if err != nil {
			return nil, err
		}
		return e.ReconstructAudioClips(tk, raw)
	})
	if err != nil {
		return nil, err
	}
	clips := make([]AudioClip, 0, len(keys))
	for _, k := range keys {
		clips = append(clips, newAudioClip(t.s.Clone(), k))
	}
	return clips, nil
}

// Delete removes the track from the mixer. Every later call on the track
// fails.
func (t *audioTrack) Delete() (AudioTrackState, error) {
	return shared.With(t.s, func(e *engine.Engine) (AudioTrackState, error) {
		if !e.HasAudioTrack(t.key) {
			return AudioTrackState{}, errDeleted()
		}
		st, err := e.DeleteAudioTrack(t.key)
		if err != nil {
			return AudioTrackState{}, err
		}
		return AudioTrackState{s: st}, nil
	})
}
