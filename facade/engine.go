package facade

import (
	"fmt"
	"iter"

	"github.com/wippyai/adae-bridge/engine"
	"github.com/wippyai/adae-bridge/errors"
	"github.com/wippyai/adae-bridge/shared"
)

// Engine is the top-level engine capability.
type Engine interface {
	Master() (MasterTrack, error)
	AudioTracks() ([]AudioTrack, error)
	AudioTrack(key engine.AudioTrackKey) (AudioTrack, error)
	AddAudioTrack() (AudioTrack, error)
	AddAudioTracks(count uint32) ([]AudioTrack, error)
	DeleteAudioTrack(track AudioTrack) (AudioTrackState, error)
	DeleteAudioTracks(tracks []AudioTrack) ([]AudioTrackState, error)
	ReconstructAudioTrack(state AudioTrackState) (AudioTrack, error)
	ReconstructAudioTracks(states []AudioTrackState) ([]AudioTrack, error)
	ImportAudioClip(path string) (StoredAudioClip, error)
	Play() error
	Pause() error
	JumpTo(pos engine.Timestamp) error
	PlayheadPosition() (engine.Timestamp, error)
	Close() error
	// Shared returns the underlying reference. It stays owned by the facade.
	Shared() *shared.Engine
	Drop()
}

type engineFacade struct {
	s *shared.Engine
}

var _ Engine = (*engineFacade)(nil)

// New builds a live engine. Failed preloads are yielded, not returned as
// an error.
func New(cfg engine.Config) (Engine, iter.Seq[*engine.ImportError], error) {
	s, failed, err := shared.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return &engineFacade{s: s}, failed, nil
}

// Dummy returns an engine with one audio track and no audio worker.
func Dummy() Engine { return &engineFacade{s: shared.Dummy()} }

// Empty returns an engine with no tracks and no audio worker.
func Empty() Engine { return &engineFacade{s: shared.Empty()} }

// Wrap takes ownership of s.
func Wrap(s *shared.Engine) Engine { return &engineFacade{s: s} }

func (f *engineFacade) Shared() *shared.Engine { return f.s }

func (f *engineFacade) Drop() { f.s.Release() }

func (f *engineFacade) Close() error { return f.s.Close() }

func (f *engineFacade) Master() (MasterTrack, error) {
	if err := f.s.WithInner(func(*engine.Engine) error { return nil }); err != nil {
		return nil, err
	}
	return newMasterTrack(f.s.Clone()), nil
}

func (f *engineFacade) tracks(keys []engine.AudioTrackKey) []AudioTrack {
	out := make([]AudioTrack, 0, len(keys))
	for _, k := range keys {
		out = append(out, newAudioTrack(f.s.Clone(), k))
	}
	return out
}

func (f *engineFacade) AudioTracks() ([]AudioTrack, error) {
	keys, err := shared.With(f.s, func(e *engine.Engine) ([]engine.AudioTrackKey, error) {
		return e.AudioTracks(), nil
	})
	if err != nil {
		return nil, err
	}
	return f.tracks(keys), nil
}

func (f *engineFacade) AudioTrack(key engine.AudioTrackKey) (AudioTrack, error) {
	err := f.s.WithInner(func(e *engine.Engine) error {
		if !e.HasAudioTrack(key) {
			return errors.NotFound(errors.PhaseEngine, "audio track", key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newAudioTrack(f.s.Clone(), key), nil
}

func (f *engineFacade) AddAudioTrack() (AudioTrack, error) {
	tracks, err := f.AddAudioTracks(1)
	if err != nil {
		return nil, err
	}
	return tracks[0], nil
}

func (f *engineFacade) AddAudioTracks(count uint32) ([]AudioTrack, error) {
	keys, err := shared.With(f.s, func(e *engine.Engine) ([]engine.AudioTrackKey, error) {
		return e.AddAudioTracks(count)
	})
	if err != nil {
		return nil, err
	}
	return f.tracks(keys), nil
}

func (f *engineFacade) DeleteAudioTrack(track AudioTrack) (AudioTrackState, error) {
	states, err := f.DeleteAudioTracks([]AudioTrack{track})
	if err != nil {
		return AudioTrackState{}, err
	}
	return states[0], nil
}

func (f *engineFacade) DeleteAudioTracks(tracks []AudioTrack) ([]AudioTrackState, error) {
	keys := make([]engine.AudioTrackKey, 0, len(tracks))
	for i, t := range tracks {
		at, ok := t.(*audioTrack)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseBinding, []string{"tracks", fmt.Sprint(i)},
				"*facade.audioTrack", fmt.Sprintf("%T", t))
		}
		if !f.s.Same(at.s) {
			return nil, errForeign("track")
		}
		keys = append(keys, at.key)
	}
	return shared.With(f.s, func(e *engine.Engine) ([]AudioTrackState, error) {
		for _, k := range keys {
			if !e.HasAudioTrack(k) {
				return nil, errDeleted()
			}
		}
		raw, err := e.DeleteAudioTracks(keys)
		if err != nil {
			return nil, err
		}
		states := make([]AudioTrackState, len(raw))
		for i, st := range raw {
			states[i] = AudioTrackState{s: st}
		}
		return states, nil
	})
}

func (f *engineFacade) ReconstructAudioTrack(state AudioTrackState) (AudioTrack, error) {
	tracks, err := f.ReconstructAudioTracks([]AudioTrackState{state})
	if err != nil {
		return nil, err
	}
	return tracks[0], nil
}

func (f *engineFacade) ReconstructAudioTracks(states []AudioTrackState) ([]AudioTrack, error) {
	raw := make([]engine.AudioTrackState, len(states))
	for i, s := range states {
		raw[i] = s.s
	}
	keys, err := shared.With(f.s, func(e *engine.Engine) ([]engine.AudioTrackKey, error) {
		return e.ReconstructAudioTracks(raw)
	})
	if err != nil {
		return nil, err
	}
	return f.tracks(keys), nil
}

func (f *engineFacade) ImportAudioClip(path string) (StoredAudioClip, error) {
	key, err := shared.With(f.s, func(e *engine.Engine) (engine.StoredAudioClipKey, error) {
		return e.ImportAudioClip(path)
	})
	if err != nil {
		return nil, err
	}
	return newStoredAudioClip(f.s.Clone(), key), nil
}

func (f *engineFacade) Play() error {
	return f.s.WithInner(func(e *engine.Engine) error {
		e.Play()
		return nil
	})
}

func (f *engineFacade) Pause() error {
	return f.s.WithInner(func(e *engine.Engine) error {
		e.Pause()
		return nil
	})
}

func (f *engineFacade) JumpTo(pos engine.Timestamp) error {
	return f.s.WithInner(func(e *engine.Engine) error {
		e.JumpTo(pos)
		return nil
	})
}

func (f *engineFacade) PlayheadPosition() (engine.Timestamp, error) {
	return shared.With(f.s, func(e *engine.Engine) (engine.Timestamp, error) {
		return e.PlayheadPosition(), nil
	})
}
