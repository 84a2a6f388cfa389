package engine

import (
	"slices"

	"github.com/wippyai/adae-bridge/errors"
)

func (c *AudioClip) state() AudioClipState {
	return AudioClipState{Key: c.Key, Stored: c.Stored, Start: c.Start, Length: c.Length}
}

// clipEnd is the exclusive end of c on the timeline.
func (e *Engine) clipEnd(c *AudioClip) (Timestamp, error) {
	length := c.Length
	if length == nil {
		d, err := e.stored[c.Stored].Duration(e.bpmCents)
		if err != nil {
			return Timestamp{}, err
		}
		length = &d
	}
	return c.Start.Add(*length)
}

// AudioClips returns the clips on a timeline track ordered by start.
func (e *Engine) AudioClips(track TimelineTrackKey) ([]AudioClipKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.timelineTracks[track]
	if !ok {
		return nil, errors.NotFound(errors.PhaseEngine, "timeline track", track)
	}
	return slices.Clone(t.clips), nil
}

// AudioClip returns a copy of a clip.
func (e *Engine) AudioClip(key AudioClipKey) (AudioClip, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.clips[key]
	if !ok {
		return AudioClip{}, errors.NotFound(errors.PhaseEngine, "audio clip", key)
	}
	return *c, nil
}

// AudioClipState captures a clip for later reconstruction.
func (e *Engine) AudioClipState(key AudioClipKey) (AudioClipState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.clips[key]
	if !ok {
		return AudioClipState{}, errors.NotFound(errors.PhaseEngine, "audio clip", key)
	}
	return c.state(), nil
}

// AddAudioClip places a stored clip on a timeline track. A nil length plays
// the whole stored clip. Clips on one track may not overlap.
func (e *Engine) AddAudioClip(track TimelineTrackKey, stored StoredAudioClipKey, start Timestamp, length *Timestamp) (AudioClipKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := AudioClipState{Stored: stored, Start: start, Length: length}
	if err := e.checkPlacement(track, []AudioClipState{st}); err != nil {
		return 0, err
	}
	st.Key = AudioClipKey(e.clipKeys.alloc())
	e.placeClip(track, st)
	e.debugf("added clip %d on timeline track %d at %v", st.Key, track, start)
	return st.Key, nil
}

// DeleteAudioClip removes a clip from the timeline.
func (e *Engine) DeleteAudioClip(key AudioClipKey) error {
	return e.DeleteAudioClips([]AudioClipKey{key})
}

// DeleteAudioClips removes several clips. Nothing is deleted unless every
// key is valid.
func (e *Engine) DeleteAudioClips(keys []AudioClipKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, k := range keys {
		if _, ok := e.clips[k]; !ok {
			return errors.NotFound(errors.PhaseEngine, "audio clip", k)
		}
	}
	for _, k := range keys {
		c, ok := e.clips[k]
		if !ok {
			continue // listed twice
		}
		t := e.timelineTracks[c.Track]
		t.clips = slices.DeleteFunc(t.clips, func(ck AudioClipKey) bool { return ck == k })
		delete(e.clips, k)
		e.clipKeys.free(uint32(k))
	}
	e.debugf("deleted %d clips", len(keys))
	return nil
}

// ReconstructAudioClip restores a deleted clip under its old key.
func (e *Engine) ReconstructAudioClip(track TimelineTrackKey, state AudioClipState) (AudioClipKey, error) {
	keys, err := e.ReconstructAudioClips(track, []AudioClipState{state})
	if err != nil {
		return 0, err
	}
	return keys[0], nil
}

// ReconstructAudioClips restores several clips on one track.
func (e *Engine) ReconstructAudioClips(track TimelineTrackKey, states []AudioClipState) ([]AudioClipKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[AudioClipKey]struct{}, len(states))
	for _, st := range states {
		if _, dup := seen[st.Key]; dup || e.clipKeys.inUse(uint32(st.Key)) {
			return nil, errors.InvalidInput(errors.PhaseEngine, "audio clip key already in use")
		}
		seen[st.Key] = struct{}{}
	}
	if err := e.checkPlacement(track, states); err != nil {
		return nil, err
	}

	keys := make([]AudioClipKey, 0, len(states))
	for _, st := range states {
		e.clipKeys.claim(uint32(st.Key))
		e.placeClip(track, st)
		keys = append(keys, st.Key)
	}
	return keys, nil
}

// checkPlacement verifies that the clips can be added to track together.
func (e *Engine) checkPlacement(track TimelineTrackKey, states []AudioClipState) error {
	t, ok := e.timelineTracks[track]
	if !ok {
		return errors.NotFound(errors.PhaseEngine, "timeline track", track)
	}

	type span struct{ start, end Timestamp }
	spans := make([]span, 0, len(t.clips)+len(states))
	for _, ck := range t.clips {
		c := e.clips[ck]
		end, err := e.clipEnd(c)
		if err != nil {
			return err
		}
		spans = append(spans, span{c.Start, end})
	}

	for _, st := range states {
		if _, ok := e.stored[st.Stored]; !ok {
			return errors.NotFound(errors.PhaseEngine, "stored audio clip", st.Stored)
		}
		if st.Length != nil && st.Length.BeatUnits() == 0 {
			return errors.InvalidInput(errors.PhaseEngine, "clip length must be greater than zero")
		}
		end, err := e.clipEnd(&AudioClip{Start: st.Start, Length: st.Length, Stored: st.Stored})
		if err != nil {
			return err
		}
		for _, s := range spans {
			if st.Start.Before(s.end) && s.start.Before(end) {
				return errors.New(errors.PhaseEngine, errors.KindInvalidInput).
					Value(st.Start).
					Detail("Clip at %v overlaps an existing clip", st.Start).
					Build()
			}
		}
		spans = append(spans, span{st.Start, end})
	}
	return nil
}

// placeClip inserts a validated clip, keeping the track ordered by start.
func (e *Engine) placeClip(track TimelineTrackKey, st AudioClipState) {
	c := &AudioClip{Key: st.Key, Stored: st.Stored, Start: st.Start, Track: track}
	if st.Length != nil {
		l := *st.Length
		c.Length = &l
	}
	e.clips[st.Key] = c

	t := e.timelineTracks[track]
	i, _ := slices.BinarySearchFunc(t.clips, c.Start, func(k AudioClipKey, s Timestamp) int {
		a := e.clips[k].Start.BeatUnits()
		b := s.BeatUnits()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	})
	t.clips = slices.Insert(t.clips, i, st.Key)
}
