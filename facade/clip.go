package facade

import (
	"github.com/wippyai/adae-bridge/engine"
	"github.com/wippyai/adae-bridge/shared"
)

type audioClip struct {
	s   *shared.Engine
	key engine.AudioClipKey
}

var _ AudioClip = (*audioClip)(nil)

func newAudioClip(s *shared.Engine, key engine.AudioClipKey) *audioClip {
	return &audioClip{s: s, key: key}
}

func (c *audioClip) Key() engine.AudioClipKey { return c.key }

func (c *audioClip) get() (engine.AudioClip, error) {
	return shared.With(c.s, func(e *engine.Engine) (engine.AudioClip, error) {
		return e.AudioClip(c.key)
	})
}

func (c *audioClip) Start() (engine.Timestamp, error) {
	ac, err := c.get()
	return ac.Start, err
}

func (c *audioClip) Length() (*engine.Timestamp, error) {
	ac, err := c.get()
	return ac.Length, err
}

func (c *audioClip) StoredClip() (StoredAudioClip, error) {
	ac, err := c.get()
	if err != nil {
		return nil, err
	}
	return newStoredAudioClip(c.s.Clone(), ac.Stored), nil
}

func (c *audioClip) Drop() { c.s.Release() }

type storedAudioClip struct {
	s   *shared.Engine
	key engine.StoredAudioClipKey
}

var _ StoredAudioClip = (*storedAudioClip)(nil)

func newStoredAudioClip(s *shared.Engine, key engine.StoredAudioClipKey) *storedAudioClip {
	return &storedAudioClip{s: s, key: key}
}

func (c *storedAudioClip) Key() engine.StoredAudioClipKey { return c.key }

func (c *storedAudioClip) get() (engine.StoredAudioClip, error) {
	return shared.With(c.s, func(e *engine.Engine) (engine.StoredAudioClip, error) {
		return e.StoredAudioClip(c.key)
	})
}

func (c *storedAudioClip) SampleRate() (uint32, error) {
	sc, err := c.get()
	return sc.SampleRate, err
}

func (c *storedAudioClip) Length() (uint64, error) {
	sc, err := c.get()
	return sc.Length, err
}

func (c *storedAudioClip) Drop() { c.s.Release() }
