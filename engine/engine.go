package engine

import (
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/adae-bridge/crash"
	"github.com/wippyai/adae-bridge/errors"
)

// DefaultAudioTracks is the number of audio tracks New and Dummy start with.
const DefaultAudioTracks = 1

type audioTrack struct {
	mixer    MixerTrackKey
	timeline TimelineTrackKey
}

type timelineTrack struct {
	clips []AudioClipKey
}

// AudioClip is a placement of a stored clip on a timeline track.
type AudioClip struct {
	// Length is nil when the clip plays to the end of the stored clip.
	Length *Timestamp
	Start  Timestamp
	Key    AudioClipKey
	Stored StoredAudioClipKey
	Track  TimelineTrackKey
}

// AudioClipState is what is needed to reconstruct a deleted clip.
type AudioClipState struct {
	Length *Timestamp
	Start  Timestamp
	Key    AudioClipKey
	Stored StoredAudioClipKey
}

// AudioTrackState is what is needed to reconstruct a deleted audio track.
type AudioTrackState struct {
	Clips []AudioClipState
	Mixer MixerTrackState
	Key   AudioTrackKey
}

// Engine is the in-memory audio engine. All methods are safe for concurrent
// use; the audio worker shares the same lock.
type Engine struct {
	cfg    Config
	master *MixerTrack

	audioTracks    map[AudioTrackKey]*audioTrack
	mixerTracks    map[MixerTrackKey]*MixerTrack
	timelineTracks map[TimelineTrackKey]*timelineTrack
	clips          map[AudioClipKey]*AudioClip
	stored         map[StoredAudioClipKey]*StoredAudioClip
	order          []AudioTrackKey

	audioKeys    keyAllocator
	mixerKeys    keyAllocator
	timelineKeys keyAllocator
	clipKeys     keyAllocator
	storedKeys   keyAllocator

	// transport
	base     Timestamp
	played   uint64
	playing  bool
	bpmCents uint16

	stop chan struct{}
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

func newEngine(cfg Config) *Engine {
	return &Engine{
		cfg:            cfg,
		master:         newMixerTrack(),
		audioTracks:    make(map[AudioTrackKey]*audioTrack),
		mixerTracks:    make(map[MixerTrackKey]*MixerTrack),
		timelineTracks: make(map[TimelineTrackKey]*timelineTrack),
		clips:          make(map[AudioClipKey]*AudioClip),
		stored:         make(map[StoredAudioClipKey]*StoredAudioClip),
		audioKeys:      newKeyAllocator(),
		mixerKeys:      newKeyAllocator(),
		timelineKeys:   newKeyAllocator(),
		clipKeys:       newKeyAllocator(),
		storedKeys:     newKeyAllocator(),
		bpmCents:       cfg.bpmCents(),
	}
}

// New builds an engine for cfg and starts its audio worker. Clips listed in
// cfg.Preload that fail to import are reported, not fatal.
func New(cfg Config) (*Engine, []*ImportError, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	e := newEngine(cfg)
	if _, err := e.AddAudioTracks(DefaultAudioTracks); err != nil {
		return nil, nil, err
	}

	var failed []*ImportError
	for _, path := range cfg.Preload {
		if _, err := e.ImportAudioClip(path); err != nil {
			failed = append(failed, &ImportError{Path: path, Err: err})
		}
	}

	e.start()
	Logger().Info("engine started",
		zap.String("device", cfg.OutputDevice.Name()),
		zap.Uint32("sample_rate", cfg.OutputConfig.SampleRate),
		zap.Int("import_failures", len(failed)))
	e.debugf("engine started on %s", cfg.OutputDevice.Name())
	return e, failed, nil
}

// Dummy returns an engine with the default configuration and no audio
// worker. The transport only moves through JumpTo.
func Dummy() *Engine {
	e := newEngine(DefaultConfig())
	_, _ = e.AddAudioTracks(DefaultAudioTracks)
	return e
}

// Empty returns an engine with no audio tracks and no audio worker.
func Empty() *Engine {
	return newEngine(DefaultConfig())
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// BPMCents returns the tempo in hundredths of a beat per minute.
func (e *Engine) BPMCents() uint16 {
	return e.bpmCents
}

// Close stops the audio worker. It is safe to call more than once.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	stop, done := e.stop, e.done
	e.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	Logger().Debug("engine closed")
}

// Master returns the master track.
func (e *Engine) Master() *MixerTrack {
	return e.master
}

// MixerTrack returns a mixer track by key.
func (e *Engine) MixerTrack(key MixerTrackKey) (*MixerTrack, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.mixerTracks[key]
	if !ok {
		return nil, errors.NotFound(errors.PhaseEngine, "mixer track", key)
	}
	return t, nil
}

// AudioTracks returns the audio track keys in mixer order.
func (e *Engine) AudioTracks() []AudioTrackKey {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.order)
}

// HasAudioTrack reports whether key names a live audio track.
func (e *Engine) HasAudioTrack(key AudioTrackKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.audioTracks[key]
	return ok
}

// AudioMixerTrackKey returns the mixer track of an audio track.
func (e *Engine) AudioMixerTrackKey(key AudioTrackKey) (MixerTrackKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.audioTracks[key]
	if !ok {
		return 0, errors.NotFound(errors.PhaseEngine, "audio track", key)
	}
	return t.mixer, nil
}

// AudioTimelineTrackKey returns the timeline track of an audio track.
func (e *Engine) AudioTimelineTrackKey(key AudioTrackKey) (TimelineTrackKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.audioTracks[key]
	if !ok {
		return 0, errors.NotFound(errors.PhaseEngine, "audio track", key)
	}
	return t.timeline, nil
}

// HasTimelineTrack reports whether key names a live timeline track.
func (e *Engine) HasTimelineTrack(key TimelineTrackKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.timelineTracks[key]
	return ok
}

// AddAudioTrack adds an audio track at the end of the mixer.
func (e *Engine) AddAudioTrack() (AudioTrackKey, error) {
	keys, err := e.AddAudioTracks(1)
	if err != nil {
		return 0, err
	}
	return keys[0], nil
}

// AddAudioTracks adds count audio tracks.
func (e *Engine) AddAudioTracks(count uint32) ([]AudioTrackKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	keys := make([]AudioTrackKey, 0, count)
	for range count {
		key := AudioTrackKey(e.audioKeys.alloc())
		e.insertAudioTrack(key, newMixerTrack())
		keys = append(keys, key)
	}
	e.debugf("added %d audio tracks", count)
	return keys, nil
}

func (e *Engine) insertAudioTrack(key AudioTrackKey, mixer *MixerTrack) {
	mk := MixerTrackKey(e.mixerKeys.alloc())
	tk := TimelineTrackKey(e.timelineKeys.alloc())
	e.mixerTracks[mk] = mixer
	e.timelineTracks[tk] = &timelineTrack{}
	e.audioTracks[key] = &audioTrack{mixer: mk, timeline: tk}
	e.order = append(e.order, key)
}

// AudioTrackState captures an audio track for later reconstruction.
func (e *Engine) AudioTrackState(key AudioTrackKey) (AudioTrackState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.audioTrackState(key)
}

func (e *Engine) audioTrackState(key AudioTrackKey) (AudioTrackState, error) {
	t, ok := e.audioTracks[key]
	if !ok {
		return AudioTrackState{}, errors.NotFound(errors.PhaseEngine, "audio track", key)
	}
	st := AudioTrackState{
		Key:   key,
		Mixer: e.mixerTracks[t.mixer].state(),
	}
	for _, ck := range e.timelineTracks[t.timeline].clips {
		st.Clips = append(st.Clips, e.clips[ck].state())
	}
	return st, nil
}

// DeleteAudioTrack removes an audio track and its clips.
func (e *Engine) DeleteAudioTrack(key AudioTrackKey) (AudioTrackState, error) {
	states, err := e.DeleteAudioTracks([]AudioTrackKey{key})
	if err != nil {
		return AudioTrackState{}, err
	}
	return states[0], nil
}

// DeleteAudioTracks removes several audio tracks. Nothing is deleted unless
// every key is valid.
func (e *Engine) DeleteAudioTracks(keys []AudioTrackKey) ([]AudioTrackState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[AudioTrackKey]struct{}, len(keys))
	states := make([]AudioTrackState, 0, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			return nil, errors.InvalidInput(errors.PhaseEngine, "audio track listed twice")
		}
		seen[k] = struct{}{}
		st, err := e.audioTrackState(k)
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}

	for _, k := range keys {
		t := e.audioTracks[k]
		for _, ck := range e.timelineTracks[t.timeline].clips {
			delete(e.clips, ck)
			e.clipKeys.free(uint32(ck))
		}
		delete(e.timelineTracks, t.timeline)
		e.timelineKeys.free(uint32(t.timeline))
		delete(e.mixerTracks, t.mixer)
		e.mixerKeys.free(uint32(t.mixer))
		delete(e.audioTracks, k)
		e.audioKeys.free(uint32(k))
	}
	e.order = slices.DeleteFunc(e.order, func(k AudioTrackKey) bool {
		_, gone := seen[k]
		return gone
	})
	e.debugf("deleted %d audio tracks", len(keys))
	return states, nil
}

// ReconstructAudioTrack restores a deleted audio track under its old key.
func (e *Engine) ReconstructAudioTrack(state AudioTrackState) (AudioTrackKey, error) {
	keys, err := e.ReconstructAudioTracks([]AudioTrackState{state})
	if err != nil {
		return 0, err
	}
	return keys[0], nil
}

// ReconstructAudioTracks restores several audio tracks. Nothing is restored
// unless every state can be.
func (e *Engine) ReconstructAudioTracks(states []AudioTrackState) ([]AudioTrackKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	trackKeys := make(map[AudioTrackKey]struct{}, len(states))
	clipKeys := make(map[AudioClipKey]struct{})
	for _, st := range states {
		if _, dup := trackKeys[st.Key]; dup || e.audioKeys.inUse(uint32(st.Key)) {
			return nil, errors.InvalidInput(errors.PhaseEngine, "audio track key already in use")
		}
		trackKeys[st.Key] = struct{}{}
		for _, c := range st.Clips {
			if _, dup := clipKeys[c.Key]; dup || e.clipKeys.inUse(uint32(c.Key)) {
				return nil, errors.InvalidInput(errors.PhaseEngine, "audio clip key already in use")
			}
			if _, ok := e.stored[c.Stored]; !ok {
				return nil, errors.NotFound(errors.PhaseEngine, "stored audio clip", c.Stored)
			}
			clipKeys[c.Key] = struct{}{}
		}
	}

	keys := make([]AudioTrackKey, 0, len(states))
	for _, st := range states {
		e.audioKeys.claim(uint32(st.Key))
		mixer := newMixerTrack()
		mixer.panning = st.Mixer.Panning
		mixer.volume = st.Mixer.Volume
		e.insertAudioTrack(st.Key, mixer)

		tk := e.audioTracks[st.Key].timeline
		for _, c := range st.Clips {
			e.clipKeys.claim(uint32(c.Key))
			e.placeClip(tk, c)
		}
		keys = append(keys, st.Key)
	}
	e.debugf("reconstructed %d audio tracks", len(keys))
	return keys, nil
}

// ImportAudioClip reads a WAVE file into a stored clip.
func (e *Engine) ImportAudioClip(path string) (StoredAudioClipKey, error) {
	clip, err := readClip(path)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	key := StoredAudioClipKey(e.storedKeys.alloc())
	clip.Key = key
	e.stored[key] = clip
	e.debugf("imported %s as stored clip %d", path, key)
	return key, nil
}

// StoredAudioClip returns a copy of a stored clip.
func (e *Engine) StoredAudioClip(key StoredAudioClipKey) (StoredAudioClip, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.stored[key]
	if !ok {
		return StoredAudioClip{}, errors.NotFound(errors.PhaseEngine, "stored audio clip", key)
	}
	return *c, nil
}

// StoredAudioClips returns the stored clip keys in ascending order.
func (e *Engine) StoredAudioClips() []StoredAudioClipKey {
	e.mu.Lock()
	defer e.mu.Unlock()
	keys := make([]StoredAudioClipKey, 0, len(e.stored))
	for k := range e.stored {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Play starts the transport.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = true
	e.debugf("play")
}

// Pause stops the transport and keeps the playhead where it is.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.base = e.position()
	e.played = 0
	e.playing = false
	e.debugf("pause at %v", e.base)
}

// Playing reports whether the transport is running.
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// JumpTo moves the playhead.
func (e *Engine) JumpTo(pos Timestamp) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.base = pos
	e.played = 0
	e.debugf("jump to %v", pos)
}

// PlayheadPosition returns the current playhead.
func (e *Engine) PlayheadPosition() Timestamp {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position()
}

func (e *Engine) position() Timestamp {
	if e.played == 0 {
		return e.base
	}
	delta, err := FromSamples(e.played, e.cfg.OutputConfig.SampleRate, e.bpmCents)
	if err != nil {
		return Infinity()
	}
	pos, err := e.base.Add(delta)
	if err != nil {
		return Infinity()
	}
	return pos
}

func (e *Engine) start() {
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	frames := e.cfg.OutputConfig.FrameSize()
	period := time.Duration(frames) * time.Second / time.Duration(e.cfg.OutputConfig.SampleRate)

	stop, done := e.stop, e.done
	crash.Go(func() {
		defer close(done)
		e.run(stop, frames, period)
	})
}

// run is the audio worker loop.
func (e *Engine) run(stop <-chan struct{}, frames uint32, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	dt := period.Seconds()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.tick(frames, dt)
		}
	}
}

// tick advances the transport by one buffer and updates the meters.
func (e *Engine) tick(frames uint32, dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.playing {
		e.played += uint64(frames)
	}
	pos := e.position()
	if pos.IsInfinity() {
		e.playing = false
	}

	var sum [2]float64
	for _, k := range e.order {
		t := e.audioTracks[k]
		level := 0.0
		if e.playing && e.clipAt(t.timeline, pos) {
			level = 1
		}
		out := e.mixerTracks[t.mixer].process(level, dt)
		sum[0] += out[0]
		sum[1] += out[1]
	}
	e.master.mix(sum, dt)
}

func (e *Engine) clipAt(tk TimelineTrackKey, pos Timestamp) bool {
	for _, ck := range e.timelineTracks[tk].clips {
		c := e.clips[ck]
		end, err := e.clipEnd(c)
		if err != nil {
			continue
		}
		if !pos.Before(c.Start) && pos.Before(end) {
			return true
		}
	}
	return false
}
