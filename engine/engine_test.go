package engine

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/wippyai/adae-bridge/errors"
)

func TestEngine_Constructors(t *testing.T) {
	if n := len(Empty().AudioTracks()); n != 0 {
		t.Fatalf("Empty has %d audio tracks", n)
	}
	if n := len(Dummy().AudioTracks()); n != DefaultAudioTracks {
		t.Fatalf("Dummy has %d audio tracks, want %d", n, DefaultAudioTracks)
	}
}

func TestEngine_AddDeleteReconstruct(t *testing.T) {
	e := Empty()

	keys, err := e.AddAudioTracks(5)
	if err != nil {
		t.Fatalf("AddAudioTracks: %v", err)
	}
	if len(e.AudioTracks()) != 5 {
		t.Fatalf("tracks = %v", e.AudioTracks())
	}

	mk, err := e.AudioMixerTrackKey(keys[2])
	if err != nil {
		t.Fatalf("AudioMixerTrackKey: %v", err)
	}
	mixer, err := e.MixerTrack(mk)
	if err != nil {
		t.Fatalf("MixerTrack: %v", err)
	}
	mixer.SetVolume(0.25)
	mixer.SetPanning(-0.5)

	states, err := e.DeleteAudioTracks(keys[1:3])
	if err != nil {
		t.Fatalf("DeleteAudioTracks: %v", err)
	}
	if e.HasAudioTrack(keys[1]) || e.HasAudioTrack(keys[2]) {
		t.Fatal("deleted tracks still present")
	}
	if _, err := e.AudioMixerTrackKey(keys[2]); !errors.IsKind(err, errors.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}

	restored, err := e.ReconstructAudioTracks(states)
	if err != nil {
		t.Fatalf("ReconstructAudioTracks: %v", err)
	}
	if restored[0] != keys[1] || restored[1] != keys[2] {
		t.Fatalf("restored keys = %v, want %v", restored, keys[1:3])
	}

	mk, _ = e.AudioMixerTrackKey(keys[2])
	mixer, _ = e.MixerTrack(mk)
	if mixer.Volume() != 0.25 || mixer.Panning() != -0.5 {
		t.Fatalf("volume=%v panning=%v after reconstruct", mixer.Volume(), mixer.Panning())
	}

	if _, err := e.ReconstructAudioTracks(states); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Fatalf("double reconstruct err = %v", err)
	}
}

func TestEngine_DeleteIsAllOrNothing(t *testing.T) {
	e := Empty()
	keys, _ := e.AddAudioTracks(2)

	if _, err := e.DeleteAudioTracks([]AudioTrackKey{keys[0], 999}); !errors.IsKind(err, errors.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if !e.HasAudioTrack(keys[0]) {
		t.Fatal("valid track deleted despite failure")
	}
	if _, err := e.DeleteAudioTracks([]AudioTrackKey{keys[0], keys[0]}); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Fatalf("duplicate err = %v", err)
	}
}

func TestEngine_Clips(t *testing.T) {
	e := Empty()
	path := writeWAV(t, 48000, 2, 48000)

	stored, err := e.ImportAudioClip(path)
	if err != nil {
		t.Fatalf("ImportAudioClip: %v", err)
	}
	sc, err := e.StoredAudioClip(stored)
	if err != nil {
		t.Fatalf("StoredAudioClip: %v", err)
	}
	if sc.SampleRate != 48000 || sc.Length != 48000 || sc.Channels != 2 {
		t.Fatalf("stored clip = %+v", sc)
	}

	track, _ := e.AddAudioTrack()
	tk, _ := e.AudioTimelineTrackKey(track)

	one, _ := FromBeats(1)
	two, _ := FromBeats(2)
	ck, err := e.AddAudioClip(tk, stored, one, &two)
	if err != nil {
		t.Fatalf("AddAudioClip: %v", err)
	}
	clip, _ := e.AudioClip(ck)
	if clip.Start.Beats() != 1 || clip.Length == nil || clip.Length.Beats() != 2 {
		t.Fatalf("clip = %+v", clip)
	}

	// Overlaps [1, 3).
	if _, err := e.AddAudioClip(tk, stored, two, nil); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Fatalf("overlap err = %v", err)
	}

	// One second at 120 BPM is two beats: [3, 5).
	three, _ := FromBeats(3)
	open, err := e.AddAudioClip(tk, stored, three, nil)
	if err != nil {
		t.Fatalf("AddAudioClip without length: %v", err)
	}
	if c, _ := e.AudioClip(open); c.Length != nil {
		t.Fatalf("length = %v, want nil", c.Length)
	}

	clips, _ := e.AudioClips(tk)
	if len(clips) != 2 || clips[0] != ck || clips[1] != open {
		t.Fatalf("clips = %v", clips)
	}

	st, err := e.AudioClipState(ck)
	if err != nil {
		t.Fatalf("AudioClipState: %v", err)
	}
	if err := e.DeleteAudioClips([]AudioClipKey{ck, open}); err != nil {
		t.Fatalf("DeleteAudioClips: %v", err)
	}
	if clips, _ := e.AudioClips(tk); len(clips) != 0 {
		t.Fatalf("clips after delete = %v", clips)
	}

	if k, err := e.ReconstructAudioClip(tk, st); err != nil || k != ck {
		t.Fatalf("ReconstructAudioClip = %v, %v", k, err)
	}

	if _, err := e.AddAudioClip(999, stored, Zero(), nil); !errors.IsKind(err, errors.KindNotFound) {
		t.Fatalf("missing track err = %v", err)
	}
	if err := e.DeleteAudioClip(12345); !errors.IsKind(err, errors.KindNotFound) {
		t.Fatalf("missing clip err = %v", err)
	}
}

func TestEngine_DeleteTrackKeepsClipsInState(t *testing.T) {
	e := Empty()
	stored, err := e.ImportAudioClip(writeWAV(t, 44100, 1, 1000))
	if err != nil {
		t.Fatalf("ImportAudioClip: %v", err)
	}
	track, _ := e.AddAudioTrack()
	tk, _ := e.AudioTimelineTrackKey(track)
	ck, _ := e.AddAudioClip(tk, stored, Zero(), nil)

	st, err := e.DeleteAudioTrack(track)
	if err != nil {
		t.Fatalf("DeleteAudioTrack: %v", err)
	}
	if len(st.Clips) != 1 || st.Clips[0].Key != ck {
		t.Fatalf("state clips = %+v", st.Clips)
	}
	if _, err := e.AudioClip(ck); !errors.IsKind(err, errors.KindNotFound) {
		t.Fatalf("clip survived track deletion: %v", err)
	}

	if _, err := e.ReconstructAudioTrack(st); err != nil {
		t.Fatalf("ReconstructAudioTrack: %v", err)
	}
	if _, err := e.AudioClip(ck); err != nil {
		t.Fatalf("clip not restored: %v", err)
	}
}

func TestEngine_ImportErrors(t *testing.T) {
	e := Empty()
	if _, err := e.ImportAudioClip(filepath.Join(t.TempDir(), "nonexistent.wav")); !errors.IsKind(err, errors.KindIO) {
		t.Fatalf("err = %v, want io", err)
	}
}

func TestEngine_Transport(t *testing.T) {
	e := Dummy()
	if e.Playing() {
		t.Fatal("new engine should be paused")
	}

	four, _ := FromBeats(4)
	e.JumpTo(four)
	if got := e.PlayheadPosition(); got != four {
		t.Fatalf("PlayheadPosition = %v, want %v", got, four)
	}

	e.Play()
	if !e.Playing() {
		t.Fatal("Play did not start the transport")
	}
	e.Pause()
	if e.PlayheadPosition() != four {
		t.Fatal("worker-less engine should not move the playhead")
	}
}

func TestEngine_WorkerAdvancesPlayhead(t *testing.T) {
	cfg := DefaultConfig()
	e, failed, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()
	if len(failed) != 0 {
		t.Fatalf("import failures: %v", failed)
	}

	e.Play()
	deadline := time.Now().Add(5 * time.Second)
	for e.PlayheadPosition() == Zero() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if e.PlayheadPosition() == Zero() {
		t.Fatal("playhead did not move")
	}

	e.Pause()
	pos := e.PlayheadPosition()
	time.Sleep(30 * time.Millisecond)
	if e.PlayheadPosition() != pos {
		t.Fatal("playhead moved while paused")
	}
}

func TestEngine_NewReportsPreloadFailures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Preload = []string{writeWAV(t, 48000, 2, 10), filepath.Join(t.TempDir(), "missing.wav")}

	e, failed, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	if len(failed) != 1 || failed[0].Path != cfg.Preload[1] {
		t.Fatalf("failed = %v", failed)
	}
	if len(e.StoredAudioClips()) != 1 {
		t.Fatalf("stored clips = %v", e.StoredAudioClips())
	}
}

func TestEngine_NewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputConfig.Channels = 7
	if _, _, err := New(cfg); !errors.IsKind(err, errors.KindUnsupported) {
		t.Fatalf("err = %v, want unsupported", err)
	}
}

func TestEngine_CloseIsIdempotent(t *testing.T) {
	e, _, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.Close()
	e.Close()
	Dummy().Close()
}

func TestEngine_DebugOutput(t *testing.T) {
	var mu sync.Mutex
	var lines []string
	unset := SetOutput(func(s string) {
		mu.Lock()
		lines = append(lines, s)
		mu.Unlock()
	})
	defer unset()

	e := Empty()
	e.cfg.Debug = true
	e.Play()

	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 1 || lines[0] != "play" {
		t.Fatalf("lines = %v", lines)
	}
}
