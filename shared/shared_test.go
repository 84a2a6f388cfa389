package shared

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/wippyai/adae-bridge/engine"
	aerrors "github.com/wippyai/adae-bridge/errors"
)

func TestWith_ReturnsCallbackResult(t *testing.T) {
	s := Dummy()
	defer s.Release()

	n, err := With(s, func(e *engine.Engine) (int, error) {
		return len(e.AudioTracks()), nil
	})
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	if n != engine.DefaultAudioTracks {
		t.Fatalf("tracks = %d, want %d", n, engine.DefaultAudioTracks)
	}
}

func TestWith_PassesEngineErrorsThrough(t *testing.T) {
	s := Empty()
	defer s.Release()

	_, err := With(s, func(e *engine.Engine) (engine.MixerTrackKey, error) {
		return e.AudioMixerTrackKey(42)
	})
	if !aerrors.IsKind(err, aerrors.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if aerrors.Message(err) != "No audio track with key: 42" {
		t.Fatalf("message = %q", aerrors.Message(err))
	}
}

func TestClose_Idempotent(t *testing.T) {
	s := Dummy()
	defer s.Release()

	if err := s.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if s.State() != StateClosed {
		t.Fatalf("State = %v, want closed", s.State())
	}

	called := false
	err := s.WithInner(func(*engine.Engine) error {
		called = true
		return nil
	})
	if called {
		t.Fatal("callback ran on a closed engine")
	}
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
	if aerrors.Message(err) != ClosedMessage {
		t.Fatalf("message = %q", aerrors.Message(err))
	}
}

func TestClose_ThroughAnyClone(t *testing.T) {
	s := Dummy()
	clones := make([]*Engine, 5)
	for i := range clones {
		clones[i] = s.Clone()
	}
	if s.Refs() != 6 {
		t.Fatalf("Refs = %d, want 6", s.Refs())
	}

	if err := clones[3].Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for i, c := range append(clones, s) {
		if err := c.WithInner(func(*engine.Engine) error { return nil }); !errors.Is(err, ErrClosed) {
			t.Fatalf("handle %d: err = %v, want ErrClosed", i, err)
		}
		c.Release()
	}
	if s.Refs() != 0 {
		t.Fatalf("Refs = %d, want 0", s.Refs())
	}
}

func TestPanic_PoisonsEveryClone(t *testing.T) {
	s := Dummy()
	clone := s.Clone()
	defer s.Release()
	defer clone.Release()

	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Fatalf("recovered %v, want boom", r)
			}
		}()
		_ = s.WithInner(func(*engine.Engine) error { panic("boom") })
	}()

	if clone.State() != StatePoisoned {
		t.Fatalf("State = %v, want poisoned", clone.State())
	}

	for i := 0; i < 3; i++ {
		called := false
		err := clone.WithInner(func(*engine.Engine) error {
			called = true
			return nil
		})
		if called {
			t.Fatal("callback ran on a poisoned engine")
		}
		if !errors.Is(err, ErrPoisoned) {
			t.Fatalf("err = %v, want ErrPoisoned", err)
		}
		if aerrors.Message(err) != PoisonedMessage {
			t.Fatalf("message = %q", aerrors.Message(err))
		}
	}

	// Close on a poisoned cell does nothing and keeps it poisoned.
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s.State() != StatePoisoned {
		t.Fatalf("State after Close = %v, want poisoned", s.State())
	}
}

func TestRelease_LastReferenceCloses(t *testing.T) {
	s := Dummy()
	clone := s.Clone()

	s.Release()
	s.Release() // no effect
	if clone.State() != StateOpen {
		t.Fatalf("State = %v, want open while a clone lives", clone.State())
	}
	if clone.Refs() != 1 {
		t.Fatalf("Refs = %d, want 1", clone.Refs())
	}

	clone.Drop()
	if clone.State() != StateClosed {
		t.Fatalf("State = %v, want closed", clone.State())
	}
}

func TestNew_YieldsImportFailures(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Preload = []string{"does-not-exist.wav"}

	s, failed, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Release()

	var paths []string
	for f := range failed {
		paths = append(paths, f.Path)
	}
	if len(paths) != 1 || paths[0] != "does-not-exist.wav" {
		t.Fatalf("failures = %v", paths)
	}
	if s.State() != StateOpen {
		t.Fatalf("State = %v, want open", s.State())
	}
}

// Calls strictly before Close see the engine; calls strictly after never do.
func TestConcurrentAccessAndClose(t *testing.T) {
	s := Dummy()
	defer s.Release()

	var closed atomic.Bool
	var wg sync.WaitGroup
	errs := make(chan error, 64)

	for w := 0; w < 8; w++ {
		c := s.Clone()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer c.Release()
			for i := 0; i < 200; i++ {
				after := closed.Load()
				err := c.WithInner(func(e *engine.Engine) error {
					if e == nil {
						return errors.New("nil engine inside callback")
					}
					e.Master().SetVolume(float32(i))
					return nil
				})
				if after && !errors.Is(err, ErrClosed) {
					errs <- err
					return
				}
				if err != nil && !errors.Is(err, ErrClosed) {
					errs <- err
					return
				}
			}
		}()
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	closed.Store(true)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected result: %v", err)
	}
}
