package adae

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/adae-bridge/async"
	"github.com/wippyai/adae-bridge/engine"
	"github.com/wippyai/adae-bridge/handle"
)

func TestInit_RoutesEngineDebugOutput(t *testing.T) {
	c := Init(WithDebugCapacity(10))
	defer c.Teardown()

	cfg := engine.DefaultConfig()
	cfg.Debug = true
	e, _, err := engine.New(cfg)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	defer e.Close()

	if _, err := e.AddAudioTrack(); err != nil {
		t.Fatalf("AddAudioTrack: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	want := []string{"added 1 audio tracks", "engine started", "added 1 audio tracks"}
	for i, w := range want {
		msg, err := c.Debug.GetFuture(async.Direct).Await(ctx)
		if err != nil {
			t.Fatalf("Await %d: %v", i, err)
		}
		if !strings.HasPrefix(msg, w) {
			t.Fatalf("message %d = %q, want prefix %q", i, msg, w)
		}
	}
}

func TestTeardown_ResolvesCrashListeners(t *testing.T) {
	c := Init()
	f := c.Crash.ListenFuture(async.Direct)

	c.Teardown()
	c.Teardown()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := f.Await(ctx); err != nil {
		t.Fatalf("listener after teardown: %v", err)
	}
	if c.Crash.Armed() {
		t.Fatalf("bridge still armed after teardown")
	}
}

func TestTeardown_UnregistersSink(t *testing.T) {
	c := Init()
	c.Teardown()

	cfg := engine.DefaultConfig()
	cfg.Debug = true
	e, _, err := engine.New(cfg)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	e.Close()

	if n := c.Debug.Len(); n != 0 {
		t.Fatalf("backlog after teardown = %d", n)
	}
}

func TestTeardown_KeepsNewerSink(t *testing.T) {
	tests := []struct {
		name     string
		teardown func(first, second *Context)
		first    bool
		second   bool
	}{
		{name: "stale teardown", teardown: func(first, _ *Context) { first.Teardown() }, second: true},
		{name: "current teardown", teardown: func(_, second *Context) { second.Teardown() }},
		{name: "both", teardown: func(first, second *Context) {
			second.Teardown()
			first.Teardown()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := Init()
			second := Init()
			defer first.Teardown()
			defer second.Teardown()
			tt.teardown(first, second)

			cfg := engine.DefaultConfig()
			cfg.Debug = true
			e, _, err := engine.New(cfg)
			if err != nil {
				t.Fatalf("engine.New: %v", err)
			}
			e.Close()

			if got := first.Debug.Len() > 0; got != tt.first {
				t.Fatalf("first received = %v, want %v", got, tt.first)
			}
			if got := second.Debug.Len() > 0; got != tt.second {
				t.Fatalf("second received = %v, want %v", got, tt.second)
			}
		})
	}
}

func TestInit_LogsRootAnchors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := Init(WithLogger(zap.New(core)))

	h := handle.Encapsulate(engine.Zero(), nil, nil)
	id := handle.PreventGC(h)
	handle.Release(id)

	c.Teardown()
	handle.Release(handle.PreventGC(h))

	anchored := logs.FilterMessage("root anchored").All()
	released := logs.FilterMessage("root released").All()
	if len(anchored) != 1 || len(released) != 1 {
		t.Fatalf("anchored=%d released=%d, want 1 each after teardown", len(anchored), len(released))
	}
	if got := anchored[0].ContextMap()["anchor"]; got != uint32(id) {
		t.Fatalf("anchor field = %v, want %d", got, id)
	}
}
