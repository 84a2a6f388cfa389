package testbed_test

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"

	adae "github.com/wippyai/adae-bridge"
	"github.com/wippyai/adae-bridge/handle"
	"github.com/wippyai/adae-bridge/jsbind"
	"github.com/wippyai/adae-bridge/testbed"
)

// runScript executes src on a fresh event loop with the adae module
// registered and returns whatever the script passed to report().
func runScript(t *testing.T, src string, globals map[string]any) map[string]any {
	t.Helper()
	ctx := adae.Init()
	defer ctx.Teardown()

	registry := require.NewRegistry()
	loop := eventloop.NewEventLoop(eventloop.WithRegistry(registry))
	registry.RegisterNativeModule(jsbind.ModuleName, jsbind.Loader(loop, ctx))

	var (
		got    map[string]any
		runErr error
	)
	loop.Run(func(vm *goja.Runtime) {
		for k, v := range globals {
			_ = vm.Set(k, v)
		}
		_ = vm.Set("report", func(v map[string]any) { got = v })
		_, runErr = vm.RunString(src)
	})
	if runErr != nil {
		t.Fatalf("script: %v", runErr)
	}
	if got == nil {
		t.Fatal("script did not report")
	}
	return got
}

func TestScriptTrackLifecycle(t *testing.T) {
	before := handle.Roots().Len()
	got := runScript(t, `
const { Engine, Timestamp } = require("adae");
const e = Engine.dummy();
const stored = e.importAudioClip(clipPath);
const [track] = e.getAudioTracks();
track.addClip(stored, Timestamp.fromBeats(1));
const key = track.key();

const state = e.deleteAudioTrack(track);
let threw = false;
try { track.getClips(); } catch (err) { threw = err instanceof Error; }

const back = e.reconstructAudioTrack(state);
const clips = back.getClips();
report({
  threw,
  sameKey: back.key() === key,
  clips: clips.length,
  start: clips[0].start().getBeats(),
  rate: stored.sampleRate(),
  frames: stored.length(),
});
e.close();
`, map[string]any{"clipPath": testbed.WriteWAV(t, 44100, 2, 4410)})

	want := map[string]any{
		"threw":   true,
		"sameKey": true,
		"clips":   int64(1),
		"start":   int64(1),
		"rate":    int64(44100),
		"frames":  int64(4410),
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s = %v (%T), want %v", k, got[k], got[k], v)
		}
	}
	if after := handle.Roots().Len(); after != before {
		t.Fatalf("root anchors leaked: %d before, %d after close", before, after)
	}
}

func TestScriptImportFailureDoesNotCloseEngine(t *testing.T) {
	got := runScript(t, `
const { Engine } = require("adae");
const e = Engine.empty();
let message = "";
try { e.importAudioClip(badPath); } catch (err) { message = err.message; }
const t = e.addAudioTrack();
report({ failed: message.length > 0, tracks: e.getAudioTracks().length });
e.close();
`, map[string]any{"badPath": testbed.WriteGarbage(t)})

	if got["failed"] != true || got["tracks"] != int64(1) {
		t.Fatalf("unexpected report: %v", got)
	}
}
