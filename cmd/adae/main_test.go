package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	adae "github.com/wippyai/adae-bridge"
	"github.com/wippyai/adae-bridge/async"
	"github.com/wippyai/adae-bridge/config"
	"github.com/wippyai/adae-bridge/crash"
	"github.com/wippyai/adae-bridge/engine"
	"github.com/wippyai/adae-bridge/facade"
	"github.com/wippyai/adae-bridge/testbed"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvPath, "")
	t.Chdir(t.TempDir())
	return home
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd, ctx := newRootCommand()
	defer ctx.close()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack string, needles ...string) {
	t.Helper()
	for _, n := range needles {
		if !strings.Contains(haystack, n) {
			t.Fatalf("output missing %q:\n%s", n, haystack)
		}
	}
}

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.js")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestHostsListsVirtualDevices(t *testing.T) {
	isolate(t)
	out, err := runCLI(t, "hosts")
	if err != nil {
		t.Fatalf("hosts: %v", err)
	}
	requireContains(t, out, "Null Output", "Virtual Mono", "44100-48000", "64-8192")
}

func TestHostsIgnoresBrokenConfig(t *testing.T) {
	isolate(t)
	if err := os.WriteFile("adae.toml", []byte("[output]\nhost = \"Missing\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := runCLI(t, "hosts"); err != nil {
		t.Fatalf("hosts should not load config: %v", err)
	}
	if _, err := runCLI(t, "tracks"); err == nil {
		t.Fatal("tracks should fail with an unknown host")
	}
}

func TestConfigInitThenShow(t *testing.T) {
	isolate(t)
	target := filepath.Join(t.TempDir(), "adae.toml")

	out, err := runCLI(t, "config", "init", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "wrote "+target)

	if _, err := runCLI(t, "config", "init", target); err == nil {
		t.Fatal("second init without --force should fail")
	}
	if _, err := runCLI(t, "config", "init", "--force", target); err != nil {
		t.Fatalf("config init --force: %v", err)
	}

	out, err = runCLI(t, "--config", target, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "# "+target, "[output]", "sample_rate = 48000", "[logging]")
}

func TestTracksListsAddedTracksAndClips(t *testing.T) {
	isolate(t)
	first := testbed.WriteWAV(t, 44100, 2, 44100)
	second := testbed.WriteWAV(t, 44100, 2, 22050)

	out, err := runCLI(t, "tracks", "--add", "2", "--import", first, "--import", second)
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	requireContains(t, out, "Tracks", "master", "1.00", "Clips", "44100", "22050")
	if n := strings.Count(out, "audio "); n < 5 {
		t.Fatalf("expected 3 audio tracks and 2 clips, found %d mentions:\n%s", n, out)
	}
}

func TestTracksRejectsBadImport(t *testing.T) {
	isolate(t)
	_, err := runCLI(t, "tracks", "--import", testbed.WriteGarbage(t))
	if err == nil || !strings.Contains(err.Error(), "import") {
		t.Fatalf("expected import error, got %v", err)
	}
}

func TestRunScript(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		args    []string
		wantErr string
	}{
		{
			name: "require",
			src: `
const adae = require("adae");
const e = adae.Engine.dummy();
e.addAudioTracks(2);
if (e.getAudioTracks().length !== 3) throw new Error("track count");
e.close();
`,
		},
		{
			name: "globals",
			src: `
if (Timestamp.fromBeats(3).getBeatUnits() !== 3072) throw new Error("units");
`,
			args: []string{"--globals"},
		},
		{
			name:    "uncaught error",
			src:     `throw new Error("boom");`,
			wantErr: "boom",
		},
		{
			name:    "closed engine",
			src:     `const e = require("adae").Engine.empty(); e.close(); e.play();`,
			wantErr: "Error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			args := append([]string{"run"}, tt.args...)
			args = append(args, writeScript(t, tt.src))
			_, err := runCLI(t, args...)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("run: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestRunMissingScript(t *testing.T) {
	isolate(t)
	_, err := runCLI(t, "run", filepath.Join(t.TempDir(), "absent.js"))
	if err == nil || !strings.Contains(err.Error(), "read script") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestReplEvaluatesLines(t *testing.T) {
	app := adae.Init()
	defer app.Teardown()

	rt := newScriptRuntime(app, nil, true)
	rt.loop.Start()
	defer rt.loop.Stop()

	in := strings.NewReader(strings.Join([]string{
		"1 + 2",
		"",
		"Timestamp.fromSamples(420, 48000, 120).getBeatUnits()",
		"({a: 1})",
		"throw new RangeError('nope')",
		".exit",
		"'never evaluated'",
	}, "\n"))
	var out bytes.Buffer
	if err := replPlain(rt, in, &out, time.Second); err != nil {
		t.Fatalf("repl: %v", err)
	}
	got := out.String()
	requireContains(t, got, "3\n", "17\n", `{"a":1}`, "Uncaught RangeError: nope")
	if strings.Contains(got, "never evaluated") {
		t.Fatalf(".exit did not end the session:\n%s", got)
	}
}

func TestInspectHandles(t *testing.T) {
	app := adae.Init()
	defer app.Teardown()

	rt := newScriptRuntime(app, nil, true)
	rt.loop.Start()
	defer rt.loop.Stop()

	tests := []struct {
		src  string
		want string
	}{
		{"undefined", ""},
		{"null", "null"},
		{"Engine.dummy", "[Function]"},
		{"Timestamp.zero()", "getBeatUnits"},
		{"getDebugOutput()", "Promise { <pending> }"},
	}
	for _, tt := range tests {
		got, err := rt.eval(tt.src, time.Second)
		if err != nil {
			t.Fatalf("%s: %v", tt.src, err)
		}
		if tt.want == "" && got != "" || !strings.Contains(got, tt.want) {
			t.Fatalf("%s rendered %q, want %q", tt.src, got, tt.want)
		}
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMonitorModelControlsEngine(t *testing.T) {
	eng := facade.Dummy()
	defer eng.Drop()

	m, err := newMonitorModel(eng)
	if err != nil {
		t.Fatalf("newMonitorModel: %v", err)
	}
	defer m.release()
	m.Init()

	if len(m.rows) != 2 {
		t.Fatalf("rows = %d, want master plus one audio track", len(m.rows))
	}

	m.Update(key(" "))
	if !m.playing {
		t.Fatal("space should start playback")
	}
	m.Update(key(" "))
	if m.playing {
		t.Fatal("second space should pause")
	}

	m.Update(key("down"))
	m.Update(key("-"))
	m.refresh()
	if v := m.rows[1].volume; v >= 1 {
		t.Fatalf("volume = %v, want below 1", v)
	}
	master, _ := eng.Master()
	defer master.Drop()
	if v, _ := master.Volume(); v != 1 {
		t.Fatalf("master volume changed to %v", v)
	}

	m.Update(key("g"))
	for _, r := range "4" {
		m.Update(key(string(r)))
	}
	m.Update(key("enter"))
	m.refresh()
	if m.err != nil {
		t.Fatalf("jump: %v", m.err)
	}
	want, _ := engine.FromBeats(4)
	if m.position != want {
		t.Fatalf("position = %v, want %v", m.position, want)
	}

	view := m.View()
	requireContains(t, view, "adae monitor", "master", "audio", "beat 4")
}

func TestMonitorModelSurfacesClosedEngine(t *testing.T) {
	eng := facade.Dummy()
	m, err := newMonitorModel(eng)
	if err != nil {
		t.Fatalf("newMonitorModel: %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	m.refresh()
	if m.err == nil {
		t.Fatal("expected error after close")
	}
	requireContains(t, m.View(), "Error:")
	m.release()
	eng.Drop()
}

func TestMonitorModelReportsCrashAndDebug(t *testing.T) {
	app := adae.Init()
	defer app.Teardown()
	q := async.NewQueue(nil)
	defer q.Close()

	eng := facade.Dummy()
	defer eng.Drop()
	m, err := newMonitorModel(eng)
	if err != nil {
		t.Fatalf("newMonitorModel: %v", err)
	}
	defer m.release()
	m.watch(app, q)

	waitDebug := m.waitDebug()
	app.Debug.Output("transport moved")
	m.Update(waitDebug())

	waitCrash := m.waitCrash()
	crash.Go(func() { panic("meter overflow") })
	msg := waitCrash()
	if cm, ok := msg.(crashMsg); !ok || cm.err == nil {
		t.Fatalf("expected crash rejection, got %#v", msg)
	}
	m.Update(msg)

	requireContains(t, m.View(), "debug: transport moved", "Engine crashed: meter overflow")
}
