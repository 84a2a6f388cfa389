package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	adae "github.com/wippyai/adae-bridge"
	"github.com/wippyai/adae-bridge/async"
	"github.com/wippyai/adae-bridge/engine"
	"github.com/wippyai/adae-bridge/facade"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	trackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const (
	refreshInterval = 50 * time.Millisecond
	volumeStep      = 0.05
	panningStep     = 0.1
	meterWidth      = 32
)

func newMonitorCommand(ctx *commandContext) *cobra.Command {
	var imports []string
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Live meters and transport controls for an engine built from the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.runtime()
			if err != nil {
				return err
			}
			ec, err := ctx.engineConfig()
			if err != nil {
				return err
			}
			eng, failures, err := facade.New(ec)
			if err != nil {
				return err
			}
			defer eng.Drop()
			for f := range failures {
				app.Logger().Warn("preload failed", zap.String("path", f.Path), zap.Error(f.Err))
			}

			var clips []facade.StoredAudioClip
			for _, path := range imports {
				clip, err := eng.ImportAudioClip(path)
				if err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}
				defer clip.Drop()
				clips = append(clips, clip)
			}
			if err := placeSequentially(eng, clips, ec); err != nil {
				return err
			}

			m, err := newMonitorModel(eng)
			if err != nil {
				return err
			}
			defer m.release()

			q := async.NewQueue(app.Logger().Named("monitor"))
			defer q.Close()
			m.watch(app, q)

			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
	cmd.Flags().StringArrayVar(&imports, "import", nil, "WAV file to import and place on the first track (repeatable)")
	return cmd
}

type monitorRow struct {
	track   facade.Track
	name    string
	reading engine.MeterReading
	volume  float32
	panning float32
}

type monitorState int

const (
	stateMeters monitorState = iota
	stateJump
)

type monitorModel struct {
	err      error
	crashed  error
	eng      facade.Engine
	app      *adae.Context
	ch       async.Channel
	debug    string
	jump     textinput.Model
	bar      progress.Model
	rows     []monitorRow
	position engine.Timestamp
	selected int
	playing  bool
	state    monitorState
}

type (
	tickMsg  time.Time
	crashMsg struct{ err error }
	debugMsg string
)

func newMonitorModel(eng facade.Engine) (*monitorModel, error) {
	master, err := eng.Master()
	if err != nil {
		return nil, err
	}
	rows := []monitorRow{{track: master, name: "master"}}

	tracks, err := eng.AudioTracks()
	if err != nil {
		master.Drop()
		return nil, err
	}
	for _, t := range tracks {
		key, err := t.Key()
		if err != nil {
			t.Drop()
			continue
		}
		rows = append(rows, monitorRow{track: t, name: "audio " + strconv.FormatUint(uint64(key), 10)})
	}

	jump := textinput.New()
	jump.Placeholder = "beat"
	jump.Prompt = "jump to: "
	jump.Width = 12

	return &monitorModel{
		eng:  eng,
		rows: rows,
		jump: jump,
		bar:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(meterWidth), progress.WithoutPercentage()),
	}, nil
}

func (m *monitorModel) release() {
	for _, r := range m.rows {
		r.track.Drop()
	}
	m.rows = nil
}

// watch subscribes the model to crash reports and debug output. Settlement
// runs on ch; the model receives the results as messages.
func (m *monitorModel) watch(app *adae.Context, ch async.Channel) {
	m.app = app
	m.ch = ch
}

func (m *monitorModel) waitCrash() tea.Cmd {
	if m.app == nil {
		return nil
	}
	fut := m.app.Crash.ListenFuture(m.ch)
	return func() tea.Msg {
		_, err := fut.Await(context.Background())
		return crashMsg{err: err}
	}
}

func (m *monitorModel) waitDebug() tea.Cmd {
	if m.app == nil {
		return nil
	}
	fut := m.app.Debug.GetFuture(m.ch)
	return func() tea.Msg {
		msg, err := fut.Await(context.Background())
		if err != nil {
			return nil
		}
		return debugMsg(msg)
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *monitorModel) Init() tea.Cmd {
	m.refresh()
	return tea.Batch(tick(), m.waitCrash(), m.waitDebug())
}

func (m *monitorModel) refresh() {
	for i := range m.rows {
		r := &m.rows[i]
		if reading, err := r.track.ReadMeter(); err == nil {
			r.reading = reading
		} else {
			m.err = err
		}
		r.volume, _ = r.track.Volume()
		r.panning, _ = r.track.Panning()
	}
	if pos, err := m.eng.PlayheadPosition(); err == nil {
		m.position = pos
	} else {
		m.err = err
	}
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.refresh()
		return m, tick()

	case crashMsg:
		// A nil error means the bridge was stopped without a crash.
		m.crashed = msg.err
		return m, nil

	case debugMsg:
		m.debug = string(msg)
		return m, m.waitDebug()

	case tea.KeyMsg:
		if m.state == stateJump {
			return m.updateJump(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.rows)-1 {
				m.selected++
			}
		case " ":
			m.togglePlayback()
		case "home", "0":
			m.setErr(m.eng.JumpTo(engine.Zero()))
		case "g":
			m.state = stateJump
			m.jump.SetValue("")
			m.jump.Focus()
			return m, textinput.Blink
		case "+", "=":
			m.adjust(func(r *monitorRow) error { return r.track.SetVolume(r.volume + volumeStep) })
		case "-":
			m.adjust(func(r *monitorRow) error { return r.track.SetVolume(max(0, r.volume-volumeStep)) })
		case "left", "h":
			m.adjust(func(r *monitorRow) error { return r.track.SetPanning(max(-1, r.panning-panningStep)) })
		case "right", "l":
			m.adjust(func(r *monitorRow) error { return r.track.SetPanning(min(1, r.panning+panningStep)) })
		case "s":
			m.adjust(func(r *monitorRow) error { return r.track.SnapMeter() })
		}
	}
	return m, nil
}

func (m *monitorModel) updateJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = stateMeters
		m.jump.Blur()
		return m, nil
	case "enter":
		m.state = stateMeters
		m.jump.Blur()
		beats, err := strconv.ParseUint(strings.TrimSpace(m.jump.Value()), 10, 32)
		if err != nil {
			m.err = fmt.Errorf("invalid beat %q", m.jump.Value())
			return m, nil
		}
		pos, err := engine.FromBeats(uint32(beats))
		if err == nil {
			err = m.eng.JumpTo(pos)
		}
		m.setErr(err)
		return m, nil
	}
	var cmd tea.Cmd
	m.jump, cmd = m.jump.Update(msg)
	return m, cmd
}

func (m *monitorModel) togglePlayback() {
	if m.playing {
		m.setErr(m.eng.Pause())
		m.playing = false
		return
	}
	if err := m.eng.Play(); err != nil {
		m.setErr(err)
		return
	}
	m.playing = true
}

func (m *monitorModel) adjust(fn func(*monitorRow) error) {
	if len(m.rows) == 0 {
		return
	}
	m.setErr(fn(&m.rows[m.selected]))
}

func (m *monitorModel) setErr(err error) {
	m.err = err
}

func (m *monitorModel) View() string {
	var b strings.Builder

	transport := "paused"
	if m.playing {
		transport = "playing"
	}
	b.WriteString(titleStyle.Render("adae monitor"))
	b.WriteString(" ")
	b.WriteString(valueStyle.Render(fmt.Sprintf("%s  beat %d  (%d units)", transport, m.position.Beats(), m.position.BeatUnits())))
	b.WriteString("\n\n")

	for i, r := range m.rows {
		name := fmt.Sprintf("%-10s vol %4.2f pan %+4.1f", r.name, r.volume, r.panning)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + name))
		} else {
			b.WriteString(trackStyle.Render("  " + name))
		}
		b.WriteString("\n")
		for ch, label := range []string{"L", "R"} {
			fmt.Fprintf(&b, "    %s %s %s\n",
				label,
				m.bar.ViewAs(clamp01(r.reading.RMS[ch])),
				valueStyle.Render(fmt.Sprintf("peak %.2f  hold %.2f", r.reading.Peak[ch], r.reading.LongPeak[ch])))
		}
	}

	b.WriteString("\n")
	if m.debug != "" {
		b.WriteString(helpStyle.Render("debug: " + m.debug))
		b.WriteString("\n")
	}
	if m.crashed != nil {
		b.WriteString(errorStyle.Render("Engine crashed: " + firstLine(m.crashed.Error())))
		b.WriteString("\n")
	}
	if m.state == stateJump {
		b.WriteString(m.jump.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter jump • esc cancel"))
		return b.String()
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ select • space play/pause • 0 rewind • g jump • +/- volume • ←/→ pan • s snap meter • q quit"))
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}
