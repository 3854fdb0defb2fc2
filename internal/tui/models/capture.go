package models

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/serialcap/internal/capture"
	"github.com/allbin/serialcap/internal/tui/components"
	"github.com/allbin/serialcap/internal/tui/keys"
	"github.com/allbin/serialcap/internal/tui/styles"
)

const tickInterval = 250 * time.Millisecond

// RecordMsg carries one captured record into the view
type RecordMsg struct {
	Record capture.Record
}

// LogMsg carries a diagnostic log line into the view
type LogMsg struct {
	Line string
}

// StartedMsg marks the opening of the capture window
type StartedMsg struct {
	Window capture.Window
}

// DoneMsg reports the end of the capture
type DoneMsg struct {
	Summary capture.Summary
	Err     error
}

type tickMsg time.Time

// CaptureModel is the live view of a running capture
type CaptureModel struct {
	terminal  *components.Terminal
	statusBar *components.StatusBar
	help      help.Model
	keys      keys.CaptureKeys

	stats  *capture.Stats
	cancel context.CancelFunc
	now    func() time.Time

	phase   styles.Phase
	window  *capture.Window
	summary capture.Summary
	err     error
	ready   bool
}

func NewCaptureModel(info components.CaptureInfo, stats *capture.Stats, cancel context.CancelFunc) *CaptureModel {
	m := &CaptureModel{
		terminal:  components.NewTerminal(0, 0), // sized by the first WindowSizeMsg
		statusBar: components.NewStatusBar(info),
		help:      help.New(),
		keys:      keys.NewCaptureKeys(),
		stats:     stats,
		cancel:    cancel,
		now:       time.Now,
		phase:     styles.PhaseStarting,
	}
	m.statusBar.SetStatus("Opening port...", nil)
	return m
}

func (m *CaptureModel) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *CaptureModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		statusBarHeight := 1
		helpHeight := 1
		m.terminal.SetSize(msg.Width, msg.Height-statusBarHeight-helpHeight)
		m.statusBar.SetWidth(msg.Width)
		m.help.Width = msg.Width
		m.ready = true

	case RecordMsg:
		m.terminal.AddRecord(msg.Record)

	case LogMsg:
		m.terminal.AddLog(msg.Line)

	case StartedMsg:
		w := msg.Window
		m.window = &w
		m.phase = styles.PhaseCapturing
		m.statusBar.SetStatus("Capturing...", nil)

	case DoneMsg:
		m.summary = msg.Summary
		m.err = msg.Err
		switch {
		case msg.Err != nil:
			m.phase = styles.PhaseFailed
			m.statusBar.SetStatus(fmt.Sprintf("Error: %v", msg.Err), msg.Err)
		case msg.Summary.ReadErr != nil:
			m.phase = styles.PhaseDone
			m.statusBar.SetStatus("Truncated: "+msg.Summary.ReadErr.Error(), nil)
		default:
			m.phase = styles.PhaseDone
			m.statusBar.SetStatus(msg.Summary.String(), nil)
		}

	case tickMsg:
		if m.phase == styles.PhaseDone || m.phase == styles.PhaseFailed {
			return m, nil
		}
		return m, tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Clear):
			m.terminal.Clear()
		case key.Matches(msg, m.keys.Follow):
			m.terminal.ToggleFollow()
		case key.Matches(msg, m.keys.ToggleHex):
			m.terminal.ToggleHex()
		case key.Matches(msg, m.keys.ToggleASCII):
			m.terminal.ToggleASCII()
		default:
			return m, m.terminal.Update(msg)
		}

	case tea.MouseMsg:
		return m, m.terminal.Update(msg)
	}

	return m, nil
}

// Phase is the current capture phase
func (m *CaptureModel) Phase() styles.Phase { return m.phase }

// Counters snapshots the shared stats for the status bar
func (m *CaptureModel) Counters() components.Counters {
	c := components.Counters{}
	if m.stats != nil {
		c.Records = m.stats.Records.Load()
		c.Bytes = m.stats.Bytes.Load()
	}
	switch {
	case m.phase == styles.PhaseDone || m.phase == styles.PhaseFailed:
		c.Elapsed = m.summary.Elapsed
	case m.window != nil:
		c.Elapsed = m.now().Sub(m.window.Start)
		if limit := m.window.Deadline.Sub(m.window.Start); c.Elapsed > limit {
			c.Elapsed = limit
		}
	}
	return c
}

func (m *CaptureModel) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.terminal.View(),
		m.statusBar.View(m.phase, m.Counters()),
		m.help.View(m.keys),
	)
}
