package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/allbin/serialcap/internal/capture"
)

// MaxLines bounds the scrollback kept by the terminal view
const MaxLines = 5000

type entry struct {
	rec capture.Record
	log string
}

// Terminal is a scrolling view of captured records. Entries are formatted
// once on arrival; only a display mode change formats them again.
type Terminal struct {
	viewport  viewport.Model
	formatter *DataFormatter
	entries   []entry
	lines     []string
	follow    bool
}

func NewTerminal(width, height int) *Terminal {
	return &Terminal{
		viewport:  viewport.New(width, height),
		formatter: NewDataFormatter(false, true),
		follow:    true,
	}
}

func (t *Terminal) SetSize(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = height
	t.render()
}

func (t *Terminal) AddRecord(rec capture.Record) {
	t.append(entry{rec: rec})
}

func (t *Terminal) AddLog(line string) {
	t.append(entry{log: strings.TrimRight(line, "\n")})
}

func (t *Terminal) append(e entry) {
	t.entries = append(t.entries, e)
	t.lines = append(t.lines, t.format(e))
	if over := len(t.entries) - MaxLines; over > 0 {
		t.entries = t.entries[over:]
		t.lines = t.lines[over:]
	}
	t.render()
}

// Lines is the number of entries currently held
func (t *Terminal) Lines() int { return len(t.entries) }

func (t *Terminal) Clear() {
	t.entries = nil
	t.lines = nil
	t.viewport.SetContent("")
}

func (t *Terminal) ToggleHex() {
	t.formatter.ToggleHex()
	t.refresh()
}

func (t *Terminal) ToggleASCII() {
	t.formatter.ToggleASCII()
	t.refresh()
}

// ToggleFollow switches between sticking to the newest line and free scrolling
func (t *Terminal) ToggleFollow() bool {
	t.follow = !t.follow
	t.render()
	return t.follow
}

func (t *Terminal) Following() bool { return t.follow }

func (t *Terminal) GetDisplayMode() DisplayMode {
	return t.formatter.GetDisplayMode()
}

func (t *Terminal) format(e entry) string {
	if e.log != "" {
		return t.formatter.FormatLog(e.log)
	}
	return t.formatter.FormatRecord(e.rec)
}

// refresh formats every entry again for a new display mode
func (t *Terminal) refresh() {
	for i, e := range t.entries {
		t.lines[i] = t.format(e)
	}
	t.render()
}

// render hands the formatted lines to the viewport. While following only the
// visible tail is needed; the full scrollback is set when scrolling freely.
func (t *Terminal) render() {
	if !t.follow {
		t.viewport.SetContent(strings.Join(t.lines, "\n"))
		return
	}
	tail := t.lines
	if h := t.viewport.Height; h > 0 && len(tail) > h {
		tail = tail[len(tail)-h:]
	}
	t.viewport.SetContent(strings.Join(tail, "\n"))
	t.viewport.GotoBottom()
}

// Update forwards resize and, when not following, scroll keys to the viewport
func (t *Terminal) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch msg.(type) {
	case tea.WindowSizeMsg:
		t.viewport, cmd = t.viewport.Update(msg)
	case tea.KeyMsg, tea.MouseMsg:
		if !t.follow {
			t.viewport, cmd = t.viewport.Update(msg)
		}
	}
	return cmd
}

func (t *Terminal) View() string {
	return t.viewport.View()
}
