package models

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/serialcap/internal/capture"
	"github.com/allbin/serialcap/internal/tui/components"
	"github.com/allbin/serialcap/internal/tui/styles"
)

func newTestModel(t *testing.T) (*CaptureModel, *capture.Stats, *bool) {
	t.Helper()
	cancelled := false
	stats := capture.NewStats()
	m := NewCaptureModel(components.CaptureInfo{
		Port:     "/dev/ttyUSB0",
		BaudRate: 115200,
		DataBits: 8,
		StopBits: 1,
		Mode:     "text",
		Duration: 12 * time.Second,
	}, stats, func() { cancelled = true })
	m.Update(tea.WindowSizeMsg{Width: 240, Height: 30})
	return m, stats, &cancelled
}

func TestCaptureModelPhases(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.Equal(t, styles.PhaseStarting, m.Phase())

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start.Add(20 * time.Second) }
	m.Update(StartedMsg{Window: capture.Window{Start: start, Deadline: start.Add(12 * time.Second)}})
	assert.Equal(t, styles.PhaseCapturing, m.Phase())
	assert.Equal(t, 12*time.Second, m.Counters().Elapsed, "elapsed is capped at the window length")

	m.Update(DoneMsg{Summary: capture.Summary{Records: 2, Elapsed: 12 * time.Second}})
	assert.Equal(t, styles.PhaseDone, m.Phase())
	assert.Contains(t, m.View(), "Capture complete: 2 records")

	_, cmd := m.Update(tickMsg(start))
	assert.Nil(t, cmd, "ticking stops once the capture is done")
}

func TestCaptureModelFailure(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.Update(DoneMsg{Err: errors.New("failed to open /dev/ttyUSB0: permission denied")})

	assert.Equal(t, styles.PhaseFailed, m.Phase())
	assert.Contains(t, m.View(), "permission denied")
}

func TestCaptureModelRecordsAndStats(t *testing.T) {
	m, stats, _ := newTestModel(t)

	rec := capture.Record{Time: time.Now(), Text: "rst:0x1 (POWERON_RESET)"}
	require.NoError(t, stats.Write(rec))
	m.Update(RecordMsg{Record: rec})
	m.Update(LogMsg{Line: "WRN reset profile failed\n"})

	view := m.View()
	assert.Contains(t, view, "rst:0x1 (POWERON_RESET)")
	assert.Contains(t, view, "reset profile failed")
	assert.Equal(t, int64(1), m.Counters().Records)
	assert.Equal(t, int64(len(rec.Text)), m.Counters().Bytes)
}

func TestCaptureModelQuitCancels(t *testing.T) {
	m, _, cancelled := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.True(t, *cancelled)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestCaptureModelNotReady(t *testing.T) {
	m := NewCaptureModel(components.CaptureInfo{Port: "/dev/ttyACM0"}, nil, context.CancelFunc(func() {}))
	assert.True(t, strings.Contains(m.View(), "Initializing"))
	assert.Zero(t, m.Counters().Records)
}
