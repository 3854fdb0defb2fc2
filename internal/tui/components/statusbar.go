package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	serial "github.com/allbin/serialcap"
	"github.com/allbin/serialcap/internal/tui/styles"
)

// CaptureInfo is the static description of a capture shown in the status bar
type CaptureInfo struct {
	Port     string
	BaudRate int
	DataBits int
	StopBits int
	Parity   serial.Parity
	Mode     string
	Duration time.Duration
	Output   string
	Profile  string
}

// Counters is a snapshot of the live capture counters
type Counters struct {
	Records int64
	Bytes   int64
	Elapsed time.Duration
}

type StatusBar struct {
	info   CaptureInfo
	status string
	err    error
	width  int
}

func NewStatusBar(info CaptureInfo) *StatusBar {
	return &StatusBar{
		info:   info,
		status: "Initializing...",
	}
}

func (sb *StatusBar) SetStatus(status string, err error) {
	sb.status = status
	sb.err = err
}

func (sb *StatusBar) Status() string { return sb.status }

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func parityToString(p serial.Parity) string {
	switch p {
	case serial.ParityEven:
		return "E"
	case serial.ParityOdd:
		return "O"
	default:
		return "N"
	}
}

// LineSettings renders e.g. "115200 baud 8N1"
func (info CaptureInfo) LineSettings() string {
	return fmt.Sprintf("%d baud %d%s%d", info.BaudRate, info.DataBits, parityToString(info.Parity), info.StopBits)
}

// View renders the status bar: phase badge, port, indicator, then the
// line settings, counters and elapsed/total time on the right.
func (sb *StatusBar) View(phase styles.Phase, c Counters) string {
	terminalWidth := sb.width
	if terminalWidth <= 0 {
		terminalWidth = 80
	}

	badge := styles.PhaseStyle(phase).Render(phase.String())

	port := lipgloss.NewStyle().
		Foreground(styles.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.info.Port)

	var indicatorStyle lipgloss.Style
	indicator := "●"
	switch {
	case sb.err != nil || phase == styles.PhaseFailed:
		indicatorStyle = lipgloss.NewStyle().Foreground(styles.Red)
		indicator = "✗"
	case phase == styles.PhaseCapturing:
		indicatorStyle = lipgloss.NewStyle().Foreground(styles.Green)
	case phase == styles.PhaseStarting:
		indicatorStyle = lipgloss.NewStyle().Foreground(styles.Yellow)
		indicator = "○"
	default:
		indicatorStyle = lipgloss.NewStyle().Foreground(styles.Subtext0)
		indicator = "○"
	}

	status := lipgloss.NewStyle().
		Foreground(styles.Subtext1).
		Padding(0, 1).
		Render(sb.status)

	details := fmt.Sprintf("⚡ %s %s", sb.info.LineSettings(), sb.info.Mode)
	if sb.info.Profile != "" {
		details += " ↺ " + sb.info.Profile
	}
	detailStyle := lipgloss.NewStyle().Foreground(styles.Subtext0).Padding(0, 1)

	counters := lipgloss.NewStyle().
		Foreground(styles.Peach).
		Padding(0, 1).
		Render(fmt.Sprintf("%d rec %s", c.Records, formatBytes(c.Bytes)))

	clock := lipgloss.NewStyle().
		Foreground(styles.Subtext1).
		Padding(0, 1).
		Render(fmt.Sprintf("%s / %s", formatClock(c.Elapsed), formatClock(sb.info.Duration)))

	divider := lipgloss.NewStyle().
		Foreground(styles.Surface2).
		Padding(0, 1).
		Render("│")

	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, badge, port, indicatorStyle.Render(indicator), status, divider)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, detailStyle.Render(details), divider, counters, divider, clock)

	spacerWidth := terminalWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(styles.Text).
		Background(styles.Surface0).
		Width(terminalWidth).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}

func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
