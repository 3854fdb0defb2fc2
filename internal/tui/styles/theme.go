package styles

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha colors used by the capture view
var (
	Base     = lipgloss.Color("#1e1e2e") // Dark background
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Surface2 = lipgloss.Color("#585b70")
	Overlay0 = lipgloss.Color("#6c7086")
	Subtext0 = lipgloss.Color("#a6adc8")
	Subtext1 = lipgloss.Color("#bac2de")
	Text     = lipgloss.Color("#cdd6f4")

	Blue   = lipgloss.Color("#89b4fa")
	Sky    = lipgloss.Color("#89dceb")
	Green  = lipgloss.Color("#a6e3a1")
	Yellow = lipgloss.Color("#f9e2af")
	Peach  = lipgloss.Color("#fab387")
	Red    = lipgloss.Color("#f38ba8")
	Mauve  = lipgloss.Color("#cba6f7")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Mauve).
			Background(Surface0).
			Padding(0, 1)

	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(Surface1)

	// Operator-facing status lines on stderr
	InfoStyle    = lipgloss.NewStyle().Foreground(Blue)
	SuccessStyle = lipgloss.NewStyle().Foreground(Green).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(Yellow)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Red).Bold(true)
	HintStyle    = lipgloss.NewStyle().Foreground(Overlay0).Italic(true)
)

// Phase is where a capture currently is
type Phase int

const (
	PhaseStarting Phase = iota
	PhaseCapturing
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "STARTING"
	case PhaseCapturing:
		return "CAPTURE"
	case PhaseDone:
		return "DONE"
	case PhaseFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// PhaseStyle is the badge style for a phase
func PhaseStyle(p Phase) lipgloss.Style {
	badge := lipgloss.NewStyle().Foreground(Base).Bold(true).Padding(0, 1)
	switch p {
	case PhaseStarting:
		return badge.Background(Yellow)
	case PhaseCapturing:
		return badge.Background(Blue)
	case PhaseDone:
		return badge.Background(Green)
	default:
		return badge.Background(Red)
	}
}
