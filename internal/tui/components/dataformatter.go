package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/serialcap/internal/capture"
	"github.com/allbin/serialcap/internal/tui/styles"
)

type DisplayMode struct {
	ShowHex   bool
	ShowASCII bool
}

// DataFormatter renders captured records for the terminal view
type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(showHex, showASCII bool) *DataFormatter {
	return &DataFormatter{
		mode: DisplayMode{
			ShowHex:   showHex,
			ShowASCII: showASCII,
		},
	}
}

func (df *DataFormatter) GetDisplayMode() DisplayMode {
	return df.mode
}

func (df *DataFormatter) ToggleHex() {
	df.mode.ShowHex = !df.mode.ShowHex
}

func (df *DataFormatter) ToggleASCII() {
	df.mode.ShowASCII = !df.mode.ShowASCII
}

// FormatRecord renders one record. Text records show the decoded line (plus
// hex when enabled); binary records use the hex/ASCII display mode.
func (df *DataFormatter) FormatRecord(rec capture.Record) string {
	timestamp := lipgloss.NewStyle().
		Foreground(styles.Subtext0).
		Render(fmt.Sprintf("[%s]", rec.Time.Format("15:04:05.000")))

	indicator := lipgloss.NewStyle().
		Foreground(styles.Sky).
		Bold(true).
		Render("↙ RX")

	var parts []string
	if rec.Binary {
		parts = df.binaryParts(rec.Data)
	} else {
		parts = append(parts, sanitize(rec.Text))
		if df.mode.ShowHex {
			hex := lipgloss.NewStyle().Foreground(styles.Overlay0).Render(fmt.Sprintf("% X", rec.Text))
			parts = append(parts, hex)
		}
	}

	return fmt.Sprintf("%s %s: %s", timestamp, indicator, strings.Join(parts, "  "))
}

// FormatLog renders a diagnostic line emitted during the capture
func (df *DataFormatter) FormatLog(line string) string {
	return lipgloss.NewStyle().Foreground(styles.Peach).Render("⚑ " + sanitize(line))
}

func (df *DataFormatter) binaryParts(data []byte) []string {
	var parts []string
	if df.mode.ShowHex {
		parts = append(parts, fmt.Sprintf("HEX: % X", data))
	}
	if df.mode.ShowASCII {
		var ascii strings.Builder
		for _, b := range data {
			if b >= 32 && b <= 126 {
				ascii.WriteByte(b)
			} else {
				ascii.WriteByte('.')
			}
		}
		parts = append(parts, "ASCII: "+ascii.String())
	}
	if !df.mode.ShowHex && !df.mode.ShowASCII {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(data)))
	}
	return parts
}

// sanitize drops control characters so device output cannot drive the terminal
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return ' '
		}
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}
