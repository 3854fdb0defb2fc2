package keys

import "github.com/charmbracelet/bubbles/key"

// Common key bindings used across TUI commands
type CommonKeys struct {
	Quit key.Binding
	Help key.Binding
}

func NewCommonKeys() CommonKeys {
	return CommonKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "stop & quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}

// CaptureKeys are the bindings of the live capture view
type CaptureKeys struct {
	CommonKeys
	Clear       key.Binding
	Follow      key.Binding
	ToggleHex   key.Binding
	ToggleASCII key.Binding
}

func NewCaptureKeys() CaptureKeys {
	return CaptureKeys{
		CommonKeys: NewCommonKeys(),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear view"),
		),
		Follow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "follow/scroll"),
		),
		ToggleHex: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "toggle hex"),
		),
		ToggleASCII: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle ascii"),
		),
	}
}

func (k CaptureKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Follow, k.Clear, k.Quit}
}

func (k CaptureKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Follow, k.Clear, k.ToggleHex, k.ToggleASCII},
		{k.Help, k.Quit},
	}
}
