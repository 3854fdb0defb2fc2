package capture

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Signal names a control line driven by a reset profile.
type Signal int

const (
	// SignalRTS is the bootloader-select line (IO0 on ESP32-style auto-reset circuits)
	SignalRTS Signal = iota
	// SignalDTR is the enable/reset line
	SignalDTR
)

func (s Signal) String() string {
	switch s {
	case SignalRTS:
		return "rts"
	case SignalDTR:
		return "dtr"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}

// Level is the state a step drives a line to
type Level bool

const (
	Assert   Level = true
	Deassert Level = false
)

func (l Level) String() string {
	if l {
		return "assert"
	}
	return "deassert"
}

// Step sets one line to a level and then holds for Hold before the next step.
type Step struct {
	Signal Signal
	Level  Level
	Hold   time.Duration
}

func (s Step) String() string {
	return fmt.Sprintf("%s:%s:%s", s.Signal, s.Level, s.Hold)
}

// Profile is a named, ordered reset sequence.
type Profile struct {
	Name        string
	Description string
	Steps       []Step
}

// Duration is the sum of all holds
func (p Profile) Duration() time.Duration {
	var total time.Duration
	for _, s := range p.Steps {
		total += s.Hold
	}
	return total
}

// Built-in profile names
const (
	ProfileBootStrap  = "boot-strap"
	ProfileResetPulse = "reset-pulse"
	ProfileDTRToggle  = "dtr-toggle"
)

// SettleDelay is the hold used between transition groups of the built-in profiles
const SettleDelay = 50 * time.Millisecond

var builtinProfiles = map[string]Profile{
	ProfileBootStrap: {
		Name:        ProfileBootStrap,
		Description: "Keep bootloader-select inactive, then pulse EN for a normal boot",
		Steps: []Step{
			{SignalRTS, Deassert, SettleDelay},
			{SignalDTR, Deassert, SettleDelay},
			{SignalDTR, Assert, SettleDelay},
		},
	},
	ProfileResetPulse: {
		Name:        ProfileResetPulse,
		Description: "Assert both lines, then release both",
		Steps: []Step{
			{SignalDTR, Assert, 0},
			{SignalRTS, Assert, SettleDelay},
			{SignalDTR, Deassert, 0},
			{SignalRTS, Deassert, SettleDelay},
		},
	},
	ProfileDTRToggle: {
		Name:        ProfileDTRToggle,
		Description: "Drop DTR, raise it again and wait for the reboot",
		Steps: []Step{
			{SignalDTR, Deassert, 100 * time.Millisecond},
			{SignalDTR, Assert, 200 * time.Millisecond},
		},
	},
}

// BuiltinProfiles returns the built-in profiles sorted by name.
func BuiltinProfiles() []Profile {
	profiles := make([]Profile, 0, len(builtinProfiles))
	for _, p := range builtinProfiles {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles
}

// LookupProfile resolves name against custom profiles first, then the built-ins.
func LookupProfile(name string, custom map[string]Profile) (Profile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if p, ok := custom[key]; ok {
		return p, nil
	}
	if p, ok := builtinProfiles[key]; ok {
		return p, nil
	}
	return Profile{}, fmt.Errorf("unknown reset profile %q", name)
}

// ParseStep parses "signal:level[:hold]", e.g. "rts:low:50ms" or "dtr:assert:0".
func ParseStep(s string) (Step, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Step{}, fmt.Errorf("invalid step %q: want signal:level[:hold]", s)
	}

	var step Step
	switch parts[0] {
	case "rts", "a":
		step.Signal = SignalRTS
	case "dtr", "b":
		step.Signal = SignalDTR
	default:
		return Step{}, fmt.Errorf("invalid step %q: unknown signal %q", s, parts[0])
	}

	level, err := ParseLevel(parts[1])
	if err != nil {
		return Step{}, fmt.Errorf("invalid step %q: %w", s, err)
	}
	step.Level = level

	if len(parts) == 3 && parts[2] != "0" {
		hold, err := time.ParseDuration(parts[2])
		if err != nil || hold < 0 {
			return Step{}, fmt.Errorf("invalid step %q: bad hold %q", s, parts[2])
		}
		step.Hold = hold
	}

	return step, nil
}

// ParseLevel accepts assert/high/on/true/1 and deassert/low/off/false/0
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "assert", "high", "on", "true", "1":
		return Assert, nil
	case "deassert", "low", "off", "false", "0":
		return Deassert, nil
	default:
		return Deassert, fmt.Errorf("invalid level %q (valid: high, low, on, off, true, false, 1, 0)", s)
	}
}

// ParseProfile builds a named profile from step strings
func ParseProfile(name string, steps []string) (Profile, error) {
	if len(steps) == 0 {
		return Profile{}, fmt.Errorf("profile %q has no steps", name)
	}
	p := Profile{Name: strings.ToLower(strings.TrimSpace(name)), Description: "custom"}
	for _, s := range steps {
		step, err := ParseStep(s)
		if err != nil {
			return Profile{}, fmt.Errorf("profile %q: %w", name, err)
		}
		p.Steps = append(p.Steps, step)
	}
	return p, nil
}

// LineSetter is the part of a port that reset profiles drive
type LineSetter interface {
	SetRTS(state bool) error
	SetDTR(state bool) error
}

// ApplyProfile applies each step in order, holding after every transition.
// It stops at the first failing step and returns a *ControlLineError.
func ApplyProfile(lines LineSetter, p Profile, clock Clock) error {
	for _, step := range p.Steps {
		var err error
		switch step.Signal {
		case SignalRTS:
			err = lines.SetRTS(bool(step.Level))
		case SignalDTR:
			err = lines.SetDTR(bool(step.Level))
		default:
			err = fmt.Errorf("unknown signal %s", step.Signal)
		}
		if err != nil {
			return &ControlLineError{Step: step, Err: err}
		}
		if step.Hold > 0 {
			clock.Sleep(step.Hold)
		}
	}
	return nil
}
