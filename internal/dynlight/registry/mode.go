package registry

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Mode controls how often moving lights refresh the sections they light.
type Mode uint8

const (
	ModeOff Mode = iota
	ModeFastest
	ModeFast
	ModeFancy
)

var modeNames = [...]string{
	ModeOff:     "off",
	ModeFastest: "fastest",
	ModeFast:    "fast",
	ModeFancy:   "fancy",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return Mode(m), nil
		}
	}
	return ModeOff, fmt.Errorf("unknown dynamic lights mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Enabled reports whether lights are indexed at all.
func (m Mode) Enabled() bool { return m != ModeOff }

// Delay is the minimum time between two section refreshes. Zero means every
// tick.
func (m Mode) Delay() time.Duration {
	switch m {
	case ModeFastest:
		return 500 * time.Millisecond
	case ModeFast:
		return 250 * time.Millisecond
	default:
		return 0
	}
}

func (m Mode) limit() rate.Limit {
	if d := m.Delay(); d > 0 {
		return rate.Every(d)
	}
	return rate.Inf
}

// Set and Type let a Mode be used as a command line flag value.
func (m *Mode) Set(s string) error { return m.UnmarshalText([]byte(s)) }

func (m Mode) Type() string { return "mode" }
