// Package pomodoro provides the Pomodoro timer domain types.
package pomodoro

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Errors
var (
	ErrUnknownMode      = errors.New("unknown timer mode")
	ErrInvalidDurations = errors.New("durations must be positive")
)

// DefaultSessionsBeforeLongBreak is the number of focus sessions before a long break.
const DefaultSessionsBeforeLongBreak = 4

// Mode represents a Pomodoro phase.
type Mode string

const (
	ModeFocus      Mode = "focus"
	ModeShortBreak Mode = "short_break"
	ModeLongBreak  Mode = "long_break"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeFocus, ModeShortBreak, ModeLongBreak}

// IsValid reports whether m is one of the known modes.
func (m Mode) IsValid() bool {
	switch m {
	case ModeFocus, ModeShortBreak, ModeLongBreak:
		return true
	default:
		return false
	}
}

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// Label returns a human-readable label.
func (m Mode) Label() string {
	switch m {
	case ModeFocus:
		return "Focus"
	case ModeShortBreak:
		return "Short Break"
	case ModeLongBreak:
		return "Long Break"
	default:
		return "Unknown"
	}
}

// ParseMode parses a mode name. Both snake_case and camelCase spellings are accepted.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "focus", "work", "pomodoro":
		return ModeFocus, nil
	case "short_break", "shortbreak", "short":
		return ModeShortBreak, nil
	case "long_break", "longbreak", "long":
		return ModeLongBreak, nil
	default:
		return "", errors.Wrapf(ErrUnknownMode, "%q", s)
	}
}

// Durations maps each mode to its length in seconds.
type Durations struct {
	Focus      int `json:"focus" yaml:"focus" validate:"gt=0"`
	ShortBreak int `json:"short_break" yaml:"short_break" validate:"gt=0"`
	LongBreak  int `json:"long_break" yaml:"long_break" validate:"gt=0"`
}

// DefaultDurations returns the standard 25/5/15 minute durations.
func DefaultDurations() Durations {
	return Durations{
		Focus:      25 * 60,
		ShortBreak: 5 * 60,
		LongBreak:  15 * 60,
	}
}

// Of returns the duration in seconds for the given mode.
func (d Durations) Of(m Mode) int {
	switch m {
	case ModeShortBreak:
		return d.ShortBreak
	case ModeLongBreak:
		return d.LongBreak
	default:
		return d.Focus
	}
}

// Validate checks that every duration is positive.
func (d Durations) Validate() error {
	if err := validator.New().Struct(d); err != nil {
		return errors.Mark(errors.Wrap(err, "invalid durations"), ErrInvalidDurations)
	}
	return nil
}

// State is the persisted timer state.
type State struct {
	Mode              Mode `json:"mode"`
	TimeLeft          int  `json:"time_left"`
	IsActive          bool `json:"is_active"`
	CompletedSessions int  `json:"completed_sessions"`
}

// NewState returns the initial state for the given durations.
func NewState(d Durations) State {
	return State{
		Mode:     ModeFocus,
		TimeLeft: d.Of(ModeFocus),
	}
}

// Advance returns the mode that follows mode and the updated completed session count.
// Leaving Focus counts a session; every sessionsBeforeLong-th session is followed by a long break.
func Advance(mode Mode, completed, sessionsBeforeLong int) (Mode, int) {
	if sessionsBeforeLong <= 0 {
		sessionsBeforeLong = DefaultSessionsBeforeLongBreak
	}
	if mode != ModeFocus {
		return ModeFocus, completed
	}
	completed++
	if completed%sessionsBeforeLong == 0 {
		return ModeLongBreak, completed
	}
	return ModeShortBreak, completed
}
