package pomodoro

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Mode
		wantErr  bool
	}{
		{name: "focus", input: "focus", expected: ModeFocus},
		{name: "snake case short break", input: "short_break", expected: ModeShortBreak},
		{name: "camel case short break", input: "shortBreak", expected: ModeShortBreak},
		{name: "camel case long break", input: "longBreak", expected: ModeLongBreak},
		{name: "surrounding spaces", input: "  long  ", expected: ModeLongBreak},
		{name: "unknown", input: "lunch", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := ParseMode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownMode))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mode)
		})
	}
}

func TestMode_IsValid(t *testing.T) {
	for _, m := range Modes {
		assert.True(t, m.IsValid(), "mode %s should be valid", m)
	}
	assert.False(t, Mode("nap").IsValid())
	assert.False(t, Mode("").IsValid())
}

func TestDurations_Of(t *testing.T) {
	d := Durations{Focus: 3, ShortBreak: 2, LongBreak: 5}

	assert.Equal(t, 3, d.Of(ModeFocus))
	assert.Equal(t, 2, d.Of(ModeShortBreak))
	assert.Equal(t, 5, d.Of(ModeLongBreak))
}

func TestDurations_Validate(t *testing.T) {
	tests := []struct {
		name      string
		durations Durations
		wantErr   bool
	}{
		{name: "defaults", durations: DefaultDurations()},
		{name: "tiny", durations: Durations{Focus: 1, ShortBreak: 1, LongBreak: 1}},
		{name: "zero focus", durations: Durations{Focus: 0, ShortBreak: 300, LongBreak: 900}, wantErr: true},
		{name: "negative long break", durations: Durations{Focus: 1500, ShortBreak: 300, LongBreak: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.durations.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidDurations))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultDurations(t *testing.T) {
	d := DefaultDurations()
	assert.Equal(t, 1500, d.Focus)
	assert.Equal(t, 300, d.ShortBreak)
	assert.Equal(t, 900, d.LongBreak)

	s := NewState(d)
	assert.Equal(t, ModeFocus, s.Mode)
	assert.Equal(t, 1500, s.TimeLeft)
	assert.False(t, s.IsActive)
	assert.Zero(t, s.CompletedSessions)
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name          string
		mode          Mode
		completed     int
		expectedMode  Mode
		expectedCount int
	}{
		{name: "first focus goes to short break", mode: ModeFocus, completed: 0, expectedMode: ModeShortBreak, expectedCount: 1},
		{name: "fourth focus goes to long break", mode: ModeFocus, completed: 3, expectedMode: ModeLongBreak, expectedCount: 4},
		{name: "fifth focus goes to short break", mode: ModeFocus, completed: 4, expectedMode: ModeShortBreak, expectedCount: 5},
		{name: "eighth focus goes to long break", mode: ModeFocus, completed: 7, expectedMode: ModeLongBreak, expectedCount: 8},
		{name: "short break returns to focus", mode: ModeShortBreak, completed: 2, expectedMode: ModeFocus, expectedCount: 2},
		{name: "long break returns to focus", mode: ModeLongBreak, completed: 4, expectedMode: ModeFocus, expectedCount: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, count := Advance(tt.mode, tt.completed, DefaultSessionsBeforeLongBreak)
			assert.Equal(t, tt.expectedMode, mode)
			assert.Equal(t, tt.expectedCount, count)
		})
	}
}

func TestAdvance_FullCycle(t *testing.T) {
	mode := ModeFocus
	completed := 0
	var route []Mode

	for i := 0; i < 8; i++ {
		route = append(route, mode)
		mode, completed = Advance(mode, completed, 4)
	}
	route = append(route, mode)

	assert.Equal(t, []Mode{
		ModeFocus, ModeShortBreak,
		ModeFocus, ModeShortBreak,
		ModeFocus, ModeShortBreak,
		ModeFocus, ModeLongBreak,
		ModeFocus,
	}, route)
	assert.Equal(t, 4, completed)
}

func TestAdvance_NonPositiveInterval(t *testing.T) {
	mode, count := Advance(ModeFocus, 3, 0)
	assert.Equal(t, ModeLongBreak, mode)
	assert.Equal(t, 4, count)
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{seconds: 0, expected: "00:00"},
		{seconds: 59, expected: "00:59"},
		{seconds: 60, expected: "01:00"},
		{seconds: 1500, expected: "25:00"},
		{seconds: 6000, expected: "100:00"},
		{seconds: -5, expected: "00:00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatClock(tt.seconds))
	}
}

func TestMinuteConversions(t *testing.T) {
	assert.Equal(t, 1500, MinutesToSeconds(25))
	assert.Equal(t, 90, MinutesToSeconds(1.5))
	assert.InDelta(t, 2.5, SecondsToMinutes(150), 0.0001)
}
