package watch

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/osa030/pomotune/internal/domain/pomodoro"
)

var styles = newPalette("#E4572E", "#17BEBB", "#2E86AB", "#FF0000", "#626262")

type palette struct {
	focus      lipgloss.Style
	shortBreak lipgloss.Style
	longBreak  lipgloss.Style
	err        lipgloss.Style
	help       lipgloss.Style
	dim        lipgloss.Style
	frame      lipgloss.Style
}

func newPalette(focus, short, long, e, h string) *palette {
	return &palette{
		focus:      newBold(focus),
		shortBreak: newBold(short),
		longBreak:  newBold(long),
		err:        newBold(e),
		help:       newStyle(h).Italic(true),
		dim:        newStyle(h),
		frame:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2),
	}
}

func newStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func newBold(fg string) lipgloss.Style {
	return newStyle(fg).Bold(true)
}

// mode returns the accent style of a timer mode.
func (p *palette) mode(m string) lipgloss.Style {
	switch pomodoro.Mode(m) {
	case pomodoro.ModeShortBreak:
		return p.shortBreak
	case pomodoro.ModeLongBreak:
		return p.longBreak
	default:
		return p.focus
	}
}
