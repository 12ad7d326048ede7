package pomodoro

import (
	"fmt"
	"math"
)

// FormatClock formats seconds as MM:SS. Negative values render as 00:00.
func FormatClock(seconds int) string {
	if seconds < 0 {
		return "00:00"
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// MinutesToSeconds converts minutes to whole seconds.
func MinutesToSeconds(minutes float64) int {
	return int(math.Round(minutes * 60))
}

// SecondsToMinutes converts seconds to minutes.
func SecondsToMinutes(seconds int) float64 {
	return float64(seconds) / 60
}
