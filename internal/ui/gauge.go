package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Gauge block characters.
const (
	GaugeFilled = '█'
	GaugeEmpty  = '░'
)

// GaugeColor returns the bar colour for a utilisation percentage.
// Higher is worse: 0-60% green, 60-80% yellow, 80%+ red.
func GaugeColor(percent float64) lipgloss.Color {
	switch {
	case percent >= 80:
		return ColorError
	case percent >= 60:
		return ColorWarning
	default:
		return ColorSuccess
	}
}

// ClampPercent clamps a percentage to the 0-100 range.
func ClampPercent(percent float64) float64 {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// gaugeCounts returns the number of filled and empty cells for a bar.
func gaugeCounts(percent float64, width int) (filled, empty int) {
	filled = int((percent / 100.0) * float64(width))
	return filled, width - filled
}

// Gauge renders a coloured utilisation bar followed by its value.
// Output format: [████████░░░░]  67%
func Gauge(percent float64, width int) string {
	if width <= 0 {
		return ""
	}

	percent = ClampPercent(percent)
	filled, empty := gaugeCounts(percent, width)
	bar := "[" + strings.Repeat(string(GaugeFilled), filled) + strings.Repeat(string(GaugeEmpty), empty) + "]"

	return lipgloss.NewStyle().Foreground(GaugeColor(percent)).Render(bar) + fmt.Sprintf(" %3.0f%%", percent)
}

// LabeledGauge renders "label [bar] nn%".
func LabeledGauge(label string, percent float64, width int) string {
	return MutedStyle().Render(label) + " " + Gauge(percent, width)
}
