package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color palette using ANSI color codes for terminal compatibility.
//
//	RED    -> ANSI 1
//	GREEN  -> ANSI 2
//	YELLOW -> ANSI 3
//	BLUE   -> ANSI 4
//	CYAN   -> ANSI 6
//	GRAY   -> ANSI 8 (bright black)

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// SuccessStyle renders text in the success color.
func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorSuccess)
}

// ErrorStyle renders text in the error color.
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorError)
}

// WarningStyle renders text in the warning color.
func WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorWarning)
}

// InfoStyle renders text in the info color.
func InfoStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorInfo)
}

// MutedStyle renders secondary text.
func MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorMuted)
}

// HeadingStyle renders section titles.
func HeadingStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(ColorSecondary)
}

// SeverityStyle maps an insight severity ("info", "warning", "critical")
// to its display style and symbol.
func SeverityStyle(severity string) (lipgloss.Style, string) {
	switch severity {
	case "critical":
		return ErrorStyle().Bold(true), SymbolFail
	case "warning":
		return WarningStyle(), SymbolWarning
	default:
		return InfoStyle(), SymbolInfo
	}
}

// PrintError writes an error line to stderr.
func PrintError(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle().Render(SymbolFail), msg)
}

// DisableColors switches lipgloss to monochrome output (for --no-color and
// output.color: never).
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// ForceColors switches lipgloss to 256-colour output (for output.color: always).
func ForceColors() {
	lipgloss.SetColorProfile(termenv.ANSI256)
}

// ApplyColorMode configures lipgloss for an output.color setting: "never"
// and noColor disable colour, "always" forces it, "auto" leaves detection
// to lipgloss.
func ApplyColorMode(mode string, noColor bool) {
	switch {
	case noColor || mode == "never" || os.Getenv("NO_COLOR") != "":
		DisableColors()
	case mode == "always":
		ForceColors()
	}
}

// ColorsEnabled reports whether the default renderer will emit colour.
func ColorsEnabled() bool {
	return lipgloss.ColorProfile() != termenv.Ascii
}
