package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TableStyle provides consistent styling for tables across the CLI.
type TableStyle struct {
	Header lipgloss.Style
	Key    lipgloss.Style
	Cell   lipgloss.Style
	Border lipgloss.Style
}

// DefaultTableStyle returns the default table styling.
func DefaultTableStyle() TableStyle {
	return TableStyle{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(0, 1),
		Key: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorInfo).
			Padding(0, 1),
		Cell: lipgloss.NewStyle().
			Padding(0, 1),
		Border: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}

// RenderTable renders a static bordered table. The first column is styled
// as a key column. When the natural width exceeds maxWidth (and maxWidth is
// positive) columns are shrunk to fit.
func RenderTable(headers []string, rows [][]string, maxWidth int) string {
	if len(rows) == 0 {
		return ""
	}
	style := DefaultTableStyle()

	build := func() *table.Table {
		return table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(style.Border).
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == table.HeaderRow:
					return style.Header
				case col == 0:
					return style.Key
				default:
					return style.Cell
				}
			}).
			Headers(headers...).
			Rows(rows...)
	}

	out := build().String()
	if maxWidth > 0 && widest(out) > maxWidth {
		out = build().Width(maxWidth).String()
	}
	return out
}

func widest(s string) int {
	w := 0
	for _, line := range strings.Split(s, "\n") {
		if lw := lipgloss.Width(line); lw > w {
			w = lw
		}
	}
	return w
}
