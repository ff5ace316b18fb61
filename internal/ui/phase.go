package ui

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// DividerWidth is the default width for divider lines.
const DividerWidth = 64

// PhaseDisplay reports pipeline stages (one per collector, the scan, the
// export) as they run. Progress lines are only drawn when live is true,
// since they rely on carriage returns to be overwritten.
type PhaseDisplay struct {
	w    io.Writer
	live bool
}

// NewPhaseDisplay creates a display writing to w. Live redraws are enabled
// when w is a terminal.
func NewPhaseDisplay(w io.Writer) *PhaseDisplay {
	return &PhaseDisplay{w: w, live: IsTerminal(w)}
}

// SetLive overrides terminal detection.
func (pd *PhaseDisplay) SetLive(live bool) {
	pd.live = live
}

// RenderProgress renders a stage in progress.
// Shows: ◐ Collecting cpu...
func (pd *PhaseDisplay) RenderProgress(name string) {
	if !pd.live {
		return
	}
	fmt.Fprintf(pd.w, "\r%s %s...", InfoStyle().Render(SymbolProgress), name)
}

// RenderSuccess renders a completed stage.
// Shows: ● cpu 0.5s
func (pd *PhaseDisplay) RenderSuccess(name string, duration time.Duration) {
	pd.clearLine()
	fmt.Fprintf(pd.w, "%s %s %s\n",
		SuccessStyle().Render(SymbolComplete),
		name,
		MutedStyle().Render(formatDuration(duration)),
	)
}

// RenderFailed renders a failed stage with its reason.
// Shows: ✗ gpu 0.01s No GPU found
func (pd *PhaseDisplay) RenderFailed(name string, duration time.Duration, reason string) {
	pd.clearLine()
	line := fmt.Sprintf("%s %s %s",
		ErrorStyle().Render(SymbolFail),
		name,
		MutedStyle().Render(formatDuration(duration)),
	)
	if reason != "" {
		line += " " + MutedStyle().Render(reason)
	}
	fmt.Fprintln(pd.w, line)
}

// RenderSkipped renders a stage that did not run.
// Shows: ⊘ sensors (disabled)
func (pd *PhaseDisplay) RenderSkipped(name string, reason string) {
	pd.clearLine()
	if reason != "" {
		fmt.Fprintf(pd.w, "%s %s %s\n",
			WarningStyle().Render(SymbolSkipped),
			name,
			MutedStyle().Render("("+reason+")"),
		)
		return
	}
	fmt.Fprintf(pd.w, "%s %s\n", WarningStyle().Render(SymbolSkipped), name)
}

// Divider renders a horizontal line to separate progress from the report.
func (pd *PhaseDisplay) Divider() {
	fmt.Fprintf(pd.w, "%s\n", FormatDivider(DividerWidth))
}

// clearLine wipes a pending progress line before it is replaced.
func (pd *PhaseDisplay) clearLine() {
	if !pd.live {
		return
	}
	fmt.Fprint(pd.w, "\r"+strings.Repeat(" ", 80)+"\r")
}

// FormatDivider returns a divider line as a string.
func FormatDivider(width int) string {
	return MutedStyle().Render(strings.Repeat("━", width))
}

// formatDuration formats a duration for display (e.g., "0.3s", "0.04s").
func formatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}
