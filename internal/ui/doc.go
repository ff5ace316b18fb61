// Package ui provides the terminal presentation pieces for sysinsight:
// styles and symbols, tables and utilisation gauges, stage progress lines, a Bubble Tea spinner for slow
// calls, a markdown renderer for assistant answers, and the interactive
// question prompt.
//
// # Color Scheme
//
// Colors are ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Collected categories
//	ColorError     (red)    - Failures and critical insights
//	ColorWarning   (yellow) - Warnings and skipped stages
//	ColorInfo      (cyan)   - Informational insights
//	ColorMuted     (gray)   - Secondary text, timing info
//	ColorSecondary (blue)   - Headings, in-progress indicators
//
// ApplyColorMode honours --no-color, NO_COLOR and output.color.
//
// # Phase Display
//
//	pd := ui.NewPhaseDisplay(os.Stderr)
//	pd.RenderProgress("cpu")
//	pd.RenderSuccess("cpu", 500*time.Millisecond)
//	pd.RenderFailed("gpu", 10*time.Millisecond, "No GPU found")
//
// # Waiting on slow work
//
//	err := ui.RunWithSpinner(ctx, os.Stderr, "Asking gpt-4o", func(ctx context.Context, progress ui.Progress) error {
//		answer, err = a.Ask(ctx, doc, question, func(delta string) { progress(delta) })
//		return err
//	})
//
// # Gauges
//
//	ui.LabeledGauge("cpu", 42.5, 20) // cpu [████████░░░░░░░░░░░░]  43%
package ui
