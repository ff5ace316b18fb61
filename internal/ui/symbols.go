package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Category collected
	SymbolFail     = "✗" // Category failed, critical insight
	SymbolPending  = "○" // Not collected this run
	SymbolProgress = "◐" // Collection in progress
	SymbolComplete = "●" // Stage done
	SymbolSkipped  = "⊘" // Stage skipped
	SymbolWarning  = "⚠" // Warning insight
	SymbolInfo     = "ℹ" // Informational insight
)
