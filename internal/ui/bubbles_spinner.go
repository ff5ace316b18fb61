package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SpinnerFrames defines the animation frames (◐ ◓ ◑ ◒) used while waiting.
var SpinnerFrames = spinner.Spinner{
	Frames: []string{"◐", "◓", "◑", "◒"},
	FPS:    time.Second / 10,
}

// SpinnerComponentState represents the state of a spinner in a Bubble Tea model.
type SpinnerComponentState int

const (
	SpinnerComponentPending SpinnerComponentState = iota
	SpinnerComponentInProgress
	SpinnerComponentSuccess
	SpinnerComponentFailed
)

// SpinnerComponent is a Bubble Tea model showing a label, an optional
// detail (e.g. characters received so far) and the elapsed time.
type SpinnerComponent struct {
	spinner   spinner.Model
	Label     string
	Detail    string
	State     SpinnerComponentState
	StartTime time.Time
}

// NewSpinnerComponent creates a new spinner component with the given label.
func NewSpinnerComponent(label string) SpinnerComponent {
	sp := spinner.New()
	sp.Spinner = SpinnerFrames
	sp.Style = lipgloss.NewStyle().Foreground(ColorSecondary)

	return SpinnerComponent{
		spinner: sp,
		Label:   label,
		State:   SpinnerComponentPending,
	}
}

// Update handles spinner animation messages.
func (s SpinnerComponent) Update(msg tea.Msg) (SpinnerComponent, tea.Cmd) {
	if s.State != SpinnerComponentInProgress {
		return s, nil
	}
	if tick, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(tick)
		return s, cmd
	}
	return s, nil
}

// View renders the spinner in its current state.
func (s SpinnerComponent) View() string {
	switch s.State {
	case SpinnerComponentInProgress:
		line := s.spinner.View() + " " + s.Label + "..."
		if s.Detail != "" {
			line += " " + MutedStyle().Render(s.Detail)
		}
		return line
	case SpinnerComponentSuccess:
		return s.viewFinal(SymbolComplete, ColorSuccess)
	case SpinnerComponentFailed:
		return s.viewFinal(SymbolFail, ColorError)
	default:
		return s.viewFinal(SymbolPending, ColorMuted)
	}
}

func (s SpinnerComponent) viewFinal(symbol string, color lipgloss.Color) string {
	symbolStyle := lipgloss.NewStyle().Foreground(color)
	return symbolStyle.Render(symbol) + " " + s.Label + " " + MutedStyle().Render(formatDuration(s.Elapsed()))
}

// Start transitions the spinner to in-progress state.
func (s *SpinnerComponent) Start() tea.Cmd {
	s.State = SpinnerComponentInProgress
	s.StartTime = time.Now()
	return s.spinner.Tick
}

// Success transitions the spinner to success state.
func (s *SpinnerComponent) Success() {
	s.State = SpinnerComponentSuccess
}

// Fail transitions the spinner to failed state.
func (s *SpinnerComponent) Fail() {
	s.State = SpinnerComponentFailed
}

// Elapsed returns the duration since the spinner started.
func (s SpinnerComponent) Elapsed() time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	return time.Since(s.StartTime)
}

type waitDoneMsg struct{ err error }

type waitDetailMsg string

// waitModel drives a SpinnerComponent until the wrapped work finishes.
type waitModel struct {
	spin SpinnerComponent
	err  error
	done bool
}

func (m waitModel) Init() tea.Cmd {
	return m.spin.spinner.Tick
}

func (m waitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case waitDoneMsg:
		m.done = true
		m.err = msg.err
		if msg.err != nil {
			m.spin.Fail()
		} else {
			m.spin.Success()
		}
		return m, tea.Quit
	case waitDetailMsg:
		m.spin.Detail = string(msg)
		return m, nil
	}
	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	return m, cmd
}

func (m waitModel) View() string {
	if m.done {
		return m.spin.View() + "\n"
	}
	return m.spin.View()
}

// Progress lets the wrapped work update the spinner's detail text.
type Progress func(detail string)

// RunWithSpinner runs fn while animating a spinner on w. When w is not a
// terminal fn runs without any animation. The error is fn's.
func RunWithSpinner(ctx context.Context, w io.Writer, label string, fn func(ctx context.Context, progress Progress) error) error {
	if !IsTerminal(w) {
		return fn(ctx, func(string) {})
	}

	spin := NewSpinnerComponent(label)
	spin.Start()
	p := tea.NewProgram(waitModel{spin: spin}, tea.WithOutput(w), tea.WithInput(nil), tea.WithContext(ctx))

	errCh := make(chan error, 1)
	go func() {
		err := fn(ctx, func(detail string) { p.Send(waitDetailMsg(detail)) })
		errCh <- err
		p.Send(waitDoneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		// The program was killed (context cancelled); still wait for fn so
		// it never outlives the caller.
		fnErr := <-errCh
		if fnErr != nil {
			return fnErr
		}
		return fmt.Errorf("spinner: %w", err)
	}
	return <-errCh
}
