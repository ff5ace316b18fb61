package ui

import (
	stderrors "errors"
	"io"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/rileyhilliard/sysinsight/internal/errors"
)

// ErrPromptClosed is returned when the user leaves the question prompt
// (Ctrl+C, Esc, or an empty answer to "exit").
var ErrPromptClosed = stderrors.New("prompt closed")

// exitWords end an interactive question loop.
var exitWords = map[string]bool{"exit": true, "quit": true, "q": true}

// AskQuestion shows an input field and returns the trimmed question.
// Typing exit/quit or aborting the form returns ErrPromptClosed.
func AskQuestion(in io.Reader, out io.Writer) (string, error) {
	var question string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Ask about this system").
				Description("Type exit to quit").
				Placeholder("Why is my load average so high?").
				Value(&question),
		),
	).WithInput(in).WithOutput(out).WithShowHelp(false)

	if err := form.Run(); err != nil {
		if stderrors.Is(err, huh.ErrUserAborted) {
			return "", ErrPromptClosed
		}
		return "", errors.WrapWithCode(err, errors.ErrConfig, "Question prompt failed", "Pass the question as an argument instead.")
	}

	question = strings.TrimSpace(question)
	if exitWords[strings.ToLower(question)] {
		return "", ErrPromptClosed
	}
	return question, nil
}
