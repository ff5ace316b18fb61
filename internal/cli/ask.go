package cli

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/sysinsight/internal/errors"
	"github.com/rileyhilliard/sysinsight/internal/report"
	"github.com/rileyhilliard/sysinsight/internal/ui"
)

var (
	askFromFlag  string
	askScanFlags ScanFlags
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a language model about this system",
	Long: `Collect a fresh report (or load a saved export) and ask questions about it.

With a question, prints one answer and exits. Without one, opens an
interactive prompt; type exit or press Ctrl+C to leave.

Examples:
  sysinsight ask "Is anything about to run out?"
  sysinsight ask --from report.json.zst
  sysinsight ask --scan 10.0.0.0/24 "Which hosts are on my network?"`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := ApplyScanFlags(cfg, askScanFlags); err != nil {
			return err
		}

		p := newPipeline(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		return p.ask(cmd.Context(), askOptions{
			Question: strings.TrimSpace(strings.Join(args, " ")),
			From:     askFromFlag,
			Subnet:   askScanFlags.Subnet,
			prompt: func() (string, error) {
				return ui.AskQuestion(os.Stdin, os.Stderr)
			},
			interactive: ui.IsTerminal(os.Stdin),
		})
	},
}

func init() {
	askCmd.Flags().StringVar(&askFromFlag, "from", "", "answer from a saved export instead of collecting")
	AddScanFlags(askCmd, &askScanFlags)
	rootCmd.AddCommand(askCmd)
}

// askOptions configure the ask command.
type askOptions struct {
	Question string
	From     string
	Subnet   string

	prompt      func() (string, error)
	interactive bool
}

// ask answers a single question, or loops on the prompt when none was given.
// Unlike --query, a missing API key is fatal here since answering is the
// whole point of the command.
func (p *pipeline) ask(ctx context.Context, opts askOptions) error {
	if opts.Question == "" && !opts.interactive {
		return errors.New(errors.ErrConfig,
			"No question given",
			"Pass the question as an argument when stdin is not a terminal.")
	}

	a, err := p.newAsker(p.cfg.Assistant, p.log)
	if err != nil {
		return err
	}

	doc, err := p.askDocument(ctx, opts)
	if err != nil {
		return err
	}

	if opts.Question != "" {
		if err := p.answer(ctx, a, doc, opts.Question); err != nil {
			if errors.IsFatal(err) {
				return err
			}
			p.warn(err)
		}
		return nil
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		question, err := opts.prompt()
		if stderrors.Is(err, ui.ErrPromptClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if question == "" {
			continue
		}
		if err := p.answer(ctx, a, doc, question); err != nil {
			p.warn(err)
		}
	}
}

// askDocument loads the export named by opts.From, or collects a new report.
func (p *pipeline) askDocument(ctx context.Context, opts askOptions) (report.Document, error) {
	if opts.From == "" {
		return p.document(ctx, opts.Subnet)
	}
	doc, err := report.Load(opts.From)
	if err != nil {
		// An export that can't be read leaves nothing to ask about.
		return report.Document{}, asConfigError(err, "Check the path, or drop --from to collect a fresh report.")
	}
	return doc, nil
}

// asConfigError reclassifies err as a CONFIG error, keeping its message and
// cause.
func asConfigError(err error, suggestion string) error {
	if siErr, ok := errors.AsError(err); ok {
		return errors.WrapWithCode(siErr.Cause, errors.ErrConfig, siErr.Message, suggestion)
	}
	return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), suggestion)
}
