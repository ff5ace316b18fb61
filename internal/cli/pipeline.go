package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rileyhilliard/sysinsight/internal/assistant"
	"github.com/rileyhilliard/sysinsight/internal/collect"
	"github.com/rileyhilliard/sysinsight/internal/config"
	"github.com/rileyhilliard/sysinsight/internal/errors"
	"github.com/rileyhilliard/sysinsight/internal/insight"
	"github.com/rileyhilliard/sysinsight/internal/logger"
	"github.com/rileyhilliard/sysinsight/internal/report"
	"github.com/rileyhilliard/sysinsight/internal/scan"
	"github.com/rileyhilliard/sysinsight/internal/snapshot"
	"github.com/rileyhilliard/sysinsight/internal/ui"
)

// asker answers a question about a document.
type asker interface {
	Ask(ctx context.Context, doc report.Document, question string, onDelta func(string)) (string, error)
}

// reportOptions are the per-run choices made on the command line.
type reportOptions struct {
	Query  string
	Export string
	Subnet string
	JSON   bool
}

// pipeline runs the stages of a report: collect, scan, insights, output,
// export, question. Its fields are swapped out in tests.
type pipeline struct {
	cfg    *config.Config
	source collect.Source
	prober scan.Prober
	stdout io.Writer
	stderr io.Writer
	log    logger.Logger

	newAsker func(cfg config.AssistantConfig, log logger.Logger) (asker, error)
	now      func() time.Time

	// quiet suppresses stage progress on stderr.
	quiet bool
}

func newPipeline(cfg *config.Config, stdout, stderr io.Writer) *pipeline {
	return &pipeline{
		cfg:    cfg,
		source: collect.NewSystem(cfg.Collectors, logger.NewEnvLogger("[collect]")),
		stdout: stdout,
		stderr: stderr,
		log:    logger.NewEnvLogger("[sysinsight]"),
		newAsker: func(cfg config.AssistantConfig, log logger.Logger) (asker, error) {
			return assistant.New(cfg, log)
		},
		quiet: machineMode,
	}
}

// run executes a full report. Only CONFIG errors (and a run where every
// category failed) are returned; later stages report their own failures and
// let the run finish.
func (p *pipeline) run(ctx context.Context, opts reportOptions) error {
	if opts.Subnet != "" {
		// Reject a bad subnet before spending time on collection.
		if _, err := scan.Hosts(opts.Subnet, p.cfg.Scan.MaxHosts); err != nil {
			return err
		}
	}

	doc, err := p.document(ctx, opts.Subnet)
	if err != nil {
		return err
	}

	if opts.JSON {
		// The answer goes inside the document so stdout stays one JSON value.
		if opts.Query != "" {
			if text, ok := p.query(ctx, doc, opts.Query); ok {
				doc = doc.WithAnswer(opts.Query, text)
			}
		}
		color := ui.IsTerminal(p.stdout) && ui.ColorsEnabled()
		if err := report.WriteJSON(p.stdout, doc, color); err != nil {
			return err
		}
	} else {
		width := ui.Width(p.stdout, p.cfg.Output.Width)
		if err := report.Render(p.stdout, doc, report.Options{Width: width}); err != nil {
			return err
		}
	}

	if opts.Export != "" {
		p.export(opts.Export, doc)
	}

	if opts.Query != "" && !opts.JSON {
		p.askOnce(ctx, doc, opts.Query)
	}
	return nil
}

// document collects a snapshot, runs the optional scan, and derives the
// insights.
func (p *pipeline) document(ctx context.Context, subnet string) (report.Document, error) {
	snap, err := p.collect(ctx)
	if err != nil {
		return report.Document{}, err
	}

	doc := report.NewDocument(snap, insight.Generate(snap, p.cfg.Thresholds), version)

	if subnet != "" {
		hosts, err := p.scan(ctx, subnet)
		switch {
		case err == nil:
			doc = doc.WithScan(subnet, hosts)
		case errors.IsFatal(err):
			return report.Document{}, err
		default:
			p.warn(err)
		}
	}
	return doc, nil
}

// collect gathers every enabled category, printing one line per stage.
func (p *pipeline) collect(ctx context.Context) (*snapshot.Snapshot, error) {
	pd := ui.NewPhaseDisplay(p.stderr)

	opts := collect.OptionsFor(p.cfg, p.log)
	opts.Now = p.now
	if !p.quiet {
		opts.OnStart = func(category string) { pd.RenderProgress(category) }
		opts.OnDone = func(category string, elapsed time.Duration, err error) {
			if err != nil {
				pd.RenderFailed(category, elapsed, collect.Reason(err))
				return
			}
			pd.RenderSuccess(category, elapsed)
		}
	}

	snap := collect.Gather(ctx, p.source, opts)

	if !p.quiet {
		for _, category := range config.AllCategories {
			if !p.cfg.CategoryEnabled(category) {
				pd.RenderSkipped(category, "disabled")
			}
		}
		pd.Divider()
	}

	if snap.AllUnavailable() {
		return nil, errors.New(errors.ErrConfig,
			"No metrics could be collected",
			"Every collector failed. Run with --verbose to see why, or check collectors.enabled.")
	}
	return snap, nil
}

// scan probes subnet, animating a spinner on stderr.
func (p *pipeline) scan(ctx context.Context, subnet string) ([]snapshot.HostRecord, error) {
	opts := scan.OptionsFor(p.cfg.Scan, logger.NewEnvLogger("[scan]"))
	opts.Prober = p.prober

	var hosts []snapshot.HostRecord
	label := "Scanning " + subnet
	err := p.withSpinner(ctx, label, func(ctx context.Context, progress ui.Progress) error {
		opts.OnProbe = func(done, total int) {
			progress(fmt.Sprintf("%d/%d", done, total))
		}
		var err error
		hosts, err = scan.Scan(ctx, subnet, opts)
		return err
	})
	return hosts, err
}

// export writes doc to path. Failures are reported, not returned.
func (p *pipeline) export(path string, doc report.Document) {
	if err := report.Export(path, doc); err != nil {
		p.warn(err)
		return
	}
	if !p.quiet {
		fmt.Fprintf(p.stderr, "%s Exported to %s\n", ui.SuccessStyle().Render(ui.SymbolComplete), path)
	}
}

// askOnce answers a single question on stdout. Failures, missing
// credentials included, are reported and the run carries on.
func (p *pipeline) askOnce(ctx context.Context, doc report.Document, question string) {
	if text, ok := p.query(ctx, doc, question); ok {
		p.printAnswer(text)
	}
}

// query returns the answer to question, or false after reporting why there
// is none.
func (p *pipeline) query(ctx context.Context, doc report.Document, question string) (string, bool) {
	a, err := p.newAsker(p.cfg.Assistant, p.log)
	if err != nil {
		p.warn(err)
		return "", false
	}
	text, err := p.stream(ctx, a, doc, question)
	if err != nil {
		p.warn(err)
		return "", false
	}
	return text, true
}

// answer asks one question and prints the rendered answer to stdout.
func (p *pipeline) answer(ctx context.Context, a asker, doc report.Document, question string) error {
	text, err := p.stream(ctx, a, doc, question)
	if err != nil {
		return err
	}
	p.printAnswer(text)
	return nil
}

// stream asks a question behind a spinner that counts the bytes received.
func (p *pipeline) stream(ctx context.Context, a asker, doc report.Document, question string) (string, error) {
	var answer string
	label := "Asking " + p.cfg.Assistant.Model
	err := p.withSpinner(ctx, label, func(ctx context.Context, progress ui.Progress) error {
		var received uint64
		var err error
		answer, err = a.Ask(ctx, doc, question, func(delta string) {
			received += uint64(len(delta))
			progress(humanize.Bytes(received) + " received")
		})
		return err
	})
	return answer, err
}

func (p *pipeline) printAnswer(text string) {
	color := ui.IsTerminal(p.stdout) && ui.ColorsEnabled()
	width := ui.Width(p.stdout, p.cfg.Output.Width)
	fmt.Fprintf(p.stdout, "\n%s\n\n", ui.RenderMarkdown(text, width, color))
}

func (p *pipeline) withSpinner(ctx context.Context, label string, fn func(context.Context, ui.Progress) error) error {
	if p.quiet {
		return fn(ctx, func(string) {})
	}
	return ui.RunWithSpinner(ctx, p.stderr, label, fn)
}

// warn reports a non-fatal stage failure on stderr.
func (p *pipeline) warn(err error) {
	msg := strings.TrimRight(err.Error(), "\n")
	if _, ok := errors.AsError(err); !ok {
		msg = ui.WarningStyle().Render(ui.SymbolWarning) + " " + msg
	}
	fmt.Fprintln(p.stderr, msg)
}
