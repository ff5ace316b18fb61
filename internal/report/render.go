package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/rileyhilliard/sysinsight/internal/errors"
	"github.com/rileyhilliard/sysinsight/internal/insight"
	"github.com/rileyhilliard/sysinsight/internal/snapshot"
	"github.com/rileyhilliard/sysinsight/internal/ui"
)

// Options control terminal rendering.
type Options struct {
	// Width caps the table and panel width; 0 means ui.DefaultWidth.
	Width int
}

// Render writes the human-readable report for doc to w: usage gauges, the
// metrics table, the insight panel, the host table when a scan ran, and a
// saved answer when there is one.
func Render(w io.Writer, doc Document, opts Options) error {
	if _, err := io.WriteString(w, RenderString(doc, opts)); err != nil {
		return errors.WrapWithCode(err, errors.ErrIO, "Couldn't write the report", "")
	}
	return nil
}

// RenderString is Render into a string.
func RenderString(doc Document, opts Options) string {
	width := opts.Width
	if width <= 0 {
		width = ui.DefaultWidth
	}

	var b strings.Builder
	b.WriteString(header(doc))
	b.WriteString("\n")
	if g := gauges(doc.Snapshot); g != "" {
		b.WriteString(g)
		b.WriteString("\n")
	}

	if table := metricsTable(doc.Snapshot, width); table != "" {
		b.WriteString(table)
		b.WriteString("\n")
	} else {
		b.WriteString(ui.MutedStyle().Render("No metrics collected."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(insightPanel(doc.Insights, width))
	b.WriteString("\n")

	if doc.Scanned() {
		b.WriteString("\n")
		b.WriteString(hostSection(doc.Subnet, doc.Hosts, width))
		b.WriteString("\n")
	}

	if doc.Answer != nil {
		b.WriteString("\n")
		b.WriteString(ui.HeadingStyle().Render("Q: " + doc.Answer.Question))
		b.WriteString("\n")
		b.WriteString(ui.RenderMarkdown(doc.Answer.Text, width, ui.ColorsEnabled()))
		b.WriteString("\n")
	}
	return b.String()
}

func header(doc Document) string {
	title := ui.HeadingStyle().Render("System report")
	if doc.Host.OK() && doc.Host.Data.Hostname != "" {
		title += " " + ui.HeadingStyle().Render(doc.Host.Data.Hostname)
	}
	if !doc.CollectedAt.IsZero() {
		title += " " + ui.MutedStyle().Render(doc.CollectedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return title
}

// gaugeWidth is the bar width of each utilisation gauge.
const gaugeWidth = 20

// gauges renders one utilisation bar per collected cpu, memory, and disk
// section, or "" when none of them is available.
func gauges(s snapshot.Snapshot) string {
	var parts []string
	if s.CPU.OK() {
		parts = append(parts, ui.LabeledGauge("cpu", s.CPU.Data.UsagePercent, gaugeWidth))
	}
	if s.Memory.OK() {
		parts = append(parts, ui.LabeledGauge("memory", s.Memory.Data.UsedPercent, gaugeWidth))
	}
	if s.Disk.OK() {
		parts = append(parts, ui.LabeledGauge("disk", s.Disk.Data.UsedPercent, gaugeWidth))
	}
	return strings.Join(parts, "\n")
}

// MetricRows flattens the snapshot into Category | Metric | Value rows.
// The category name appears on its first row only. Categories that were
// not collected are omitted; unavailable ones get a single row with the
// reason.
func MetricRows(s snapshot.Snapshot) [][]string {
	var rows [][]string
	for _, c := range s.Categories() {
		switch c.Status {
		case snapshot.StatusNone:
			continue
		case snapshot.StatusUnavailable:
			rows = append(rows, []string{
				c.Name,
				ui.WarningStyle().Render("unavailable"),
				ui.MutedStyle().Render(c.Error),
			})
			continue
		}
		if len(c.Measurements) == 0 {
			rows = append(rows, []string{c.Name, ui.MutedStyle().Render("(empty)"), ""})
			continue
		}
		for i, m := range c.Measurements {
			name := ""
			if i == 0 {
				name = c.Name
			}
			rows = append(rows, []string{name, m.Name, m.Format()})
		}
	}
	return rows
}

func metricsTable(s snapshot.Snapshot, width int) string {
	return ui.RenderTable([]string{"Category", "Metric", "Value"}, MetricRows(s), width)
}

func insightPanel(insights []insight.Insight, width int) string {
	inner := width - 4
	var lines []string
	if len(insights) == 0 {
		lines = append(lines, ui.SuccessStyle().Render(ui.SymbolComplete)+" No issues detected")
	}
	for _, in := range insights {
		style, symbol := ui.SeverityStyle(string(in.Severity))
		line := style.Render(symbol) + " " + in.Message
		lines = append(lines, ansi.Wrap(line, inner, " "))
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorWarning).
		Padding(0, 1)

	title := ui.HeadingStyle().Render("Insights")
	return title + "\n" + panel.Render(strings.Join(lines, "\n"))
}

func hostSection(subnet string, hosts []snapshot.HostRecord, width int) string {
	title := ui.HeadingStyle().Render("Live hosts") + " " + ui.MutedStyle().Render(subnet)
	if len(hosts) == 0 {
		return title + "\n" + ui.MutedStyle().Render("No hosts responded.")
	}

	rows := make([][]string, 0, len(hosts))
	for _, h := range hosts {
		mac := h.MAC
		if mac == "" {
			mac = "-"
		}
		port := "-"
		if h.Port > 0 {
			port = strconv.Itoa(h.Port)
		}
		rows = append(rows, []string{h.IP, formatLatency(h.Latency), port, mac})
	}
	return title + "\n" + ui.RenderTable([]string{"Address", "Latency", "Port", "MAC"}, rows, width)
}

func formatLatency(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
}

// WriteJSON writes doc as indented JSON to w, syntax-highlighted when color
// is true.
func WriteJSON(w io.Writer, doc Document, color bool) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	out := string(data)
	if color {
		out = ui.Highlight(out, "json")
	}
	if _, err := io.WriteString(w, out); err != nil {
		return errors.WrapWithCode(err, errors.ErrIO, "Couldn't write the report", "")
	}
	return nil
}
