package assistant

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rileyhilliard/sysinsight/internal/llm"
	"github.com/rileyhilliard/sysinsight/internal/report"
	"github.com/rileyhilliard/sysinsight/internal/snapshot"
)

// truncatedMarker ends a summary that was cut to fit the budget.
const truncatedMarker = "\n[summary truncated]"

// BuildMessages assembles the conversation sent for one question: the
// system instruction, a condensed summary of doc, and the question. The
// combined content of all messages never exceeds maxBytes; the summary is
// shortened first, then the question. A non-positive maxBytes disables
// the limit.
func BuildMessages(systemPrompt string, doc report.Document, question string, maxBytes int) []llm.Message {
	if maxBytes <= 0 {
		maxBytes = len(systemPrompt) + len(question) + len(Summarize(doc))
	}
	system := truncate(systemPrompt, maxBytes)
	remaining := maxBytes - len(system)

	question = truncate(question, remaining)
	remaining -= len(question)

	summary := fitSummary(Summarize(doc), remaining)

	msgs := []llm.Message{{Role: llm.RoleSystem, Content: system}}
	if summary != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: summary})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: question})
}

// PromptBytes is the combined content size of msgs.
func PromptBytes(msgs []llm.Message) int {
	n := 0
	for _, m := range msgs {
		n += len(m.Content)
	}
	return n
}

// Summarize renders doc as compact text, most important first: insights,
// then one line per category, then scan results.
func Summarize(doc report.Document) string {
	var b strings.Builder

	if !doc.CollectedAt.IsZero() {
		fmt.Fprintf(&b, "System snapshot collected %s\n", doc.CollectedAt.Format(time.RFC3339))
	}

	if len(doc.Insights) > 0 {
		b.WriteString("Insights:\n")
		for _, in := range doc.Insights {
			fmt.Fprintf(&b, "- [%s] %s\n", in.Severity, in.Message)
		}
	}

	for _, c := range doc.Categories() {
		switch c.Status {
		case snapshot.StatusNone:
			continue
		case snapshot.StatusUnavailable:
			fmt.Fprintf(&b, "%s: unavailable (%s)\n", c.Name, c.Error)
			continue
		}
		parts := make([]string, 0, len(c.Measurements))
		for _, m := range c.Measurements {
			parts = append(parts, m.Name+"="+m.Format())
		}
		fmt.Fprintf(&b, "%s: %s\n", c.Name, strings.Join(parts, "; "))
	}

	if doc.Scanned() {
		fmt.Fprintf(&b, "Live hosts in %s: ", doc.Subnet)
		if len(doc.Hosts) == 0 {
			b.WriteString("none\n")
		} else {
			ips := make([]string, 0, len(doc.Hosts))
			for _, h := range doc.Hosts {
				ips = append(ips, h.IP)
			}
			b.WriteString(strings.Join(ips, ", ") + "\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// fitSummary cuts s to at most limit bytes, dropping whole lines where it
// can and marking the cut.
func fitSummary(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	if limit <= len(truncatedMarker) {
		return ""
	}

	cut := truncate(s, limit-len(truncatedMarker))
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut + truncatedMarker
}

// truncate returns the longest prefix of s that fits in n bytes without
// splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
