package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown_Plain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		absent   []string
	}{
		{
			name:     "paragraph reflows soft breaks",
			input:    "Load is high\nbecause of builds.",
			contains: []string{"Load is high because of builds."},
		},
		{
			name:     "heading drops hashes",
			input:    "## Summary\n\nAll good.",
			contains: []string{"Summary", "All good."},
			absent:   []string{"##"},
		},
		{
			name:     "bullet list",
			input:    "- cpu fine\n- disk nearly full\n",
			contains: []string{"• cpu fine", "• disk nearly full"},
		},
		{
			name:     "ordered list",
			input:    "1. stop the job\n2. clear /tmp\n",
			contains: []string{"1. stop the job", "2. clear /tmp"},
		},
		{
			name:     "emphasis markers removed",
			input:    "This is **important** and *subtle*.",
			contains: []string{"This is important and subtle."},
			absent:   []string{"**"},
		},
		{
			name:     "code span and block",
			input:    "Run `df -h`:\n\n```sh\ndf -h /\n```\n",
			contains: []string{"Run df -h:", "  df -h /"},
			absent:   []string{"```"},
		},
		{
			name:     "link keeps destination",
			input:    "See [docs](https://example.com).",
			contains: []string{"docs (https://example.com)"},
		},
		{
			name:     "blockquote prefix",
			input:    "> careful",
			contains: []string{"│ careful"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderMarkdown(tt.input, 80, false)
			plain := ansi.Strip(out)
			for _, s := range tt.contains {
				assert.Contains(t, plain, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, plain, s)
			}
		})
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	assert.Empty(t, RenderMarkdown("  \n", 80, false))
}

func TestRenderMarkdown_Wraps(t *testing.T) {
	input := strings.Repeat("word ", 40)
	out := ansi.Strip(RenderMarkdown(input, 30, false))
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len(line), 30)
	}
	assert.Greater(t, strings.Count(out, "\n"), 3)
}

func TestRenderMarkdown_ColorAddsEscapes(t *testing.T) {
	out := RenderMarkdown("# Title\n\n```json\n{\"a\": 1}\n```", 80, true)
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, ansi.Strip(out), "Title")
}

func TestHighlight(t *testing.T) {
	assert.Equal(t, "plain", Highlight("plain", ""))
	out := Highlight(`{"cpu": 12.5}`, "json")
	assert.Contains(t, ansi.Strip(out), `"cpu"`)
}
