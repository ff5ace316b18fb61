package llm

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectEvents(t *testing.T, input string) []SSEEvent {
	t.Helper()
	s := NewSSEScanner(strings.NewReader(input))
	var events []SSEEvent
	for s.Next() {
		events = append(events, s.Event())
	}
	require.NoError(t, s.Err())
	return events
}

func TestSSEScanner(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []SSEEvent
	}{
		{
			name:  "single event",
			input: "data: hello\n\n",
			want:  []SSEEvent{{Data: "hello"}},
		},
		{
			name:  "event type and multiline data",
			input: "event: delta\ndata: one\ndata: two\n\n",
			want:  []SSEEvent{{Type: "delta", Data: "one\ntwo"}},
		},
		{
			name:  "crlf and no space after colon",
			input: "data:a\r\n\r\ndata:b\r\n\r\n",
			want:  []SSEEvent{{Data: "a"}, {Data: "b"}},
		},
		{
			name:  "comments and unknown fields ignored",
			input: ": ping\nid: 7\nretry: 10\nfoo: bar\ndata: x\n\n",
			want:  []SSEEvent{{Data: "x"}},
		},
		{
			name:  "final event without blank line",
			input: "data: first\n\ndata: last",
			want:  []SSEEvent{{Data: "first"}, {Data: "last"}},
		},
		{
			name:  "blank blocks skipped",
			input: "\n\n\ndata: x\n\n\n",
			want:  []SSEEvent{{Data: "x"}},
		},
		{
			name:  "empty stream",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collectEvents(t, tt.input))
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, stderrors.New("boom") }

func TestSSEScanner_ReadError(t *testing.T) {
	s := NewSSEScanner(failingReader{})
	assert.False(t, s.Next())
	assert.EqualError(t, s.Err(), "boom")
	assert.False(t, s.Next())
}
