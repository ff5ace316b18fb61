package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newLiveDisplay(buf *bytes.Buffer) *PhaseDisplay {
	pd := NewPhaseDisplay(buf)
	pd.SetLive(true)
	return pd
}

func TestNewPhaseDisplay_NotLiveForBuffers(t *testing.T) {
	var buf bytes.Buffer
	pd := NewPhaseDisplay(&buf)

	pd.RenderProgress("cpu")
	assert.Empty(t, buf.String(), "progress lines are only drawn on terminals")

	pd.RenderSuccess("cpu", 500*time.Millisecond)
	assert.NotContains(t, buf.String(), "\r")
	assert.Contains(t, buf.String(), "cpu")
}

func TestPhaseDisplayRenderProgress(t *testing.T) {
	var buf bytes.Buffer
	newLiveDisplay(&buf).RenderProgress("Collecting cpu")

	output := buf.String()
	assert.Contains(t, output, "Collecting cpu")
	assert.Contains(t, output, "...")
	assert.True(t, strings.HasPrefix(output, "\r"))
}

func TestPhaseDisplayRenderSuccess(t *testing.T) {
	var buf bytes.Buffer
	newLiveDisplay(&buf).RenderSuccess("memory", 300*time.Millisecond)

	output := buf.String()
	assert.Contains(t, output, SymbolComplete)
	assert.Contains(t, output, "memory")
	assert.Contains(t, output, "0.3s")
}

func TestPhaseDisplayRenderFailed(t *testing.T) {
	tests := []struct {
		name   string
		reason string
	}{
		{"with reason", "No GPU found"},
		{"without reason", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			newLiveDisplay(&buf).RenderFailed("gpu", 2300*time.Millisecond, tt.reason)

			output := buf.String()
			assert.Contains(t, output, SymbolFail)
			assert.Contains(t, output, "gpu")
			assert.Contains(t, output, "2.3s")
			if tt.reason != "" {
				assert.Contains(t, output, tt.reason)
			}
		})
	}
}

func TestPhaseDisplayRenderSkipped(t *testing.T) {
	var buf bytes.Buffer
	pd := NewPhaseDisplay(&buf)

	pd.RenderSkipped("sensors", "disabled")
	pd.RenderSkipped("scan", "")

	output := buf.String()
	assert.Contains(t, output, SymbolSkipped)
	assert.Contains(t, output, "(disabled)")
	assert.Contains(t, output, "scan")
}

func TestPhaseDisplayDivider(t *testing.T) {
	var buf bytes.Buffer
	NewPhaseDisplay(&buf).Divider()
	assert.Contains(t, buf.String(), strings.Repeat("━", DividerWidth))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{40 * time.Millisecond, "0.04s"},
		{300 * time.Millisecond, "0.3s"},
		{12500 * time.Millisecond, "12.5s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d))
	}
}
