package cli

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sysinsight/internal/errors"
	"github.com/rileyhilliard/sysinsight/internal/insight"
	"github.com/rileyhilliard/sysinsight/internal/report"
	"github.com/rileyhilliard/sysinsight/internal/snapshot"
	"github.com/rileyhilliard/sysinsight/internal/ui"
)

func writeExport(t *testing.T, name string) string {
	t.Helper()
	snap := snapshot.New(time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC))
	snap.Host = snapshot.Available(snapshot.Host{Hostname: "archived"})
	insights := []insight.Insight{{Rule: "cpu_high", Category: "cpu", Severity: "warning", Message: "High CPU usage detected: 93.0%"}}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, report.Export(path, report.NewDocument(snap, insights, "1.0.0")))
	return path
}

func TestShowExport(t *testing.T) {
	ui.DisableColors()

	tests := []struct {
		name   string
		file   string
		asJSON bool
		want   []string
	}{
		{name: "table", file: "r.json", want: []string{"archived", "High CPU usage detected: 93.0%"}},
		{name: "compressed table", file: "r.json.zst", want: []string{"archived"}},
		{name: "json", file: "r.json.zst", asJSON: true, want: []string{`"hostname": "archived"`, `"version": "1.0.0"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeExport(t, tt.file)

			var out bytes.Buffer
			require.NoError(t, showExport(&out, path, tt.asJSON, 80))
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestShowExport_Missing(t *testing.T) {
	var out bytes.Buffer
	err := showExport(&out, filepath.Join(t.TempDir(), "nope.json"), false, 80)

	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
	assert.Empty(t, out.String())
}
