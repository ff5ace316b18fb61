package cli

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withBuildInfo swaps the ldflags-populated globals for one test.
func withBuildInfo(t *testing.T, v, c, d string) {
	t.Helper()
	oldVersion, oldCommit, oldDate := version, commit, date
	t.Cleanup(func() { version, commit, date = oldVersion, oldCommit, oldDate })
	SetVersionInfo(v, c, d)
}

func TestPrintVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		short   bool
		want    []string
		notWant []string
	}{
		{
			name:    "release",
			version: "1.2.3",
			want: []string{
				"sysinsight v1.2.3\n",
				"commit: abc1234\n",
				"built: 2026-03-01T09:30:00Z\n",
				"go: " + runtime.Version(),
				"os/arch: " + runtime.GOOS + "/" + runtime.GOARCH,
			},
		},
		{
			name:    "dev build keeps bare name",
			version: "dev",
			want:    []string{"sysinsight dev\n"},
			notWant: []string{"vdev"},
		},
		{
			name:    "short prints the raw version only",
			version: "1.2.3",
			short:   true,
			notWant: []string{"sysinsight", "commit:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuildInfo(t, tt.version, "abc1234", "2026-03-01T09:30:00Z")

			var buf bytes.Buffer
			printVersion(&buf, tt.short)

			out := buf.String()
			if tt.short {
				assert.Equal(t, tt.version+"\n", out)
			}
			for _, s := range tt.want {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestVersionCmd_ShortFlag(t *testing.T) {
	withBuildInfo(t, "0.4.0", "none", "unknown")

	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	t.Cleanup(func() {
		versionCmd.SetOut(nil)
		versionShort = false
	})

	require.NoError(t, versionCmd.Flags().Set("short", "true"))
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "0.4.0\n", buf.String())
}

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"dev", "dev"},
		{"1.2.3", "v1.2.3"},
		{"v1.2.3", "v1.2.3"},
		{"1.2.3-beta.1", "v1.2.3-beta.1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatVersion(tt.in), "formatVersion(%q)", tt.in)
	}
}
