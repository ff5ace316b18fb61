package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"bare tilde", "~", home},
		{"tilde path", "~/reports/today.json", filepath.Join(home, "reports/today.json")},
		{"absolute path untouched", "/tmp/out.json", "/tmp/out.json"},
		{"relative path untouched", "out.json", "out.json"},
		{"other user not supported", "~bob/out.json", "~bob/out.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandTilde(tt.input))
		})
	}
}
