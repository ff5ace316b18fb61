package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrCollect,
		ErrIO,
		ErrRemote,
	}

	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "'10.0.0.0/33' is not a valid subnet",
			suggestion: "Use CIDR notation, like 192.168.1.0/24",
		},
		{
			name:       "collect error",
			code:       ErrCollect,
			message:    "No GPU found",
			suggestion: "",
		},
		{
			name:       "io error",
			code:       ErrIO,
			message:    "Couldn't write export to /root/out.json",
			suggestion: "Check the directory exists and is writable",
		},
		{
			name:       "remote error",
			code:       ErrRemote,
			message:    "Language model request failed",
			suggestion: "Try again in a moment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
			assert.Zero(t, err.Status)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name          string
		err           *Error
		expectedParts []string
		notExpected   []string
	}{
		{
			name: "basic error formatting",
			err:  New(ErrConfig, "Invalid configuration", "Check .sysinsight.yaml syntax"),
			expectedParts: []string{
				"Invalid configuration",
				"Check .sysinsight.yaml syntax",
			},
		},
		{
			name: "error with failure symbol",
			err:  New(ErrRemote, "Request failed", "Try again"),
			expectedParts: []string{
				"✗",
				"Request failed",
			},
		},
		{
			name: "error without suggestion",
			err:  New(ErrIO, "Write failed", ""),
			expectedParts: []string{
				"Write failed",
			},
			notExpected: []string{
				"\n\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := tt.err.Error()

			for _, part := range tt.expectedParts {
				assert.Contains(t, output, part, "output should contain %q", part)
			}
			for _, part := range tt.notExpected {
				assert.NotContains(t, output, part, "output should not contain %q", part)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("sensors not supported")
	wrapped := Wrap(cause, "Couldn't read sensors")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrCollect, wrapped.Code, "Wrap should default to ErrCollect code")
	assert.Equal(t, "Couldn't read sensors", wrapped.Message)
	assert.Equal(t, cause, wrapped.Cause)
}

func TestWrapWithCode(t *testing.T) {
	cause := errors.New("permission denied")
	wrapped := WrapWithCode(cause, ErrIO, "Failed to write export", "Pick another path")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrIO, wrapped.Code)
	assert.Equal(t, "Failed to write export", wrapped.Message)
	assert.Equal(t, "Pick another path", wrapped.Suggestion)
	assert.Equal(t, cause, wrapped.Cause)
	assert.Contains(t, wrapped.Error(), "permission denied")
}

func TestNewRemote(t *testing.T) {
	cause := errors.New("rate limited")
	err := NewRemote(429, cause, "Language model request failed", "")

	assert.Equal(t, ErrRemote, err.Code)
	assert.Equal(t, 429, err.Status)
	assert.Equal(t, 429, StatusOf(err))
	assert.True(t, errors.Is(err, cause))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, 0, StatusOf(nil))
	assert.Equal(t, 0, StatusOf(errors.New("plain")))
	assert.Equal(t, 0, StatusOf(New(ErrIO, "x", "")))
	assert.Equal(t, 503, StatusOf(NewRemote(503, nil, "down", "")))
}

func TestErrorsAs(t *testing.T) {
	wrapped := New(ErrConfig, "Config error", "Fix config")

	var siErr *Error
	ok := errors.As(wrapped, &siErr)

	assert.True(t, ok)
	assert.Equal(t, ErrConfig, siErr.Code)
}

func TestIsCode(t *testing.T) {
	err := New(ErrConfig, "Config error", "")

	assert.True(t, IsCode(err, ErrConfig))
	assert.False(t, IsCode(err, ErrIO))
	assert.False(t, IsCode(errors.New("standard error"), ErrConfig))
	assert.False(t, IsCode(nil, ErrConfig))
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"config is fatal", New(ErrConfig, "bad subnet", ""), true},
		{"collect is not fatal", New(ErrCollect, "no gpu", ""), false},
		{"io is not fatal", New(ErrIO, "disk full", ""), false},
		{"remote is not fatal", NewRemote(500, nil, "boom", ""), false},
		{"plain error is not fatal", errors.New("plain"), false},
		{"nil is not fatal", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFatal(tt.err))
		})
	}
}

func TestErrorMessageStructure(t *testing.T) {
	err := WrapWithCode(
		errors.New("dial tcp: i/o timeout"),
		ErrRemote,
		"Couldn't reach the language model",
		"Check your network connection",
	)

	lines := strings.Split(err.Error(), "\n")

	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[0]), "✗"), "First line should start with failure symbol")
	assert.Contains(t, lines[0], "Couldn't reach the language model")
}

func TestAsError(t *testing.T) {
	inner := New(ErrCollect, "no gpu", "")
	wrapped := fmt.Errorf("gather: %w", inner)

	got, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, got)

	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)
}
