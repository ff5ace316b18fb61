package cli

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rileyhilliard/sysinsight/internal/errors"
)

// Machine mode flag - when true, outputs JSON and suppresses human-friendly decorations
var machineMode bool

// JSONEnvelope wraps a failed --json run so scripts always get parseable
// output. Successful runs print the export document itself.
type JSONEnvelope struct {
	Success bool       `json:"success"`
	Error   *JSONError `json:"error,omitempty"`
}

// JSONError provides structured error information for machine parsing.
type JSONError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
	Status     int         `json:"status,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}

// Error codes for machine-readable output.
const (
	ErrCodeConfigNotFound    = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid     = "CONFIG_INVALID"
	ErrCodeMissingCredential = "MISSING_CREDENTIALS"
	ErrCodeInvalidSubnet     = "INVALID_SUBNET"
	ErrCodeCollectFailed     = "COLLECT_FAILED"
	ErrCodeExportFailed      = "EXPORT_FAILED"
	ErrCodeRemoteFailed      = "REMOTE_FAILED"
	ErrCodeUnknown           = "UNKNOWN"
)

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: false, Error: ErrorToJSON(err)})
}

// writeJSONEnvelope writes the envelope with consistent formatting.
func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON converts a Go error to a JSONError with appropriate code mapping.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	if siErr, ok := errors.AsError(err); ok {
		out := &JSONError{
			Code:       mapErrorCode(siErr.Code, siErr.Message),
			Message:    siErr.Message,
			Suggestion: siErr.Suggestion,
			Status:     siErr.Status,
		}
		if siErr.Cause != nil {
			out.Details = map[string]interface{}{"cause": siErr.Cause.Error()}
		}
		return out
	}

	return &JSONError{
		Code:    ErrCodeUnknown,
		Message: err.Error(),
	}
}

// mapErrorCode maps internal error codes to machine-readable codes.
func mapErrorCode(internalCode, message string) string {
	msgLower := strings.ToLower(message)

	switch internalCode {
	case errors.ErrConfig:
		switch {
		case strings.Contains(msgLower, "not found") || strings.Contains(msgLower, "couldn't find"):
			return ErrCodeConfigNotFound
		case strings.Contains(msgLower, "api key"):
			return ErrCodeMissingCredential
		case strings.Contains(msgLower, "subnet"):
			return ErrCodeInvalidSubnet
		}
		return ErrCodeConfigInvalid
	case errors.ErrCollect:
		return ErrCodeCollectFailed
	case errors.ErrIO:
		return ErrCodeExportFailed
	case errors.ErrRemote:
		return ErrCodeRemoteFailed
	}

	return ErrCodeUnknown
}

