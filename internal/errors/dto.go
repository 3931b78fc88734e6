package errors

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code          string         `json:"code"`
	Display       string         `json:"message"`
	InternalError string         `json:"internal_error,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}

// NewErrorResponse builds the wire representation of an error: the stable
// machine code, the user-facing hint, and any reportable details attached
// through the builder.
func NewErrorResponse(err error) *ErrorResponse {
	if err == nil {
		return nil
	}

	detail := ErrorDetail{
		Code:          ErrorCode(err),
		Display:       errors.FlattenHints(err),
		InternalError: err.Error(),
	}

	for _, d := range errors.GetSafeDetails(err).SafeDetails {
		payload, ok := strings.CutPrefix(d, "__json__:")
		if !ok {
			continue
		}
		var details map[string]any
		if jsonErr := json.Unmarshal([]byte(payload), &details); jsonErr == nil {
			detail.Details = details
			break
		}
	}

	return &ErrorResponse{Success: false, Error: detail}
}
