package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/ekaya-inc/food-agent/pkg/apperrors"
)

// Error codes returned in structured tool errors.
const (
	CodeNotFound        = "not_found"
	CodeDuplicateKey    = "duplicate_key"
	CodeValidationError = "validation_error"
	CodeInvalidDate     = "invalid_date"
)

// ErrorResponse represents a structured error in tool results.
// This is used to return actionable error information to the model
// as a successful tool result, ensuring error details are visible
// rather than being swallowed by the MCP client.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for recoverable/actionable errors that the model should see and
// can potentially fix (e.g., invalid parameters, food not found).
//
// Do NOT use this for system failures (unwritable data root, internal
// errors) - those should still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// ErrorCode maps an application error to its tool error code. It returns ""
// when err is not one of the application sentinels.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, apperrors.ErrInvalidDate):
		return CodeInvalidDate
	case errors.Is(err, apperrors.ErrValidation):
		return CodeValidationError
	case errors.Is(err, apperrors.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return CodeDuplicateKey
	}
	return ""
}

// NewAppErrorResult converts an application error into a structured error result.
// Returns nil if the error is not actionable (caller should return a Go error instead).
//
// Example usage:
//
//	view, err := h.catalog.Remove(ctx, tenantID, name)
//	if err != nil {
//	    if errResult := NewAppErrorResult(err); errResult != nil {
//	        return errResult, nil
//	    }
//	    return nil, err
//	}
func NewAppErrorResult(err error) *mcp.CallToolResult {
	code := ErrorCode(err)
	if code == "" {
		return nil
	}
	return NewErrorResult(code, apperrors.Message(err))
}

// IsInputError returns true if the error was caused by caller input rather than
// a server failure. These errors should be logged at DEBUG level, not ERROR level.
func IsInputError(err error) bool {
	return ErrorCode(err) != ""
}

// HandleServiceError turns a service error into a structured result when it is
// actionable and into a Go error otherwise.
func HandleServiceError(err error, toolName string, logger *zap.Logger) (*mcp.CallToolResult, error) {
	if result := NewAppErrorResult(err); result != nil {
		logger.Debug("Tool input error",
			zap.String("tool", toolName),
			zap.String("code", ErrorCode(err)),
			zap.String("error", apperrors.Message(err)))
		return result, nil
	}
	logger.Error("Tool failed", zap.String("tool", toolName), zap.Error(err))
	return nil, fmt.Errorf("%s failed: %w", toolName, err)
}
