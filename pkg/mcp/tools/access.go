// Package tools provides MCP tool implementations for the food agent.
package tools

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/ekaya-inc/food-agent/pkg/auth"
)

// ToolAccessError represents an actionable error that should be returned as a
// JSON success response to the MCP client, not as a Go error, so the model can
// see and act on it.
type ToolAccessError struct {
	Code    string
	Message string
	// MCPResult contains the pre-built MCP response for this error
	MCPResult *mcp.CallToolResult
}

func (e *ToolAccessError) Error() string {
	return e.Message
}

// AsToolAccessResult returns the MCP result carried by a ToolAccessError, or nil:
//
//	tenantID, err := AcquireToolAccess(ctx, deps, "my_tool")
//	if err != nil {
//	    if result := AsToolAccessResult(err); result != nil {
//	        return result, nil
//	    }
//	    return nil, err
//	}
func AsToolAccessResult(err error) *mcp.CallToolResult {
	var accessErr *ToolAccessError
	if errors.As(err, &accessErr) {
		return accessErr.MCPResult
	}
	return nil
}

// newToolAccessError creates a ToolAccessError with the given code and message.
func newToolAccessError(code, message string) *ToolAccessError {
	return &ToolAccessError{
		Code:      code,
		Message:   message,
		MCPResult: NewErrorResult(code, message),
	}
}

// ToolAccessDeps defines the common dependencies needed for tool access control.
type ToolAccessDeps interface {
	GetLogger() *zap.Logger
	TenantRequired() bool
}

// BaseMCPToolDeps provides the common dependencies that all MCP tools need.
// Tool-specific *Deps structs embed this.
type BaseMCPToolDeps struct {
	Logger *zap.Logger
	// RequireTenant rejects calls that did not pass through the auth middleware.
	// It is set for the HTTP transport and left false for local stdio use, where
	// every call acts as the default tenant.
	RequireTenant bool
}

// GetLogger implements ToolAccessDeps.
func (d *BaseMCPToolDeps) GetLogger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// TenantRequired implements ToolAccessDeps.
func (d *BaseMCPToolDeps) TenantRequired() bool { return d.RequireTenant }

// AcquireToolAccess resolves the tenant a tool call acts for.
func AcquireToolAccess(ctx context.Context, deps ToolAccessDeps, toolName string) (string, error) {
	if deps.TenantRequired() {
		tenantID, err := auth.RequireTenantIDFromContext(ctx)
		if err != nil {
			deps.GetLogger().Warn("Tool call without authenticated tenant", zap.String("tool", toolName))
			return "", newToolAccessError("authentication_required", "authentication required")
		}
		return tenantID, nil
	}
	return auth.TenantIDFromContext(ctx), nil
}
