// Package auth provides request authentication for the HTTP surface: bearer
// token extraction, tenant context helpers, and the admin shared-secret guard.
//
// Example usage in a tool handler:
//
//	func (h *handler) handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
//	    tenantID := auth.TenantIDFromContext(ctx)
//	    view, err := h.foodLog.GetFoodLog(ctx, tenantID, request)
//	    // ...
//	}
package auth

import (
	"context"
	"fmt"

	"github.com/ekaya-inc/food-agent/pkg/storage"
)

type contextKey string

const (
	// TenantKey is the context key for the authenticated tenant ID.
	TenantKey contextKey = "tenant_id"
	// TokenKey is the context key for the raw bearer token.
	TokenKey contextKey = "token"
)

// WithTenantID returns a copy of ctx carrying tenantID.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantKey, tenantID)
}

// WithToken returns a copy of ctx carrying the bearer token that authenticated the request.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}

// GetTenantIDFromContext returns the tenant set by the auth middleware, or "" when none was set.
func GetTenantIDFromContext(ctx context.Context) string {
	tenantID, _ := ctx.Value(TenantKey).(string)
	return tenantID
}

// TenantIDFromContext returns the authenticated tenant, falling back to the
// default tenant when no auth middleware ran (local stdio mode).
func TenantIDFromContext(ctx context.Context) string {
	if tenantID := GetTenantIDFromContext(ctx); tenantID != "" {
		return tenantID
	}
	return storage.DefaultTenant
}

// RequireTenantIDFromContext returns the tenant set by the auth middleware and
// an error if the request was never authenticated.
func RequireTenantIDFromContext(ctx context.Context) (string, error) {
	tenantID := GetTenantIDFromContext(ctx)
	if tenantID == "" {
		return "", fmt.Errorf("tenant ID not found in context")
	}
	return tenantID, nil
}

// GetTokenFromContext returns the bearer token of the request, or "".
func GetTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(TokenKey).(string)
	return token
}
