// Package mcpauth provides MCP-specific authentication middleware.
// It resolves personal access tokens to tenants and answers failures with
// RFC 6750 Bearer token error responses.
package mcpauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/food-agent/pkg/apperrors"
	"github.com/ekaya-inc/food-agent/pkg/auth"
)

// TokenAuthenticator resolves a bearer token to its tenant ID.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// FailureRecorder records rejected MCP requests.
type FailureRecorder interface {
	LogAuthFailure(r *http.Request, reason string)
	LogUnknownToken(r *http.Request, token string)
}

// Middleware provides MCP-specific authentication middleware.
type Middleware struct {
	authenticator TokenAuthenticator
	recorder      FailureRecorder
	logger        *zap.Logger
}

// NewMiddleware creates a new MCP auth middleware. recorder may be nil.
func NewMiddleware(authenticator TokenAuthenticator, recorder FailureRecorder, logger *zap.Logger) *Middleware {
	return &Middleware{
		authenticator: authenticator,
		recorder:      recorder,
		logger:        logger,
	}
}

// RequireAuth resolves the bearer token to a tenant and injects it into the
// request context. A missing or malformed header is answered with 401, a token
// that matches no user with 403.
func (m *Middleware) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.ExtractBearerToken(r)
			if err != nil {
				m.logger.Debug("MCP auth failed: invalid or missing token",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				if m.recorder != nil {
					m.recorder.LogAuthFailure(r, err.Error())
				}
				m.writeWWWAuthenticate(w, http.StatusUnauthorized, "invalid_request", "A bearer token is required", "Unauthorized")
				return
			}

			tenantID, err := m.authenticator.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					m.logger.Warn("MCP auth failed: unknown token", zap.String("path", r.URL.Path))
					if m.recorder != nil {
						m.recorder.LogUnknownToken(r, token)
					}
					m.writeWWWAuthenticate(w, http.StatusForbidden, "invalid_token", "The access token is not recognized", "Forbidden")
					return
				}
				m.logger.Error("MCP auth failed: token lookup error",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Internal Server Error"})
				return
			}

			ctx := auth.WithTenantID(r.Context(), tenantID)
			ctx = auth.WithToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeWWWAuthenticate writes an RFC 6750 Bearer token error response.
// See: https://datatracker.ietf.org/doc/html/rfc6750#section-3
func (m *Middleware) writeWWWAuthenticate(w http.ResponseWriter, status int, errorCode, description, body string) {
	headerValue := `Bearer error="` + errorCode + `", error_description="` + description + `"`
	w.Header().Set("WWW-Authenticate", headerValue)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": body})
}
