// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ekaya-inc/food-agent/pkg/auth"
	"github.com/ekaya-inc/food-agent/pkg/logging"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventAuthFailure is logged when an MCP request presents no usable bearer token.
	EventAuthFailure SecurityEventType = "auth_failure"
	// EventUnknownToken is logged when a bearer token does not resolve to a user.
	EventUnknownToken SecurityEventType = "unknown_token"
	// EventAdminAuthFailure is logged when an admin request fails the shared-secret check.
	EventAdminAuthFailure SecurityEventType = "admin_auth_failure"
	// EventUserRegistered is logged when the admin API registers or replaces a token.
	EventUserRegistered SecurityEventType = "user_registered"
)

// SecurityEvent represents an auditable security event with all relevant context
// for SIEM ingestion and analysis.
type SecurityEvent struct {
	EventID   uuid.UUID         `json:"event_id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	TenantID  string            `json:"tenant_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Path      string            `json:"path,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// AuthFailureDetails describes a rejected request.
type AuthFailureDetails struct {
	Reason string `json:"reason"`
	// TokenHash identifies a rejected token without revealing it.
	TokenHash string `json:"token_hash,omitempty"`
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger namespace.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

var _ auth.AdminFailureRecorder = (*SecurityAuditor)(nil)

// LogAuthFailure records an MCP request rejected for a missing or malformed
// Authorization header. Logged at WARN level.
func (a *SecurityAuditor) LogAuthFailure(r *http.Request, reason string) {
	a.log(r.Context(), zap.WarnLevel, "Authentication failed", SecurityEvent{
		EventType: EventAuthFailure,
		ClientIP:  auth.ClientIP(r),
		Path:      r.URL.Path,
		Details:   AuthFailureDetails{Reason: reason},
		Severity:  "warning",
	})
}

// LogUnknownToken records a well-formed bearer token that matched no user.
// Repeated events from one client usually mean token guessing, so severity is critical.
func (a *SecurityAuditor) LogUnknownToken(r *http.Request, token string) {
	a.log(r.Context(), zap.ErrorLevel, "Unknown bearer token", SecurityEvent{
		EventType: EventUnknownToken,
		ClientIP:  auth.ClientIP(r),
		Path:      r.URL.Path,
		Details:   AuthFailureDetails{Reason: "unknown token", TokenHash: logging.MaskToken(token)},
		Severity:  "critical",
	})
}

// LogAdminAuthFailure records an admin request that failed the shared-secret check.
func (a *SecurityAuditor) LogAdminAuthFailure(r *http.Request, reason string) {
	a.log(r.Context(), zap.ErrorLevel, "Admin authentication failed", SecurityEvent{
		EventType: EventAdminAuthFailure,
		ClientIP:  auth.ClientIP(r),
		Path:      r.URL.Path,
		Details:   AuthFailureDetails{Reason: reason},
		Severity:  "critical",
	})
}

// LogUserRegistered records a token registration through the admin API.
func (a *SecurityAuditor) LogUserRegistered(r *http.Request, email, token string) {
	a.log(r.Context(), zap.InfoLevel, "User registered", SecurityEvent{
		EventType: EventUserRegistered,
		TenantID:  email,
		ClientIP:  auth.ClientIP(r),
		Path:      r.URL.Path,
		Details: map[string]string{
			"pat_hash": logging.MaskToken(token),
		},
		Severity: "info",
	})
}

func (a *SecurityAuditor) log(ctx context.Context, level zapcore.Level, msg string, event SecurityEvent) {
	event.EventID = uuid.New()
	event.Timestamp = time.Now().UTC()
	if event.TenantID == "" {
		event.TenantID = auth.GetTenantIDFromContext(ctx)
	}

	// Ignoring error as marshaling known types should never fail
	eventJSON, _ := json.Marshal(event)

	a.logger.Log(level, msg,
		zap.String("event_json", string(eventJSON)),
		zap.String("event_type", string(event.EventType)),
		zap.String("tenant", event.TenantID),
		zap.String("client_ip", event.ClientIP),
		zap.String("path", event.Path),
		zap.String("severity", event.Severity),
	)
}
