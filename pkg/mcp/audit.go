package mcp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ekaya-inc/food-agent/pkg/auth"
	"github.com/ekaya-inc/food-agent/pkg/logging"
)

// Tool call event types.
const (
	EventToolCall  = "tool_call"
	EventToolError = "tool_error"
)

// Security levels attached to tool call events.
const (
	SecurityNormal  = "normal"
	SecurityWarning = "warning"
)

// ToolCallEvent is one audited MCP tool call.
type ToolCallEvent struct {
	EventID       uuid.UUID      `json:"event_id"`
	Timestamp     time.Time      `json:"timestamp"`
	EventType     string         `json:"event_type"`
	TenantID      string         `json:"tenant_id"`
	ToolName      string         `json:"tool_name"`
	RequestParams map[string]any `json:"request_params,omitempty"`
	WasSuccessful bool           `json:"was_successful"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	ResultSummary map[string]any `json:"result_summary,omitempty"`
	DurationMs    int            `json:"duration_ms"`
	SecurityLevel string         `json:"security_level"`
	SecurityFlags []string       `json:"security_flags,omitempty"`
}

// AuditLogger writes one structured log entry per MCP tool call.
type AuditLogger struct {
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewAuditLogger creates an AuditLogger that records MCP tool calls.
func NewAuditLogger(logger *zap.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger.Named("mcp-audit"),
	}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (a *AuditLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(a.beforeCallTool)
	hooks.AddAfterCallTool(a.afterCallTool)
	hooks.AddOnError(a.onError)
	return hooks
}

func (a *AuditLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	a.startTimes.Store(id, time.Now())
}

func (a *AuditLogger) afterCallTool(ctx context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	startTime, _ := a.loadAndDeleteStart(id)

	event := a.buildEvent(ctx, req)
	event.EventType = EventToolCall
	event.WasSuccessful = result == nil || !result.IsError
	event.DurationMs = int(time.Since(startTime).Milliseconds())
	event.ResultSummary = summarizeResult(result)

	classifyToolCallSecurity(event, result)

	a.record(event)
}

func (a *AuditLogger) onError(ctx context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}

	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	startTime, _ := a.loadAndDeleteStart(id)

	event := a.buildEvent(ctx, req)
	event.EventType = EventToolError
	event.WasSuccessful = false
	event.DurationMs = int(time.Since(startTime).Milliseconds())
	event.ErrorMessage = logging.SanitizeError(err)

	classifyErrorSecurity(event, event.ErrorMessage)

	a.record(event)
}

func (a *AuditLogger) loadAndDeleteStart(id any) (time.Time, bool) {
	if v, ok := a.startTimes.LoadAndDelete(id); ok {
		return v.(time.Time), true
	}
	return time.Now(), false
}

func (a *AuditLogger) buildEvent(ctx context.Context, req *mcplib.CallToolRequest) *ToolCallEvent {
	return &ToolCallEvent{
		EventID:       uuid.New(),
		Timestamp:     time.Now().UTC(),
		TenantID:      auth.TenantIDFromContext(ctx),
		ToolName:      req.Params.Name,
		RequestParams: sanitizeParams(req.Params.Arguments),
		SecurityLevel: SecurityNormal,
	}
}

// record writes the event as a single log entry. Failed calls and anything with a
// raised security level are logged at WARN so they survive an INFO threshold.
func (a *AuditLogger) record(event *ToolCallEvent) {
	level := zapcore.InfoLevel
	if !event.WasSuccessful || event.SecurityLevel != SecurityNormal {
		level = zapcore.WarnLevel
	}

	fields := []zap.Field{
		zap.String("event_id", event.EventID.String()),
		zap.String("event_type", event.EventType),
		zap.String("tenant", event.TenantID),
		zap.String("tool", event.ToolName),
		zap.Bool("success", event.WasSuccessful),
		zap.Int("duration_ms", event.DurationMs),
		zap.String("security_level", event.SecurityLevel),
	}
	if len(event.SecurityFlags) > 0 {
		fields = append(fields, zap.Strings("security_flags", event.SecurityFlags))
	}
	if event.ErrorMessage != "" {
		fields = append(fields, zap.String("error_message", event.ErrorMessage))
	}
	if len(event.RequestParams) > 0 {
		fields = append(fields, zap.Any("request_params", event.RequestParams))
	}
	if len(event.ResultSummary) > 0 {
		fields = append(fields, zap.Any("result_summary", event.ResultSummary))
	}

	a.logger.Log(level, "MCP tool call", fields...)
}

// maxParamSize is the maximum size of a string parameter kept in audit logs.
const maxParamSize = 2048

// maxPreviewSize bounds the result preview kept in the summary.
const maxPreviewSize = 200

var sensitiveKeyWords = map[string]bool{
	"password":    true,
	"secret":      true,
	"token":       true,
	"credential":  true,
	"credentials": true,
	"key":         true,
	"pat":         true,
}

// sanitizeParams sanitizes request parameters before they are logged.
// Applies: truncation, credential redaction, sensitive value hashing.
func sanitizeParams(args any) map[string]any {
	params, ok := args.(map[string]any)
	if !ok || len(params) == 0 {
		return nil
	}
	return sanitizeNestedParams(params)
}

// sanitizeValue applies the appropriate sanitization based on key name and value type.
func sanitizeValue(key string, value any) any {
	if isSensitiveKey(key) {
		return hashSensitiveValue(value)
	}

	switch val := value.(type) {
	case string:
		return sanitizeStringParam(val)
	case map[string]any:
		return sanitizeNestedParams(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitizeValue("", item)
		}
		return out
	default:
		return value
	}
}

func sanitizeStringParam(val string) string {
	return logging.TruncateString(logging.SanitizeText(val), maxParamSize)
}

func sanitizeNestedParams(params map[string]any) map[string]any {
	sanitized := make(map[string]any, len(params))
	for k, v := range params {
		sanitized[k] = sanitizeValue(k, v)
	}
	return sanitized
}

// isSensitiveKey matches whole underscore or dash separated words, so "pat"
// hits "user_pat" but not "path".
func isSensitiveKey(key string) bool {
	words := strings.FieldsFunc(strings.ToLower(key), func(r rune) bool { return r == '_' || r == '-' })
	for _, w := range words {
		if sensitiveKeyWords[w] {
			return true
		}
	}
	return false
}

// hashSensitiveValue returns a SHA-256 hash prefix for sensitive values,
// allowing correlation across audit entries without storing the actual value.
func hashSensitiveValue(value any) string {
	var str string
	switch v := value.(type) {
	case string:
		str = v
	default:
		str = fmt.Sprintf("%v", v)
	}
	hash := sha256.Sum256([]byte(str))
	return "sha256:" + hex.EncodeToString(hash[:8])
}

// summarizeResult creates a compact summary of the tool result.
func summarizeResult(result *mcplib.CallToolResult) map[string]any {
	if result == nil {
		return nil
	}

	summary := map[string]any{
		"is_error": result.IsError,
	}

	if len(result.Content) > 0 {
		summary["content_count"] = len(result.Content)
		for _, c := range result.Content {
			if tc, ok := c.(mcplib.TextContent); ok {
				text := tc.Text
				extractResultFields(text, summary)
				summary["preview"] = logging.TruncateString(text, maxPreviewSize)
				break
			}
		}
	}

	return summary
}

// extractResultFields copies the error code and item counts of a JSON tool
// response into summary without keeping the full payload.
func extractResultFields(text string, summary map[string]any) {
	var partial struct {
		Code         string `json:"code"`
		Count        *int   `json:"count"`
		EntriesAdded *int   `json:"entries_added"`
		TotalEntries *int   `json:"total_entries"`
	}
	if err := json.Unmarshal([]byte(text), &partial); err != nil {
		return
	}
	if partial.Code != "" {
		summary["error_code"] = partial.Code
	}
	if partial.Count != nil {
		summary["count"] = *partial.Count
	}
	if partial.EntriesAdded != nil {
		summary["entries_added"] = *partial.EntriesAdded
	}
	if partial.TotalEntries != nil {
		summary["total_entries"] = *partial.TotalEntries
	}
}

// classifyToolCallSecurity inspects a tool result for access problems reported
// as structured errors.
func classifyToolCallSecurity(event *ToolCallEvent, result *mcplib.CallToolResult) {
	if result == nil || !result.IsError {
		return
	}

	for _, c := range result.Content {
		tc, ok := c.(mcplib.TextContent)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(tc.Text), "authentication_required") {
			event.SecurityLevel = SecurityWarning
			event.SecurityFlags = append(event.SecurityFlags, "unauthorized_access")
			return
		}
	}
}

// classifyErrorSecurity inspects an error message and upgrades the event's
// security classification when it points at an access problem.
func classifyErrorSecurity(event *ToolCallEvent, errMsg string) {
	lower := strings.ToLower(errMsg)

	switch {
	case strings.Contains(lower, "authentication") || strings.Contains(lower, "unauthorized"):
		event.SecurityLevel = SecurityWarning
		event.SecurityFlags = append(event.SecurityFlags, "auth_failure")
	case strings.Contains(lower, "permission denied"):
		event.SecurityLevel = SecurityWarning
		event.SecurityFlags = append(event.SecurityFlags, "storage_permission")
	}
}
