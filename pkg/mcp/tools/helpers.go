package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// trimString removes leading and trailing whitespace from a string.
// This is a common helper used across MCP tool parameter validation.
func trimString(s string) string {
	return strings.TrimSpace(s)
}

// toolArguments returns the request arguments as a map, or an empty map.
func toolArguments(req mcp.CallToolRequest) map[string]any {
	if args, ok := req.Params.Arguments.(map[string]any); ok {
		return args
	}
	return map[string]any{}
}

// getOptionalString extracts an optional string argument from the request.
func getOptionalString(req mcp.CallToolRequest, key string) string {
	val, _ := toolArguments(req)[key].(string)
	return val
}

// getOptionalBool extracts an optional boolean parameter from the request.
func getOptionalBool(req mcp.CallToolRequest, key string) (bool, bool) {
	val, ok := toolArguments(req)[key].(bool)
	return val, ok
}

// extractArrayParam returns args[key] as an array. Some clients send arrays as
// stringified JSON; those are parsed and logged at WARN so the client can be fixed.
// An absent key returns nil, nil.
func extractArrayParam(args map[string]any, key string, logger *zap.Logger) ([]any, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}

	switch v := raw.(type) {
	case []any:
		return v, nil
	case string:
		var parsed []any
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			return nil, fmt.Errorf("parameter %q could not be parsed as an array; send a native JSON array", key)
		}
		if parsed == nil {
			parsed = []any{}
		}
		if logger != nil {
			logger.Warn("Parsed stringified JSON array parameter", zap.String("param", key))
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("parameter %q must be an array, got %T", key, raw)
	}
}

// extractStringSlice returns args[key] as a slice of strings.
func extractStringSlice(args map[string]any, key string, logger *zap.Logger) ([]string, error) {
	items, err := extractArrayParam(args, key, logger)
	if err != nil || items == nil {
		return nil, err
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("parameter %q: element %d must be a string, got %T", key, i, item)
		}
		out = append(out, s)
	}
	return out, nil
}

// extractFilterTerms accepts a filter given as a single string or as a list of strings.
func extractFilterTerms(args map[string]any, key string, logger *zap.Logger) ([]string, error) {
	if s, ok := args[key].(string); ok && !strings.HasPrefix(strings.TrimSpace(s), "[") {
		if trimString(s) == "" {
			return nil, nil
		}
		return []string{s}, nil
	}
	return extractStringSlice(args, key, logger)
}

// extractObjectParam returns args[key] as a map of raw JSON values. Stringified
// objects are accepted the same way extractArrayParam accepts stringified arrays.
func extractObjectParam(args map[string]any, key string, logger *zap.Logger) (map[string]json.RawMessage, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}

	var data []byte
	switch v := raw.(type) {
	case map[string]any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("parameter %q could not be encoded: %w", key, err)
		}
		data = encoded
	case string:
		data = []byte(v)
		if logger != nil {
			logger.Warn("Parsed stringified JSON object parameter", zap.String("param", key))
		}
	default:
		return nil, fmt.Errorf("parameter %q must be an object, got %T", key, raw)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("parameter %q could not be parsed as an object; send a native JSON object", key)
	}
	return obj, nil
}

// decodeInto converts a decoded argument value into dst by round-tripping it through JSON.
func decodeInto(value any, dst any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// jsonResult marshals v into a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
