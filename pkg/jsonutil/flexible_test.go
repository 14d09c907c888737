package jsonutil

import (
	"encoding/json"
	"testing"
)

func TestFlexibleStringValue(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  string
	}{
		{
			name:  "string value",
			input: json.RawMessage(`"hello"`),
			want:  "hello",
		},
		{
			name:  "integer value",
			input: json.RawMessage(`42`),
			want:  "42",
		},
		{
			name:  "float value",
			input: json.RawMessage(`3.14`),
			want:  "3.14",
		},
		{
			name:  "boolean true",
			input: json.RawMessage(`true`),
			want:  "true",
		},
		{
			name:  "boolean false",
			input: json.RawMessage(`false`),
			want:  "false",
		},
		{
			name:  "null value",
			input: json.RawMessage(`null`),
			want:  "",
		},
		{
			name:  "empty raw message",
			input: json.RawMessage{},
			want:  "",
		},
		{
			name:  "nil raw message",
			input: nil,
			want:  "",
		},
		{
			name:  "large integer preserves precision",
			input: json.RawMessage(`9007199254740992`),
			want:  "9007199254740992",
		},
		{
			name:  "nested object falls back to raw string",
			input: json.RawMessage(`{"key":"value"}`),
			want:  `{"key":"value"}`,
		},
		{
			name:  "array falls back to raw string",
			input: json.RawMessage(`[1,2,3]`),
			want:  `[1,2,3]`,
		},
		{
			name:  "negative integer",
			input: json.RawMessage(`-7`),
			want:  "-7",
		},
		{
			name:  "zero",
			input: json.RawMessage(`0`),
			want:  "0",
		},
		{
			name:  "empty string",
			input: json.RawMessage(`""`),
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlexibleStringValue(tt.input)
			if got != tt.want {
				t.Errorf("FlexibleStringValue(%s) = %q, want %q", string(tt.input), got, tt.want)
			}
		})
	}
}

func TestNumberValue(t *testing.T) {
	tests := []struct {
		name   string
		input  json.RawMessage
		want   float64
		wantOK bool
	}{
		{name: "integer", input: json.RawMessage(`95`), want: 95, wantOK: true},
		{name: "float", input: json.RawMessage(`0.3`), want: 0.3, wantOK: true},
		{name: "negative", input: json.RawMessage(`-1.5`), want: -1.5, wantOK: true},
		{name: "surrounding whitespace", input: json.RawMessage(" 12 "), want: 12, wantOK: true},
		{name: "quoted number is not numeric", input: json.RawMessage(`"12"`), wantOK: false},
		{name: "boolean", input: json.RawMessage(`true`), wantOK: false},
		{name: "null", input: json.RawMessage(`null`), wantOK: false},
		{name: "object", input: json.RawMessage(`{"a":1}`), wantOK: false},
		{name: "empty", input: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NumberValue(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("NumberValue(%s) ok = %v, want %v", string(tt.input), ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("NumberValue(%s) = %v, want %v", string(tt.input), got, tt.want)
			}
		})
	}
}

func TestIsNull(t *testing.T) {
	if !IsNull(nil) || !IsNull(json.RawMessage(`null`)) || !IsNull(json.RawMessage(`  null `)) {
		t.Error("expected absent and null values to be null")
	}
	if IsNull(json.RawMessage(`0`)) || IsNull(json.RawMessage(`""`)) {
		t.Error("zero and empty string are not null")
	}
}

func TestIsArrayOrObject(t *testing.T) {
	if !IsArrayOrObject(json.RawMessage(` ["a"]`)) || !IsArrayOrObject(json.RawMessage(`{}`)) {
		t.Error("expected arrays and objects to be detected")
	}
	if IsArrayOrObject(nil) || IsArrayOrObject(json.RawMessage(`"[x]"`)) || IsArrayOrObject(json.RawMessage(`null`)) {
		t.Error("strings, null and absent values are not arrays or objects")
	}
}
