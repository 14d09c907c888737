package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// errKeepRaw is returned by a fieldSetter that filled its field but whose typed
	// field would not reproduce the stored value on encode.
	errKeepRaw = errors.New("value kept verbatim")
	errNotText = errors.New("value is not text")
)

// fieldSetter decodes one known key of a JSON object into its typed field.
type fieldSetter func(raw json.RawMessage) error

// into returns a fieldSetter that unmarshals into dst.
func into(dst any) fieldSetter {
	return func(raw json.RawMessage) error {
		return json.Unmarshal(raw, dst)
	}
}

// decodeObject splits data into its known fields and the rest. A known key whose
// setter fails is kept verbatim in the returned extras so a single odd value
// written by another client never makes a whole file unreadable.
func decodeObject(data []byte, fields map[string]fieldSetter) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("expected JSON object, got null")
	}

	var extra map[string]json.RawMessage
	for key, value := range raw {
		if set, ok := fields[key]; ok {
			if err := set(value); err == nil {
				continue
			}
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[key] = value
	}
	return extra, nil
}

// encodeObject marshals v and adds every extra key. Extras win over v's own output
// since they only hold values the typed fields could not reproduce.
func encodeObject(v any, extra map[string]json.RawMessage) ([]byte, error) {
	base, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return base, err
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(base, &obj); err != nil {
		return nil, err
	}
	for key, value := range extra {
		obj[key] = value
	}
	return json.Marshal(obj)
}

// mergeObject performs a shallow merge of updates into current and decodes the
// result into dst. Updated top-level keys replace existing ones wholesale.
func mergeObject(current any, updates map[string]json.RawMessage, dst json.Unmarshaler) error {
	data, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("encode current value: %w", err)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode current value: %w", err)
	}
	for key, value := range updates {
		obj[key] = value
	}

	merged, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("encode merged value: %w", err)
	}
	return dst.UnmarshalJSON(merged)
}
