package models

import (
	"encoding/json"

	"github.com/ekaya-inc/food-agent/pkg/jsonutil"
)

// Size describes a portion, e.g. {"amount": 1, "unit": "cup"}.
type Size struct {
	Amount *float64 `json:"amount,omitempty"`
	Unit   string   `json:"unit,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type sizeFields Size

func (s Size) MarshalJSON() ([]byte, error) {
	return encodeObject(sizeFields(s), s.Extra)
}

func (s *Size) UnmarshalJSON(data []byte) error {
	var out Size
	extra, err := decodeObject(data, map[string]fieldSetter{
		"amount": into(&out.Amount),
		"unit":   into(&out.Unit),
	})
	if err != nil {
		return err
	}
	out.Extra = extra
	*s = out
	return nil
}

// Nutrients maps nutrient names to their stored values. Values are kept as raw
// JSON so stored precision survives a rewrite untouched.
type Nutrients map[string]json.RawMessage

// Numeric returns the numeric view of the mapping. JSON null becomes a nil
// pointer; values that are not numbers are left out.
func (n Nutrients) Numeric() map[string]*float64 {
	out := make(map[string]*float64, len(n))
	for key, raw := range n {
		if jsonutil.IsNull(raw) {
			out[key] = nil
			continue
		}
		if v, ok := jsonutil.NumberValue(raw); ok {
			out[key] = &v
		}
	}
	return out
}

// Value returns the numeric value stored for key, or 0 if it is absent or not a number.
func (n Nutrients) Value(key string) float64 {
	v, _ := jsonutil.NumberValue(n[key])
	return v
}

// Serving is a catalog record's reference portion and its nutrition.
type Serving struct {
	Size      *Size     `json:"size,omitempty"`
	Nutrition Nutrients `json:"nutrition,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type servingFields Serving

func (s Serving) MarshalJSON() ([]byte, error) {
	return encodeObject(servingFields(s), s.Extra)
}

func (s *Serving) UnmarshalJSON(data []byte) error {
	var out Serving
	extra, err := decodeObject(data, map[string]fieldSetter{
		"size":      into(&out.Size),
		"nutrition": into(&out.Nutrition),
	})
	if err != nil {
		return err
	}
	out.Extra = extra
	*s = out
	return nil
}

// Consumed is the portion actually eaten in a log entry.
type Consumed struct {
	Size                *Size     `json:"size,omitempty"`
	StandardServings    *float64  `json:"standard_servings,omitempty"`
	Nutrition           Nutrients `json:"nutrition,omitempty"`
	VerifiedCalculation *bool     `json:"verified_calculation,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type consumedFields Consumed

func (c Consumed) MarshalJSON() ([]byte, error) {
	return encodeObject(consumedFields(c), c.Extra)
}

func (c *Consumed) UnmarshalJSON(data []byte) error {
	var out Consumed
	extra, err := decodeObject(data, map[string]fieldSetter{
		"size":                 into(&out.Size),
		"standard_servings":    into(&out.StandardServings),
		"nutrition":            into(&out.Nutrition),
		"verified_calculation": into(&out.VerifiedCalculation),
	})
	if err != nil {
		return err
	}
	out.Extra = extra
	*c = out
	return nil
}

// ConsumedEntry is one line of a daily food log. Entries have no identifier
// beyond their position in the per-date file and their food name.
type ConsumedEntry struct {
	FoodName        string    `json:"food_name"`
	UserDescription string    `json:"user_description,omitempty"`
	StandardServing *Serving  `json:"standard_serving,omitempty"`
	Consumed        *Consumed `json:"consumed,omitempty"`
	ConfidenceScore *float64  `json:"confidence_score,omitempty"`
	SourceNotes     string    `json:"source_notes,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type consumedEntryFields ConsumedEntry

func (e ConsumedEntry) MarshalJSON() ([]byte, error) {
	return encodeObject(consumedEntryFields(e), e.Extra)
}

func (e *ConsumedEntry) UnmarshalJSON(data []byte) error {
	var out ConsumedEntry
	extra, err := decodeObject(data, map[string]fieldSetter{
		"food_name":        flexibleString(&out.FoodName, false),
		"user_description": flexibleString(&out.UserDescription, true),
		"standard_serving": into(&out.StandardServing),
		"consumed":         into(&out.Consumed),
		"confidence_score": into(&out.ConfidenceScore),
		"source_notes":     flexibleString(&out.SourceNotes, true),
	})
	if err != nil {
		return err
	}
	out.Extra = extra
	*e = out
	return nil
}

// Merge shallow-merges updates into the entry.
func (e *ConsumedEntry) Merge(updates map[string]json.RawMessage) error {
	var merged ConsumedEntry
	if err := mergeObject(e, updates, &merged); err != nil {
		return err
	}
	*e = merged
	return nil
}

// Nutrition returns the consumed nutrition of the entry, or nil.
func (e ConsumedEntry) Nutrition() Nutrients {
	if e.Consumed == nil {
		return nil
	}
	return e.Consumed.Nutrition
}

// FoodRecord is a reusable catalog entry, unique per tenant by case-insensitive name.
type FoodRecord struct {
	FoodName        string   `json:"food_name"`
	StandardServing *Serving `json:"standard_serving,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	SourceNotes     string   `json:"source_notes,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type foodRecordFields FoodRecord

func (r FoodRecord) MarshalJSON() ([]byte, error) {
	return encodeObject(foodRecordFields(r), r.Extra)
}

func (r *FoodRecord) UnmarshalJSON(data []byte) error {
	var out FoodRecord
	extra, err := decodeObject(data, map[string]fieldSetter{
		"food_name":        flexibleString(&out.FoodName, false),
		"standard_serving": into(&out.StandardServing),
		"confidence_score": into(&out.ConfidenceScore),
		"source_notes":     flexibleString(&out.SourceNotes, true),
	})
	if err != nil {
		return err
	}
	out.Extra = extra
	*r = out
	return nil
}

// Merge shallow-merges updates into the record.
func (r *FoodRecord) Merge(updates map[string]json.RawMessage) error {
	var merged FoodRecord
	if err := mergeObject(r, updates, &merged); err != nil {
		return err
	}
	*r = merged
	return nil
}

// flexibleString reads a text field. Numbers, booleans and null are also read as
// text for matching, but like "" in an omitempty field they are kept verbatim
// for the rewrite. Arrays and objects are not text and go to Extra untouched.
func flexibleString(dst *string, omitEmpty bool) fieldSetter {
	return func(raw json.RawMessage) error {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			*dst = s
			if s == "" && omitEmpty {
				return errKeepRaw
			}
			return nil
		}
		if jsonutil.IsArrayOrObject(raw) {
			return errNotText
		}
		*dst = jsonutil.FlexibleStringValue(raw)
		return errKeepRaw
	}
}
