// Package nutrition applies label rounding rules to nutrient values at read time.
// Stored values are never rounded; callers round exact values or exact sums once.
package nutrition

import (
	"math"
	"strconv"
	"strings"
)

// TrackedNutrients are the nutrients summed into daily totals.
var TrackedNutrients = []string{"calories", "protein", "carbs", "fat", "sodium", "potassium", "fiber", "sugar"}

// roundTo rounds v to the nearest multiple of step. Ties go to the even multiple.
func roundTo(v, step float64) float64 {
	return math.RoundToEven(v/step) * step
}

// RoundCalories: <5 → 0, ≤50 → nearest 5, otherwise nearest 10.
func RoundCalories(v float64) float64 {
	switch {
	case v < 5:
		return 0
	case v <= 50:
		return roundTo(v, 5)
	default:
		return roundTo(v, 10)
	}
}

// RoundFat: <0.5 → 0, <5 → nearest 0.5, otherwise nearest 1.
func RoundFat(v float64) float64 {
	switch {
	case v < 0.5:
		return 0
	case v < 5:
		return roundTo(v, 0.5)
	default:
		return roundTo(v, 1)
	}
}

// RoundCholesterol: <2 → 0, otherwise nearest 5.
func RoundCholesterol(v float64) float64 {
	if v < 2 {
		return 0
	}
	return roundTo(v, 5)
}

// RoundSodium: <5 → 0, ≤140 → nearest 5, otherwise nearest 10. Potassium uses the same bands.
func RoundSodium(v float64) float64 {
	switch {
	case v < 5:
		return 0
	case v <= 140:
		return roundTo(v, 5)
	default:
		return roundTo(v, 10)
	}
}

// RoundPotassium uses the sodium bands.
func RoundPotassium(v float64) float64 {
	return RoundSodium(v)
}

// RoundMacro covers carbohydrates, fiber, sugar and protein: <0.5 → 0, otherwise nearest 1.
func RoundMacro(v float64) float64 {
	if v < 0.5 {
		return 0
	}
	return roundTo(v, 1)
}

// RoundGeneric rounds to one decimal place using the exact binary value of v, so
// 0.15 (stored as 0.1499...) rounds down and exact ties go to even.
func RoundGeneric(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// RoundValue rounds v according to the rule selected by the nutrient name.
func RoundValue(key string, v float64) float64 {
	k := strings.ToLower(key)
	switch {
	case strings.Contains(k, "calor"):
		return RoundCalories(v)
	case strings.Contains(k, "fat"):
		return RoundFat(v)
	case strings.Contains(k, "cholest"):
		return RoundCholesterol(v)
	case strings.Contains(k, "sodium"):
		return RoundSodium(v)
	case strings.Contains(k, "potass"):
		return RoundPotassium(v)
	case strings.Contains(k, "carb"), strings.Contains(k, "fiber"),
		strings.Contains(k, "sugar"), strings.Contains(k, "protein"):
		return RoundMacro(v)
	default:
		return RoundGeneric(v)
	}
}

// RoundAll rounds every value in values. Nil values are dropped rather than rounded to zero.
func RoundAll(values map[string]*float64) map[string]float64 {
	out := make(map[string]float64, len(values))
	for key, v := range values {
		if v == nil {
			continue
		}
		out[key] = RoundValue(key, *v)
	}
	return out
}
