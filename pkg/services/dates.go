package services

import (
	"time"

	"github.com/ekaya-inc/food-agent/pkg/apperrors"
)

// DateLayout is the on-disk and wire format for log dates.
const DateLayout = "2006-01-02"

// EffectiveDate returns the calendar day that now belongs to. Before cutoffHour the
// previous day is still current, which lets a "day" run past midnight.
func EffectiveDate(now time.Time, cutoffHour int) time.Time {
	if now.Hour() < cutoffHour {
		now = now.AddDate(0, 0, -1)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// ResolveDate returns explicit if it is a valid YYYY-MM-DD date, or the effective
// date for now when explicit is empty.
func ResolveDate(explicit string, now time.Time, cutoffHour int) (string, error) {
	if explicit == "" {
		return EffectiveDate(now, cutoffHour).Format(DateLayout), nil
	}
	if _, err := time.Parse(DateLayout, explicit); err != nil {
		return "", apperrors.New(apperrors.ErrInvalidDate, "Invalid date format: %s. Use YYYY-MM-DD.", explicit)
	}
	return explicit, nil
}
