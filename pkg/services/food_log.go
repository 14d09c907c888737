package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/ekaya-inc/food-agent/pkg/apperrors"
	"github.com/ekaya-inc/food-agent/pkg/filter"
	"github.com/ekaya-inc/food-agent/pkg/models"
	"github.com/ekaya-inc/food-agent/pkg/nutrition"
	"github.com/ekaya-inc/food-agent/pkg/repositories"
)

// Include values accepted by GetFoodLog.
const (
	IncludeAll    = "all"
	IncludeTotals = "totals"
)

// NoLogsMessage is returned when a date has no log file.
const NoLogsMessage = "No logs found for this date."

// LogFoodResult is the outcome of LogFood.
type LogFoodResult struct {
	Success      bool   `json:"success"`
	Date         string `json:"date"`
	EntriesAdded int    `json:"entries_added"`
	TotalEntries int    `json:"total_entries"`
	FilePath     string `json:"file_path"`
}

// GetFoodLogRequest selects and filters one day's log.
type GetFoodLogRequest struct {
	Date     string
	Include  string
	Filters  []string
	UseRegex bool
}

// FoodLogView is a day's log as presented to callers. Totals are rounded once from
// exact sums of the filtered items; item nutrition is rounded for display only.
type FoodLogView struct {
	Date    string
	Totals  map[string]float64
	Items   []models.ConsumedEntry
	Message string
	// HasItems is false when the caller asked for totals only.
	HasItems bool
}

// ReviseResult is the outcome of ReviseLogEntry.
type ReviseResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Date    string `json:"date"`
	Count   int    `json:"count"`
}

// FoodLogService appends, queries and revises daily food logs for a tenant.
type FoodLogService interface {
	LogFood(ctx context.Context, tenantID string, entries []models.ConsumedEntry, date string) (*LogFoodResult, error)
	GetFoodLog(ctx context.Context, tenantID string, req GetFoodLogRequest) (*FoodLogView, error)
	ReviseLogEntry(ctx context.Context, tenantID, foodName string, updates map[string]json.RawMessage, date string) (*ReviseResult, error)
}

type foodLogService struct {
	repo          repositories.FoodLogRepository
	dayCutoffHour int
	now           func() time.Time
	logger        *zap.Logger
}

// NewFoodLogService creates a FoodLogService. now defaults to time.Now when nil.
func NewFoodLogService(repo repositories.FoodLogRepository, dayCutoffHour int, now func() time.Time, logger *zap.Logger) FoodLogService {
	if now == nil {
		now = time.Now
	}
	return &foodLogService{
		repo:          repo,
		dayCutoffHour: dayCutoffHour,
		now:           now,
		logger:        logger.Named("food_log_service"),
	}
}

var _ FoodLogService = (*foodLogService)(nil)

func (s *foodLogService) LogFood(ctx context.Context, tenantID string, entries []models.ConsumedEntry, date string) (*LogFoodResult, error) {
	target, err := ResolveDate(date, s.now(), s.dayCutoffHour)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, apperrors.New(apperrors.ErrValidation, "At least one food entry is required.")
	}
	for i, entry := range entries {
		if strings.TrimSpace(entry.FoodName) == "" {
			return nil, apperrors.New(apperrors.ErrValidation, "Entry %d must have a 'food_name'.", i+1)
		}
	}

	result, err := s.repo.Append(ctx, tenantID, target, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to log food: %w", err)
	}

	s.logger.Debug("Logged food",
		zap.String("tenant", tenantID),
		zap.String("date", target),
		zap.Int("entries_added", result.EntriesAdded))

	return &LogFoodResult{
		Success:      true,
		Date:         target,
		EntriesAdded: result.EntriesAdded,
		TotalEntries: result.TotalEntries,
		FilePath:     result.FilePath,
	}, nil
}

func (s *foodLogService) GetFoodLog(ctx context.Context, tenantID string, req GetFoodLogRequest) (*FoodLogView, error) {
	target, err := ResolveDate(req.Date, s.now(), s.dayCutoffHour)
	if err != nil {
		return nil, err
	}

	include := req.Include
	if include == "" {
		include = IncludeAll
	}
	if include != IncludeAll && include != IncludeTotals {
		return nil, apperrors.New(apperrors.ErrValidation, "Invalid include value: %s. Use 'all' or 'totals'.", req.Include)
	}

	entries, exists, err := s.repo.Get(ctx, tenantID, target)
	if err != nil {
		return nil, fmt.Errorf("failed to read food log: %w", err)
	}
	if !exists {
		return &FoodLogView{
			Date:     target,
			Items:    []models.ConsumedEntry{},
			Message:  NoLogsMessage,
			HasItems: true,
		}, nil
	}

	matcher := filter.New(req.Filters, req.UseRegex, s.logger)
	filtered := make([]models.ConsumedEntry, 0, len(entries))
	for _, entry := range entries {
		if matcher.Match(entry.FoodName, entry.UserDescription) {
			filtered = append(filtered, entry)
		}
	}

	view := &FoodLogView{
		Date:   target,
		Totals: sumTotals(filtered),
	}
	if include != IncludeTotals {
		view.HasItems = true
		view.Items = make([]models.ConsumedEntry, len(filtered))
		for i, entry := range filtered {
			view.Items[i] = roundedForDisplay(entry)
		}
	}
	return view, nil
}

func (s *foodLogService) ReviseLogEntry(ctx context.Context, tenantID, foodName string, updates map[string]json.RawMessage, date string) (*ReviseResult, error) {
	target, err := ResolveDate(date, s.now(), s.dayCutoffHour)
	if err != nil {
		return nil, err
	}
	if foodName == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "food_name is required.")
	}

	count, err := s.repo.Revise(ctx, tenantID, target, foodName, updates)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_, exists, getErr := s.repo.Get(ctx, tenantID, target)
			if getErr == nil && !exists {
				return nil, apperrors.New(apperrors.ErrNotFound, "No logs found for %s.", target)
			}
			return nil, apperrors.New(apperrors.ErrNotFound, "No entry found with name '%s' on %s.", foodName, target)
		}
		if errors.Is(err, apperrors.ErrValidation) {
			return nil, apperrors.New(apperrors.ErrValidation, "Invalid updates for '%s': %v", foodName, err)
		}
		return nil, fmt.Errorf("failed to revise log entry: %w", err)
	}

	noun := "entry"
	if count != 1 {
		noun = inflection.Plural(noun)
	}

	return &ReviseResult{
		Success: true,
		Message: fmt.Sprintf("Updated %d %s for '%s' on %s.", count, noun, foodName, target),
		Date:    target,
		Count:   count,
	}, nil
}

// sumTotals adds up the tracked nutrients of entries and rounds each sum once.
// Missing and non-numeric values count as zero.
func sumTotals(entries []models.ConsumedEntry) map[string]float64 {
	sums := make(map[string]*float64, len(nutrition.TrackedNutrients))
	for _, key := range nutrition.TrackedNutrients {
		var total float64
		for _, entry := range entries {
			total += entry.Nutrition().Value(key)
		}
		sums[key] = &total
	}
	return nutrition.RoundAll(sums)
}

// roundedForDisplay returns a copy of entry with its consumed nutrition rounded.
// Null values are dropped and values that are not numbers pass through unchanged.
func roundedForDisplay(entry models.ConsumedEntry) models.ConsumedEntry {
	if entry.Consumed == nil || entry.Consumed.Nutrition == nil {
		return entry
	}

	numeric := entry.Consumed.Nutrition.Numeric()
	rounded := nutrition.RoundAll(numeric)

	display := make(models.Nutrients, len(entry.Consumed.Nutrition))
	for key, raw := range entry.Consumed.Nutrition {
		if v, ok := numeric[key]; ok {
			if v == nil {
				continue
			}
			data, err := json.Marshal(rounded[key])
			if err != nil {
				continue
			}
			display[key] = data
			continue
		}
		display[key] = raw
	}

	consumed := *entry.Consumed
	consumed.Nutrition = display
	entry.Consumed = &consumed
	return entry
}
