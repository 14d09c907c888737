package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/food-agent/pkg/apperrors"
	"github.com/ekaya-inc/food-agent/pkg/models"
	"github.com/ekaya-inc/food-agent/pkg/repositories"
)

// mockFoodLogRepository keeps logs in memory, keyed by tenant and date.
type mockFoodLogRepository struct {
	logs      map[string][]models.ConsumedEntry
	appendErr error
	reviseErr error

	appendedDate string
}

func newMockFoodLogRepository() *mockFoodLogRepository {
	return &mockFoodLogRepository{logs: make(map[string][]models.ConsumedEntry)}
}

func (m *mockFoodLogRepository) Append(ctx context.Context, tenantID, date string, entries []models.ConsumedEntry) (*repositories.AppendResult, error) {
	if m.appendErr != nil {
		return nil, m.appendErr
	}
	m.appendedDate = date
	key := tenantID + "/" + date
	m.logs[key] = append(m.logs[key], entries...)
	return &repositories.AppendResult{
		EntriesAdded: len(entries),
		TotalEntries: len(m.logs[key]),
		FilePath:     "/data/" + key,
	}, nil
}

func (m *mockFoodLogRepository) Get(ctx context.Context, tenantID, date string) ([]models.ConsumedEntry, bool, error) {
	entries, ok := m.logs[tenantID+"/"+date]
	return entries, ok, nil
}

func (m *mockFoodLogRepository) Revise(ctx context.Context, tenantID, date, name string, updates map[string]json.RawMessage) (int, error) {
	if m.reviseErr != nil {
		return 0, m.reviseErr
	}
	entries, ok := m.logs[tenantID+"/"+date]
	if !ok {
		return 0, apperrors.ErrNotFound
	}
	count := 0
	for i := range entries {
		if entries[i].FoodName != name {
			continue
		}
		if err := entries[i].Merge(updates); err != nil {
			return 0, err
		}
		count++
	}
	if count == 0 {
		return 0, apperrors.ErrNotFound
	}
	return count, nil
}

var _ repositories.FoodLogRepository = (*mockFoodLogRepository)(nil)

func mustEntry(t *testing.T, raw string) models.ConsumedEntry {
	t.Helper()
	var entry models.ConsumedEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entry))
	return entry
}

// serviceNow is 2024-03-10 02:00 local time, before a 4am cutoff.
var serviceNow = time.Date(2024, 3, 10, 2, 0, 0, 0, time.Local)

func newTestFoodLogService(repo *mockFoodLogRepository) FoodLogService {
	return NewFoodLogService(repo, 4, func() time.Time { return serviceNow }, zap.NewNop())
}

func TestFoodLogService_LogFood(t *testing.T) {
	repo := newMockFoodLogRepository()
	svc := newTestFoodLogService(repo)
	ctx := context.Background()

	result, err := svc.LogFood(ctx, "default", []models.ConsumedEntry{{FoodName: "Oatmeal"}}, "")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "2024-03-09", result.Date, "before the cutoff hour the log goes to yesterday")
	assert.Equal(t, 1, result.EntriesAdded)
	assert.Equal(t, 1, result.TotalEntries)
	assert.Equal(t, "/data/default/2024-03-09", result.FilePath)

	result, err = svc.LogFood(ctx, "default", []models.ConsumedEntry{{FoodName: "Tea"}, {FoodName: "Toast"}}, "2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, 2, result.EntriesAdded)
	assert.Equal(t, 3, result.TotalEntries)
}

func TestFoodLogService_LogFoodValidation(t *testing.T) {
	tests := []struct {
		name    string
		entries []models.ConsumedEntry
		date    string
		wantErr error
		wantMsg string
	}{
		{
			name:    "no entries",
			entries: nil,
			wantErr: apperrors.ErrValidation,
			wantMsg: "At least one food entry is required.",
		},
		{
			name:    "blank food name",
			entries: []models.ConsumedEntry{{FoodName: "Tea"}, {FoodName: "  "}},
			wantErr: apperrors.ErrValidation,
			wantMsg: "Entry 2 must have a 'food_name'.",
		},
		{
			name:    "bad date",
			entries: []models.ConsumedEntry{{FoodName: "Tea"}},
			date:    "2024-13-01",
			wantErr: apperrors.ErrInvalidDate,
			wantMsg: "Invalid date format: 2024-13-01. Use YYYY-MM-DD.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockFoodLogRepository()
			_, err := newTestFoodLogService(repo).LogFood(context.Background(), "default", tt.entries, tt.date)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantMsg, apperrors.Message(err))
			assert.Empty(t, repo.logs, "nothing is written when validation fails")
		})
	}
}

func TestFoodLogService_LogFoodStorageFailure(t *testing.T) {
	repo := newMockFoodLogRepository()
	repo.appendErr = errors.New("disk full")

	_, err := newTestFoodLogService(repo).LogFood(context.Background(), "default", []models.ConsumedEntry{{FoodName: "Tea"}}, "2024-03-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to log food")
	assert.False(t, errors.Is(err, apperrors.ErrValidation))
}

func TestFoodLogService_GetFoodLog(t *testing.T) {
	repo := newMockFoodLogRepository()
	repo.logs["default/2024-03-01"] = []models.ConsumedEntry{
		mustEntry(t, `{"food_name":"Oatmeal","user_description":"porridge","consumed":{"nutrition":{"calories":150.4,"fat":3.3,"protein":"n/a"}}}`),
		mustEntry(t, `{"food_name":"Whole Milk","consumed":{"nutrition":{"calories":103,"fat":2.4,"sodium":null}}}`),
		mustEntry(t, `{"food_name":"Black Coffee"}`),
	}
	svc := newTestFoodLogService(repo)
	ctx := context.Background()

	t.Run("all items with rounded totals", func(t *testing.T) {
		view, err := svc.GetFoodLog(ctx, "default", GetFoodLogRequest{Date: "2024-03-01"})
		require.NoError(t, err)

		assert.Equal(t, "2024-03-01", view.Date)
		assert.True(t, view.HasItems)
		assert.Empty(t, view.Message)
		require.Len(t, view.Items, 3)

		assert.Equal(t, map[string]float64{
			"calories": 250, "protein": 0, "carbs": 0, "fat": 6,
			"sodium": 0, "potassium": 0, "fiber": 0, "sugar": 0,
		}, view.Totals)

		oatmeal := view.Items[0].Consumed.Nutrition
		assert.JSONEq(t, `150`, string(oatmeal["calories"]))
		assert.JSONEq(t, `3.5`, string(oatmeal["fat"]))
		assert.JSONEq(t, `"n/a"`, string(oatmeal["protein"]), "non-numeric values pass through")

		milk := view.Items[1].Consumed.Nutrition
		assert.NotContains(t, milk, "sodium", "null values are dropped from display")

		assert.Nil(t, view.Items[2].Consumed)
	})

	t.Run("reads do not change stored values", func(t *testing.T) {
		_, err := svc.GetFoodLog(ctx, "default", GetFoodLogRequest{Date: "2024-03-01"})
		require.NoError(t, err)
		assert.JSONEq(t, `150.4`, string(repo.logs["default/2024-03-01"][0].Consumed.Nutrition["calories"]))
	})

	t.Run("filter narrows totals", func(t *testing.T) {
		view, err := svc.GetFoodLog(ctx, "default", GetFoodLogRequest{
			Date:    "2024-03-01",
			Filters: []string{"PORRIDGE"},
		})
		require.NoError(t, err)
		require.Len(t, view.Items, 1)
		assert.Equal(t, "Oatmeal", view.Items[0].FoodName)
		assert.Equal(t, float64(150), view.Totals["calories"])
	})

	t.Run("totals only", func(t *testing.T) {
		view, err := svc.GetFoodLog(ctx, "default", GetFoodLogRequest{Date: "2024-03-01", Include: IncludeTotals})
		require.NoError(t, err)
		assert.False(t, view.HasItems)
		assert.Nil(t, view.Items)
		assert.Equal(t, float64(250), view.Totals["calories"])
	})

	t.Run("unknown include", func(t *testing.T) {
		_, err := svc.GetFoodLog(ctx, "default", GetFoodLogRequest{Date: "2024-03-01", Include: "items"})
		require.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Equal(t, "Invalid include value: items. Use 'all' or 'totals'.", apperrors.Message(err))
	})

	t.Run("missing date", func(t *testing.T) {
		view, err := svc.GetFoodLog(ctx, "default", GetFoodLogRequest{Date: "2024-02-01"})
		require.NoError(t, err)
		assert.Equal(t, NoLogsMessage, view.Message)
		assert.NotNil(t, view.Items)
		assert.Empty(t, view.Items)
		assert.Nil(t, view.Totals)
	})

	t.Run("other tenant sees nothing", func(t *testing.T) {
		view, err := svc.GetFoodLog(ctx, "alice@example.com", GetFoodLogRequest{Date: "2024-03-01"})
		require.NoError(t, err)
		assert.Equal(t, NoLogsMessage, view.Message)
	})
}

func TestFoodLogService_ReviseLogEntry(t *testing.T) {
	ctx := context.Background()
	updates := map[string]json.RawMessage{"source_notes": json.RawMessage(`"corrected"`)}

	t.Run("pluralises the count", func(t *testing.T) {
		repo := newMockFoodLogRepository()
		repo.logs["default/2024-03-01"] = []models.ConsumedEntry{
			{FoodName: "Tea"}, {FoodName: "Toast"}, {FoodName: "Tea"},
		}
		svc := newTestFoodLogService(repo)

		result, err := svc.ReviseLogEntry(ctx, "default", "Tea", updates, "2024-03-01")
		require.NoError(t, err)
		assert.Equal(t, 2, result.Count)
		assert.Equal(t, "Updated 2 entries for 'Tea' on 2024-03-01.", result.Message)
		assert.Equal(t, "corrected", repo.logs["default/2024-03-01"][2].SourceNotes)

		result, err = svc.ReviseLogEntry(ctx, "default", "Toast", updates, "2024-03-01")
		require.NoError(t, err)
		assert.Equal(t, "Updated 1 entry for 'Toast' on 2024-03-01.", result.Message)
	})

	t.Run("missing log", func(t *testing.T) {
		svc := newTestFoodLogService(newMockFoodLogRepository())

		_, err := svc.ReviseLogEntry(ctx, "default", "Tea", updates, "2024-03-01")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.Equal(t, "No logs found for 2024-03-01.", apperrors.Message(err))
	})

	t.Run("missing entry", func(t *testing.T) {
		repo := newMockFoodLogRepository()
		repo.logs["default/2024-03-01"] = []models.ConsumedEntry{{FoodName: "Tea"}}
		svc := newTestFoodLogService(repo)

		_, err := svc.ReviseLogEntry(ctx, "default", "tea", updates, "2024-03-01")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.Equal(t, "No entry found with name 'tea' on 2024-03-01.", apperrors.Message(err))
	})

	t.Run("undecodable update", func(t *testing.T) {
		repo := newMockFoodLogRepository()
		repo.reviseErr = apperrors.New(apperrors.ErrValidation, "consumed must be an object")
		svc := newTestFoodLogService(repo)

		_, err := svc.ReviseLogEntry(ctx, "default", "Tea", updates, "2024-03-01")
		require.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Contains(t, apperrors.Message(err), "Invalid updates for 'Tea'")
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := newTestFoodLogService(newMockFoodLogRepository()).ReviseLogEntry(ctx, "default", "", updates, "")
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})
}
