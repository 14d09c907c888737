package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/food-agent/pkg/apperrors"
	"github.com/ekaya-inc/food-agent/pkg/models"
	"github.com/ekaya-inc/food-agent/pkg/storage"
)

// AppendResult reports the outcome of FoodLogRepository.Append.
type AppendResult struct {
	EntriesAdded int
	TotalEntries int
	FilePath     string
}

// FoodLogRepository stores one JSON array of entries per tenant and date.
// Dates must already be validated as YYYY-MM-DD.
type FoodLogRepository interface {
	// Append adds all entries to the date's log, creating it if needed.
	Append(ctx context.Context, tenantID, date string, entries []models.ConsumedEntry) (*AppendResult, error)
	// Get returns the date's entries and whether a log file exists for it.
	Get(ctx context.Context, tenantID, date string) ([]models.ConsumedEntry, bool, error)
	// Revise shallow-merges updates into every entry whose food_name equals name exactly.
	Revise(ctx context.Context, tenantID, date, name string, updates map[string]json.RawMessage) (int, error)
}

type foodLogRepository struct {
	layout storage.Layout
	locks  *storage.KeyedMutex
	logger *zap.Logger
}

// NewFoodLogRepository creates a file-backed FoodLogRepository.
func NewFoodLogRepository(layout storage.Layout, locks *storage.KeyedMutex, logger *zap.Logger) FoodLogRepository {
	return &foodLogRepository{
		layout: layout,
		locks:  locks,
		logger: logger.Named("food_log"),
	}
}

var _ FoodLogRepository = (*foodLogRepository)(nil)

func (r *foodLogRepository) Append(ctx context.Context, tenantID, date string, entries []models.ConsumedEntry) (*AppendResult, error) {
	path := r.layout.DailyLogPath(tenantID, date)
	unlock := r.locks.Lock(path)
	defer unlock()

	existing, _ := r.load(path)
	all := make([]storedElement[models.ConsumedEntry], 0, len(existing)+len(entries))
	all = append(all, existing...)
	all = append(all, wrapValues(entries)...)

	if err := storage.WriteJSONAtomic(ctx, path, all); err != nil {
		return nil, fmt.Errorf("failed to save food log: %w", err)
	}

	return &AppendResult{
		EntriesAdded: len(entries),
		TotalEntries: len(all),
		FilePath:     path,
	}, nil
}

func (r *foodLogRepository) Get(ctx context.Context, tenantID, date string) ([]models.ConsumedEntry, bool, error) {
	elems, exists := r.load(r.layout.DailyLogPath(tenantID, date))
	return values(elems), exists, nil
}

func (r *foodLogRepository) Revise(ctx context.Context, tenantID, date, name string, updates map[string]json.RawMessage) (int, error) {
	path := r.layout.DailyLogPath(tenantID, date)
	unlock := r.locks.Lock(path)
	defer unlock()

	elems, exists := r.load(path)
	if !exists {
		return 0, fmt.Errorf("%w: no log found for %s", apperrors.ErrNotFound, date)
	}

	count := 0
	for i := range elems {
		if !elems[i].decoded() || elems[i].value.FoodName != name {
			continue
		}
		// Merge into a copy so a failure leaves the stored file untouched.
		revised := elems[i].value
		if err := revised.Merge(updates); err != nil {
			return 0, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		elems[i].value = revised
		count++
	}

	if count == 0 {
		return 0, fmt.Errorf("%w: no entries named %q on %s", apperrors.ErrNotFound, name, date)
	}

	if err := storage.WriteJSONAtomic(ctx, path, elems); err != nil {
		return 0, fmt.Errorf("failed to save food log: %w", err)
	}
	return count, nil
}

// load reads the log at path. Elements that are not entries are kept for the next
// write; a file that is not a JSON array is logged and treated as an empty log.
func (r *foodLogRepository) load(path string) ([]storedElement[models.ConsumedEntry], bool) {
	elems, undecoded, exists, err := readStoredArray[models.ConsumedEntry](path)
	if err != nil {
		r.logger.Warn("Food log file unreadable, treating as empty",
			zap.String("path", path),
			zap.Error(err))
		return nil, exists
	}
	if undecoded > 0 {
		r.logger.Warn("Food log file has elements that are not entries",
			zap.String("path", path),
			zap.Int("count", undecoded))
	}
	return elems, exists
}
