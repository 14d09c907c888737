package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/food-agent/pkg/apperrors"
	"github.com/ekaya-inc/food-agent/pkg/models"
	"github.com/ekaya-inc/food-agent/pkg/storage"
)

// CatalogRepository stores a tenant's food catalog as one JSON array file.
// Every mutation reads the whole file, changes it in memory and writes it back.
type CatalogRepository interface {
	List(ctx context.Context, tenantID string) ([]models.FoodRecord, error)
	// Create appends record, failing with ErrConflict if the name exists in any case.
	Create(ctx context.Context, tenantID string, record models.FoodRecord) error
	// Update shallow-merges updates into the first case-insensitive name match. A rename
	// that collides with another record fails with ErrConflict.
	Update(ctx context.Context, tenantID, name string, updates map[string]json.RawMessage) (*models.FoodRecord, error)
	// Delete removes every case-insensitive name match and returns how many were removed.
	Delete(ctx context.Context, tenantID, name string) (int, error)
}

type catalogRepository struct {
	layout storage.Layout
	locks  *storage.KeyedMutex
	logger *zap.Logger
}

// NewCatalogRepository creates a file-backed CatalogRepository.
func NewCatalogRepository(layout storage.Layout, locks *storage.KeyedMutex, logger *zap.Logger) CatalogRepository {
	return &catalogRepository{
		layout: layout,
		locks:  locks,
		logger: logger.Named("catalog"),
	}
}

var _ CatalogRepository = (*catalogRepository)(nil)

func (r *catalogRepository) List(ctx context.Context, tenantID string) ([]models.FoodRecord, error) {
	return values(r.load(r.layout.CatalogPath(tenantID))), nil
}

func (r *catalogRepository) Create(ctx context.Context, tenantID string, record models.FoodRecord) error {
	if strings.TrimSpace(record.FoodName) == "" {
		return fmt.Errorf("%w: food_name is required", apperrors.ErrValidation)
	}

	path := r.layout.CatalogPath(tenantID)
	unlock := r.locks.Lock(path)
	defer unlock()

	catalog := r.load(path)
	if indexOfName(catalog, record.FoodName, -1) >= 0 {
		return fmt.Errorf("%w: food %q already exists in catalog", apperrors.ErrConflict, record.FoodName)
	}

	catalog = append(catalog, storedElement[models.FoodRecord]{value: record})
	if err := storage.WriteJSONAtomic(ctx, path, catalog); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	return nil
}

func (r *catalogRepository) Update(ctx context.Context, tenantID, name string, updates map[string]json.RawMessage) (*models.FoodRecord, error) {
	path := r.layout.CatalogPath(tenantID)
	unlock := r.locks.Lock(path)
	defer unlock()

	catalog := r.load(path)
	idx := indexOfName(catalog, name, -1)
	if idx < 0 {
		return nil, fmt.Errorf("%w: food %q not found in catalog", apperrors.ErrNotFound, name)
	}

	updated := catalog[idx].value
	if err := updated.Merge(updates); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if strings.TrimSpace(updated.FoodName) == "" {
		return nil, fmt.Errorf("%w: food_name is required", apperrors.ErrValidation)
	}
	if indexOfName(catalog, updated.FoodName, idx) >= 0 {
		return nil, fmt.Errorf("%w: food %q already exists in catalog", apperrors.ErrConflict, updated.FoodName)
	}
	catalog[idx].value = updated

	if err := storage.WriteJSONAtomic(ctx, path, catalog); err != nil {
		return nil, fmt.Errorf("failed to save catalog: %w", err)
	}
	return &updated, nil
}

func (r *catalogRepository) Delete(ctx context.Context, tenantID, name string) (int, error) {
	path := r.layout.CatalogPath(tenantID)
	unlock := r.locks.Lock(path)
	defer unlock()

	catalog := r.load(path)
	kept := catalog[:0:0]
	for _, elem := range catalog {
		if !elem.decoded() || !strings.EqualFold(elem.value.FoodName, name) {
			kept = append(kept, elem)
		}
	}

	removed := len(catalog) - len(kept)
	if removed == 0 {
		return 0, fmt.Errorf("%w: food %q not found in catalog", apperrors.ErrNotFound, name)
	}

	if err := storage.WriteJSONAtomic(ctx, path, kept); err != nil {
		return 0, fmt.Errorf("failed to save catalog: %w", err)
	}
	return removed, nil
}

// load reads the catalog at path. Elements that are not records are kept for the
// next write; a missing or unreadable file is an empty catalog.
func (r *catalogRepository) load(path string) []storedElement[models.FoodRecord] {
	catalog, undecoded, _, err := readStoredArray[models.FoodRecord](path)
	if err != nil {
		r.logger.Warn("Catalog file unreadable, treating as empty",
			zap.String("path", path),
			zap.Error(err))
		return nil
	}
	if undecoded > 0 {
		r.logger.Warn("Catalog file has elements that are not records",
			zap.String("path", path),
			zap.Int("count", undecoded))
	}
	return catalog
}

// indexOfName returns the first record named name in any case, ignoring index skip.
func indexOfName(catalog []storedElement[models.FoodRecord], name string, skip int) int {
	for i, elem := range catalog {
		if i != skip && elem.decoded() && strings.EqualFold(elem.value.FoodName, name) {
			return i
		}
	}
	return -1
}
