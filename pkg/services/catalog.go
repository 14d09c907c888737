package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/food-agent/pkg/apperrors"
	"github.com/ekaya-inc/food-agent/pkg/filter"
	"github.com/ekaya-inc/food-agent/pkg/models"
	"github.com/ekaya-inc/food-agent/pkg/repositories"
)

// CatalogView is a filtered listing of a tenant's catalog.
type CatalogView struct {
	Items []models.FoodRecord `json:"items"`
	Count int                 `json:"count"`
}

// MutationResult is the outcome of a catalog change.
type MutationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CatalogService manages a tenant's reusable food catalog.
type CatalogService interface {
	List(ctx context.Context, tenantID string, filters []string, useRegex bool) (*CatalogView, error)
	Add(ctx context.Context, tenantID string, record models.FoodRecord) (*MutationResult, error)
	Update(ctx context.Context, tenantID, foodName string, updates map[string]json.RawMessage) (*MutationResult, error)
	Remove(ctx context.Context, tenantID, foodName string) (*MutationResult, error)
}

type catalogService struct {
	repo   repositories.CatalogRepository
	logger *zap.Logger
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(repo repositories.CatalogRepository, logger *zap.Logger) CatalogService {
	return &catalogService{
		repo:   repo,
		logger: logger.Named("catalog_service"),
	}
}

var _ CatalogService = (*catalogService)(nil)

func (s *catalogService) List(ctx context.Context, tenantID string, filters []string, useRegex bool) (*CatalogView, error) {
	records, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	matcher := filter.New(filters, useRegex, s.logger)
	items := make([]models.FoodRecord, 0, len(records))
	for _, record := range records {
		if matcher.Match(record.FoodName) {
			items = append(items, record)
		}
	}

	return &CatalogView{Items: items, Count: len(items)}, nil
}

func (s *catalogService) Add(ctx context.Context, tenantID string, record models.FoodRecord) (*MutationResult, error) {
	if strings.TrimSpace(record.FoodName) == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "food_item must have a 'food_name'.")
	}

	if err := s.repo.Create(ctx, tenantID, record); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.New(apperrors.ErrConflict,
				"Food '%s' already exists in catalog. Use update_food_in_catalog instead.", record.FoodName)
		}
		return nil, fmt.Errorf("failed to add food to catalog: %w", err)
	}

	s.logger.Debug("Added catalog food", zap.String("tenant", tenantID), zap.String("food_name", record.FoodName))
	return &MutationResult{Success: true, Message: fmt.Sprintf("Added '%s' to catalog.", record.FoodName)}, nil
}

func (s *catalogService) Update(ctx context.Context, tenantID, foodName string, updates map[string]json.RawMessage) (*MutationResult, error) {
	if _, err := s.repo.Update(ctx, tenantID, foodName, updates); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			return nil, apperrors.New(apperrors.ErrNotFound, "Food '%s' not found in catalog.", foodName)
		case errors.Is(err, apperrors.ErrConflict):
			return nil, apperrors.New(apperrors.ErrConflict,
				"Cannot rename '%s': another food with that name already exists in catalog.", foodName)
		case errors.Is(err, apperrors.ErrValidation):
			return nil, apperrors.New(apperrors.ErrValidation, "Invalid updates for '%s': %v", foodName, err)
		}
		return nil, fmt.Errorf("failed to update food in catalog: %w", err)
	}

	return &MutationResult{Success: true, Message: fmt.Sprintf("Updated '%s' in catalog.", foodName)}, nil
}

func (s *catalogService) Remove(ctx context.Context, tenantID, foodName string) (*MutationResult, error) {
	if _, err := s.repo.Delete(ctx, tenantID, foodName); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "Food '%s' not found in catalog.", foodName)
		}
		return nil, fmt.Errorf("failed to remove food from catalog: %w", err)
	}

	return &MutationResult{Success: true, Message: fmt.Sprintf("Removed '%s' from catalog.", foodName)}, nil
}
