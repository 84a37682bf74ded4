package pictogram

import (
	"context"

	apperrors "github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/types"
)

// Service manages the shared pictogram vocabulary.
type Service struct {
	store Store
}

// NewService creates a pictogram service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateCategory creates a category.
func (s *Service) CreateCategory(ctx context.Context, req CreateCategoryRequest, actor types.ID) (*Category, error) {
	if req.Name == "" {
		return nil, apperrors.Validation("name is required", map[string]string{"field": "name"})
	}

	c := &Category{
		ID:        types.NewID(),
		Name:      req.Name,
		IsActive:  true,
		CreatedBy: actor,
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCategory fetches a category by ID.
func (s *Service) GetCategory(ctx context.Context, id types.ID) (*Category, error) {
	return s.store.GetCategory(ctx, id)
}

// ListCategories lists categories, optionally only active ones.
func (s *Service) ListCategories(ctx context.Context, activeOnly bool) ([]Category, error) {
	return s.store.ListCategories(ctx, activeOnly)
}

// SetCategoryActive activates or deactivates a category. Deactivation
// keeps existing links; it only stops new ones.
func (s *Service) SetCategoryActive(ctx context.Context, id types.ID, active bool) (*Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	c.IsActive = active
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// CreatePictogram creates a pictogram under an active category.
func (s *Service) CreatePictogram(ctx context.Context, req CreatePictogramRequest, actor types.ID) (*Pictogram, error) {
	if req.Name == "" || req.CategoryID.IsZero() {
		return nil, apperrors.Validation("validation failed", map[string]string{
			"name":        "name is required",
			"category_id": "category_id is required",
		})
	}

	category, err := s.store.GetCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, apperrors.ConflictCode("CATEGORY_INACTIVE",
			"category is inactive", map[string]string{"category": category.Name})
	}

	p := &Pictogram{
		ID:          types.NewID(),
		Name:        req.Name,
		CategoryID:  req.CategoryID,
		ImagePath:   req.ImagePath,
		AudioPath:   req.AudioPath,
		Description: req.Description,
		IsActive:    true,
		CreatedBy:   actor,
	}
	if err := s.store.CreatePictogram(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPictogram fetches a pictogram by ID.
func (s *Service) GetPictogram(ctx context.Context, id types.ID) (*Pictogram, error) {
	return s.store.GetPictogram(ctx, id)
}

// ListPictograms lists pictograms matching the filter.
func (s *Service) ListPictograms(ctx context.Context, filter ListFilter) ([]Pictogram, error) {
	return s.store.ListPictograms(ctx, filter)
}

// UpdatePictogram applies partial updates to a pictogram.
func (s *Service) UpdatePictogram(ctx context.Context, id types.ID, req UpdatePictogramRequest) (*Pictogram, error) {
	p, err := s.store.GetPictogram(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, apperrors.Validation("name cannot be empty", map[string]string{"field": "name"})
		}
		p.Name = *req.Name
	}
	if req.ImagePath != nil {
		p.ImagePath = *req.ImagePath
	}
	if req.AudioPath != nil {
		p.AudioPath = *req.AudioPath
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := s.store.UpdatePictogram(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
