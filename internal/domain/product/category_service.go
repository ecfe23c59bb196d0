// internal/domain/product/category_service.go
package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/farmmarket-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

// CategoryService handles category management
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// CreateCategoryRequest represents category creation data
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// GetCategories lists all categories ordered by name.
func (s *CategoryService) GetCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := s.db.WithContext(ctx).Order("name asc").Find(&categories).Error; err != nil {
		return nil, apperr.FromContext(ctx, err)
	}
	return categories, nil
}

// GetCategory retrieves a category by ID.
func (s *CategoryService) GetCategory(ctx context.Context, id uint) (*Category, error) {
	var c Category
	err := s.db.WithContext(ctx).First(&c, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %d: %w", id, apperr.ErrNotFound)
		}
		return nil, apperr.FromContext(ctx, err)
	}
	return &c, nil
}

// Create adds a category. Names are unique; duplicates surface as Conflict.
func (s *CategoryService) Create(ctx context.Context, req *CreateCategoryRequest) (*Category, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Category{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
		return nil, apperr.FromContext(ctx, err)
	}
	if count > 0 {
		return nil, fmt.Errorf("category %q already exists: %w", req.Name, apperr.ErrConflict)
	}

	c := Category{Name: req.Name}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, apperr.FromContext(ctx, fmt.Errorf("failed to create category: %w", err))
	}
	return &c, nil
}

// Delete removes a category.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Category{}, id)
	if result.Error != nil {
		return apperr.FromContext(ctx, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("category %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}
