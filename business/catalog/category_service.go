package catalog

import (
	"context"
	"fmt"
	"strings"

	"abayaStore/domain"
	"abayaStore/pkg/logger"
)

// CategoryRepository contract interface
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	FindByID(ctx context.Context, id uint) (domain.Category, error)
	FindBySlug(ctx context.Context, slug string) (domain.Category, error)
	FindAll(ctx context.Context, activeOnly bool) ([]domain.Category, error)
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id uint) error
}

type categoryService struct {
	categoryRepo CategoryRepository
}

func NewCategoryService(categoryRepo CategoryRepository) *categoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
	}
}

func (s *categoryService) GetAllCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when get all categories", err)
		return nil, fmt.Errorf("context error: %w", err)
	}

	categories, err := s.categoryRepo.FindAll(ctx, !includeInactive)
	if err != nil {
		logger.Error("Failed to find all categories", err)
		return nil, err
	}

	return categories, nil
}

func (s *categoryService) GetCategoryByID(ctx context.Context, id uint) (domain.Category, error) {
	if id == 0 {
		return domain.Category{}, fmt.Errorf("%w: invalid category id", domain.ErrInvalidInput)
	}

	return s.categoryRepo.FindByID(ctx, id)
}

// GetCategoryBySlug hides inactive categories from the storefront.
func (s *categoryService) GetCategoryBySlug(ctx context.Context, slug string) (domain.Category, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, slug)
	if err != nil {
		return domain.Category{}, err
	}
	if !category.IsActive {
		return domain.Category{}, fmt.Errorf("category %w", domain.ErrNotFound)
	}

	return category, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		logger.Error("Invalid category data: name is required")
		return nil, fmt.Errorf("%w: category name is required", domain.ErrInvalidInput)
	}

	if category.Slug == "" {
		category.Slug = domain.Slugify(category.Name)
	}

	if category.ParentID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *category.ParentID); err != nil {
			return nil, fmt.Errorf("%w: parent category does not exist", domain.ErrInvalidInput)
		}
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		logger.Error("failed to create new category", err)
		return nil, err
	}

	logger.Info("category created successfully", "slug", category.Slug)

	return category, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if category.ID == 0 {
		return nil, fmt.Errorf("%w: category id is required", domain.ErrInvalidInput)
	}

	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return nil, fmt.Errorf("%w: category name is required", domain.ErrInvalidInput)
	}
	if category.Slug == "" {
		category.Slug = domain.Slugify(category.Name)
	}
	if category.ParentID != nil && *category.ParentID == category.ID {
		return nil, fmt.Errorf("%w: a category cannot be its own parent", domain.ErrInvalidInput)
	}

	if _, err := s.categoryRepo.FindByID(ctx, category.ID); err != nil {
		logger.Error("category not found", err)
		return nil, err
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		logger.Error("failed to update category", err)
		return nil, err
	}

	updated, err := s.categoryRepo.FindByID(ctx, category.ID)
	if err != nil {
		logger.Error("failed to fetch updated category", err)
		return nil, err
	}

	return &updated, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, id uint) error {
	if id == 0 {
		return fmt.Errorf("%w: invalid category id", domain.ErrInvalidInput)
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		logger.Error("failed to delete category", err)
		return err
	}

	logger.Info("category deleted successfully", "id", id)

	return nil
}
