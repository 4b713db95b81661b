package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"abayaStore/domain"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type CategoryService interface {
	GetAllCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error)
	GetCategoryByID(ctx context.Context, id uint) (domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id uint) error
}

type CategoryHandler struct {
	categoryService CategoryService
	validator       *validator.Validate
	timeout         time.Duration
}

func NewCategoryHandler(categoryService CategoryService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		validator:       validator.New(),
		timeout:         defaultTimeout,
	}
}

type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"omitempty,max=120"`
	Description string `json:"description"`
	ParentID    *uint  `json:"parent_id"`
	IsActive    *bool  `json:"is_active"`
}

func (r CategoryRequest) toDomain() *domain.Category {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &domain.Category{
		Name:        r.Name,
		Slug:        strings.ToLower(strings.TrimSpace(r.Slug)),
		Description: r.Description,
		ParentID:    r.ParentID,
		IsActive:    active,
	}
}

// GetAllCategories lists active categories. Staff may pass include_inactive.
func (h *CategoryHandler) GetAllCategories(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	includeInactive := c.QueryParam("include_inactive") == "true" && isStaff(c)
	categories, err := h.categoryService.GetAllCategories(ctx, includeInactive)
	if err != nil {
		return fail(c, "Failed to find all categories", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":    "successfully get all categories",
		"categories": categories,
	})
}

func (h *CategoryHandler) GetCategoryBySlug(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	category, err := h.categoryService.GetCategoryBySlug(ctx, c.Param("slug"))
	if err != nil {
		return fail(c, "Failed to find category", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":  "successfully get category",
		"category": category,
	})
}

func (h *CategoryHandler) GetCategoryByID(c echo.Context) error {
	categoryID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid category id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	category, err := h.categoryService.GetCategoryByID(ctx, categoryID)
	if err != nil {
		return fail(c, "Failed to find category", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":  "successfully get category",
		"category": category,
	})
}

func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req CategoryRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	newCategory, err := h.categoryService.CreateCategory(ctx, req.toDomain())
	if err != nil {
		return fail(c, "Failed to create category", err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":  "category successfully created",
		"category": newCategory,
	})
}

func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	categoryID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid category id"})
	}

	var req CategoryRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	category := req.toDomain()
	category.ID = categoryID

	updatedCategory, err := h.categoryService.UpdateCategory(ctx, category)
	if err != nil {
		return fail(c, "Failed to update category", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":  "category successfully updated",
		"category": updatedCategory,
	})
}

func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	categoryID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid category id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.categoryService.DeleteCategory(ctx, categoryID); err != nil {
		return fail(c, "Failed to delete category", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "category successfully deleted",
	})
}
