package postgres

import (
	"context"
	"errors"
	"fmt"

	"abayaStore/domain"

	"gorm.io/gorm"
)

// activePriceSQL mirrors domain.Product.ActivePrice for filtering and sorting.
const activePriceSQL = "CASE WHEN sale_price IS NOT NULL AND sale_price > 0 AND sale_price < price THEN sale_price ELSE price END"

type ProductRepository struct {
	DB *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{
		DB: db,
	}
}

func categoryRefs(ids []uint) []domain.Category {
	refs := make([]domain.Category, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, domain.Category{ID: id})
	}
	return refs
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product, categoryIDs []uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	product.Categories = categoryRefs(categoryIDs)
	if err := conn(ctx, r.DB).Omit("Categories.*").Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("product slug or sku %w", domain.ErrConflict)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *ProductRepository) find(ctx context.Context, query string, arg interface{}) (domain.Product, error) {
	var product domain.Product

	err := conn(ctx, r.DB).Preload("Categories").Where(query, arg).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, fmt.Errorf("product %w", domain.ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("failed to find product: %w", err)
	}

	return product, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id uint) (domain.Product, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *ProductRepository) FindBySlug(ctx context.Context, slug string) (domain.Product, error) {
	return r.find(ctx, "slug = ?", slug)
}

func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	q := conn(ctx, r.DB).Model(&domain.Product{})

	if !filter.IncludeInactive {
		q = q.Where("is_active")
	}
	if filter.CategoryID != 0 {
		q = q.Where("id IN (SELECT product_id FROM product_categories WHERE category_id = ?)", filter.CategoryID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("(name ILIKE ? OR description ILIKE ? OR sku ILIKE ?)", like, like, like)
	}
	if filter.MinPrice != nil {
		q = q.Where(activePriceSQL+" >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where(activePriceSQL+" <= ?", *filter.MaxPrice)
	}
	if filter.InStock {
		q = q.Where("quantity > 0")
	}
	if filter.Featured {
		q = q.Where("is_featured")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	switch filter.Sort {
	case "price_asc":
		q = q.Order(activePriceSQL + " ASC")
	case "price_desc":
		q = q.Order(activePriceSQL + " DESC")
	case "name":
		q = q.Order("name ASC")
	default:
		q = q.Order("created_at DESC")
	}

	page := filter.Page.Normalize()
	var products []domain.Product
	err := q.Preload("Categories").Offset(page.Offset()).Limit(page.Size).Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find products: %w", err)
	}

	return products, total, nil
}

// Update writes the editable columns. A nil categoryIDs keeps the current
// category links.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product, categoryIDs []uint) error {
	db := conn(ctx, r.DB)

	updateData := map[string]interface{}{
		"name":        product.Name,
		"slug":        product.Slug,
		"description": product.Description,
		"sku":         product.SKU,
		"price":       product.Price,
		"sale_price":  product.SalePrice,
		"cost":        product.Cost,
		"quantity":    product.Quantity,
		"is_active":   product.IsActive,
		"is_featured": product.IsFeatured,
	}

	result := db.Model(&domain.Product{}).Where("id = ?", product.ID).Updates(updateData)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("product slug or sku %w", domain.ErrConflict)
		}
		return fmt.Errorf("failed to update product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("product %w", domain.ErrNotFound)
	}

	if categoryIDs != nil {
		err := db.Model(product).Omit("Categories.*").Association("Categories").Replace(categoryRefs(categoryIDs))
		if err != nil {
			return fmt.Errorf("failed to update product categories: %w", err)
		}
	}

	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	result := conn(ctx, r.DB).Delete(&domain.Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("product %w", domain.ErrNotFound)
	}

	return nil
}

// AdjustStock applies delta to the stock only when the result stays
// non-negative and returns the new quantity.
func (r *ProductRepository) AdjustStock(ctx context.Context, id uint, delta int) (int, error) {
	db := conn(ctx, r.DB)

	result := db.Model(&domain.Product{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to adjust stock: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%w: insufficient stock", domain.ErrConflict)
	}

	var quantity int
	if err := db.Model(&domain.Product{}).Where("id = ?", id).Pluck("quantity", &quantity).Error; err != nil {
		return 0, err
	}

	return quantity, nil
}

// DecrementStock takes n units off the stock when at least n are on hand.
func (r *ProductRepository) DecrementStock(ctx context.Context, id uint, n int) (bool, error) {
	result := conn(ctx, r.DB).Model(&domain.Product{}).
		Where("id = ? AND quantity >= ?", id, n).
		Update("quantity", gorm.Expr("quantity - ?", n))
	if result.Error != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *ProductRepository) IncrementStock(ctx context.Context, id uint, n int) error {
	return conn(ctx, r.DB).Model(&domain.Product{}).
		Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", n)).Error
}

func (r *ProductRepository) LowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	var products []domain.Product
	err := conn(ctx, r.DB).Where("is_active AND quantity <= ?", threshold).Order("quantity ASC").Find(&products).Error
	return products, err
}

func (r *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := conn(ctx, r.DB).Preload("Categories").Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return products, nil
}
