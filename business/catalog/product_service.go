package catalog

import (
	"context"
	"fmt"
	"strings"

	"abayaStore/domain"
	"abayaStore/pkg/logger"
)

// ProductRepository contract interface
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product, categoryIDs []uint) error
	FindByID(ctx context.Context, id uint) (domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error)
	Update(ctx context.Context, product *domain.Product, categoryIDs []uint) error
	Delete(ctx context.Context, id uint) error
	AdjustStock(ctx context.Context, id uint, delta int) (int, error)
}

type productService struct {
	productRepo ProductRepository
}

func NewProductService(productRepo ProductRepository) *productService {
	return &productService{
		productRepo: productRepo,
	}
}

func (s *productService) ListProducts(ctx context.Context, filter domain.ProductFilter) (domain.PageResult[domain.Product], error) {
	if err := ctx.Err(); err != nil {
		return domain.PageResult[domain.Product]{}, fmt.Errorf("context error: %w", err)
	}

	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return domain.PageResult[domain.Product]{}, fmt.Errorf("%w: min_price is greater than max_price", domain.ErrInvalidInput)
	}

	filter.Page = filter.Page.Normalize()
	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		logger.Error("Failed to list products", err)
		return domain.PageResult[domain.Product]{}, err
	}

	return domain.NewPageResult(products, total, filter.Page), nil
}

// GetProduct resolves a numeric id or a slug. Inactive products are only
// visible to staff.
func (s *productService) GetProduct(ctx context.Context, idOrSlug string, includeInactive bool) (*domain.Product, error) {
	var (
		product domain.Product
		err     error
	)

	if id, ok := parseID(idOrSlug); ok {
		product, err = s.productRepo.FindByID(ctx, id)
	} else {
		product, err = s.productRepo.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, err
	}

	if !product.IsActive && !includeInactive {
		return nil, fmt.Errorf("product %w", domain.ErrNotFound)
	}

	return &product, nil
}

func (s *productService) GetProductByID(ctx context.Context, id uint) (*domain.Product, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: invalid product id", domain.ErrInvalidInput)
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("failed to find product by id", err)
		return nil, err
	}

	return &product, nil
}

func validateProduct(product *domain.Product) error {
	product.Name = strings.TrimSpace(product.Name)
	product.SKU = strings.TrimSpace(product.SKU)

	if product.Name == "" {
		return fmt.Errorf("%w: product name is required", domain.ErrInvalidInput)
	}
	if product.SKU == "" {
		return fmt.Errorf("%w: sku is required", domain.ErrInvalidInput)
	}
	if !product.Price.IsPositive() {
		return fmt.Errorf("%w: price must be greater than 0", domain.ErrInvalidInput)
	}
	if product.SalePrice.Valid && !product.SalePrice.Decimal.LessThan(product.Price) {
		return fmt.Errorf("%w: sale price must be lower than price", domain.ErrInvalidInput)
	}
	if product.SalePrice.Valid && product.SalePrice.Decimal.IsNegative() {
		return fmt.Errorf("%w: sale price cannot be negative", domain.ErrInvalidInput)
	}
	if product.Quantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", domain.ErrInvalidInput)
	}
	if product.Slug == "" {
		product.Slug = domain.Slugify(product.Name)
	}

	return nil
}

func (s *productService) CreateProduct(ctx context.Context, product *domain.Product, categoryIDs []uint) (*domain.Product, error) {
	if err := validateProduct(product); err != nil {
		logger.Error("Invalid product data", err)
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product, categoryIDs); err != nil {
		logger.Error("failed to create product", err)
		return nil, err
	}

	logger.Info("product created successfully", "sku", product.SKU)

	created, err := s.productRepo.FindByID(ctx, product.ID)
	if err != nil {
		return product, nil
	}
	return &created, nil
}

func (s *productService) UpdateProduct(ctx context.Context, product *domain.Product, categoryIDs []uint) (*domain.Product, error) {
	if product.ID == 0 {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrInvalidInput)
	}

	if err := validateProduct(product); err != nil {
		logger.Error("Invalid product data", err)
		return nil, err
	}

	if err := s.productRepo.Update(ctx, product, categoryIDs); err != nil {
		logger.Error("failed to update product", err)
		return nil, err
	}

	updated, err := s.productRepo.FindByID(ctx, product.ID)
	if err != nil {
		logger.Error("failed to fetch updated product", err)
		return nil, err
	}

	return &updated, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uint) error {
	if id == 0 {
		return fmt.Errorf("%w: invalid product id", domain.ErrInvalidInput)
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		logger.Error("failed to delete product", err)
		return err
	}

	logger.Info("product deleted successfully", "id", id)

	return nil
}

// AdjustStock moves stock by delta and refuses to go below zero.
func (s *productService) AdjustStock(ctx context.Context, id uint, delta int) (int, error) {
	if delta == 0 {
		product, err := s.productRepo.FindByID(ctx, id)
		if err != nil {
			return 0, err
		}
		return product.Quantity, nil
	}

	quantity, err := s.productRepo.AdjustStock(ctx, id, delta)
	if err != nil {
		logger.Error("failed to adjust stock", err, "product_id", id)
		return 0, err
	}

	return quantity, nil
}
