package postgres

import (
	"context"
	"errors"
	"fmt"

	"abayaStore/domain"

	"gorm.io/gorm"
)

type ReviewRepository struct {
	DB *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{DB: db}
}

func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	if err := conn(ctx, r.DB).Create(review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("review %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *ReviewRepository) FindByID(ctx context.Context, id uint) (domain.Review, error) {
	var review domain.Review
	if err := conn(ctx, r.DB).Preload("Images").First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Review{}, fmt.Errorf("review %w", domain.ErrNotFound)
		}
		return domain.Review{}, err
	}
	return review, nil
}

func (r *ReviewRepository) ListByProduct(ctx context.Context, productID uint, publishedOnly bool, page domain.Page) ([]domain.Review, int64, error) {
	q := conn(ctx, r.DB).Model(&domain.Review{}).Where("product_id = ?", productID)
	if publishedOnly {
		q = q.Where("is_published")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []domain.Review
	err := q.Preload("Images").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&reviews).Error
	return reviews, total, err
}

// Summary counts published reviews and averages their rating.
func (r *ReviewRepository) Summary(ctx context.Context, productID uint) (domain.ReviewSummary, error) {
	var summary domain.ReviewSummary
	err := conn(ctx, r.DB).Model(&domain.Review{}).
		Select("COUNT(*) AS count, COALESCE(ROUND(AVG(rating), 1), 0) AS average").
		Where("product_id = ? AND is_published", productID).
		Scan(&summary).Error
	return summary, err
}

func (r *ReviewRepository) SetPublished(ctx context.Context, id uint, published bool) error {
	row := conn(ctx, r.DB).Model(&domain.Review{}).Where("id = ?", id).Update("is_published", published)
	if row.Error != nil {
		return row.Error
	}
	if row.RowsAffected == 0 {
		return fmt.Errorf("review %w", domain.ErrNotFound)
	}
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id uint) error {
	row := conn(ctx, r.DB).Delete(&domain.Review{}, id)
	if row.Error != nil {
		return row.Error
	}
	if row.RowsAffected == 0 {
		return fmt.Errorf("review %w", domain.ErrNotFound)
	}
	return nil
}

type MediaRepository struct {
	DB *gorm.DB
}

func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{DB: db}
}

func (r *MediaRepository) ListByProduct(ctx context.Context, productID uint) ([]domain.ProductMedia, error) {
	var media []domain.ProductMedia
	err := conn(ctx, r.DB).
		Where("product_id = ?", productID).
		Order("sort_order, created_at, id").
		Find(&media).Error
	return media, err
}

func (r *MediaRepository) FindByID(ctx context.Context, id uint) (domain.ProductMedia, error) {
	var media domain.ProductMedia
	if err := conn(ctx, r.DB).First(&media, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ProductMedia{}, fmt.Errorf("media %w", domain.ErrNotFound)
		}
		return domain.ProductMedia{}, err
	}
	return media, nil
}

func (r *MediaRepository) Create(ctx context.Context, media *domain.ProductMedia) error {
	if err := conn(ctx, r.DB).Create(media).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("default media %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *MediaRepository) Delete(ctx context.Context, id uint) error {
	return conn(ctx, r.DB).Delete(&domain.ProductMedia{}, id).Error
}

func (r *MediaRepository) ClearDefault(ctx context.Context, productID uint) error {
	return conn(ctx, r.DB).Model(&domain.ProductMedia{}).
		Where("product_id = ? AND is_default", productID).
		Update("is_default", false).Error
}

func (r *MediaRepository) SetDefault(ctx context.Context, id uint) error {
	row := conn(ctx, r.DB).Model(&domain.ProductMedia{}).Where("id = ?", id).Update("is_default", true)
	if row.Error != nil {
		return row.Error
	}
	if row.RowsAffected == 0 {
		return fmt.Errorf("media %w", domain.ErrNotFound)
	}
	return nil
}
