package postgres

import (
	"context"
	"errors"
	"fmt"

	"abayaStore/domain"

	"gorm.io/gorm"
)

type CouponRepository struct {
	DB *gorm.DB
}

func NewCouponRepository(db *gorm.DB) *CouponRepository {
	return &CouponRepository{DB: db}
}

func (r *CouponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	if err := conn(ctx, r.DB).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("coupon code %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *CouponRepository) FindByID(ctx context.Context, id uint) (domain.Coupon, error) {
	var c domain.Coupon
	if err := conn(ctx, r.DB).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Coupon{}, fmt.Errorf("coupon %w", domain.ErrNotFound)
		}
		return domain.Coupon{}, err
	}
	return c, nil
}

func (r *CouponRepository) FindByCode(ctx context.Context, code string) (domain.Coupon, error) {
	var c domain.Coupon
	if err := conn(ctx, r.DB).Where("UPPER(code) = UPPER(?)", code).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Coupon{}, fmt.Errorf("coupon %w", domain.ErrNotFound)
		}
		return domain.Coupon{}, err
	}
	return c, nil
}

func (r *CouponRepository) FindAll(ctx context.Context, page domain.Page) ([]domain.Coupon, int64, error) {
	var (
		coupons []domain.Coupon
		total   int64
	)

	q := conn(ctx, r.DB).Model(&domain.Coupon{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").Offset(page.Offset()).Limit(page.Size).Find(&coupons).Error
	return coupons, total, err
}

func (r *CouponRepository) Update(ctx context.Context, c *domain.Coupon) error {
	result := conn(ctx, r.DB).Model(&domain.Coupon{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"code":                c.Code,
		"description":         c.Description,
		"discount_type":       c.DiscountType,
		"value":               c.Value,
		"min_order_amount":    c.MinOrderAmount,
		"max_discount_amount": c.MaxDiscountAmount,
		"start_date":          c.StartDate,
		"end_date":            c.EndDate,
		"usage_limit":         c.UsageLimit,
		"is_active":           c.IsActive,
	})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("coupon code %w", domain.ErrConflict)
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("coupon %w", domain.ErrNotFound)
	}
	return nil
}

func (r *CouponRepository) Delete(ctx context.Context, id uint) error {
	result := conn(ctx, r.DB).Delete(&domain.Coupon{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("coupon %w", domain.ErrNotFound)
	}
	return nil
}

func (r *CouponRepository) IncrementUsage(ctx context.Context, id uint) (bool, error) {
	result := conn(ctx, r.DB).Model(&domain.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR usage_count < usage_limit)", id).
		Update("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
