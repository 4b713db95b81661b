package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"abayaStore/domain"
	"abayaStore/pkg/logger"

	"github.com/shopspring/decimal"
)

type CouponRepository interface {
	Create(ctx context.Context, c *domain.Coupon) error
	FindByID(ctx context.Context, id uint) (domain.Coupon, error)
	FindByCode(ctx context.Context, code string) (domain.Coupon, error)
	FindAll(ctx context.Context, page domain.Page) ([]domain.Coupon, int64, error)
	Update(ctx context.Context, c *domain.Coupon) error
	Delete(ctx context.Context, id uint) error
	// IncrementUsage bumps usage_count only while it is below usage_limit
	// and reports whether a row was updated.
	IncrementUsage(ctx context.Context, id uint) (bool, error)
}

var (
	ErrCouponNotFound   = errors.New("invalid coupon code")
	ErrCouponInactive   = errors.New("coupon is not active")
	ErrCouponNotStarted = errors.New("coupon is not valid yet")
	ErrCouponExpired    = errors.New("coupon has expired")
	ErrCouponExhausted  = errors.New("coupon usage limit reached")
	ErrMinimumNotMet    = errors.New("order amount is below the coupon minimum")
)

type couponService struct {
	repo CouponRepository
	now  func() time.Time
}

func NewCouponService(repo CouponRepository) *couponService {
	return &couponService{repo: repo, now: time.Now}
}

// NormalizeCode upper-cases and trims a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks code against subtotal and returns the coupon with the
// discount it would grant.
func (s *couponService) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (domain.Coupon, decimal.Decimal, error) {
	code = NormalizeCode(code)
	if code == "" {
		return domain.Coupon{}, decimal.Zero, ErrCouponNotFound
	}

	c, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Coupon{}, decimal.Zero, ErrCouponNotFound
		}
		logger.Error("Failed to find coupon", err)
		return domain.Coupon{}, decimal.Zero, err
	}

	now := s.now()
	switch {
	case !c.IsActive:
		return c, decimal.Zero, ErrCouponInactive
	case now.Before(c.StartDate):
		return c, decimal.Zero, ErrCouponNotStarted
	case now.After(c.EndDate):
		return c, decimal.Zero, ErrCouponExpired
	case c.UsageExhausted():
		return c, decimal.Zero, ErrCouponExhausted
	case subtotal.LessThan(c.MinOrderAmount):
		return c, decimal.Zero, fmt.Errorf("%w: minimum is %s", ErrMinimumNotMet, c.MinOrderAmount.StringFixed(2))
	}

	return c, c.CalculateDiscount(subtotal, now), nil
}

// Redeem records one use of the coupon. Concurrent redemptions past the
// limit fail instead of overshooting it.
func (s *couponService) Redeem(ctx context.Context, couponID uint) error {
	ok, err := s.repo.IncrementUsage(ctx, couponID)
	if err != nil {
		logger.Error("Failed to redeem coupon", err)
		return err
	}
	if !ok {
		return ErrCouponExhausted
	}
	return nil
}

func (s *couponService) validate(c *domain.Coupon) error {
	c.Code = NormalizeCode(c.Code)
	if c.Code == "" {
		return fmt.Errorf("%w: coupon code is required", domain.ErrInvalidInput)
	}
	if c.DiscountType != domain.CouponPercentage && c.DiscountType != domain.CouponFixed {
		return fmt.Errorf("%w: discount type must be PERCENTAGE or FIXED", domain.ErrInvalidInput)
	}
	if !c.Value.IsPositive() {
		return fmt.Errorf("%w: value must be greater than 0", domain.ErrInvalidInput)
	}
	if c.DiscountType == domain.CouponPercentage && c.Value.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: percentage cannot exceed 100", domain.ErrInvalidInput)
	}
	if c.MinOrderAmount.IsNegative() {
		return fmt.Errorf("%w: minimum order amount cannot be negative", domain.ErrInvalidInput)
	}
	if c.MaxDiscountAmount.Valid && !c.MaxDiscountAmount.Decimal.IsPositive() {
		return fmt.Errorf("%w: maximum discount must be greater than 0", domain.ErrInvalidInput)
	}
	if !c.EndDate.After(c.StartDate) {
		return fmt.Errorf("%w: end date must be after start date", domain.ErrInvalidInput)
	}
	if c.UsageLimit != nil && *c.UsageLimit < 1 {
		return fmt.Errorf("%w: usage limit must be at least 1", domain.ErrInvalidInput)
	}
	return nil
}

func (s *couponService) CreateCoupon(ctx context.Context, c *domain.Coupon) (*domain.Coupon, error) {
	if err := s.validate(c); err != nil {
		return nil, err
	}
	c.UsageCount = 0

	if err := s.repo.Create(ctx, c); err != nil {
		logger.Error("Failed to create coupon", err)
		return nil, err
	}

	logger.Info("coupon created", "code", c.Code)
	return c, nil
}

func (s *couponService) UpdateCoupon(ctx context.Context, id uint, c *domain.Coupon) (*domain.Coupon, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.ID = existing.ID
	c.UsageCount = existing.UsageCount
	c.CreatedAt = existing.CreatedAt
	if err := s.validate(c); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, c); err != nil {
		logger.Error("Failed to update coupon", err)
		return nil, err
	}

	return c, nil
}

func (s *couponService) GetCoupon(ctx context.Context, id uint) (domain.Coupon, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *couponService) ListCoupons(ctx context.Context, page domain.Page) (domain.PageResult[domain.Coupon], error) {
	page = page.Normalize()
	coupons, total, err := s.repo.FindAll(ctx, page)
	if err != nil {
		return domain.PageResult[domain.Coupon]{}, err
	}
	return domain.NewPageResult(coupons, total, page), nil
}

func (s *couponService) DeleteCoupon(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}
