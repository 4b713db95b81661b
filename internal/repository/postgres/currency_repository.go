package postgres

import (
	"context"
	"errors"
	"fmt"

	"abayaStore/domain"

	"gorm.io/gorm"
)

type CurrencyRepository struct {
	DB *gorm.DB
}

func NewCurrencyRepository(db *gorm.DB) *CurrencyRepository {
	return &CurrencyRepository{DB: db}
}

func (r *CurrencyRepository) ListActive(ctx context.Context) ([]domain.Currency, error) {
	var out []domain.Currency
	err := conn(ctx, r.DB).Where("is_active").Order("is_default DESC, code").Find(&out).Error
	return out, err
}

func (r *CurrencyRepository) ListAll(ctx context.Context) ([]domain.Currency, error) {
	var out []domain.Currency
	err := conn(ctx, r.DB).Order("code").Find(&out).Error
	return out, err
}

func (r *CurrencyRepository) first(ctx context.Context, query string, args ...interface{}) (domain.Currency, error) {
	var c domain.Currency
	if err := conn(ctx, r.DB).Where(query, args...).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Currency{}, fmt.Errorf("currency %w", domain.ErrNotFound)
		}
		return domain.Currency{}, err
	}
	return c, nil
}

func (r *CurrencyRepository) FindByCode(ctx context.Context, code string) (domain.Currency, error) {
	return r.first(ctx, "code = ?", code)
}

func (r *CurrencyRepository) FindDefault(ctx context.Context) (domain.Currency, error) {
	return r.first(ctx, "is_default AND is_active")
}

func (r *CurrencyRepository) Create(ctx context.Context, c *domain.Currency) error {
	if err := conn(ctx, r.DB).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("currency code %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *CurrencyRepository) Update(ctx context.Context, c *domain.Currency) error {
	result := conn(ctx, r.DB).Model(&domain.Currency{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"name":          c.Name,
		"symbol":        c.Symbol,
		"exchange_rate": c.ExchangeRate,
		"is_default":    c.IsDefault,
		"is_active":     c.IsActive,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("currency %w", domain.ErrNotFound)
	}
	return nil
}

func (r *CurrencyRepository) ClearDefault(ctx context.Context, exceptID uint) error {
	return conn(ctx, r.DB).Model(&domain.Currency{}).
		Where("id <> ? AND is_default", exceptID).
		Update("is_default", false).Error
}
