package postgres

import (
	"context"
	"errors"
	"fmt"

	"abayaStore/domain"

	"gorm.io/gorm"
)

type AddressRepository struct {
	DB *gorm.DB
}

func NewAddressRepository(db *gorm.DB) *AddressRepository {
	return &AddressRepository{DB: db}
}

func (r *AddressRepository) ListByUser(ctx context.Context, userID uint) ([]domain.Address, error) {
	var addrs []domain.Address
	err := conn(ctx, r.DB).Where("user_id = ?", userID).Order("is_default DESC, id").Find(&addrs).Error
	return addrs, err
}

func (r *AddressRepository) FindByID(ctx context.Context, id uint) (domain.Address, error) {
	var addr domain.Address
	if err := conn(ctx, r.DB).First(&addr, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Address{}, fmt.Errorf("address %w", domain.ErrNotFound)
		}
		return domain.Address{}, err
	}
	return addr, nil
}

func (r *AddressRepository) Create(ctx context.Context, addr *domain.Address) error {
	return conn(ctx, r.DB).Create(addr).Error
}

func (r *AddressRepository) Update(ctx context.Context, addr *domain.Address) error {
	result := conn(ctx, r.DB).Model(&domain.Address{}).Where("id = ?", addr.ID).
		Select("full_name", "phone", "line1", "line2", "city", "state", "postal_code", "country", "type", "is_default", "updated_at").
		Updates(addr)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("address %w", domain.ErrNotFound)
	}
	return nil
}

func (r *AddressRepository) Delete(ctx context.Context, id uint) error {
	result := conn(ctx, r.DB).Delete(&domain.Address{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("address %w", domain.ErrNotFound)
	}
	return nil
}

func (r *AddressRepository) CountByUser(ctx context.Context, userID uint, addrType string) (int64, error) {
	var count int64
	err := conn(ctx, r.DB).Model(&domain.Address{}).
		Where("user_id = ? AND type = ?", userID, addrType).
		Count(&count).Error
	return count, err
}

func (r *AddressRepository) ClearDefault(ctx context.Context, userID uint, addrType string, exceptID uint) error {
	return conn(ctx, r.DB).Model(&domain.Address{}).
		Where("user_id = ? AND type = ? AND id <> ? AND is_default", userID, addrType, exceptID).
		Update("is_default", false).Error
}

type PaymentMethodRepository struct {
	DB *gorm.DB
}

func NewPaymentMethodRepository(db *gorm.DB) *PaymentMethodRepository {
	return &PaymentMethodRepository{DB: db}
}

func (r *PaymentMethodRepository) ListByUser(ctx context.Context, userID uint) ([]domain.PaymentMethod, error) {
	var methods []domain.PaymentMethod
	err := conn(ctx, r.DB).Where("user_id = ?", userID).Order("is_default DESC, id").Find(&methods).Error
	return methods, err
}

func (r *PaymentMethodRepository) FindByID(ctx context.Context, id uint) (domain.PaymentMethod, error) {
	var method domain.PaymentMethod
	if err := conn(ctx, r.DB).First(&method, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.PaymentMethod{}, fmt.Errorf("payment method %w", domain.ErrNotFound)
		}
		return domain.PaymentMethod{}, err
	}
	return method, nil
}

func (r *PaymentMethodRepository) Create(ctx context.Context, method *domain.PaymentMethod) error {
	return conn(ctx, r.DB).Create(method).Error
}

func (r *PaymentMethodRepository) Delete(ctx context.Context, id uint) error {
	result := conn(ctx, r.DB).Delete(&domain.PaymentMethod{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("payment method %w", domain.ErrNotFound)
	}
	return nil
}

func (r *PaymentMethodRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := conn(ctx, r.DB).Model(&domain.PaymentMethod{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *PaymentMethodRepository) ClearDefault(ctx context.Context, userID uint, exceptID uint) error {
	return conn(ctx, r.DB).Model(&domain.PaymentMethod{}).
		Where("user_id = ? AND id <> ? AND is_default", userID, exceptID).
		Update("is_default", false).Error
}

func (r *PaymentMethodRepository) SetDefault(ctx context.Context, id uint) error {
	return conn(ctx, r.DB).Model(&domain.PaymentMethod{}).Where("id = ?", id).Update("is_default", true).Error
}
