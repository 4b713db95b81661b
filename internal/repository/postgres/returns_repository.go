package postgres

import (
	"context"
	"errors"
	"fmt"

	"abayaStore/domain"

	"gorm.io/gorm"
)

type ReturnsRepository struct {
	DB *gorm.DB
}

func NewReturnsRepository(db *gorm.DB) *ReturnsRepository {
	return &ReturnsRepository{DB: db}
}

func (r *ReturnsRepository) Create(ctx context.Context, ret *domain.Return) error {
	if err := conn(ctx, r.DB).Create(ret).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("return number %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *ReturnsRepository) FindByID(ctx context.Context, id uint) (domain.Return, error) {
	var ret domain.Return
	if err := conn(ctx, r.DB).Preload("Items").First(&ret, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Return{}, fmt.Errorf("return %w", domain.ErrNotFound)
		}
		return domain.Return{}, err
	}
	return ret, nil
}

func (r *ReturnsRepository) FindByOrder(ctx context.Context, orderID uint) ([]domain.Return, error) {
	var list []domain.Return
	err := conn(ctx, r.DB).Where("order_id = ?", orderID).Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *ReturnsRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := conn(ctx, r.DB).Model(&domain.Return{}).Where("return_number = ?", number).Count(&count).Error
	return count > 0, err
}

func (r *ReturnsRepository) List(ctx context.Context, filter domain.ReturnFilter) ([]domain.Return, int64, error) {
	var (
		list  []domain.Return
		total int64
	)

	q := conn(ctx, r.DB).Model(&domain.Return{})
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").
		Order("created_at DESC").
		Offset(filter.Page.Offset()).
		Limit(filter.Page.Size).
		Find(&list).Error
	return list, total, err
}

func (r *ReturnsRepository) Update(ctx context.Context, ret *domain.Return) error {
	return conn(ctx, r.DB).Omit("Items").Save(ret).Error
}
