package postgres

import (
	"context"
	"errors"
	"fmt"

	"abayaStore/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttributeRepository struct {
	DB *gorm.DB
}

func NewAttributeRepository(db *gorm.DB) *AttributeRepository {
	return &AttributeRepository{DB: db}
}

func (r *AttributeRepository) ListSizes(ctx context.Context) ([]domain.Size, error) {
	var sizes []domain.Size
	err := conn(ctx, r.DB).Order("sort_order, name").Find(&sizes).Error
	return sizes, err
}

func (r *AttributeRepository) ListColors(ctx context.Context) ([]domain.Color, error) {
	var colors []domain.Color
	err := conn(ctx, r.DB).Order("name").Find(&colors).Error
	return colors, err
}

func (r *AttributeRepository) ListFabrics(ctx context.Context) ([]domain.Fabric, error) {
	var fabrics []domain.Fabric
	err := conn(ctx, r.DB).Order("name").Find(&fabrics).Error
	return fabrics, err
}

func (r *AttributeRepository) ListFabricColors(ctx context.Context) ([]domain.FabricColor, error) {
	var pairs []domain.FabricColor
	err := conn(ctx, r.DB).Order("fabric_id, color_id").Find(&pairs).Error
	return pairs, err
}

func (r *AttributeRepository) create(ctx context.Context, kind string, value interface{}) error {
	if err := conn(ctx, r.DB).Create(value).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%s name %w", kind, domain.ErrConflict)
		}
		return fmt.Errorf("failed to create %s: %w", kind, err)
	}
	return nil
}

func (r *AttributeRepository) CreateSize(ctx context.Context, size *domain.Size) error {
	return r.create(ctx, "size", size)
}

func (r *AttributeRepository) CreateColor(ctx context.Context, color *domain.Color) error {
	return r.create(ctx, "color", color)
}

func (r *AttributeRepository) CreateFabric(ctx context.Context, fabric *domain.Fabric) error {
	return r.create(ctx, "fabric", fabric)
}

func (r *AttributeRepository) delete(ctx context.Context, kind string, model interface{}, id uint) error {
	result := conn(ctx, r.DB).Delete(model, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s %w", kind, domain.ErrNotFound)
	}
	return nil
}

func (r *AttributeRepository) DeleteSize(ctx context.Context, id uint) error {
	return r.delete(ctx, "size", &domain.Size{}, id)
}

func (r *AttributeRepository) DeleteColor(ctx context.Context, id uint) error {
	return r.delete(ctx, "color", &domain.Color{}, id)
}

func (r *AttributeRepository) DeleteFabric(ctx context.Context, id uint) error {
	return r.delete(ctx, "fabric", &domain.Fabric{}, id)
}

func (r *AttributeRepository) FindSize(ctx context.Context, id uint) (domain.Size, error) {
	var size domain.Size
	if err := conn(ctx, r.DB).First(&size, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Size{}, fmt.Errorf("size %w", domain.ErrNotFound)
		}
		return domain.Size{}, err
	}
	return size, nil
}

func (r *AttributeRepository) FindColor(ctx context.Context, id uint) (domain.Color, error) {
	var color domain.Color
	if err := conn(ctx, r.DB).First(&color, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Color{}, fmt.Errorf("color %w", domain.ErrNotFound)
		}
		return domain.Color{}, err
	}
	return color, nil
}

func (r *AttributeRepository) FindFabric(ctx context.Context, id uint) (domain.Fabric, error) {
	var fabric domain.Fabric
	if err := conn(ctx, r.DB).First(&fabric, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Fabric{}, fmt.Errorf("fabric %w", domain.ErrNotFound)
		}
		return domain.Fabric{}, err
	}
	return fabric, nil
}

// AddFabricColor is idempotent on the (fabric, color) pair.
func (r *AttributeRepository) AddFabricColor(ctx context.Context, fabricID, colorID uint) error {
	pair := domain.FabricColor{FabricID: fabricID, ColorID: colorID}
	return conn(ctx, r.DB).Clauses(clause.OnConflict{DoNothing: true}).Create(&pair).Error
}

func (r *AttributeRepository) RemoveFabricColor(ctx context.Context, fabricID, colorID uint) error {
	result := conn(ctx, r.DB).Where("fabric_id = ? AND color_id = ?", fabricID, colorID).Delete(&domain.FabricColor{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("fabric color %w", domain.ErrNotFound)
	}
	return nil
}

func (r *AttributeRepository) FabricColorExists(ctx context.Context, fabricID, colorID uint) (bool, error) {
	var count int64
	err := conn(ctx, r.DB).Model(&domain.FabricColor{}).
		Where("fabric_id = ? AND color_id = ?", fabricID, colorID).
		Count(&count).Error
	return count > 0, err
}
