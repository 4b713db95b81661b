package postgres

import (
	"context"
	"errors"
	"fmt"

	"abayaStore/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository struct {
	DB *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{DB: db}
}

func (r *CartRepository) withItems(ctx context.Context) *gorm.DB {
	return conn(ctx, r.DB).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id") }).
		Preload("Items.Product").
		Preload("Items.Size").
		Preload("Items.Color").
		Preload("Items.Fabric")
}

func (r *CartRepository) findOne(ctx context.Context, query string, arg interface{}) (domain.Cart, error) {
	var cart domain.Cart
	if err := r.withItems(ctx).Where(query, arg).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Cart{}, fmt.Errorf("cart %w", domain.ErrNotFound)
		}
		return domain.Cart{}, err
	}
	return cart, nil
}

func (r *CartRepository) FindByUser(ctx context.Context, userID uint) (domain.Cart, error) {
	return r.findOne(ctx, "user_id = ?", userID)
}

func (r *CartRepository) FindBySession(ctx context.Context, sessionKey string) (domain.Cart, error) {
	return r.findOne(ctx, "session_key = ?", sessionKey)
}

func (r *CartRepository) Create(ctx context.Context, cart *domain.Cart) error {
	if err := conn(ctx, r.DB).Omit(clause.Associations).Create(cart).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("cart %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *CartRepository) FindItem(ctx context.Context, cartID, itemID uint) (domain.CartItem, error) {
	var item domain.CartItem
	if err := conn(ctx, r.DB).Where("id = ? AND cart_id = ?", itemID, cartID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CartItem{}, fmt.Errorf("cart item %w", domain.ErrNotFound)
		}
		return domain.CartItem{}, err
	}
	return item, nil
}

// LockCart takes a row lock on the cart for the rest of the transaction.
// Writers of the same cart queue behind it.
func (r *CartRepository) LockCart(ctx context.Context, cartID uint) error {
	var cart domain.Cart
	err := conn(ctx, r.DB).Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", cartID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("cart %w", domain.ErrNotFound)
	}
	return err
}

func (r *CartRepository) FindMatchingItem(ctx context.Context, cartID uint, variant domain.CartItem) (domain.CartItem, error) {
	var item domain.CartItem
	err := conn(ctx, r.DB).
		Where("cart_id = ? AND variant_key = ?", cartID, variant.Key()).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CartItem{}, fmt.Errorf("cart item %w", domain.ErrNotFound)
		}
		return domain.CartItem{}, err
	}
	return item, nil
}

// UpsertItem inserts the line or adds its quantity to the existing line for
// the same variant.
func (r *CartRepository) UpsertItem(ctx context.Context, item *domain.CartItem) error {
	item.VariantKey = item.Key()
	return conn(ctx, r.DB).Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "variant_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("cart_items.quantity + EXCLUDED.quantity"),
				"updated_at": gorm.Expr("EXCLUDED.updated_at"),
			}),
		}).
		Create(item).Error
}

func (r *CartRepository) UpdateItemQuantity(ctx context.Context, itemID uint, quantity int) error {
	result := conn(ctx, r.DB).Model(&domain.CartItem{}).Where("id = ?", itemID).Update("quantity", quantity)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("cart item %w", domain.ErrNotFound)
	}
	return nil
}

func (r *CartRepository) DeleteItem(ctx context.Context, itemID uint) error {
	return conn(ctx, r.DB).Delete(&domain.CartItem{}, itemID).Error
}

func (r *CartRepository) ClearItems(ctx context.Context, cartID uint) error {
	return conn(ctx, r.DB).Where("cart_id = ?", cartID).Delete(&domain.CartItem{}).Error
}

func (r *CartRepository) DeleteCart(ctx context.Context, cartID uint) error {
	return conn(ctx, r.DB).Delete(&domain.Cart{}, cartID).Error
}

type WishlistRepository struct {
	DB *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) *WishlistRepository {
	return &WishlistRepository{DB: db}
}

func (r *WishlistRepository) ListByUser(ctx context.Context, userID uint) ([]domain.WishlistItem, error) {
	var items []domain.WishlistItem
	err := conn(ctx, r.DB).Preload("Product").Where("user_id = ?", userID).Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *WishlistRepository) Add(ctx context.Context, item *domain.WishlistItem) error {
	return conn(ctx, r.DB).Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(item).Error
}

func (r *WishlistRepository) Remove(ctx context.Context, userID, productID uint) error {
	result := conn(ctx, r.DB).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&domain.WishlistItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("wishlist item %w", domain.ErrNotFound)
	}
	return nil
}
