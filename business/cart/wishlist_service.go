package cart

import (
	"context"

	"abayaStore/domain"
	"abayaStore/pkg/logger"
)

type WishlistRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]domain.WishlistItem, error)
	// Add ignores a product that is already on the list.
	Add(ctx context.Context, item *domain.WishlistItem) error
	Remove(ctx context.Context, userID, productID uint) error
}

type wishlistService struct {
	repo  WishlistRepository
	carts *cartService
	tx    Transactor
}

func NewWishlistService(repo WishlistRepository, carts *cartService, tx Transactor) *wishlistService {
	return &wishlistService{
		repo:  repo,
		carts: carts,
		tx:    tx,
	}
}

func (s *wishlistService) ListWishlist(ctx context.Context, userID uint) ([]domain.WishlistItem, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *wishlistService) AddToWishlist(ctx context.Context, userID, productID uint) error {
	if _, err := s.carts.availableProduct(ctx, productID); err != nil {
		return err
	}

	return s.repo.Add(ctx, &domain.WishlistItem{UserID: userID, ProductID: productID})
}

func (s *wishlistService) RemoveFromWishlist(ctx context.Context, userID, productID uint) error {
	return s.repo.Remove(ctx, userID, productID)
}

// MoveToCart adds one unit of the product to the user's cart and takes it
// off the wishlist.
func (s *wishlistService) MoveToCart(ctx context.Context, userID, productID uint) (domain.CartView, error) {
	owner := domain.CartOwner{UserID: userID}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.cartFor(ctx, owner)
		if err != nil {
			return err
		}
		if err := s.carts.addItem(ctx, cart, AddItemInput{ProductID: productID, Quantity: 1}); err != nil {
			return err
		}
		return s.repo.Remove(ctx, userID, productID)
	})
	if err != nil {
		logger.Warn("Failed to move wishlist item to cart", err, "product_id", productID)
		return domain.CartView{}, err
	}

	return s.carts.reload(ctx, owner)
}
