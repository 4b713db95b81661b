package rest

import (
	"context"
	"net/http"

	"abayaStore/business/cart"
	"abayaStore/domain"
	"abayaStore/internal/middleware"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type CartService interface {
	GetCart(ctx context.Context, owner domain.CartOwner, currencyCode string) (domain.CartView, error)
	AddItem(ctx context.Context, owner domain.CartOwner, in cart.AddItemInput) (domain.CartView, error)
	UpdateItemQuantity(ctx context.Context, owner domain.CartOwner, itemID uint, quantity int) (domain.CartView, error)
	RemoveItem(ctx context.Context, owner domain.CartOwner, itemID uint) (domain.CartView, error)
	ClearCart(ctx context.Context, owner domain.CartOwner) error
	MergeGuestCart(ctx context.Context, sessionKey string, userID uint) error
	Summary(ctx context.Context, owner domain.CartOwner, in cart.SummaryInput) (domain.CartSummary, error)
}

type WishlistService interface {
	ListWishlist(ctx context.Context, userID uint) ([]domain.WishlistItem, error)
	AddToWishlist(ctx context.Context, userID, productID uint) error
	RemoveFromWishlist(ctx context.Context, userID, productID uint) error
	MoveToCart(ctx context.Context, userID, productID uint) (domain.CartView, error)
}

type CartHandler struct {
	carts     CartService
	wishlist  WishlistService
	validator *validator.Validate
}

func NewCartHandler(carts CartService, wishlist WishlistService) *CartHandler {
	return &CartHandler{carts: carts, wishlist: wishlist, validator: validator.New()}
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

type WishlistRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
}

// owner prefers the signed-in user and falls back to the guest session.
func owner(c echo.Context) domain.CartOwner {
	if id, ok := middleware.UserID(c); ok {
		return domain.CartOwner{UserID: id}
	}
	return domain.CartOwner{SessionKey: middleware.GuestID(c)}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	view, err := h.carts.GetCart(ctx, owner(c), c.QueryParam("currency"))
	if err != nil {
		return fail(c, "Failed to get cart", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(view))
}

// Summary prices the cart with ?coupon=&state=&currency=.
func (h *CartHandler) Summary(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	summary, err := h.carts.Summary(ctx, owner(c), cart.SummaryInput{
		CouponCode: c.QueryParam("coupon"),
		State:      c.QueryParam("state"),
		Currency:   c.QueryParam("currency"),
	})
	if err != nil {
		return fail(c, "Failed to summarize cart", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(summary))
}

func (h *CartHandler) AddItem(c echo.Context) error {
	var req cart.AddItemInput
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	view, err := h.carts.AddItem(ctx, owner(c), req)
	if err != nil {
		return fail(c, "Failed to add cart item", err)
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(view))
}

// UpdateItem sets an item's quantity. Zero removes the item.
func (h *CartHandler) UpdateItem(c echo.Context) error {
	itemID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var req UpdateCartItemRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	view, err := h.carts.UpdateItemQuantity(ctx, owner(c), itemID, req.Quantity)
	if err != nil {
		return fail(c, "Failed to update cart item", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(view))
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	itemID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	view, err := h.carts.RemoveItem(ctx, owner(c), itemID)
	if err != nil {
		return fail(c, "Failed to remove cart item", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(view))
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.carts.ClearCart(ctx, owner(c)); err != nil {
		return fail(c, "Failed to clear cart", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK("Cart cleared"))
}

// Merge folds the X-Guest-ID cart into the signed-in user's cart.
func (h *CartHandler) Merge(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	guestID := c.Request().Header.Get(middleware.HeaderGuestID)
	if !middleware.ValidGuestID(guestID) {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "missing or invalid " + middleware.HeaderGuestID + " header"})
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.carts.MergeGuestCart(ctx, guestID, userID); err != nil {
		return fail(c, "Failed to merge guest cart", err)
	}
	view, err := h.carts.GetCart(ctx, domain.CartOwner{UserID: userID}, "")
	if err != nil {
		return fail(c, "Failed to get cart", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(view))
}

func (h *CartHandler) ListWishlist(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	items, err := h.wishlist.ListWishlist(ctx, userID)
	if err != nil {
		return fail(c, "Failed to list wishlist", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(items))
}

func (h *CartHandler) AddToWishlist(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	var req WishlistRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.wishlist.AddToWishlist(ctx, userID, req.ProductID); err != nil {
		return fail(c, "Failed to add to wishlist", err)
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated("Added to wishlist"))
}

func (h *CartHandler) RemoveFromWishlist(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	productID, ok := paramID(c, "productId")
	if !ok {
		return badID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.wishlist.RemoveFromWishlist(ctx, userID, productID); err != nil {
		return fail(c, "Failed to remove from wishlist", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK("Removed from wishlist"))
}

func (h *CartHandler) MoveToCart(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	productID, ok := paramID(c, "productId")
	if !ok {
		return badID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	view, err := h.wishlist.MoveToCart(ctx, userID, productID)
	if err != nil {
		return fail(c, "Failed to move wishlist item to cart", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(view))
}
