package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"abayaStore/business/pricing"
	"abayaStore/domain"
	"abayaStore/pkg/logger"

	"github.com/shopspring/decimal"
)

type CartRepository interface {
	FindByUser(ctx context.Context, userID uint) (domain.Cart, error)
	FindBySession(ctx context.Context, sessionKey string) (domain.Cart, error)
	Create(ctx context.Context, cart *domain.Cart) error
	FindItem(ctx context.Context, cartID, itemID uint) (domain.CartItem, error)
	LockCart(ctx context.Context, cartID uint) error
	FindMatchingItem(ctx context.Context, cartID uint, variant domain.CartItem) (domain.CartItem, error)
	UpsertItem(ctx context.Context, item *domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uint, quantity int) error
	DeleteItem(ctx context.Context, itemID uint) error
	ClearItems(ctx context.Context, cartID uint) error
	DeleteCart(ctx context.Context, cartID uint) error
}

type ProductRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Product, error)
}

type AttributeRepository interface {
	FindColor(ctx context.Context, id uint) (domain.Color, error)
	FindFabric(ctx context.Context, id uint) (domain.Fabric, error)
	FabricColorExists(ctx context.Context, fabricID, colorID uint) (bool, error)
}

type CouponValidator interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (domain.Coupon, decimal.Decimal, error)
}

type CurrencyConverter interface {
	ConvertFromDefault(ctx context.Context, amount decimal.Decimal, code string) (decimal.Decimal, domain.Currency, error)
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

var (
	ErrInvalidQuantity    = fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidInput)
	ErrProductUnavailable = fmt.Errorf("%w: product is not available", domain.ErrInvalidInput)
	ErrInsufficientStock  = fmt.Errorf("%w: insufficient stock", domain.ErrConflict)
	ErrVariantUnavailable = fmt.Errorf("%w: variant not available", domain.ErrInvalidInput)
	ErrNoOwner            = fmt.Errorf("%w: cart requires a user or guest session", domain.ErrInvalidInput)
)

type AddItemInput struct {
	ProductID uint  `json:"product_id" validate:"required"`
	Quantity  int   `json:"quantity"`
	SizeID    *uint `json:"size_id"`
	ColorID   *uint `json:"color_id"`
	FabricID  *uint `json:"fabric_id"`
}

type SummaryInput struct {
	CouponCode string
	State      string
	Currency   string
}

type cartService struct {
	cartRepo    CartRepository
	productRepo ProductRepository
	attrRepo    AttributeRepository
	coupons     CouponValidator
	currencies  CurrencyConverter
	pricer      *pricing.Calculator
	tx          Transactor
}

func NewCartService(
	cartRepo CartRepository,
	productRepo ProductRepository,
	attrRepo AttributeRepository,
	coupons CouponValidator,
	currencies CurrencyConverter,
	pricer *pricing.Calculator,
	tx Transactor,
) *cartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		attrRepo:    attrRepo,
		coupons:     coupons,
		currencies:  currencies,
		pricer:      pricer,
		tx:          tx,
	}
}

func (s *cartService) find(ctx context.Context, owner domain.CartOwner) (domain.Cart, error) {
	if owner.IsGuest() {
		return s.cartRepo.FindBySession(ctx, owner.SessionKey)
	}
	return s.cartRepo.FindByUser(ctx, owner.UserID)
}

// cartFor loads the owner's cart, creating it on first use.
func (s *cartService) cartFor(ctx context.Context, owner domain.CartOwner) (domain.Cart, error) {
	if !owner.Valid() {
		return domain.Cart{}, ErrNoOwner
	}

	cart, err := s.find(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Cart{}, err
	}

	cart = domain.Cart{}
	if owner.IsGuest() {
		key := owner.SessionKey
		cart.SessionKey = &key
	} else {
		id := owner.UserID
		cart.UserID = &id
	}

	if err := s.cartRepo.Create(ctx, &cart); err != nil {
		// another request created it first
		if errors.Is(err, domain.ErrConflict) {
			return s.find(ctx, owner)
		}
		return domain.Cart{}, err
	}

	return cart, nil
}

func variantLabel(item domain.CartItem) string {
	var parts []string
	if item.Size != nil {
		parts = append(parts, item.Size.Name)
	}
	if item.Color != nil {
		parts = append(parts, item.Color.Name)
	}
	if item.Fabric != nil {
		parts = append(parts, item.Fabric.Name)
	}
	return strings.Join(parts, " / ")
}

func buildView(cart domain.Cart) domain.CartView {
	view := domain.CartView{
		CartID:   cart.ID,
		Lines:    make([]domain.CartLine, 0, len(cart.Items)),
		Subtotal: decimal.Zero,
	}

	for _, item := range cart.Items {
		line := domain.CartLine{Item: item, Variant: variantLabel(item)}
		if item.Product != nil {
			line.UnitPrice = item.Product.ActivePrice()
			line.InStock = item.Product.IsActive && item.Product.Quantity >= item.Quantity
		}
		line.LineTotal = domain.Round2(line.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))

		view.Lines = append(view.Lines, line)
		view.Subtotal = view.Subtotal.Add(line.LineTotal)
		view.ItemCount += item.Quantity
	}

	return view
}

func (s *cartService) reload(ctx context.Context, owner domain.CartOwner) (domain.CartView, error) {
	cart, err := s.cartFor(ctx, owner)
	if err != nil {
		return domain.CartView{}, err
	}
	return buildView(cart), nil
}

// GetCart returns the priced cart, creating an empty one if needed. Prices
// are converted when currencyCode names another active currency.
func (s *cartService) GetCart(ctx context.Context, owner domain.CartOwner, currencyCode string) (domain.CartView, error) {
	view, err := s.reload(ctx, owner)
	if err != nil {
		logger.Error("Failed to load cart", err)
		return domain.CartView{}, err
	}

	convert := func(amount decimal.Decimal) (decimal.Decimal, error) {
		converted, cur, err := s.currencies.ConvertFromDefault(ctx, amount, currencyCode)
		view.Currency = cur.Code
		return converted, err
	}

	for i := range view.Lines {
		if view.Lines[i].UnitPrice, err = convert(view.Lines[i].UnitPrice); err != nil {
			return domain.CartView{}, err
		}
		if view.Lines[i].LineTotal, err = convert(view.Lines[i].LineTotal); err != nil {
			return domain.CartView{}, err
		}
	}
	if view.Subtotal, err = convert(view.Subtotal); err != nil {
		return domain.CartView{}, err
	}

	return view, nil
}

func (s *cartService) checkVariant(ctx context.Context, in AddItemInput) error {
	if in.ColorID == nil || in.FabricID == nil {
		return nil
	}

	ok, err := s.attrRepo.FabricColorExists(ctx, *in.FabricID, *in.ColorID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	color, err := s.attrRepo.FindColor(ctx, *in.ColorID)
	if err != nil {
		return err
	}
	fabric, err := s.attrRepo.FindFabric(ctx, *in.FabricID)
	if err != nil {
		return err
	}

	return fmt.Errorf("%w: color %s is not available for fabric %s", ErrVariantUnavailable, color.Name, fabric.Name)
}

func (s *cartService) availableProduct(ctx context.Context, productID uint) (domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	if !product.IsActive {
		return domain.Product{}, ErrProductUnavailable
	}
	return product, nil
}

func stockError(product domain.Product) error {
	return fmt.Errorf("%w: only %d of %s left", ErrInsufficientStock, product.Quantity, product.Name)
}

// addItem merges into an identical line when one exists. The stock check
// covers the resulting line quantity and runs under the cart lock.
func (s *cartService) addItem(ctx context.Context, cart domain.Cart, in AddItemInput) error {
	if in.Quantity < 1 {
		return ErrInvalidQuantity
	}

	product, err := s.availableProduct(ctx, in.ProductID)
	if err != nil {
		return err
	}

	if err := s.checkVariant(ctx, in); err != nil {
		return err
	}

	variant := domain.CartItem{
		CartID:    cart.ID,
		ProductID: in.ProductID,
		SizeID:    in.SizeID,
		ColorID:   in.ColorID,
		FabricID:  in.FabricID,
		Quantity:  in.Quantity,
	}

	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.cartRepo.LockCart(ctx, cart.ID); err != nil {
			return err
		}

		inCart := 0
		existing, err := s.cartRepo.FindMatchingItem(ctx, cart.ID, variant)
		switch {
		case err == nil:
			inCart = existing.Quantity
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		if inCart+in.Quantity > product.Quantity {
			return stockError(product)
		}
		return s.cartRepo.UpsertItem(ctx, &variant)
	})
}

func (s *cartService) AddItem(ctx context.Context, owner domain.CartOwner, in AddItemInput) (domain.CartView, error) {
	cart, err := s.cartFor(ctx, owner)
	if err != nil {
		return domain.CartView{}, err
	}

	if err := s.addItem(ctx, cart, in); err != nil {
		logger.Warn("Failed to add cart item", err, "product_id", in.ProductID)
		return domain.CartView{}, err
	}

	return s.reload(ctx, owner)
}

// UpdateItemQuantity sets a line's quantity. Zero removes the line.
func (s *cartService) UpdateItemQuantity(ctx context.Context, owner domain.CartOwner, itemID uint, quantity int) (domain.CartView, error) {
	if quantity < 0 {
		return domain.CartView{}, fmt.Errorf("%w: quantity cannot be negative", domain.ErrInvalidInput)
	}

	cart, err := s.cartFor(ctx, owner)
	if err != nil {
		return domain.CartView{}, err
	}

	item, err := s.cartRepo.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		return domain.CartView{}, err
	}

	if quantity == 0 {
		if err := s.cartRepo.DeleteItem(ctx, item.ID); err != nil {
			return domain.CartView{}, err
		}
		return s.reload(ctx, owner)
	}

	product, err := s.availableProduct(ctx, item.ProductID)
	if err != nil {
		return domain.CartView{}, err
	}
	if quantity > product.Quantity {
		return domain.CartView{}, stockError(product)
	}

	if err := s.cartRepo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
		logger.Error("Failed to update cart item", err)
		return domain.CartView{}, err
	}

	return s.reload(ctx, owner)
}

func (s *cartService) RemoveItem(ctx context.Context, owner domain.CartOwner, itemID uint) (domain.CartView, error) {
	cart, err := s.cartFor(ctx, owner)
	if err != nil {
		return domain.CartView{}, err
	}

	if _, err := s.cartRepo.FindItem(ctx, cart.ID, itemID); err != nil {
		return domain.CartView{}, err
	}

	if err := s.cartRepo.DeleteItem(ctx, itemID); err != nil {
		return domain.CartView{}, err
	}

	return s.reload(ctx, owner)
}

func (s *cartService) ClearCart(ctx context.Context, owner domain.CartOwner) error {
	cart, err := s.cartFor(ctx, owner)
	if err != nil {
		return err
	}
	return s.cartRepo.ClearItems(ctx, cart.ID)
}

// MergeGuestCart folds a guest cart into the user's cart and deletes it.
// Merging a session that has no cart is a no-op.
func (s *cartService) MergeGuestCart(ctx context.Context, sessionKey string, userID uint) error {
	if sessionKey == "" || userID == 0 {
		return nil
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		guest, err := s.cartRepo.FindBySession(ctx, sessionKey)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}

		userCart, err := s.cartFor(ctx, domain.CartOwner{UserID: userID})
		if err != nil {
			return err
		}

		if err := s.cartRepo.LockCart(ctx, userCart.ID); err != nil {
			return err
		}
		for _, item := range guest.Items {
			moved := domain.CartItem{
				CartID:    userCart.ID,
				ProductID: item.ProductID,
				SizeID:    item.SizeID,
				ColorID:   item.ColorID,
				FabricID:  item.FabricID,
				Quantity:  item.Quantity,
			}
			if err := s.cartRepo.UpsertItem(ctx, &moved); err != nil {
				return err
			}
		}

		if err := s.cartRepo.ClearItems(ctx, guest.ID); err != nil {
			return err
		}
		return s.cartRepo.DeleteCart(ctx, guest.ID)
	})
	if err != nil {
		logger.Error("Failed to merge guest cart", err, "user_id", userID)
		return err
	}

	return nil
}

// Summary prices the cart with an optional coupon and shipping state, and
// converts every figure when a display currency is requested.
func (s *cartService) Summary(ctx context.Context, owner domain.CartOwner, in SummaryInput) (domain.CartSummary, error) {
	view, err := s.reload(ctx, owner)
	if err != nil {
		return domain.CartSummary{}, err
	}

	discount := decimal.Zero
	code := ""
	if strings.TrimSpace(in.CouponCode) != "" && view.ItemCount > 0 {
		c, d, err := s.coupons.Validate(ctx, in.CouponCode, view.Subtotal)
		if err != nil {
			return domain.CartSummary{}, err
		}
		discount, code = d, c.Code
	}

	q := s.pricer.Quote(view.Subtotal, discount, in.State)
	summary := domain.CartSummary{
		Subtotal:   q.Subtotal,
		Discount:   q.Discount,
		Shipping:   q.Shipping,
		Tax:        q.Tax,
		Total:      q.Total,
		CouponCode: code,
		ItemCount:  view.ItemCount,
	}

	fields := []*decimal.Decimal{&summary.Subtotal, &summary.Discount, &summary.Shipping, &summary.Tax, &summary.Total}
	for _, f := range fields {
		converted, cur, err := s.currencies.ConvertFromDefault(ctx, *f, in.Currency)
		if err != nil {
			return domain.CartSummary{}, err
		}
		*f = converted
		summary.Currency = cur.Code
	}

	return summary, nil
}
