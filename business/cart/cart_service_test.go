package cart

import (
	"context"
	"fmt"
	"testing"

	"abayaStore/business/pricing"
	"abayaStore/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	products map[uint]*domain.Product
	carts    map[uint]*domain.Cart
	items    map[uint]*domain.CartItem
	wishlist map[[2]uint]bool
	pairs    map[[2]uint]bool
	nextCart uint
	nextItem uint

	locked []uint
	// staleFind makes the next FindMatchingItem miss, as if another request
	// inserted the line after it was read.
	staleFind bool
}

func newMemStore() *memStore {
	return &memStore{
		products: map[uint]*domain.Product{},
		carts:    map[uint]*domain.Cart{},
		items:    map[uint]*domain.CartItem{},
		wishlist: map[[2]uint]bool{},
		pairs:    map[[2]uint]bool{},
	}
}

func (m *memStore) hydrate(c domain.Cart) domain.Cart {
	c.Items = nil
	for _, it := range m.items {
		if it.CartID == c.ID {
			cp := *it
			if p, ok := m.products[it.ProductID]; ok {
				pp := *p
				cp.Product = &pp
			}
			c.Items = append(c.Items, cp)
		}
	}
	return c
}

func (m *memStore) FindByUser(_ context.Context, userID uint) (domain.Cart, error) {
	for _, c := range m.carts {
		if c.UserID != nil && *c.UserID == userID {
			return m.hydrate(*c), nil
		}
	}
	return domain.Cart{}, fmt.Errorf("cart %w", domain.ErrNotFound)
}

func (m *memStore) FindBySession(_ context.Context, key string) (domain.Cart, error) {
	for _, c := range m.carts {
		if c.SessionKey != nil && *c.SessionKey == key {
			return m.hydrate(*c), nil
		}
	}
	return domain.Cart{}, fmt.Errorf("cart %w", domain.ErrNotFound)
}

func (m *memStore) Create(_ context.Context, c *domain.Cart) error {
	m.nextCart++
	c.ID = m.nextCart
	cp := *c
	m.carts[c.ID] = &cp
	return nil
}

func (m *memStore) FindItem(_ context.Context, cartID, itemID uint) (domain.CartItem, error) {
	it, ok := m.items[itemID]
	if !ok || it.CartID != cartID {
		return domain.CartItem{}, fmt.Errorf("cart item %w", domain.ErrNotFound)
	}
	return *it, nil
}

func (m *memStore) LockCart(_ context.Context, cartID uint) error {
	m.locked = append(m.locked, cartID)
	return nil
}

func (m *memStore) FindMatchingItem(_ context.Context, cartID uint, v domain.CartItem) (domain.CartItem, error) {
	if m.staleFind {
		m.staleFind = false
		return domain.CartItem{}, fmt.Errorf("cart item %w", domain.ErrNotFound)
	}
	for _, it := range m.items {
		if it.CartID == cartID && it.SameVariant(v) {
			return *it, nil
		}
	}
	return domain.CartItem{}, fmt.Errorf("cart item %w", domain.ErrNotFound)
}

func (m *memStore) UpsertItem(_ context.Context, it *domain.CartItem) error {
	it.VariantKey = it.Key()
	for _, existing := range m.items {
		if existing.CartID == it.CartID && existing.VariantKey == it.VariantKey {
			existing.Quantity += it.Quantity
			it.ID = existing.ID
			return nil
		}
	}
	m.nextItem++
	it.ID = m.nextItem
	cp := *it
	m.items[it.ID] = &cp
	return nil
}

func (m *memStore) UpdateItemQuantity(_ context.Context, id uint, q int) error {
	m.items[id].Quantity = q
	return nil
}

func (m *memStore) DeleteItem(_ context.Context, id uint) error {
	delete(m.items, id)
	return nil
}

func (m *memStore) ClearItems(_ context.Context, cartID uint) error {
	for id, it := range m.items {
		if it.CartID == cartID {
			delete(m.items, id)
		}
	}
	return nil
}

func (m *memStore) DeleteCart(_ context.Context, cartID uint) error {
	delete(m.carts, cartID)
	return nil
}

type productReader struct{ m *memStore }

func (r productReader) FindByID(_ context.Context, id uint) (domain.Product, error) {
	p, ok := r.m.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %w", domain.ErrNotFound)
	}
	return *p, nil
}

type attrs struct{ m *memStore }

func (a attrs) FindColor(_ context.Context, id uint) (domain.Color, error) {
	return domain.Color{ID: id, Name: fmt.Sprintf("color-%d", id)}, nil
}

func (a attrs) FindFabric(_ context.Context, id uint) (domain.Fabric, error) {
	return domain.Fabric{ID: id, Name: fmt.Sprintf("fabric-%d", id)}, nil
}

func (a attrs) FabricColorExists(_ context.Context, fabricID, colorID uint) (bool, error) {
	return a.m.pairs[[2]uint{fabricID, colorID}], nil
}

type wishlistRepo struct{ m *memStore }

func (w wishlistRepo) ListByUser(_ context.Context, userID uint) ([]domain.WishlistItem, error) {
	var out []domain.WishlistItem
	for k := range w.m.wishlist {
		if k[0] == userID {
			out = append(out, domain.WishlistItem{UserID: k[0], ProductID: k[1]})
		}
	}
	return out, nil
}

func (w wishlistRepo) Add(_ context.Context, it *domain.WishlistItem) error {
	w.m.wishlist[[2]uint{it.UserID, it.ProductID}] = true
	return nil
}

func (w wishlistRepo) Remove(_ context.Context, userID, productID uint) error {
	delete(w.m.wishlist, [2]uint{userID, productID})
	return nil
}

type fixedCoupon struct{}

func (fixedCoupon) Validate(_ context.Context, code string, subtotal decimal.Decimal) (domain.Coupon, decimal.Decimal, error) {
	if code != "SAVE200" {
		return domain.Coupon{}, decimal.Zero, fmt.Errorf("%w: invalid coupon code", domain.ErrInvalidInput)
	}
	return domain.Coupon{Code: code}, decimal.NewFromInt(200), nil
}

type doubler struct{}

// doubler pretends every non-empty currency is worth twice the base.
func (doubler) ConvertFromDefault(_ context.Context, amount decimal.Decimal, code string) (decimal.Decimal, domain.Currency, error) {
	if code == "" {
		return amount, domain.FallbackCurrency(), nil
	}
	return amount.Mul(decimal.NewFromInt(2)), domain.Currency{Code: code}, nil
}

type countingTx struct{ calls int }

func (t *countingTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setup(t *testing.T) (*cartService, *memStore) {
	t.Helper()
	m := newMemStore()
	m.products[1] = &domain.Product{ID: 1, Name: "Nida Abaya", Price: d("1500"), SalePrice: decimal.NewNullDecimal(d("1200")), Quantity: 5, IsActive: true}
	m.products[2] = &domain.Product{ID: 2, Name: "Hijab", Price: d("300"), Quantity: 10, IsActive: true}
	m.products[3] = &domain.Product{ID: 3, Name: "Retired", Price: d("300"), Quantity: 10, IsActive: false}

	svc := NewCartService(m, productReader{m}, attrs{m}, fixedCoupon{}, doubler{}, pricing.NewCalculator(pricing.DefaultRules()), &countingTx{})
	return svc, m
}

func ptr(v uint) *uint { return &v }

var guest = domain.CartOwner{SessionKey: "guest-1"}
var member = domain.CartOwner{UserID: 7}

func TestGetCartCreatesLazily(t *testing.T) {
	svc, m := setup(t)

	view, err := svc.GetCart(context.Background(), guest, "")
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Len(t, m.carts, 1)

	_, err = svc.GetCart(context.Background(), guest, "")
	require.NoError(t, err)
	assert.Len(t, m.carts, 1)

	_, err = svc.GetCart(context.Background(), domain.CartOwner{}, "")
	assert.ErrorIs(t, err, ErrNoOwner)
}

func TestAddItemMergesIdenticalLines(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, member, AddItemInput{ProductID: 1, Quantity: 2, SizeID: ptr(1)})
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, member, AddItemInput{ProductID: 1, Quantity: 1, SizeID: ptr(1)})
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	assert.Equal(t, 3, view.Lines[0].Item.Quantity)
	assert.True(t, d("3600").Equal(view.Subtotal))

	view, err = svc.AddItem(ctx, member, AddItemInput{ProductID: 1, Quantity: 1, SizeID: ptr(2)})
	require.NoError(t, err)
	assert.Len(t, view.Lines, 2)
	assert.Equal(t, 4, view.ItemCount)
}

func TestAddItemRunsUnderCartLock(t *testing.T) {
	svc, m := setup(t)
	ctx := context.Background()
	tx := svc.tx.(*countingTx)

	view, err := svc.AddItem(ctx, member, AddItemInput{ProductID: 2, Quantity: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, tx.calls)
	assert.Equal(t, []uint{view.CartID}, m.locked)
}

func TestAddItemSameVariantRaceKeepsOneLine(t *testing.T) {
	svc, m := setup(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, member, AddItemInput{ProductID: 2, Quantity: 2, ColorID: ptr(4)})
	require.NoError(t, err)

	m.staleFind = true
	view, err := svc.AddItem(ctx, member, AddItemInput{ProductID: 2, Quantity: 3, ColorID: ptr(4)})
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	assert.Equal(t, 5, view.Lines[0].Item.Quantity)
	assert.Len(t, m.items, 1)
}

func TestAddItemStockCountsExistingLine(t *testing.T) {
	svc, m := setup(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, member, AddItemInput{ProductID: 1, Quantity: 4})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, member, AddItemInput{ProductID: 1, Quantity: 2})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	require.Len(t, m.items, 1)
	for _, it := range m.items {
		assert.Equal(t, 4, it.Quantity)
	}
}

func TestAddItemRules(t *testing.T) {
	svc, m := setup(t)
	ctx := context.Background()
	m.pairs[[2]uint{1, 1}] = true

	_, err := svc.AddItem(ctx, member, AddItemInput{ProductID: 1, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddItem(ctx, member, AddItemInput{ProductID: 3, Quantity: 1})
	assert.ErrorIs(t, err, ErrProductUnavailable)

	_, err = svc.AddItem(ctx, member, AddItemInput{ProductID: 99, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.AddItem(ctx, member, AddItemInput{ProductID: 1, Quantity: 6})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.AddItem(ctx, member, AddItemInput{ProductID: 1, Quantity: 1, FabricID: ptr(1), ColorID: ptr(2)})
	assert.ErrorIs(t, err, ErrVariantUnavailable)
	assert.Contains(t, err.Error(), "color color-2 is not available for fabric fabric-1")

	_, err = svc.AddItem(ctx, member, AddItemInput{ProductID: 1, Quantity: 1, FabricID: ptr(1), ColorID: ptr(1)})
	assert.NoError(t, err)

	// existing line of 1 plus 5 exceeds the 5 on hand
	_, err = svc.AddItem(ctx, member, AddItemInput{ProductID: 1, Quantity: 5, FabricID: ptr(1), ColorID: ptr(1)})
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestUpdateItemQuantity(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	view, err := svc.AddItem(ctx, guest, AddItemInput{ProductID: 2, Quantity: 1})
	require.NoError(t, err)
	itemID := view.Lines[0].Item.ID

	_, err = svc.UpdateItemQuantity(ctx, guest, itemID, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.UpdateItemQuantity(ctx, guest, itemID, 11)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	view, err = svc.UpdateItemQuantity(ctx, guest, itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.ItemCount)

	// another owner cannot touch the line
	_, err = svc.UpdateItemQuantity(ctx, member, itemID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	view, err = svc.UpdateItemQuantity(ctx, guest, itemID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
}

func TestMergeGuestCart(t *testing.T) {
	svc, m := setup(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, guest, AddItemInput{ProductID: 1, Quantity: 2, SizeID: ptr(1)})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, guest, AddItemInput{ProductID: 2, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, member, AddItemInput{ProductID: 1, Quantity: 1, SizeID: ptr(1)})
	require.NoError(t, err)

	require.NoError(t, svc.MergeGuestCart(ctx, guest.SessionKey, member.UserID))

	_, err = m.FindBySession(ctx, guest.SessionKey)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	view, err := svc.GetCart(ctx, member, "")
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)

	quantities := map[uint]int{}
	for _, l := range view.Lines {
		quantities[l.Item.ProductID] = l.Item.Quantity
	}
	assert.Equal(t, 3, quantities[1])
	assert.Equal(t, 1, quantities[2])

	// second merge has nothing to do
	require.NoError(t, svc.MergeGuestCart(ctx, guest.SessionKey, member.UserID))
	view, err = svc.GetCart(ctx, member, "")
	require.NoError(t, err)
	assert.Equal(t, 4, view.ItemCount)
}

func TestSummary(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, member, AddItemInput{ProductID: 2, Quantity: 5})
	require.NoError(t, err)

	s, err := svc.Summary(ctx, member, SummaryInput{CouponCode: "SAVE200", State: "Sikkim"})
	require.NoError(t, err)
	assert.True(t, d("1500").Equal(s.Subtotal))
	assert.True(t, d("200").Equal(s.Discount))
	assert.True(t, d("150").Equal(s.Shipping))
	assert.True(t, d("234").Equal(s.Tax))
	assert.True(t, d("1684").Equal(s.Total))
	assert.Equal(t, "INR", s.Currency)
	assert.Equal(t, "SAVE200", s.CouponCode)

	s, err = svc.Summary(ctx, member, SummaryInput{Currency: "USD"})
	require.NoError(t, err)
	assert.True(t, d("3000").Equal(s.Subtotal))
	assert.Equal(t, "USD", s.Currency)

	_, err = svc.Summary(ctx, member, SummaryInput{CouponCode: "BOGUS"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetCartConvertsCurrency(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, member, AddItemInput{ProductID: 2, Quantity: 2})
	require.NoError(t, err)

	view, err := svc.GetCart(ctx, member, "AED")
	require.NoError(t, err)
	assert.Equal(t, "AED", view.Currency)
	assert.True(t, d("600").Equal(view.Lines[0].UnitPrice))
	assert.True(t, d("1200").Equal(view.Subtotal))
}

func TestWishlistMoveToCart(t *testing.T) {
	svc, m := setup(t)
	ctx := context.Background()
	wl := NewWishlistService(wishlistRepo{m}, svc, &countingTx{})

	require.NoError(t, wl.AddToWishlist(ctx, member.UserID, 2))
	require.NoError(t, wl.AddToWishlist(ctx, member.UserID, 2))
	assert.ErrorIs(t, wl.AddToWishlist(ctx, member.UserID, 3), ErrProductUnavailable)

	items, err := wl.ListWishlist(ctx, member.UserID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	view, err := wl.MoveToCart(ctx, member.UserID, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, view.ItemCount)

	items, err = wl.ListWishlist(ctx, member.UserID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
