package user

import (
	"context"
	"errors"
	"testing"

	"abayaStore/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passTx struct{}

func (passTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeAddressRepo struct {
	rows   map[uint]*domain.Address
	nextID uint
}

func (r *fakeAddressRepo) ListByUser(_ context.Context, userID uint) ([]domain.Address, error) {
	var out []domain.Address
	for _, a := range r.rows {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAddressRepo) FindByID(_ context.Context, id uint) (domain.Address, error) {
	a, ok := r.rows[id]
	if !ok {
		return domain.Address{}, domain.ErrNotFound
	}
	return *a, nil
}

func (r *fakeAddressRepo) Create(_ context.Context, a *domain.Address) error {
	r.nextID++
	a.ID = r.nextID
	cp := *a
	r.rows[a.ID] = &cp
	return nil
}

func (r *fakeAddressRepo) Update(_ context.Context, a *domain.Address) error {
	cp := *a
	r.rows[a.ID] = &cp
	return nil
}

func (r *fakeAddressRepo) Delete(_ context.Context, id uint) error {
	delete(r.rows, id)
	return nil
}

func (r *fakeAddressRepo) CountByUser(_ context.Context, userID uint, addrType string) (int64, error) {
	var n int64
	for _, a := range r.rows {
		if a.UserID == userID && a.Type == addrType {
			n++
		}
	}
	return n, nil
}

func (r *fakeAddressRepo) ClearDefault(_ context.Context, userID uint, addrType string, exceptID uint) error {
	for _, a := range r.rows {
		if a.UserID == userID && a.Type == addrType && a.ID != exceptID {
			a.IsDefault = false
		}
	}
	return nil
}

type fakeMethodRepo struct {
	rows   map[uint]*domain.PaymentMethod
	nextID uint
}

func (r *fakeMethodRepo) ListByUser(_ context.Context, userID uint) ([]domain.PaymentMethod, error) {
	var out []domain.PaymentMethod
	for _, m := range r.rows {
		if m.UserID == userID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMethodRepo) FindByID(_ context.Context, id uint) (domain.PaymentMethod, error) {
	m, ok := r.rows[id]
	if !ok {
		return domain.PaymentMethod{}, domain.ErrNotFound
	}
	return *m, nil
}

func (r *fakeMethodRepo) Create(_ context.Context, m *domain.PaymentMethod) error {
	r.nextID++
	m.ID = r.nextID
	cp := *m
	r.rows[m.ID] = &cp
	return nil
}

func (r *fakeMethodRepo) Delete(_ context.Context, id uint) error {
	delete(r.rows, id)
	return nil
}

func (r *fakeMethodRepo) CountByUser(_ context.Context, userID uint) (int64, error) {
	var n int64
	for _, m := range r.rows {
		if m.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeMethodRepo) ClearDefault(_ context.Context, userID uint, exceptID uint) error {
	for _, m := range r.rows {
		if m.UserID == userID && m.ID != exceptID {
			m.IsDefault = false
		}
	}
	return nil
}

func (r *fakeMethodRepo) SetDefault(_ context.Context, id uint) error {
	r.rows[id].IsDefault = true
	return nil
}

func newAddressFixture() (*addressService, *fakeAddressRepo, *fakeMethodRepo) {
	addrs := &fakeAddressRepo{rows: map[uint]*domain.Address{}}
	methods := &fakeMethodRepo{rows: map[uint]*domain.PaymentMethod{}}
	return NewAddressService(addrs, methods, passTx{}, testKey), addrs, methods
}

func TestCreateAddressDefaults(t *testing.T) {
	svc, addrs, _ := newAddressFixture()
	ctx := context.Background()

	first, err := svc.CreateAddress(ctx, 1, &domain.Address{})
	require.NoError(t, err)
	assert.Equal(t, domain.AddressShipping, first.Type)
	assert.True(t, first.IsDefault)

	second, err := svc.CreateAddress(ctx, 1, &domain.Address{})
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	billing, err := svc.CreateAddress(ctx, 1, &domain.Address{Type: domain.AddressBilling})
	require.NoError(t, err)
	assert.True(t, billing.IsDefault, "first billing address is default even when shipping exists")

	_, err = svc.SetDefaultAddress(ctx, 1, second.ID)
	require.NoError(t, err)
	assert.False(t, addrs.rows[first.ID].IsDefault)
	assert.True(t, addrs.rows[second.ID].IsDefault)
	assert.True(t, addrs.rows[billing.ID].IsDefault)

	_, err = svc.CreateAddress(ctx, 1, &domain.Address{Type: "OFFICE"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestAddressOwnership(t *testing.T) {
	svc, _, _ := newAddressFixture()
	ctx := context.Background()

	addr, err := svc.CreateAddress(ctx, 1, &domain.Address{})
	require.NoError(t, err)

	_, err = svc.GetAddress(ctx, 2, addr.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	assert.True(t, errors.Is(svc.DeleteAddress(ctx, 2, addr.ID), domain.ErrForbidden))

	_, err = svc.UpdateAddress(ctx, 1, addr.ID, &domain.Address{})
	require.NoError(t, err)
	got, err := svc.GetAddress(ctx, 1, addr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AddressShipping, got.Type)
}

func TestPaymentMethodTokenIsEncrypted(t *testing.T) {
	svc, _, methods := newAddressFixture()
	ctx := context.Background()

	card, err := svc.AddPaymentMethod(ctx, 1, &domain.PaymentMethod{Type: domain.MethodCreditCard, Last4: "4242"}, "pm_card_visa")
	require.NoError(t, err)
	assert.True(t, card.IsDefault)

	stored := methods.rows[card.ID].EncryptedToken
	assert.NotEmpty(t, stored)
	assert.NotContains(t, stored, "pm_card_visa")

	token, err := svc.PaymentToken(ctx, 1, card.ID)
	require.NoError(t, err)
	assert.Equal(t, "pm_card_visa", token)

	_, err = svc.PaymentToken(ctx, 2, card.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestPaymentMethodDefaults(t *testing.T) {
	svc, _, methods := newAddressFixture()
	ctx := context.Background()

	upi, err := svc.AddPaymentMethod(ctx, 1, &domain.PaymentMethod{Type: domain.MethodUPI}, "")
	require.NoError(t, err)
	card, err := svc.AddPaymentMethod(ctx, 1, &domain.PaymentMethod{Type: domain.MethodCreditCard}, "")
	require.NoError(t, err)
	assert.False(t, card.IsDefault)

	token, err := svc.PaymentToken(ctx, 1, upi.ID)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, svc.SetDefaultPaymentMethod(ctx, 1, card.ID))
	assert.False(t, methods.rows[upi.ID].IsDefault)
	assert.True(t, methods.rows[card.ID].IsDefault)

	_, err = svc.AddPaymentMethod(ctx, 1, &domain.PaymentMethod{Type: "CHEQUE"}, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
