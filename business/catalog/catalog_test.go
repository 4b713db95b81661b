package catalog

import (
	"context"
	"fmt"
	"testing"

	"abayaStore/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductRepo struct {
	products map[uint]*domain.Product
	nextID   uint
	lastList domain.ProductFilter
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[uint]*domain.Product{}}
}

func (r *fakeProductRepo) Create(_ context.Context, p *domain.Product, _ []uint) error {
	r.nextID++
	p.ID = r.nextID
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uint) (domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %w", domain.ErrNotFound)
	}
	return *p, nil
}

func (r *fakeProductRepo) FindBySlug(_ context.Context, slug string) (domain.Product, error) {
	for _, p := range r.products {
		if p.Slug == slug {
			return *p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("product %w", domain.ErrNotFound)
}

func (r *fakeProductRepo) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	r.lastList = f
	var out []domain.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *domain.Product, _ []uint) error {
	if _, ok := r.products[p.ID]; !ok {
		return fmt.Errorf("product %w", domain.ErrNotFound)
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uint) error {
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) AdjustStock(_ context.Context, id uint, delta int) (int, error) {
	p, ok := r.products[id]
	if !ok {
		return 0, fmt.Errorf("product %w", domain.ErrNotFound)
	}
	if p.Quantity+delta < 0 {
		return 0, fmt.Errorf("%w: insufficient stock", domain.ErrConflict)
	}
	p.Quantity += delta
	return p.Quantity, nil
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewProductService(newFakeProductRepo())

	tests := []struct {
		name    string
		product domain.Product
	}{
		{"missing name", domain.Product{SKU: "A1", Price: d("100")}},
		{"missing sku", domain.Product{Name: "Abaya", Price: d("100")}},
		{"zero price", domain.Product{Name: "Abaya", SKU: "A1"}},
		{"sale above price", domain.Product{Name: "Abaya", SKU: "A1", Price: d("100"), SalePrice: decimal.NewNullDecimal(d("120"))}},
		{"negative stock", domain.Product{Name: "Abaya", SKU: "A1", Price: d("100"), Quantity: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.product
			_, err := svc.CreateProduct(context.Background(), &p, nil)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCreateProductDerivesSlug(t *testing.T) {
	svc := NewProductService(newFakeProductRepo())

	p, err := svc.CreateProduct(context.Background(), &domain.Product{
		Name: "Black Nida Abaya", SKU: "AB-001", Price: d("2499"), Quantity: 4, IsActive: true,
	}, []uint{1})
	require.NoError(t, err)
	assert.Equal(t, "black-nida-abaya", p.Slug)
}

func TestGetProductHidesInactive(t *testing.T) {
	repo := newFakeProductRepo()
	svc := NewProductService(repo)
	_ = repo.Create(context.Background(), &domain.Product{Name: "Hidden", Slug: "hidden", Price: d("10")}, nil)

	_, err := svc.GetProduct(context.Background(), "hidden", false)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p, err := svc.GetProduct(context.Background(), "1", true)
	require.NoError(t, err)
	assert.Equal(t, "Hidden", p.Name)
}

func TestListProductsNormalizesPage(t *testing.T) {
	repo := newFakeProductRepo()
	svc := NewProductService(repo)

	res, err := svc.ListProducts(context.Background(), domain.ProductFilter{Page: domain.Page{Number: 0, Size: 500}})
	require.NoError(t, err)
	assert.Equal(t, domain.MaxPageSize, repo.lastList.Page.Size)
	assert.Equal(t, 1, res.Page)
	assert.NotNil(t, res.Items)

	lo, hi := d("500"), d("100")
	_, err = svc.ListProducts(context.Background(), domain.ProductFilter{MinPrice: &lo, MaxPrice: &hi})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdjustStockNeverNegative(t *testing.T) {
	repo := newFakeProductRepo()
	svc := NewProductService(repo)
	_ = repo.Create(context.Background(), &domain.Product{Name: "A", Price: d("10"), Quantity: 3}, nil)

	q, err := svc.AdjustStock(context.Background(), 1, -2)
	require.NoError(t, err)
	assert.Equal(t, 1, q)

	_, err = svc.AdjustStock(context.Background(), 1, -2)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, repo.products[1].Quantity)
}

type fakeCategoryRepo struct {
	cats map[uint]*domain.Category
}

func (r *fakeCategoryRepo) Create(_ context.Context, c *domain.Category) error {
	c.ID = uint(len(r.cats) + 1)
	cp := *c
	r.cats[c.ID] = &cp
	return nil
}

func (r *fakeCategoryRepo) FindByID(_ context.Context, id uint) (domain.Category, error) {
	c, ok := r.cats[id]
	if !ok {
		return domain.Category{}, fmt.Errorf("category %w", domain.ErrNotFound)
	}
	return *c, nil
}

func (r *fakeCategoryRepo) FindBySlug(_ context.Context, slug string) (domain.Category, error) {
	for _, c := range r.cats {
		if c.Slug == slug {
			return *c, nil
		}
	}
	return domain.Category{}, fmt.Errorf("category %w", domain.ErrNotFound)
}

func (r *fakeCategoryRepo) FindAll(_ context.Context, activeOnly bool) ([]domain.Category, error) {
	var out []domain.Category
	for _, c := range r.cats {
		if !activeOnly || c.IsActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCategoryRepo) Update(_ context.Context, c *domain.Category) error {
	cp := *c
	r.cats[c.ID] = &cp
	return nil
}

func (r *fakeCategoryRepo) Delete(_ context.Context, id uint) error {
	delete(r.cats, id)
	return nil
}

func TestCategoryLifecycle(t *testing.T) {
	repo := &fakeCategoryRepo{cats: map[uint]*domain.Category{}}
	svc := NewCategoryService(repo)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, &domain.Category{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	c, err := svc.CreateCategory(ctx, &domain.Category{Name: "Open Abayas", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "open-abayas", c.Slug)

	missing := uint(99)
	_, err = svc.CreateCategory(ctx, &domain.Category{Name: "Child", ParentID: &missing})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.UpdateCategory(ctx, &domain.Category{ID: c.ID, Name: "Open", ParentID: &c.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.UpdateCategory(ctx, &domain.Category{ID: c.ID, Name: "Open", IsActive: false})
	require.NoError(t, err)

	_, err = svc.GetCategoryBySlug(ctx, "open")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := svc.GetAllCategories(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestValidHex(t *testing.T) {
	assert.True(t, validHex("#1a2B3c"))
	assert.False(t, validHex("1a2B3c"))
	assert.False(t, validHex("#12345g"))
}
