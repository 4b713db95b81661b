package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"abayaStore/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReviewRepo struct {
	reviews map[uint]*domain.Review
	nextID  uint
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: map[uint]*domain.Review{}}
}

func (r *fakeReviewRepo) Create(_ context.Context, review *domain.Review) error {
	for _, existing := range r.reviews {
		if existing.UserID == review.UserID && existing.ProductID == review.ProductID {
			return fmt.Errorf("review %w", domain.ErrConflict)
		}
	}
	r.nextID++
	review.ID = r.nextID
	cp := *review
	r.reviews[review.ID] = &cp
	return nil
}

func (r *fakeReviewRepo) FindByID(_ context.Context, id uint) (domain.Review, error) {
	review, ok := r.reviews[id]
	if !ok {
		return domain.Review{}, fmt.Errorf("review %w", domain.ErrNotFound)
	}
	return *review, nil
}

func (r *fakeReviewRepo) ListByProduct(_ context.Context, productID uint, publishedOnly bool, _ domain.Page) ([]domain.Review, int64, error) {
	var out []domain.Review
	for _, review := range r.reviews {
		if review.ProductID == productID && (!publishedOnly || review.IsPublished) {
			out = append(out, *review)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeReviewRepo) Summary(_ context.Context, productID uint) (domain.ReviewSummary, error) {
	var sum domain.ReviewSummary
	total := 0
	for _, review := range r.reviews {
		if review.ProductID == productID && review.IsPublished {
			sum.Count++
			total += review.Rating
		}
	}
	if sum.Count > 0 {
		sum.Average = float64(total) / float64(sum.Count)
	}
	return sum, nil
}

func (r *fakeReviewRepo) SetPublished(_ context.Context, id uint, published bool) error {
	review, ok := r.reviews[id]
	if !ok {
		return fmt.Errorf("review %w", domain.ErrNotFound)
	}
	review.IsPublished = published
	return nil
}

func (r *fakeReviewRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.reviews[id]; !ok {
		return fmt.Errorf("review %w", domain.ErrNotFound)
	}
	delete(r.reviews, id)
	return nil
}

// fakePurchases reports delivered purchases per user and product.
type fakePurchases struct {
	delivered map[[2]uint]bool
	err       error
}

func (f fakePurchases) HasDeliveredPurchase(_ context.Context, userID, productID uint) (bool, error) {
	return f.delivered[[2]uint{userID, productID}], f.err
}

func reviewFixture(t *testing.T, purchases fakePurchases) (*reviewService, *fakeReviewRepo, domain.Product) {
	t.Helper()
	products := newFakeProductRepo()
	product := domain.Product{Name: "Nida Abaya", Slug: "nida-abaya", SKU: "NA-1", Price: d("350"), IsActive: true}
	require.NoError(t, products.Create(context.Background(), &product, nil))
	reviews := newFakeReviewRepo()
	return NewReviewService(reviews, products, purchases), reviews, product
}

func TestAddReviewMarksVerifiedPurchase(t *testing.T) {
	tests := []struct {
		name      string
		delivered bool
	}{
		{"delivered order", true},
		{"no delivered order", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			purchases := fakePurchases{delivered: map[[2]uint]bool{}}
			svc, _, product := reviewFixture(t, purchases)
			purchases.delivered[[2]uint{7, product.ID}] = tt.delivered

			review, err := svc.AddReview(context.Background(), 7, "nida-abaya", ReviewInput{Rating: 4, Title: " Lovely "})
			require.NoError(t, err)
			assert.Equal(t, tt.delivered, review.IsVerified)
			assert.Equal(t, "Lovely", review.Title)
			assert.True(t, review.IsPublished)
		})
	}
}

func TestAddReviewOncePerUser(t *testing.T) {
	svc, _, product := reviewFixture(t, fakePurchases{})
	ctx := context.Background()

	_, err := svc.AddReview(ctx, 7, "nida-abaya", ReviewInput{Rating: 5})
	require.NoError(t, err)

	_, err = svc.AddReview(ctx, 7, fmt.Sprint(product.ID), ReviewInput{Rating: 1})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.AddReview(ctx, 8, "nida-abaya", ReviewInput{Rating: 3})
	assert.NoError(t, err)
}

func TestAddReviewRejectsBadInput(t *testing.T) {
	svc, _, _ := reviewFixture(t, fakePurchases{})
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.AddReview(ctx, 7, "nida-abaya", ReviewInput{Rating: rating})
		assert.ErrorIs(t, err, ErrInvalidRating, "rating %d", rating)
	}

	images := []string{"a", "b", "c", "d", "e", "f"}
	_, err := svc.AddReview(ctx, 7, "nida-abaya", ReviewInput{Rating: 5, ImageURLs: images})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.AddReview(ctx, 7, "missing", ReviewInput{Rating: 5})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddReviewPropagatesPurchaseLookupError(t *testing.T) {
	svc, reviews, _ := reviewFixture(t, fakePurchases{err: errors.New("db down")})

	_, err := svc.AddReview(context.Background(), 7, "nida-abaya", ReviewInput{Rating: 5})
	assert.Error(t, err)
	assert.Empty(t, reviews.reviews)
}

func TestListReviewsHidesUnpublished(t *testing.T) {
	svc, _, _ := reviewFixture(t, fakePurchases{})
	ctx := context.Background()

	first, err := svc.AddReview(ctx, 7, "nida-abaya", ReviewInput{Rating: 5})
	require.NoError(t, err)
	_, err = svc.AddReview(ctx, 8, "nida-abaya", ReviewInput{Rating: 2})
	require.NoError(t, err)

	hidden, err := svc.SetReviewPublished(ctx, first.ID, false)
	require.NoError(t, err)
	assert.False(t, hidden.IsPublished)

	list, err := svc.ListReviews(ctx, "nida-abaya", domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Reviews.Total)
	assert.Equal(t, domain.ReviewSummary{Count: 1, Average: 2}, list.Summary)
}

// fakeMediaRepo enforces one default per product the way the partial
// unique index does.
type fakeMediaRepo struct {
	media  map[uint]*domain.ProductMedia
	nextID uint
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{media: map[uint]*domain.ProductMedia{}}
}

func (r *fakeMediaRepo) ListByProduct(_ context.Context, productID uint) ([]domain.ProductMedia, error) {
	var out []domain.ProductMedia
	for _, m := range r.media {
		if m.ProductID == productID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeMediaRepo) FindByID(_ context.Context, id uint) (domain.ProductMedia, error) {
	m, ok := r.media[id]
	if !ok {
		return domain.ProductMedia{}, fmt.Errorf("media %w", domain.ErrNotFound)
	}
	return *m, nil
}

func (r *fakeMediaRepo) hasDefault(productID uint) bool {
	for _, m := range r.media {
		if m.ProductID == productID && m.IsDefault {
			return true
		}
	}
	return false
}

func (r *fakeMediaRepo) Create(_ context.Context, m *domain.ProductMedia) error {
	if m.IsDefault && r.hasDefault(m.ProductID) {
		return fmt.Errorf("default media %w", domain.ErrConflict)
	}
	r.nextID++
	m.ID = r.nextID
	cp := *m
	r.media[m.ID] = &cp
	return nil
}

func (r *fakeMediaRepo) Delete(_ context.Context, id uint) error {
	delete(r.media, id)
	return nil
}

func (r *fakeMediaRepo) ClearDefault(_ context.Context, productID uint) error {
	for _, m := range r.media {
		if m.ProductID == productID {
			m.IsDefault = false
		}
	}
	return nil
}

func (r *fakeMediaRepo) SetDefault(_ context.Context, id uint) error {
	m, ok := r.media[id]
	if !ok {
		return fmt.Errorf("media %w", domain.ErrNotFound)
	}
	if r.hasDefault(m.ProductID) {
		return fmt.Errorf("default media %w", domain.ErrConflict)
	}
	m.IsDefault = true
	return nil
}

func (r *fakeMediaRepo) defaults(productID uint) []uint {
	var ids []uint
	for _, m := range r.media {
		if m.ProductID == productID && m.IsDefault {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

type passTx struct{ calls int }

func (tx *passTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.calls++
	return fn(ctx)
}

func mediaFixture(t *testing.T) (*mediaService, *fakeMediaRepo, *passTx, domain.Product) {
	t.Helper()
	products := newFakeProductRepo()
	product := domain.Product{Name: "Nida Abaya", Slug: "nida-abaya", SKU: "NA-1", Price: d("350"), IsActive: true}
	require.NoError(t, products.Create(context.Background(), &product, nil))
	repo := newFakeMediaRepo()
	tx := &passTx{}
	return NewMediaService(repo, products, tx), repo, tx, product
}

func TestAddMediaKeepsSingleDefault(t *testing.T) {
	svc, repo, tx, product := mediaFixture(t)
	ctx := context.Background()

	first, err := svc.AddMedia(ctx, product.ID, MediaInput{URL: "https://cdn.test/1.jpg"})
	require.NoError(t, err)
	assert.True(t, first.IsDefault, "first media becomes the default")
	assert.Equal(t, domain.MediaImage, first.Type)

	second, err := svc.AddMedia(ctx, product.ID, MediaInput{URL: "https://cdn.test/2.jpg", SortOrder: 1})
	require.NoError(t, err)
	assert.False(t, second.IsDefault)
	assert.Equal(t, []uint{first.ID}, repo.defaults(product.ID))

	third, err := svc.AddMedia(ctx, product.ID, MediaInput{URL: "https://cdn.test/3.mp4", Type: domain.MediaVideo, IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, []uint{third.ID}, repo.defaults(product.ID))
	assert.Equal(t, 3, tx.calls)

	list, err := svc.ListMedia(ctx, "nida-abaya")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, third.ID, list[0].ID, "default is listed first")
}

func TestAddMediaValidation(t *testing.T) {
	svc, repo, _, product := mediaFixture(t)
	ctx := context.Background()

	_, err := svc.AddMedia(ctx, product.ID, MediaInput{URL: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.AddMedia(ctx, product.ID, MediaInput{URL: "https://cdn.test/1.gif", Type: "GIF"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.AddMedia(ctx, product.ID+1, MediaInput{URL: "https://cdn.test/1.jpg"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, repo.media)
}

func TestSetDefaultMediaMovesFlag(t *testing.T) {
	svc, repo, _, product := mediaFixture(t)
	ctx := context.Background()

	first, err := svc.AddMedia(ctx, product.ID, MediaInput{URL: "https://cdn.test/1.jpg"})
	require.NoError(t, err)
	second, err := svc.AddMedia(ctx, product.ID, MediaInput{URL: "https://cdn.test/2.jpg"})
	require.NoError(t, err)

	require.NoError(t, svc.SetDefaultMedia(ctx, product.ID, second.ID))
	assert.Equal(t, []uint{second.ID}, repo.defaults(product.ID))

	err = svc.SetDefaultMedia(ctx, product.ID+1, first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "media of another product")
	assert.Equal(t, []uint{second.ID}, repo.defaults(product.ID))
}

func TestDeleteDefaultMediaPromotesNext(t *testing.T) {
	svc, repo, _, product := mediaFixture(t)
	ctx := context.Background()

	first, err := svc.AddMedia(ctx, product.ID, MediaInput{URL: "https://cdn.test/1.jpg"})
	require.NoError(t, err)
	second, err := svc.AddMedia(ctx, product.ID, MediaInput{URL: "https://cdn.test/2.jpg", SortOrder: 2})
	require.NoError(t, err)
	third, err := svc.AddMedia(ctx, product.ID, MediaInput{URL: "https://cdn.test/3.jpg", SortOrder: 1})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMedia(ctx, product.ID, second.ID))
	assert.Equal(t, []uint{first.ID}, repo.defaults(product.ID), "deleting a non-default keeps the default")

	require.NoError(t, svc.DeleteMedia(ctx, product.ID, first.ID))
	assert.Equal(t, []uint{third.ID}, repo.defaults(product.ID))

	require.NoError(t, svc.DeleteMedia(ctx, product.ID, third.ID))
	assert.Empty(t, repo.defaults(product.ID))
}
