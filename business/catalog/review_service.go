package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"abayaStore/domain"
	"abayaStore/pkg/logger"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	FindByID(ctx context.Context, id uint) (domain.Review, error)
	ListByProduct(ctx context.Context, productID uint, publishedOnly bool, page domain.Page) ([]domain.Review, int64, error)
	Summary(ctx context.Context, productID uint) (domain.ReviewSummary, error)
	SetPublished(ctx context.Context, id uint, published bool) error
	Delete(ctx context.Context, id uint) error
}

// PurchaseChecker answers whether a user has received a product.
type PurchaseChecker interface {
	HasDeliveredPurchase(ctx context.Context, userID, productID uint) (bool, error)
}

var (
	ErrInvalidRating   = fmt.Errorf("%w: rating must be between %d and %d", domain.ErrInvalidInput, domain.MinRating, domain.MaxRating)
	ErrAlreadyReviewed = fmt.Errorf("%w: you have already reviewed this product", domain.ErrConflict)
)

const maxReviewImages = 5

type ReviewInput struct {
	Rating    int      `json:"rating" validate:"required,min=1,max=5"`
	Title     string   `json:"title" validate:"max=255"`
	Review    string   `json:"review" validate:"max=5000"`
	ImageURLs []string `json:"image_urls" validate:"max=5,dive,url"`
}

// ProductReviews is a page of published reviews with the product's rating.
type ProductReviews struct {
	Summary domain.ReviewSummary             `json:"summary"`
	Reviews domain.PageResult[domain.Review] `json:"reviews"`
}

type reviewService struct {
	reviews   ReviewRepository
	products  ProductRepository
	purchases PurchaseChecker
}

func NewReviewService(reviews ReviewRepository, products ProductRepository, purchases PurchaseChecker) *reviewService {
	return &reviewService{reviews: reviews, products: products, purchases: purchases}
}

func (s *reviewService) activeProduct(ctx context.Context, idOrSlug string) (domain.Product, error) {
	return activeProduct(ctx, s.products, idOrSlug)
}

// activeProduct resolves a storefront product reference. Inactive products
// read as missing.
func activeProduct(ctx context.Context, products ProductRepository, idOrSlug string) (domain.Product, error) {
	var (
		product domain.Product
		err     error
	)
	if id, ok := parseID(idOrSlug); ok {
		product, err = products.FindByID(ctx, id)
	} else {
		product, err = products.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return domain.Product{}, err
	}
	if !product.IsActive {
		return domain.Product{}, fmt.Errorf("product %w", domain.ErrNotFound)
	}
	return product, nil
}

// AddReview stores a review. It is marked verified when the user has a
// delivered or completed order containing the product.
func (s *reviewService) AddReview(ctx context.Context, userID uint, idOrSlug string, in ReviewInput) (domain.Review, error) {
	if in.Rating < domain.MinRating || in.Rating > domain.MaxRating {
		return domain.Review{}, ErrInvalidRating
	}
	if len(in.ImageURLs) > maxReviewImages {
		return domain.Review{}, fmt.Errorf("%w: at most %d images", domain.ErrInvalidInput, maxReviewImages)
	}

	product, err := s.activeProduct(ctx, idOrSlug)
	if err != nil {
		return domain.Review{}, err
	}

	verified, err := s.purchases.HasDeliveredPurchase(ctx, userID, product.ID)
	if err != nil {
		return domain.Review{}, err
	}

	review := domain.Review{
		UserID:      userID,
		ProductID:   product.ID,
		Rating:      in.Rating,
		Title:       strings.TrimSpace(in.Title),
		Body:        strings.TrimSpace(in.Review),
		IsVerified:  verified,
		IsPublished: true,
	}
	for _, url := range in.ImageURLs {
		review.Images = append(review.Images, domain.ReviewImage{URL: url})
	}

	if err := s.reviews.Create(ctx, &review); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.Review{}, ErrAlreadyReviewed
		}
		logger.Error("Failed to save review", err, "product_id", product.ID, "user_id", userID)
		return domain.Review{}, err
	}

	logger.Info("Review added", "product_id", product.ID, "rating", review.Rating, "verified", verified)
	return review, nil
}

func (s *reviewService) ListReviews(ctx context.Context, idOrSlug string, page domain.Page) (ProductReviews, error) {
	product, err := s.activeProduct(ctx, idOrSlug)
	if err != nil {
		return ProductReviews{}, err
	}

	page = page.Normalize()
	list, total, err := s.reviews.ListByProduct(ctx, product.ID, true, page)
	if err != nil {
		return ProductReviews{}, err
	}
	summary, err := s.reviews.Summary(ctx, product.ID)
	if err != nil {
		return ProductReviews{}, err
	}

	return ProductReviews{Summary: summary, Reviews: domain.NewPageResult(list, total, page)}, nil
}

// SetReviewPublished hides or shows a review on the storefront.
func (s *reviewService) SetReviewPublished(ctx context.Context, id uint, published bool) (domain.Review, error) {
	if _, err := s.reviews.FindByID(ctx, id); err != nil {
		return domain.Review{}, err
	}
	if err := s.reviews.SetPublished(ctx, id, published); err != nil {
		return domain.Review{}, err
	}
	return s.reviews.FindByID(ctx, id)
}

func (s *reviewService) DeleteReview(ctx context.Context, id uint) error {
	return s.reviews.Delete(ctx, id)
}
