package rest

import (
	"context"
	"net/http"
	"time"

	"abayaStore/business/catalog"
	"abayaStore/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type ReviewService interface {
	AddReview(ctx context.Context, userID uint, idOrSlug string, in catalog.ReviewInput) (domain.Review, error)
	ListReviews(ctx context.Context, idOrSlug string, page domain.Page) (catalog.ProductReviews, error)
	SetReviewPublished(ctx context.Context, id uint, published bool) (domain.Review, error)
	DeleteReview(ctx context.Context, id uint) error
}

type MediaService interface {
	ListMedia(ctx context.Context, idOrSlug string) ([]domain.ProductMedia, error)
	AddMedia(ctx context.Context, productID uint, in catalog.MediaInput) (domain.ProductMedia, error)
	SetDefaultMedia(ctx context.Context, productID, mediaID uint) error
	DeleteMedia(ctx context.Context, productID, mediaID uint) error
}

type ReviewHandler struct {
	reviews   ReviewService
	media     MediaService
	validator *validator.Validate
	timeout   time.Duration
}

func NewReviewHandler(reviews ReviewService, media MediaService) *ReviewHandler {
	return &ReviewHandler{
		reviews:   reviews,
		media:     media,
		validator: validator.New(),
		timeout:   defaultTimeout,
	}
}

type PublishRequest struct {
	Published bool `json:"published"`
}

func (h *ReviewHandler) ListReviews(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	reviews, err := h.reviews.ListReviews(ctx, c.Param("slug"), pageFrom(c))
	if err != nil {
		return fail(c, "Failed to list reviews", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(reviews))
}

func (h *ReviewHandler) AddReview(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	var req catalog.ReviewInput
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	review, err := h.reviews.AddReview(ctx, userID, c.Param("slug"), req)
	if err != nil {
		return fail(c, "Failed to add review", err)
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(review))
}

func (h *ReviewHandler) SetReviewPublished(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var req PublishRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	review, err := h.reviews.SetReviewPublished(ctx, id, req.Published)
	if err != nil {
		return fail(c, "Failed to update review", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(review))
}

func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.reviews.DeleteReview(ctx, id); err != nil {
		return fail(c, "Failed to delete review", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMedia serves the storefront gallery of a product.
func (h *ReviewHandler) ListMedia(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	media, err := h.media.ListMedia(ctx, c.Param("slug"))
	if err != nil {
		return fail(c, "Failed to list media", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(media))
}

func (h *ReviewHandler) AddMedia(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var req catalog.MediaInput
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	media, err := h.media.AddMedia(ctx, id, req)
	if err != nil {
		return fail(c, "Failed to add media", err)
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(media))
}

func (h *ReviewHandler) SetDefaultMedia(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	mediaID, ok := paramID(c, "mediaId")
	if !ok {
		return badID(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.media.SetDefaultMedia(ctx, id, mediaID); err != nil {
		return fail(c, "Failed to set default media", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ReviewHandler) DeleteMedia(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	mediaID, ok := paramID(c, "mediaId")
	if !ok {
		return badID(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.media.DeleteMedia(ctx, id, mediaID); err != nil {
		return fail(c, "Failed to delete media", err)
	}
	return c.NoContent(http.StatusNoContent)
}
