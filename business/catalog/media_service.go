package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"abayaStore/domain"
	"abayaStore/pkg/logger"
)

type MediaRepository interface {
	ListByProduct(ctx context.Context, productID uint) ([]domain.ProductMedia, error)
	FindByID(ctx context.Context, id uint) (domain.ProductMedia, error)
	Create(ctx context.Context, media *domain.ProductMedia) error
	Delete(ctx context.Context, id uint) error
	// ClearDefault unsets the default flag on every media of the product.
	ClearDefault(ctx context.Context, productID uint) error
	SetDefault(ctx context.Context, id uint) error
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

var ErrMediaNotFound = fmt.Errorf("media %w", domain.ErrNotFound)

type MediaInput struct {
	URL       string           `json:"url" validate:"required,url"`
	Alt       string           `json:"alt" validate:"max=255"`
	Type      domain.MediaType `json:"type"`
	IsDefault bool             `json:"is_default"`
	SortOrder int              `json:"sort_order"`
}

type mediaService struct {
	media    MediaRepository
	products ProductRepository
	tx       Transactor
}

func NewMediaService(media MediaRepository, products ProductRepository, tx Transactor) *mediaService {
	return &mediaService{media: media, products: products, tx: tx}
}

// ListMedia returns the gallery of an active product, default first.
func (s *mediaService) ListMedia(ctx context.Context, idOrSlug string) ([]domain.ProductMedia, error) {
	product, err := activeProduct(ctx, s.products, idOrSlug)
	if err != nil {
		return nil, err
	}
	media, err := s.media.ListByProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(media, func(i, j int) bool {
		return media[i].IsDefault && !media[j].IsDefault
	})
	return media, nil
}

// AddMedia attaches media to a product. The first media of a product
// becomes its default.
func (s *mediaService) AddMedia(ctx context.Context, productID uint, in MediaInput) (domain.ProductMedia, error) {
	in.URL = strings.TrimSpace(in.URL)
	if in.URL == "" {
		return domain.ProductMedia{}, fmt.Errorf("%w: media url is required", domain.ErrInvalidInput)
	}
	if in.Type == "" {
		in.Type = domain.MediaImage
	}
	if !in.Type.Valid() {
		return domain.ProductMedia{}, fmt.Errorf("%w: media type must be IMAGE or VIDEO", domain.ErrInvalidInput)
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return domain.ProductMedia{}, err
	}

	media := domain.ProductMedia{
		ProductID: productID,
		URL:       in.URL,
		Alt:       strings.TrimSpace(in.Alt),
		Type:      in.Type,
		IsDefault: in.IsDefault,
		SortOrder: in.SortOrder,
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.media.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			media.IsDefault = true
		}
		if media.IsDefault {
			if err := s.media.ClearDefault(ctx, productID); err != nil {
				return err
			}
		}
		return s.media.Create(ctx, &media)
	})
	if err != nil {
		logger.Error("Failed to add product media", err, "product_id", productID)
		return domain.ProductMedia{}, err
	}
	return media, nil
}

func (s *mediaService) owned(ctx context.Context, productID, mediaID uint) (domain.ProductMedia, error) {
	media, err := s.media.FindByID(ctx, mediaID)
	if err != nil {
		return domain.ProductMedia{}, err
	}
	if media.ProductID != productID {
		return domain.ProductMedia{}, ErrMediaNotFound
	}
	return media, nil
}

func (s *mediaService) SetDefaultMedia(ctx context.Context, productID, mediaID uint) error {
	if _, err := s.owned(ctx, productID, mediaID); err != nil {
		return err
	}
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.media.ClearDefault(ctx, productID); err != nil {
			return err
		}
		return s.media.SetDefault(ctx, mediaID)
	})
}

// DeleteMedia removes media. Deleting the default promotes the next media
// in display order.
func (s *mediaService) DeleteMedia(ctx context.Context, productID, mediaID uint) error {
	media, err := s.owned(ctx, productID, mediaID)
	if err != nil {
		return err
	}
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.media.Delete(ctx, mediaID); err != nil {
			return err
		}
		if !media.IsDefault {
			return nil
		}
		rest, err := s.media.ListByProduct(ctx, productID)
		if err != nil || len(rest) == 0 {
			return err
		}
		return s.media.SetDefault(ctx, rest[0].ID)
	})
}
