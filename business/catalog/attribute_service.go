package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"abayaStore/domain"
	"abayaStore/pkg/logger"
)

type AttributeRepository interface {
	ListSizes(ctx context.Context) ([]domain.Size, error)
	ListColors(ctx context.Context) ([]domain.Color, error)
	ListFabrics(ctx context.Context) ([]domain.Fabric, error)
	ListFabricColors(ctx context.Context) ([]domain.FabricColor, error)
	CreateSize(ctx context.Context, size *domain.Size) error
	CreateColor(ctx context.Context, color *domain.Color) error
	CreateFabric(ctx context.Context, fabric *domain.Fabric) error
	DeleteSize(ctx context.Context, id uint) error
	DeleteColor(ctx context.Context, id uint) error
	DeleteFabric(ctx context.Context, id uint) error
	FindColor(ctx context.Context, id uint) (domain.Color, error)
	FindFabric(ctx context.Context, id uint) (domain.Fabric, error)
	AddFabricColor(ctx context.Context, fabricID, colorID uint) error
	RemoveFabricColor(ctx context.Context, fabricID, colorID uint) error
	FabricColorExists(ctx context.Context, fabricID, colorID uint) (bool, error)
}

// Attributes is the storefront's full option catalogue.
type Attributes struct {
	Sizes        []domain.Size        `json:"sizes"`
	Colors       []domain.Color       `json:"colors"`
	Fabrics      []domain.Fabric      `json:"fabrics"`
	FabricColors []domain.FabricColor `json:"fabric_colors"`
}

type attributeService struct {
	repo AttributeRepository
}

func NewAttributeService(repo AttributeRepository) *attributeService {
	return &attributeService{repo: repo}
}

func (s *attributeService) ListAttributes(ctx context.Context) (Attributes, error) {
	var (
		out Attributes
		err error
	)

	if out.Sizes, err = s.repo.ListSizes(ctx); err != nil {
		return Attributes{}, err
	}
	if out.Colors, err = s.repo.ListColors(ctx); err != nil {
		return Attributes{}, err
	}
	if out.Fabrics, err = s.repo.ListFabrics(ctx); err != nil {
		return Attributes{}, err
	}
	if out.FabricColors, err = s.repo.ListFabricColors(ctx); err != nil {
		return Attributes{}, err
	}

	return out, nil
}

func (s *attributeService) CreateSize(ctx context.Context, size *domain.Size) (*domain.Size, error) {
	size.Name = strings.TrimSpace(size.Name)
	if size.Name == "" {
		return nil, fmt.Errorf("%w: size name is required", domain.ErrInvalidInput)
	}
	if err := s.repo.CreateSize(ctx, size); err != nil {
		logger.Error("failed to create size", err)
		return nil, err
	}
	return size, nil
}

func (s *attributeService) CreateColor(ctx context.Context, color *domain.Color) (*domain.Color, error) {
	color.Name = strings.TrimSpace(color.Name)
	if color.Name == "" {
		return nil, fmt.Errorf("%w: color name is required", domain.ErrInvalidInput)
	}
	if color.HexCode != "" && !validHex(color.HexCode) {
		return nil, fmt.Errorf("%w: hex code must look like #RRGGBB", domain.ErrInvalidInput)
	}
	if err := s.repo.CreateColor(ctx, color); err != nil {
		logger.Error("failed to create color", err)
		return nil, err
	}
	return color, nil
}

func (s *attributeService) CreateFabric(ctx context.Context, fabric *domain.Fabric) (*domain.Fabric, error) {
	fabric.Name = strings.TrimSpace(fabric.Name)
	if fabric.Name == "" {
		return nil, fmt.Errorf("%w: fabric name is required", domain.ErrInvalidInput)
	}
	if err := s.repo.CreateFabric(ctx, fabric); err != nil {
		logger.Error("failed to create fabric", err)
		return nil, err
	}
	return fabric, nil
}

func (s *attributeService) DeleteSize(ctx context.Context, id uint) error {
	return s.repo.DeleteSize(ctx, id)
}

func (s *attributeService) DeleteColor(ctx context.Context, id uint) error {
	return s.repo.DeleteColor(ctx, id)
}

func (s *attributeService) DeleteFabric(ctx context.Context, id uint) error {
	return s.repo.DeleteFabric(ctx, id)
}

func (s *attributeService) AddFabricColor(ctx context.Context, fabricID, colorID uint) error {
	if _, err := s.repo.FindFabric(ctx, fabricID); err != nil {
		return err
	}
	if _, err := s.repo.FindColor(ctx, colorID); err != nil {
		return err
	}
	return s.repo.AddFabricColor(ctx, fabricID, colorID)
}

func (s *attributeService) RemoveFabricColor(ctx context.Context, fabricID, colorID uint) error {
	return s.repo.RemoveFabricColor(ctx, fabricID, colorID)
}

func (s *attributeService) IsColorAvailable(ctx context.Context, fabricID, colorID uint) (bool, error) {
	return s.repo.FabricColorExists(ctx, fabricID, colorID)
}

func validHex(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	_, err := strconv.ParseUint(s[1:], 16, 32)
	return err == nil
}

func parseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
