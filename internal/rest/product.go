package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"abayaStore/business/catalog"
	"abayaStore/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ProductService interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) (domain.PageResult[domain.Product], error)
	GetProduct(ctx context.Context, idOrSlug string, includeInactive bool) (*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product, categoryIDs []uint) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product, categoryIDs []uint) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
	AdjustStock(ctx context.Context, id uint, delta int) (int, error)
}

type AttributeService interface {
	ListAttributes(ctx context.Context) (catalog.Attributes, error)
	CreateSize(ctx context.Context, size *domain.Size) (*domain.Size, error)
	CreateColor(ctx context.Context, color *domain.Color) (*domain.Color, error)
	CreateFabric(ctx context.Context, fabric *domain.Fabric) (*domain.Fabric, error)
	DeleteSize(ctx context.Context, id uint) error
	DeleteColor(ctx context.Context, id uint) error
	DeleteFabric(ctx context.Context, id uint) error
	AddFabricColor(ctx context.Context, fabricID, colorID uint) error
	RemoveFabricColor(ctx context.Context, fabricID, colorID uint) error
	IsColorAvailable(ctx context.Context, fabricID, colorID uint) (bool, error)
}

type ProductHandler struct {
	productService   ProductService
	attributeService AttributeService
	validator        *validator.Validate
	timeout          time.Duration
}

func NewProductHandler(productService ProductService, attributeService AttributeService) *ProductHandler {
	return &ProductHandler{
		productService:   productService,
		attributeService: attributeService,
		validator:        validator.New(),
		timeout:          defaultTimeout,
	}
}

type ProductRequest struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Slug        string           `json:"slug" validate:"omitempty,max=220"`
	Description string           `json:"description"`
	SKU         string           `json:"sku" validate:"required,max=50"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price"`
	Cost        *decimal.Decimal `json:"cost"`
	Quantity    int              `json:"quantity" validate:"min=0"`
	IsActive    *bool            `json:"is_active"`
	IsFeatured  bool             `json:"is_featured"`
	CategoryIDs []uint           `json:"category_ids"`
}

func (r ProductRequest) toDomain() *domain.Product {
	product := &domain.Product{
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		SKU:         r.SKU,
		Price:       r.Price,
		Quantity:    r.Quantity,
		IsActive:    true,
		IsFeatured:  r.IsFeatured,
	}
	if r.IsActive != nil {
		product.IsActive = *r.IsActive
	}
	if r.SalePrice != nil {
		product.SalePrice = decimal.NewNullDecimal(*r.SalePrice)
	}
	if r.Cost != nil {
		product.Cost = decimal.NewNullDecimal(*r.Cost)
	}
	return product
}

type StockAdjustRequest struct {
	Delta int `json:"delta"`
}

type SizeRequest struct {
	Name      string `json:"name" validate:"required,max=20"`
	Code      string `json:"code" validate:"max=10"`
	SortOrder int    `json:"sort_order"`
}

type ColorRequest struct {
	Name    string `json:"name" validate:"required,max=50"`
	HexCode string `json:"hex_code" validate:"required"`
}

type FabricRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

func productFilterFrom(c echo.Context) (domain.ProductFilter, error) {
	filter := domain.ProductFilter{
		Search:   c.QueryParam("search"),
		Sort:     c.QueryParam("sort"),
		InStock:  c.QueryParam("in_stock") == "true",
		Featured: c.QueryParam("featured") == "true",
		Page:     pageFrom(c),
	}
	if v := c.QueryParam("category_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return filter, errInvalidQuery("category_id")
		}
		filter.CategoryID = uint(id)
	}
	if v := c.QueryParam("min_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return filter, errInvalidQuery("min_price")
		}
		filter.MinPrice = &d
	}
	if v := c.QueryParam("max_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return filter, errInvalidQuery("max_price")
		}
		filter.MaxPrice = &d
	}
	return filter, nil
}

func (h *ProductHandler) ListProducts(c echo.Context) error {
	filter, err := productFilterFrom(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fres.Response.StatusBadRequest(err.Error()))
	}
	filter.IncludeInactive = c.QueryParam("include_inactive") == "true" && isStaff(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	products, err := h.productService.ListProducts(ctx, filter)
	if err != nil {
		return fail(c, "Failed to list products", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(products))
}

// GetProduct accepts either a numeric id or a slug.
func (h *ProductHandler) GetProduct(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	product, err := h.productService.GetProduct(ctx, c.Param("slug"), isStaff(c))
	if err != nil {
		return fail(c, "Failed to get product", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(product))
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req ProductRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	product, err := h.productService.CreateProduct(ctx, req.toDomain(), req.CategoryIDs)
	if err != nil {
		return fail(c, "Failed to create product", err)
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(product))
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var req ProductRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	product := req.toDomain()
	product.ID = id
	updated, err := h.productService.UpdateProduct(ctx, product, req.CategoryIDs)
	if err != nil {
		return fail(c, "Failed to update product", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(updated))
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.productService.DeleteProduct(ctx, id); err != nil {
		return fail(c, "Failed to delete product", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK("Product deleted successfully"))
}

func (h *ProductHandler) AdjustStock(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var req StockAdjustRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	quantity, err := h.productService.AdjustStock(ctx, id, req.Delta)
	if err != nil {
		return fail(c, "Failed to adjust stock", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]interface{}{
		"product_id": id,
		"quantity":   quantity,
	}))
}

func (h *ProductHandler) ListAttributes(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	attrs, err := h.attributeService.ListAttributes(ctx)
	if err != nil {
		return fail(c, "Failed to list attributes", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(attrs))
}

// ColorAvailability reports whether a color is offered in a fabric.
func (h *ProductHandler) ColorAvailability(c echo.Context) error {
	fabricID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	colorID, ok := paramID(c, "colorId")
	if !ok {
		return badID(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	available, err := h.attributeService.IsColorAvailable(ctx, fabricID, colorID)
	if err != nil {
		return fail(c, "Failed to check color availability", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]bool{"available": available}))
}

func (h *ProductHandler) CreateSize(c echo.Context) error {
	var req SizeRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	size, err := h.attributeService.CreateSize(ctx, &domain.Size{Name: req.Name, Code: req.Code, SortOrder: req.SortOrder})
	if err != nil {
		return fail(c, "Failed to create size", err)
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(size))
}

func (h *ProductHandler) CreateColor(c echo.Context) error {
	var req ColorRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	color, err := h.attributeService.CreateColor(ctx, &domain.Color{Name: req.Name, HexCode: req.HexCode})
	if err != nil {
		return fail(c, "Failed to create color", err)
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(color))
}

func (h *ProductHandler) CreateFabric(c echo.Context) error {
	var req FabricRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	fabric, err := h.attributeService.CreateFabric(ctx, &domain.Fabric{Name: req.Name, Description: req.Description})
	if err != nil {
		return fail(c, "Failed to create fabric", err)
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(fabric))
}

// DeleteAttribute removes a size, color or fabric depending on :kind.
func (h *ProductHandler) DeleteAttribute(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	var err error
	switch c.Param("kind") {
	case "sizes":
		err = h.attributeService.DeleteSize(ctx, id)
	case "colors":
		err = h.attributeService.DeleteColor(ctx, id)
	case "fabrics":
		err = h.attributeService.DeleteFabric(ctx, id)
	default:
		return c.JSON(http.StatusNotFound, ResponseError{Message: "unknown attribute kind"})
	}
	if err != nil {
		return fail(c, "Failed to delete attribute", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK("Attribute deleted successfully"))
}

func (h *ProductHandler) AddFabricColor(c echo.Context) error {
	fabricID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	colorID, ok := paramID(c, "colorId")
	if !ok {
		return badID(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.attributeService.AddFabricColor(ctx, fabricID, colorID); err != nil {
		return fail(c, "Failed to link fabric color", err)
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated("Color added to fabric"))
}

func (h *ProductHandler) RemoveFabricColor(c echo.Context) error {
	fabricID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	colorID, ok := paramID(c, "colorId")
	if !ok {
		return badID(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.attributeService.RemoveFabricColor(ctx, fabricID, colorID); err != nil {
		return fail(c, "Failed to unlink fabric color", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK("Color removed from fabric"))
}
