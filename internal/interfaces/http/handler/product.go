package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/printshop/catalog/internal/application/query"
)

// ProductHandler exposes the query service over HTTP.
type ProductHandler struct {
	service *query.Service
	log     *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *query.Service, log *zap.Logger) *ProductHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductHandler{service: service, log: log}
}

// RegisterRoutes mounts the product endpoints on the API group.
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	products.GET("/top", h.GetTopProducts)
	products.GET("/:sku", h.GetProduct)
	products.GET("/:sku/stock", h.CheckStock)
	products.GET("/:sku/colors", h.GetColors)
	products.GET("/:sku/pricing", h.GetPricing)
	products.POST("/:sku/track", h.TrackUsage)
}

// bindSKU validates the :sku path parameter. On failure it writes the error
// response and reports false.
func bindSKU(c *gin.Context) (string, bool) {
	var p skuParam
	if err := c.ShouldBindUri(&p); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_sku", "SKU contains no usable characters")
		return "", false
	}
	return p.SKU, true
}

// GetProduct returns the full canonical product for a SKU.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	sku, ok := bindSKU(c)
	if !ok {
		return
	}
	product, err := h.service.GetProduct(c.Request.Context(), sku)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondOK(c, product)
}

type topProductsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// GetTopProducts lists the curated best sellers from the catalog store.
func (h *ProductHandler) GetTopProducts(c *gin.Context) {
	var q topProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	products, err := h.service.ListTopProducts(c.Request.Context(), q.Limit)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondOK(c, gin.H{"products": products, "count": len(products)})
}

type stockQuery struct {
	Color string `form:"color"`
	Size  string `form:"size"`
}

// CheckStock reports availability, narrowed by optional color and size.
func (h *ProductHandler) CheckStock(c *gin.Context) {
	sku, ok := bindSKU(c)
	if !ok {
		return
	}
	var q stockQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	result, err := h.service.CheckStock(c.Request.Context(), sku, q.Color, q.Size)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondOK(c, result)
}

// GetColors lists the distinct colors a product ships in.
func (h *ProductHandler) GetColors(c *gin.Context) {
	sku, ok := bindSKU(c)
	if !ok {
		return
	}
	colors, err := h.service.GetColorsAvailable(c.Request.Context(), sku)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondOK(c, gin.H{"sku": sku, "colors": colors})
}

type pricingQuery struct {
	Quantity int `form:"quantity" binding:"omitempty,min=1"`
}

// GetPricing resolves the unit price for a quantity, or the full break table
// when no quantity is given.
func (h *ProductHandler) GetPricing(c *gin.Context) {
	sku, ok := bindSKU(c)
	if !ok {
		return
	}
	var q pricingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	result, err := h.service.GetPricing(c.Request.Context(), sku, q.Quantity)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondOK(c, result)
}

// TrackUsage records one use of a product. Tracking is best-effort, so the
// endpoint always accepts.
func (h *ProductHandler) TrackUsage(c *gin.Context) {
	sku, ok := bindSKU(c)
	if !ok {
		return
	}
	h.service.TrackProductUsage(c.Request.Context(), sku)
	c.JSON(http.StatusAccepted, APIResponse{Success: true})
}
