package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eempirepl/allegro-profit-analyzer/internal/application/synchro"
	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/catalog"
	"github.com/eempirepl/allegro-profit-analyzer/internal/interfaces/http/dto"
)

// ProductHandler serves the product catalog endpoints
type ProductHandler struct {
	BaseHandler
	products catalog.ProductRepository
	sync     *synchro.ProductSyncService
}

// NewProductHandler creates a product handler
func NewProductHandler(products catalog.ProductRepository, sync *synchro.ProductSyncService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		BaseHandler: NewBaseHandler(logger),
		products:    products,
		sync:        sync,
	}
}

// List handles GET /api/v1/products
func (h *ProductHandler) List(c *gin.Context) {
	offset, limit := paging(c)

	products, err := h.products.FindAll(c.Request.Context(), offset, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	total, err := h.products.Count(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, dto.PagedData{Items: products, Total: total, Offset: offset, Limit: limit})
}

// Sync handles POST /api/v1/products/sync
func (h *ProductHandler) Sync(c *gin.Context) {
	result, err := h.sync.Sync(c.Request.Context(), nil)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, result)
}
