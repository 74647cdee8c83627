package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eempirepl/allegro-profit-analyzer/internal/application/report"
	"github.com/eempirepl/allegro-profit-analyzer/internal/application/synchro"
	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/trade"
	"github.com/eempirepl/allegro-profit-analyzer/internal/interfaces/http/dto"
)

// OrderHandler serves the order and profitability endpoints
type OrderHandler struct {
	BaseHandler
	orders        trade.OrderRepository
	sync          *synchro.OrderSyncService
	profitability *report.ProfitabilityService
}

// NewOrderHandler creates an order handler
func NewOrderHandler(
	orders trade.OrderRepository,
	sync *synchro.OrderSyncService,
	profitability *report.ProfitabilityService,
	logger *zap.Logger,
) *OrderHandler {
	return &OrderHandler{
		BaseHandler:   NewBaseHandler(logger),
		orders:        orders,
		sync:          sync,
		profitability: profitability,
	}
}

// List handles GET /api/v1/orders
func (h *OrderHandler) List(c *gin.Context) {
	offset, limit := paging(c)

	orders, err := h.orders.FindAll(c.Request.Context(), offset, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	total, err := h.orders.Count(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, dto.PagedData{Items: orders, Total: total, Offset: offset, Limit: limit})
}

// Get handles GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orders.FindByExternalID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, order)
}

// Items handles GET /api/v1/order-items/:orderId
func (h *OrderHandler) Items(c *gin.Context) {
	order, err := h.orders.FindByExternalID(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, order.Items)
}

// Profitability handles GET /api/v1/orders/:id/profitability
func (h *OrderHandler) Profitability(c *gin.Context) {
	result, err := h.profitability.ForOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, result)
}

// syncWindow parses the optional from/to query params, defaulting to the
// trailing 30 days.
func syncWindow(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		// Include the whole end day
		to = parsed.Add(24*time.Hour - time.Second)
	}
	return from, to, nil
}

// Sync handles POST /api/v1/orders/sync
func (h *OrderHandler) Sync(c *gin.Context) {
	from, to, err := syncWindow(c)
	if err != nil {
		h.badRequest(c, "from/to must be dates in YYYY-MM-DD format")
		return
	}

	result, err := h.sync.Sync(c.Request.Context(), from, to, nil)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, result)
}
