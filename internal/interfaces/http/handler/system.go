package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/integration"
)

// SystemHandler serves health and vendor connectivity endpoints
type SystemHandler struct {
	BaseHandler
	db      *gorm.DB
	gateway integration.VendorGateway
	started time.Time
	version string
}

// NewSystemHandler creates a system handler
func NewSystemHandler(db *gorm.DB, gateway integration.VendorGateway, version string, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		BaseHandler: NewBaseHandler(logger),
		db:          db,
		gateway:     gateway,
		started:     time.Now().UTC(),
		version:     version,
	}
}

// Health handles GET /api/v1/system/health
func (h *SystemHandler) Health(c *gin.Context) {
	dbStatus := "ok"
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			dbStatus = "unreachable"
		}
	}

	h.ok(c, gin.H{
		"status":   "ok",
		"version":  h.version,
		"uptime":   time.Since(h.started).Round(time.Second).String(),
		"database": dbStatus,
	})
}

// TestVendor handles GET /api/v1/baselinker/test
func (h *SystemHandler) TestVendor(c *gin.Context) {
	if err := h.gateway.TestConnection(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"connected": true})
}
