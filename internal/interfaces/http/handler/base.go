package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eempirepl/allegro-profit-analyzer/internal/infrastructure/logger"
	"github.com/eempirepl/allegro-profit-analyzer/internal/interfaces/http/dto"
)

// BaseHandler provides shared response helpers for all handlers
type BaseHandler struct {
	logger *zap.Logger
}

// NewBaseHandler creates a base handler
func NewBaseHandler(logger *zap.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.SuccessResponse(data))
}

func (h *BaseHandler) fail(c *gin.Context, err error) {
	status, resp := dto.MapError(err)
	if status >= http.StatusInternalServerError {
		logger.GetGinLogger(c).Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	c.JSON(status, resp)
}

func (h *BaseHandler) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse("INVALID_INPUT", message))
}

// paging reads offset/limit query parameters with sane bounds
func paging(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if offset < 0 {
		offset = 0
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return offset, limit
}
