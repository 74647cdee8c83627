package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eempirepl/allegro-profit-analyzer/internal/application/synchro"
	"github.com/eempirepl/allegro-profit-analyzer/internal/infrastructure/logger"
)

// SyncHandler streams synchronization progress over Server-Sent Events.
type SyncHandler struct {
	BaseHandler
	productSync *synchro.ProductSyncService
	orderSync   *synchro.OrderSyncService
}

// NewSyncHandler creates a sync stream handler
func NewSyncHandler(productSync *synchro.ProductSyncService, orderSync *synchro.OrderSyncService, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		BaseHandler: NewBaseHandler(logger),
		productSync: productSync,
		orderSync:   orderSync,
	}
}

// Stream handles GET /api/v1/sync/stream?op=products|orders. Progress
// events are pushed as they happen; closing the connection cancels the
// in-flight vendor calls through the request context.
func (h *SyncHandler) Stream(c *gin.Context) {
	op := c.DefaultQuery("op", "orders")
	if op != "products" && op != "orders" {
		h.badRequest(c, "op must be products or orders")
		return
	}

	var from, to time.Time
	if op == "orders" {
		var err error
		from, to, err = syncWindow(c)
		if err != nil {
			h.badRequest(c, "from/to must be dates in YYYY-MM-DD format")
			return
		}
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.badRequest(c, "streaming is not supported")
		return
	}

	ctx := c.Request.Context()
	events := make(chan synchro.Event, 16)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(events)

		progress := func(e synchro.Event) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		}

		var err error
		if op == "products" {
			_, err = h.productSync.Sync(ctx, progress)
		} else {
			_, err = h.orderSync.Sync(ctx, from, to, progress)
		}
		if err != nil {
			logger.GetGinLogger(c).Warn("streamed sync failed", zap.String("op", op), zap.Error(err))
		}
	}()

	for {
		select {
		case event, open := <-events:
			if !open {
				<-done
				return
			}
			h.sendEvent(c, flusher, event)
		case <-ctx.Done():
			<-done
			return
		}
	}
}

func (h *SyncHandler) sendEvent(c *gin.Context, flusher http.Flusher, event synchro.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal sync event", zap.Error(err))
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event.Stage, payload)
	flusher.Flush()
}
