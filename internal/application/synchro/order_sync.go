package synchro

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/integration"
	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/shared"
	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/trade"
)

// OrderSyncResult summarizes one order synchronization run.
type OrderSyncResult struct {
	Created int  `json:"created"`
	Updated int  `json:"updated"`
	Errors  int  `json:"errors"`
	Pages   int  `json:"pages"`
	Partial bool `json:"partial"`
}

// OrderSyncService pulls vendor orders in a date window and upserts them
// together with their items.
type OrderSyncService struct {
	gateway integration.VendorGateway
	orders  trade.OrderRepository
	logger  *zap.Logger
}

// NewOrderSyncService creates an order sync service.
func NewOrderSyncService(gateway integration.VendorGateway, orders trade.OrderRepository, logger *zap.Logger) *OrderSyncService {
	return &OrderSyncService{
		gateway: gateway,
		orders:  orders,
		logger:  logger.Named("order-sync"),
	}
}

// Sync fetches all orders within [from, to] and upserts each keyed on its
// vendor identifier. A single failing order is counted and skipped, never
// fatal for the run.
func (s *OrderSyncService) Sync(ctx context.Context, from, to time.Time, progress ProgressFunc) (*OrderSyncResult, error) {
	if !to.After(from) {
		return nil, shared.NewDomainError("INVALID_INPUT", "sync window end must be after its start")
	}

	progress.emit(StageStarted, "order_sync",
		fmt.Sprintf("fetching orders from %s to %s", from.Format("2006-01-02"), to.Format("2006-01-02")), 0, 0)

	fetch, err := s.gateway.FetchAllOrders(ctx, from, to)
	if err != nil {
		progress.emit(StageError, "order_sync", err.Error(), 0, 0)
		return nil, err
	}

	result := &OrderSyncResult{
		Pages:   fetch.Pages,
		Partial: fetch.Truncated,
		Errors:  fetch.ItemErrors,
	}
	total := len(fetch.Orders)

	for i, vo := range fetch.Orders {
		if err := s.upsert(ctx, vo, result); err != nil {
			result.Errors++
			s.logger.Warn("order upsert failed",
				zap.String("external_id", vo.ID),
				zap.Error(err),
			)
		}
		if (i+1)%25 == 0 || i+1 == total {
			progress.emit(StageProgress, "order_sync",
				fmt.Sprintf("processed %d of %d orders", i+1, total), i+1, total)
		}
	}

	s.logger.Info("order sync finished",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("errors", result.Errors),
		zap.Int("pages", result.Pages),
		zap.Bool("partial", result.Partial),
	)
	progress.emit(StageComplete, "order_sync",
		fmt.Sprintf("created %d, updated %d, errors %d", result.Created, result.Updated, result.Errors),
		total, total)
	return result, nil
}

func (s *OrderSyncService) upsert(ctx context.Context, vo integration.VendorOrder, result *OrderSyncResult) error {
	_, err := s.orders.FindByExternalID(ctx, vo.ID)
	exists := err == nil
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	order, buildErr := buildOrder(vo)
	if buildErr != nil {
		return buildErr
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return err
	}

	if exists {
		result.Updated++
	} else {
		result.Created++
	}
	return nil
}

// buildOrder maps a vendor order onto the domain entity. The total is
// recomputed from the lines rather than trusted from the vendor.
func buildOrder(vo integration.VendorOrder) (*trade.Order, error) {
	order, err := trade.NewOrder(vo.ID, vo.CreatedAt)
	if err != nil {
		return nil, err
	}
	order.ExternalOrderID = vo.ExternalOrderID
	order.StatusID = vo.StatusID
	order.Source = vo.Source
	if vo.Currency != "" {
		order.Currency = vo.Currency
	}
	order.TotalAmount = vo.TotalValue()

	order.Items = make([]trade.OrderItem, 0, len(vo.Items))
	for _, item := range vo.Items {
		order.Items = append(order.Items, trade.OrderItem{
			BaseEntity:        shared.NewBaseEntity(),
			ExternalProductID: item.ProductID,
			Name:              item.Name,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			PurchaseCost:      item.PurchaseCost,
		})
	}
	return order, nil
}
