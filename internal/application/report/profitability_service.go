// Package report computes profitability figures over synchronized orders.
package report

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/catalog"
	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/trade"
	"github.com/eempirepl/allegro-profit-analyzer/internal/infrastructure/currency"
)

// OrderProfitability is the per-order report returned to the API. All
// monetary figures are in PLN; Converted is false when the order currency
// had no known exchange rate and amounts passed through unconverted.
type OrderProfitability struct {
	OrderID       string              `json:"order_id"`
	Currency      string              `json:"currency"`
	ExchangeRate  decimal.Decimal     `json:"exchange_rate"`
	Converted     bool                `json:"converted"`
	RatesDegraded bool                `json:"rates_degraded,omitempty"`
	Result        trade.Profitability `json:"result"`
}

// RateSource provides exchange rate snapshots.
type RateSource interface {
	Snapshot(ctx context.Context) *currency.Rates
}

// ProfitabilityService assembles profitability reports for stored orders.
type ProfitabilityService struct {
	orders   trade.OrderRepository
	products catalog.ProductRepository
	rates    RateSource
	logger   *zap.Logger
}

// NewProfitabilityService creates a profitability service.
func NewProfitabilityService(
	orders trade.OrderRepository,
	products catalog.ProductRepository,
	rates RateSource,
	logger *zap.Logger,
) *ProfitabilityService {
	return &ProfitabilityService{
		orders:   orders,
		products: products,
		rates:    rates,
		logger:   logger.Named("report"),
	}
}

// ForOrder computes the profitability of one order identified by its
// vendor ID. Revenue and fees are converted into PLN before calculation;
// an unknown currency passes amounts through and flags the result.
func (s *ProfitabilityService) ForOrder(ctx context.Context, externalID string) (*OrderProfitability, error) {
	order, err := s.orders.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	costs, err := s.productCosts(ctx, order)
	if err != nil {
		return nil, err
	}

	rates := s.rates.Snapshot(ctx)
	rate, known := rates.Rate(order.Currency)
	if !known {
		rate = decimal.NewFromInt(1)
		s.logger.Warn("no exchange rate for order currency, amounts passed through",
			zap.String("order_id", externalID),
			zap.String("currency", order.Currency),
		)
	}

	converted := convertOrder(order, rate)
	result := trade.CalculateProfitability(converted, costs)

	return &OrderProfitability{
		OrderID:       externalID,
		Currency:      order.Currency,
		ExchangeRate:  rate,
		Converted:     known,
		RatesDegraded: rates.Degraded(),
		Result:        result,
	}, nil
}

// productCosts resolves purchase prices for items without a cost snapshot.
func (s *ProfitabilityService) productCosts(ctx context.Context, order *trade.Order) (map[string]decimal.Decimal, error) {
	var ids []string
	for _, item := range order.Items {
		if item.PurchaseCost == nil && item.ExternalProductID != "" {
			ids = append(ids, item.ExternalProductID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	products, err := s.products.FindByExternalIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	costs := make(map[string]decimal.Decimal, len(products))
	for id, product := range products {
		costs[id] = product.UnitCost()
	}
	return costs, nil
}

// convertOrder returns a copy of the order with monetary amounts scaled
// into PLN. Item cost snapshots are in the order currency too, so they
// scale with the same rate.
func convertOrder(order *trade.Order, rate decimal.Decimal) *trade.Order {
	converted := *order
	converted.TotalAmount = order.TotalAmount.Mul(rate)
	converted.MarketplaceFee = order.MarketplaceFee.Mul(rate)
	converted.ShippingFee = order.ShippingFee.Mul(rate)
	converted.PaymentFee = order.PaymentFee.Mul(rate)

	converted.Items = make([]trade.OrderItem, len(order.Items))
	copy(converted.Items, order.Items)
	for i := range converted.Items {
		if converted.Items[i].PurchaseCost != nil {
			scaled := converted.Items[i].PurchaseCost.Mul(rate)
			converted.Items[i].PurchaseCost = &scaled
		}
		converted.Items[i].UnitPrice = converted.Items[i].UnitPrice.Mul(rate)
	}
	return &converted
}
