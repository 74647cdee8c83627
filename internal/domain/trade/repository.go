package trade

import (
	"context"

	"github.com/shopspring/decimal"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByExternalID finds an order (with items) by its vendor identifier
	FindByExternalID(ctx context.Context, externalID string) (*Order, error)

	// FindAll returns orders (with items) newest first with offset/limit paging
	FindAll(ctx context.Context, offset, limit int) ([]Order, error)

	// Save creates or updates an order together with its items
	Save(ctx context.Context, order *Order) error

	// UpdateFees sets fee amounts on the order matching the vendor identifier;
	// returns shared.ErrNotFound when no such order exists
	UpdateFees(ctx context.Context, externalID string, marketplaceFee, shippingFee, paymentFee decimal.Decimal) error

	// Delete deletes an order and its items
	Delete(ctx context.Context, externalID string) error

	// Count returns the number of orders
	Count(ctx context.Context) (int64, error)
}
