package persistence

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/shared"
	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/trade"
)

// GormOrderRepository implements trade.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new order repository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByExternalID retrieves an order with its items by vendor identifier
func (r *GormOrderRepository) FindByExternalID(ctx context.Context, externalID string) (*trade.Order, error) {
	var order trade.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("external_id = ?", externalID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindAll retrieves orders with items, newest first
func (r *GormOrderRepository) FindAll(ctx context.Context, offset, limit int) ([]trade.Order, error) {
	var orders []trade.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("ordered_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Save creates or updates an order together with its items. A re-sync of an
// existing order replaces its item rows so removed lines do not linger.
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing trade.Order
		err := tx.Where("external_id = ?", order.ExternalID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(order).Error
		case err != nil:
			return err
		}

		// Keep the stored primary key and imported fees; refresh vendor fields
		order.ID = existing.ID
		order.CreatedAt = existing.CreatedAt
		order.MarketplaceFee = existing.MarketplaceFee
		order.ShippingFee = existing.ShippingFee
		order.PaymentFee = existing.PaymentFee
		order.Touch()

		if err := tx.Where("order_id = ?", existing.ID).Delete(&trade.OrderItem{}).Error; err != nil {
			return err
		}
		for i := range order.Items {
			order.Items[i].OrderID = existing.ID
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(order).Error
	})
}

// UpdateFees sets fee amounts on the order matching the vendor identifier
func (r *GormOrderRepository) UpdateFees(ctx context.Context, externalID string, marketplaceFee, shippingFee, paymentFee decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&trade.Order{}).
		Where("external_id = ?", externalID).
		Updates(map[string]any{
			"marketplace_fee": marketplaceFee,
			"shipping_fee":    shippingFee,
			"payment_fee":     paymentFee,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an order and its items by vendor identifier
func (r *GormOrderRepository) Delete(ctx context.Context, externalID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order trade.Order
		err := tx.Where("external_id = ?", externalID).First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&trade.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
}

// Count returns the total number of stored orders
func (r *GormOrderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&trade.Order{}).Count(&count).Error
	return count, err
}
