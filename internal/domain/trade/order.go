package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/shared"
)

// Order represents a marketplace order synchronized from the vendor.
// Orders are upserted keyed on ExternalID so a re-sync updates existing
// rows instead of duplicating them.
type Order struct {
	shared.BaseEntity
	ExternalID      string          `gorm:"type:varchar(50);not null;uniqueIndex" json:"external_id"`
	ExternalOrderID string          `gorm:"type:varchar(100)" json:"external_order_id"`
	StatusID        int             `gorm:"not null;default:0" json:"status_id"`
	Source          string          `gorm:"type:varchar(50)" json:"source"`
	Currency        string          `gorm:"type:varchar(3);not null;default:'PLN'" json:"currency"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_amount"`
	ShippingFee     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"shipping_fee"`
	MarketplaceFee  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"marketplace_fee"`
	PaymentFee      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"payment_fee"`
	OrderedAt       time.Time       `gorm:"not null;index" json:"ordered_at"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a single line of an order. It references a product by its
// vendor identifier and carries a purchase-cost snapshot taken at sync time.
type OrderItem struct {
	shared.BaseEntity
	OrderID           uuid.UUID        `gorm:"type:uuid;not null;index" json:"order_id"`
	ExternalProductID string           `gorm:"type:varchar(50);index" json:"external_product_id"`
	Name              string           `gorm:"type:varchar(300)" json:"name"`
	Quantity          int              `gorm:"not null;default:0" json:"quantity"`
	UnitPrice         decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"unit_price"`
	PurchaseCost      *decimal.Decimal `gorm:"type:decimal(18,4)" json:"purchase_cost,omitempty"`
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrder creates an order keyed on its vendor identifier
func NewOrder(externalID string, orderedAt time.Time) (*Order, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "order external ID is required")
	}

	return &Order{
		BaseEntity: shared.NewBaseEntity(),
		ExternalID: externalID,
		Currency:   "PLN",
		OrderedAt:  orderedAt,
	}, nil
}

// ApplyFees sets the fee amounts imported from a marketplace billing export
func (o *Order) ApplyFees(marketplaceFee, shippingFee, paymentFee decimal.Decimal) {
	o.MarketplaceFee = marketplaceFee
	o.ShippingFee = shippingFee
	o.PaymentFee = paymentFee
	o.Touch()
}

// LineTotal returns quantity times unit price for an item
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
