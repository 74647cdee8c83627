package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/shared"
)

// Product represents a product synchronized from the vendor catalog
type Product struct {
	shared.BaseEntity
	ExternalID    string           `gorm:"type:varchar(50);not null;uniqueIndex" json:"external_id"`
	SKU           string           `gorm:"type:varchar(100);index" json:"sku"`
	EAN           string           `gorm:"type:varchar(20);index" json:"ean"`
	Name          string           `gorm:"type:varchar(300);not null" json:"name"`
	PurchasePrice *decimal.Decimal `gorm:"type:decimal(18,4)" json:"purchase_price,omitempty"`
	// StockQuantity is summed across all warehouse locations during sync
	StockQuantity int `gorm:"not null;default:0" json:"stock_quantity"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product keyed on its vendor identifier
func NewProduct(externalID, name string) (*Product, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "product external ID is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "product name is required")
	}

	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		ExternalID: externalID,
		Name:       name,
	}, nil
}

// ApplySnapshot updates the product from a fresh vendor snapshot
func (p *Product) ApplySnapshot(name, sku, ean string, purchasePrice *decimal.Decimal, stock int) {
	if name != "" {
		p.Name = name
	}
	p.SKU = sku
	p.EAN = ean
	p.PurchasePrice = purchasePrice
	p.StockQuantity = stock
	p.Touch()
}

// UnitCost returns the purchase price, or zero when it was never reported
func (p *Product) UnitCost() decimal.Decimal {
	if p.PurchasePrice == nil {
		return decimal.Zero
	}
	return *p.PurchasePrice
}
