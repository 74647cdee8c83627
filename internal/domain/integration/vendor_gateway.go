package integration

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Inventory is a vendor-side warehouse/catalog partition that scopes
// product listings.
type Inventory struct {
	ID   string `json:"inventory_id"`
	Name string `json:"name"`
}

// VendorProduct is a product record as reported by the vendor API,
// normalized across the vendor's paged list and batch detail endpoints.
type VendorProduct struct {
	ID            string           `json:"id"`
	SKU           string           `json:"sku"`
	EAN           string           `json:"ean"`
	Name          string           `json:"name"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
	// Stock is the quantity summed across all warehouse locations
	Stock int `json:"stock"`
}

// VendorOrderItem is a single line of a vendor order.
type VendorOrderItem struct {
	ProductID    string           `json:"product_id"`
	Name         string           `json:"name"`
	Quantity     int              `json:"quantity"`
	UnitPrice    decimal.Decimal  `json:"price_brutto"`
	PurchaseCost *decimal.Decimal `json:"purchase_cost,omitempty"`
}

// VendorOrder is an order record as reported by the vendor API.
type VendorOrder struct {
	ID              string            `json:"order_id"`
	ExternalOrderID string            `json:"external_order_id"`
	StatusID        int               `json:"order_status_id"`
	Source          string            `json:"order_source"`
	Currency        string            `json:"currency"`
	DeliveryPrice   decimal.Decimal   `json:"delivery_price"`
	CreatedAt       time.Time         `json:"date_add"`
	Items           []VendorOrderItem `json:"items"`
}

// TotalValue computes the order's total value: the sum of unit price times
// quantity over all items plus the delivery price.
func (o *VendorOrder) TotalValue() decimal.Decimal {
	total := o.DeliveryPrice
	for _, item := range o.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// ProductFetch is the aggregated result of paginating the vendor's product
// list and fanning out batch detail requests.
type ProductFetch struct {
	Products []VendorProduct
	// Pages is the number of list pages fetched
	Pages int
	// Truncated is set when the page ceiling was reached before the vendor
	// reported an empty page; the result is partial, not an error
	Truncated bool
}

// OrderFetch is the aggregated result of paginating the vendor's order list.
type OrderFetch struct {
	Orders []VendorOrder
	Pages  int
	// Truncated is set when the page ceiling was reached
	Truncated bool
	// ItemErrors counts orders whose detail fetch failed and was skipped
	ItemErrors int
}

// VendorGateway is the port to the vendor's RPC-over-HTTP API. All calls are
// serialized through a shared rate limiter by the implementation.
type VendorGateway interface {
	// TestConnection verifies token and connectivity with a cheap call
	TestConnection(ctx context.Context) error

	// ListInventories returns the vendor-side catalog partitions
	ListInventories(ctx context.Context) ([]Inventory, error)

	// FetchAllProducts walks the paged product list of an inventory to
	// completion and resolves details in bounded-size batches
	FetchAllProducts(ctx context.Context, inventoryID string) (*ProductFetch, error)

	// FetchAllOrders walks the paged order list within [from, to] to
	// completion, resolving each order's items; a failing order is
	// skipped and counted, not fatal
	FetchAllOrders(ctx context.Context, from, to time.Time) (*OrderFetch, error)

	// FetchOrder returns a single order with its items
	FetchOrder(ctx context.Context, orderID string) (*VendorOrder, error)
}
