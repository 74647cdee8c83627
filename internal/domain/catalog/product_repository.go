package catalog

import (
	"context"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByExternalID finds a product by its vendor identifier
	FindByExternalID(ctx context.Context, externalID string) (*Product, error)

	// FindByExternalIDs finds products for a set of vendor identifiers,
	// keyed by external ID; missing identifiers are absent from the map
	FindByExternalIDs(ctx context.Context, externalIDs []string) (map[string]*Product, error)

	// FindAll returns products ordered by name with offset/limit paging
	FindAll(ctx context.Context, offset, limit int) ([]*Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// Delete deletes a product
	Delete(ctx context.Context, externalID string) error

	// Count returns the number of products
	Count(ctx context.Context) (int64, error)
}
