package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/catalog"
	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/shared"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new product repository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByExternalID retrieves a product by its vendor identifier
func (r *GormProductRepository) FindByExternalID(ctx context.Context, externalID string) (*catalog.Product, error) {
	var product catalog.Product
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByExternalIDs retrieves products for the given vendor identifiers,
// keyed by external ID. Missing identifiers are simply absent from the map.
func (r *GormProductRepository) FindByExternalIDs(ctx context.Context, externalIDs []string) (map[string]*catalog.Product, error) {
	result := make(map[string]*catalog.Product, len(externalIDs))
	if len(externalIDs) == 0 {
		return result, nil
	}

	var products []catalog.Product
	if err := r.db.WithContext(ctx).Where("external_id IN ?", externalIDs).Find(&products).Error; err != nil {
		return nil, err
	}
	for i := range products {
		result[products[i].ExternalID] = &products[i]
	}
	return result, nil
}

// FindAll retrieves products ordered by name with offset pagination
func (r *GormProductRepository) FindAll(ctx context.Context, offset, limit int) ([]*catalog.Product, error) {
	var products []*catalog.Product
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Save upserts a product keyed by its vendor identifier
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sku", "ean", "name", "purchase_price", "stock_quantity", "updated_at",
		}),
	}).Create(product).Error
}

// Delete removes a product by its vendor identifier
func (r *GormProductRepository) Delete(ctx context.Context, externalID string) error {
	result := r.db.WithContext(ctx).Where("external_id = ?", externalID).Delete(&catalog.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count returns the total number of stored products
func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&catalog.Product{}).Count(&count).Error
	return count, err
}
