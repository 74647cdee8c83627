package synchro

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/catalog"
	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/integration"
	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/shared"
)

// ProductSyncResult summarizes one product synchronization run.
type ProductSyncResult struct {
	Created int  `json:"created"`
	Updated int  `json:"updated"`
	Errors  int  `json:"errors"`
	Pages   int  `json:"pages"`
	Partial bool `json:"partial"`
}

// ProductSyncService pulls the vendor catalog and upserts it locally.
type ProductSyncService struct {
	gateway     integration.VendorGateway
	products    catalog.ProductRepository
	inventoryID string
	logger      *zap.Logger
}

// NewProductSyncService creates a product sync service bound to one
// vendor inventory.
func NewProductSyncService(
	gateway integration.VendorGateway,
	products catalog.ProductRepository,
	inventoryID string,
	logger *zap.Logger,
) *ProductSyncService {
	return &ProductSyncService{
		gateway:     gateway,
		products:    products,
		inventoryID: inventoryID,
		logger:      logger.Named("product-sync"),
	}
}

// Sync fetches every product of the configured inventory and upserts each
// by its vendor identifier. A product that fails to persist is counted and
// skipped; the run itself only fails when the vendor fetch fails outright.
func (s *ProductSyncService) Sync(ctx context.Context, progress ProgressFunc) (*ProductSyncResult, error) {
	progress.emit(StageStarted, "product_sync", "fetching product catalog", 0, 0)

	inventoryID := s.inventoryID
	if inventoryID == "" {
		inventories, err := s.gateway.ListInventories(ctx)
		if err != nil {
			progress.emit(StageError, "product_sync", err.Error(), 0, 0)
			return nil, err
		}
		if len(inventories) == 0 {
			err := shared.NewDomainError("INVALID_STATE", "vendor account has no inventories")
			progress.emit(StageError, "product_sync", err.Error(), 0, 0)
			return nil, err
		}
		inventoryID = inventories[0].ID
	}

	fetch, err := s.gateway.FetchAllProducts(ctx, inventoryID)
	if err != nil {
		progress.emit(StageError, "product_sync", err.Error(), 0, 0)
		return nil, err
	}

	result := &ProductSyncResult{Pages: fetch.Pages, Partial: fetch.Truncated}
	total := len(fetch.Products)

	for i, vp := range fetch.Products {
		if err := s.upsert(ctx, vp, result); err != nil {
			result.Errors++
			s.logger.Warn("product upsert failed",
				zap.String("external_id", vp.ID),
				zap.Error(err),
			)
		}
		if (i+1)%50 == 0 || i+1 == total {
			progress.emit(StageProgress, "product_sync",
				fmt.Sprintf("processed %d of %d products", i+1, total), i+1, total)
		}
	}

	s.logger.Info("product sync finished",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("errors", result.Errors),
		zap.Int("pages", result.Pages),
		zap.Bool("partial", result.Partial),
	)
	progress.emit(StageComplete, "product_sync",
		fmt.Sprintf("created %d, updated %d, errors %d", result.Created, result.Updated, result.Errors),
		total, total)
	return result, nil
}

func (s *ProductSyncService) upsert(ctx context.Context, vp integration.VendorProduct, result *ProductSyncResult) error {
	existing, err := s.products.FindByExternalID(ctx, vp.ID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		product, err := catalog.NewProduct(vp.ID, productName(vp))
		if err != nil {
			return err
		}
		product.ApplySnapshot(productName(vp), vp.SKU, vp.EAN, vp.PurchasePrice, vp.Stock)
		if err := s.products.Save(ctx, product); err != nil {
			return err
		}
		result.Created++
		return nil
	case err != nil:
		return err
	}

	existing.ApplySnapshot(productName(vp), vp.SKU, vp.EAN, vp.PurchasePrice, vp.Stock)
	if err := s.products.Save(ctx, existing); err != nil {
		return err
	}
	result.Updated++
	return nil
}

// productName falls back to the SKU or vendor ID for products the vendor
// reports without a name.
func productName(vp integration.VendorProduct) string {
	if vp.Name != "" {
		return vp.Name
	}
	if vp.SKU != "" {
		return vp.SKU
	}
	return "product " + vp.ID
}
