package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/catalog"
	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/shared"
	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/trade"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&catalog.Product{}, &trade.Order{}, &trade.OrderItem{}))
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func newTestProduct(t *testing.T, externalID, name string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(externalID, name)
	require.NoError(t, err)
	return p
}

func TestProductRepositorySaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	p := newTestProduct(t, "BL-1001", "USB-C Cable 2m")
	p.ApplySnapshot("USB-C Cable 2m", "CAB-2M", "5901234123457", decPtr("12.50"), 40)
	require.NoError(t, repo.Save(ctx, p))

	found, err := repo.FindByExternalID(ctx, "BL-1001")
	require.NoError(t, err)
	assert.Equal(t, "USB-C Cable 2m", found.Name)
	assert.Equal(t, "CAB-2M", found.SKU)
	assert.True(t, found.UnitCost().Equal(dec("12.50")))
	assert.Equal(t, 40, found.StockQuantity)
}

func TestProductRepositorySaveIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	p := newTestProduct(t, "BL-1001", "USB-C Cable 2m")
	require.NoError(t, repo.Save(ctx, p))

	// Second snapshot for the same vendor ID updates instead of duplicating
	p2 := newTestProduct(t, "BL-1001", "USB-C Cable 2m (v2)")
	p2.ApplySnapshot("USB-C Cable 2m (v2)", "CAB-2M-V2", "", decPtr("11.00"), 15)
	require.NoError(t, repo.Save(ctx, p2))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	found, err := repo.FindByExternalID(ctx, "BL-1001")
	require.NoError(t, err)
	assert.Equal(t, "USB-C Cable 2m (v2)", found.Name)
	assert.Equal(t, 15, found.StockQuantity)
}

func TestProductRepositoryFindByExternalIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	for _, id := range []string{"BL-1", "BL-2", "BL-3"} {
		require.NoError(t, repo.Save(ctx, newTestProduct(t, id, "Product "+id)))
	}

	found, err := repo.FindByExternalIDs(ctx, []string{"BL-1", "BL-3", "BL-404"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Contains(t, found, "BL-1")
	assert.Contains(t, found, "BL-3")
	assert.NotContains(t, found, "BL-404")

	empty, err := repo.FindByExternalIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestProductRepositoryNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	_, err := repo.FindByExternalID(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	err = repo.Delete(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func newTestOrder(t *testing.T, externalID string, orderedAt time.Time) *trade.Order {
	t.Helper()
	o, err := trade.NewOrder(externalID, orderedAt)
	require.NoError(t, err)
	return o
}

func TestOrderRepositorySaveWithItems(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	o := newTestOrder(t, "ORD-1", time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	o.TotalAmount = dec("149.99")
	o.Items = []trade.OrderItem{
		{BaseEntity: shared.NewBaseEntity(), ExternalProductID: "BL-1", Name: "Cable", Quantity: 2, UnitPrice: dec("49.99")},
		{BaseEntity: shared.NewBaseEntity(), ExternalProductID: "BL-2", Name: "Hub", Quantity: 1, UnitPrice: dec("50.01")},
	}
	require.NoError(t, repo.Save(ctx, o))

	found, err := repo.FindByExternalID(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Len(t, found.Items, 2)
	assert.True(t, found.TotalAmount.Equal(dec("149.99")))
}

func TestOrderRepositoryResyncReplacesItemsAndKeepsFees(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	o := newTestOrder(t, "ORD-1", time.Now().UTC())
	o.Items = []trade.OrderItem{
		{BaseEntity: shared.NewBaseEntity(), ExternalProductID: "BL-1", Name: "Cable", Quantity: 1, UnitPrice: dec("10")},
	}
	require.NoError(t, repo.Save(ctx, o))
	require.NoError(t, repo.UpdateFees(ctx, "ORD-1", dec("3.50"), dec("5.00"), dec("1.20")))

	// Re-sync brings a different item set and no fee data
	o2 := newTestOrder(t, "ORD-1", time.Now().UTC())
	o2.Items = []trade.OrderItem{
		{BaseEntity: shared.NewBaseEntity(), ExternalProductID: "BL-2", Name: "Hub", Quantity: 2, UnitPrice: dec("20")},
	}
	require.NoError(t, repo.Save(ctx, o2))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	found, err := repo.FindByExternalID(ctx, "ORD-1")
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "BL-2", found.Items[0].ExternalProductID)
	assert.True(t, found.MarketplaceFee.Equal(dec("3.50")))
	assert.True(t, found.ShippingFee.Equal(dec("5.00")))
	assert.True(t, found.PaymentFee.Equal(dec("1.20")))
}

func TestOrderRepositoryUpdateFeesNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)

	err := repo.UpdateFees(context.Background(), "missing", dec("1"), dec("1"), dec("1"))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOrderRepositoryFindAllNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	older := newTestOrder(t, "ORD-OLD", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := newTestOrder(t, "ORD-NEW", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	orders, err := repo.FindAll(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "ORD-NEW", orders[0].ExternalID)
}

func TestOrderRepositoryDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	o := newTestOrder(t, "ORD-1", time.Now().UTC())
	o.Items = []trade.OrderItem{
		{BaseEntity: shared.NewBaseEntity(), ExternalProductID: "BL-1", Name: "Cable", Quantity: 1, UnitPrice: dec("10")},
	}
	require.NoError(t, repo.Save(ctx, o))
	require.NoError(t, repo.Delete(ctx, "ORD-1"))

	var itemCount int64
	require.NoError(t, db.Model(&trade.OrderItem{}).Count(&itemCount).Error)
	assert.Equal(t, int64(0), itemCount)
}
