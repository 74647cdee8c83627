package baselinker

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/integration"
)

// FetchAllProducts walks the paged product list of an inventory until the
// vendor reports an empty page, then resolves prices and stock through the
// batch detail endpoint. Hitting the page ceiling yields a truncated
// partial result, not an error.
func (c *Client) FetchAllProducts(ctx context.Context, inventoryID string) (*integration.ProductFetch, error) {
	listed := make(map[string]wireListProduct)
	fetch := &integration.ProductFetch{}

	for page := 1; ; page++ {
		var resp productsListResponse
		params := map[string]any{
			"inventory_id": inventoryID,
			"page":         page,
			"page_size":    c.pageSize,
		}
		if err := c.call(ctx, methodGetInventoryProductsList, params, &resp); err != nil {
			return nil, err
		}
		fetch.Pages = page

		if len(resp.Products) == 0 {
			break
		}
		for id, p := range resp.Products {
			if p.ID == "" {
				p.ID = flexString(id)
			}
			listed[p.ID.String()] = p
		}

		if page >= c.pageCeiling {
			fetch.Truncated = true
			c.logger.Warn("product listing hit page ceiling, result is partial",
				zap.String("inventory_id", inventoryID),
				zap.Int("pages", page),
				zap.Int("products", len(listed)),
			)
			break
		}
	}

	ids := make([]string, 0, len(listed))
	for id := range listed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	details, err := c.fetchProductDetails(ctx, inventoryID, ids)
	if err != nil {
		return nil, err
	}

	fetch.Products = make([]integration.VendorProduct, 0, len(ids))
	for _, id := range ids {
		row := listed[id]
		product := integration.VendorProduct{
			ID:   id,
			SKU:  row.SKU,
			EAN:  row.EAN,
			Name: row.Name,
		}
		if detail, ok := details[id]; ok {
			if detail.Name != "" {
				product.Name = detail.Name
			}
			if detail.SKU != "" {
				product.SKU = detail.SKU
			}
			if detail.EAN != "" {
				product.EAN = detail.EAN
			}
			if detail.PurchasePrice != nil {
				price := detail.PurchasePrice.Decimal
				product.PurchasePrice = &price
			}
			product.Stock = detail.totalStock()
		}
		fetch.Products = append(fetch.Products, product)
	}
	return fetch, nil
}

// fetchProductDetails resolves product details in bounded-size batches and
// merges the responses into one id-keyed map.
func (c *Client) fetchProductDetails(ctx context.Context, inventoryID string, ids []string) (map[string]wireProductDetail, error) {
	details := make(map[string]wireProductDetail, len(ids))

	for start := 0; start < len(ids); start += c.batchSize {
		end := start + c.batchSize
		if end > len(ids) {
			end = len(ids)
		}

		var resp productsDataResponse
		params := map[string]any{
			"inventory_id": inventoryID,
			"products":     ids[start:end],
		}
		if err := c.call(ctx, methodGetInventoryProductsData, params, &resp); err != nil {
			return nil, err
		}
		for id, detail := range resp.Products {
			details[id] = detail
		}
	}
	return details, nil
}

// FetchAllOrders walks the paged order list within [from, to]. A malformed
// order row is logged, counted, and skipped; it never fails the whole scan.
func (c *Client) FetchAllOrders(ctx context.Context, from, to time.Time) (*integration.OrderFetch, error) {
	fetch := &integration.OrderFetch{}
	seen := make(map[string]struct{})

	for page := 1; ; page++ {
		var resp ordersResponse
		params := map[string]any{
			"date_confirmed_from":    from.Unix(),
			"date_confirmed_to":      to.Unix(),
			"page":                   page,
			"page_size":              c.pageSize,
			"get_unconfirmed_orders": false,
		}
		if err := c.call(ctx, methodGetOrders, params, &resp); err != nil {
			return nil, err
		}
		fetch.Pages = page

		if len(resp.Orders) == 0 {
			break
		}
		for _, w := range resp.Orders {
			if w.OrderID == "" {
				fetch.ItemErrors++
				c.logger.Warn("skipping order row without an identifier", zap.Int("page", page))
				continue
			}
			if _, dup := seen[w.OrderID.String()]; dup {
				continue
			}
			seen[w.OrderID.String()] = struct{}{}
			fetch.Orders = append(fetch.Orders, mapOrder(w))
		}

		if page >= c.pageCeiling {
			fetch.Truncated = true
			c.logger.Warn("order listing hit page ceiling, result is partial",
				zap.Int("pages", page),
				zap.Int("orders", len(fetch.Orders)),
			)
			break
		}
	}
	return fetch, nil
}
