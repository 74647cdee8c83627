package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eempirepl/allegro-profit-analyzer/internal/application/importer"
	"github.com/eempirepl/allegro-profit-analyzer/internal/application/report"
	"github.com/eempirepl/allegro-profit-analyzer/internal/application/synchro"
	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/catalog"
	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/integration"
	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/shared"
	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/trade"
	"github.com/eempirepl/allegro-profit-analyzer/internal/infrastructure/config"
	"github.com/eempirepl/allegro-profit-analyzer/internal/infrastructure/currency"
	"github.com/eempirepl/allegro-profit-analyzer/internal/interfaces/http/handler"
	"github.com/eempirepl/allegro-profit-analyzer/internal/interfaces/http/router"
)

type fakeProductRepo struct {
	products map[string]*catalog.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]*catalog.Product)}
}

func (r *fakeProductRepo) FindByExternalID(_ context.Context, externalID string) (*catalog.Product, error) {
	p, ok := r.products[externalID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) FindByExternalIDs(_ context.Context, externalIDs []string) (map[string]*catalog.Product, error) {
	result := make(map[string]*catalog.Product)
	for _, id := range externalIDs {
		if p, ok := r.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (r *fakeProductRepo) FindAll(_ context.Context, offset, limit int) ([]*catalog.Product, error) {
	var all []*catalog.Product
	for _, p := range r.products {
		all = append(all, p)
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *fakeProductRepo) Save(_ context.Context, product *catalog.Product) error {
	r.products[product.ExternalID] = product
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, externalID string) error {
	if _, ok := r.products[externalID]; !ok {
		return shared.ErrNotFound
	}
	delete(r.products, externalID)
	return nil
}

func (r *fakeProductRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.products)), nil
}

type fakeOrderRepo struct {
	orders map[string]*trade.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*trade.Order)}
}

func (r *fakeOrderRepo) FindByExternalID(_ context.Context, externalID string) (*trade.Order, error) {
	o, ok := r.orders[externalID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

func (r *fakeOrderRepo) FindAll(_ context.Context, offset, limit int) ([]trade.Order, error) {
	var all []trade.Order
	for _, o := range r.orders {
		all = append(all, *o)
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *fakeOrderRepo) Save(_ context.Context, order *trade.Order) error {
	r.orders[order.ExternalID] = order
	return nil
}

func (r *fakeOrderRepo) UpdateFees(_ context.Context, externalID string, marketplaceFee, shippingFee, paymentFee decimal.Decimal) error {
	o, ok := r.orders[externalID]
	if !ok {
		return shared.ErrNotFound
	}
	o.ApplyFees(marketplaceFee, shippingFee, paymentFee)
	return nil
}

func (r *fakeOrderRepo) Delete(_ context.Context, externalID string) error {
	if _, ok := r.orders[externalID]; !ok {
		return shared.ErrNotFound
	}
	delete(r.orders, externalID)
	return nil
}

func (r *fakeOrderRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.orders)), nil
}

type fakeGateway struct {
	connectionErr error
	products      []integration.VendorProduct
	orders        []integration.VendorOrder
}

func (g *fakeGateway) TestConnection(context.Context) error {
	return g.connectionErr
}

func (g *fakeGateway) ListInventories(context.Context) ([]integration.Inventory, error) {
	return []integration.Inventory{{ID: "inv-1", Name: "Main"}}, nil
}

func (g *fakeGateway) FetchAllProducts(context.Context, string) (*integration.ProductFetch, error) {
	return &integration.ProductFetch{Products: g.products, Pages: 1}, nil
}

func (g *fakeGateway) FetchAllOrders(context.Context, time.Time, time.Time) (*integration.OrderFetch, error) {
	return &integration.OrderFetch{Orders: g.orders, Pages: 1}, nil
}

func (g *fakeGateway) FetchOrder(context.Context, string) (*integration.VendorOrder, error) {
	return nil, integration.ErrOrderNotFound
}

type testEnv struct {
	engine   http.Handler
	products *fakeProductRepo
	orders   *fakeOrderRepo
	gateway  *fakeGateway
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	nbp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"table":"A","effectiveDate":"2025-03-10","rates":[{"currency":"euro","code":"EUR","mid":4.0}]}]`)
	}))
	t.Cleanup(nbp.Close)

	logger := zap.NewNop()
	products := newFakeProductRepo()
	orders := newFakeOrderRepo()
	gateway := &fakeGateway{}

	rates := currency.NewConverter(&config.CurrencyConfig{BaseURL: nbp.URL, Timeout: time.Second}, logger)
	productSync := synchro.NewProductSyncService(gateway, products, "inv-1", logger)
	orderSync := synchro.NewOrderSyncService(gateway, orders, logger)
	profitability := report.NewProfitabilityService(orders, products, rates, logger)
	feeImport := importer.NewFeeImportService(orders, logger)

	cfg := &config.Config{
		App:  config.AppConfig{Env: "production"},
		HTTP: config.HTTPConfig{RateLimitEnabled: false},
	}
	engine := router.New(cfg, logger, router.Handlers{
		Products:  handler.NewProductHandler(products, productSync, logger),
		Orders:    handler.NewOrderHandler(orders, orderSync, profitability, logger),
		Sync:      handler.NewSyncHandler(productSync, orderSync, logger),
		CSVImport: handler.NewCSVImportHandler(feeImport, logger),
		System:    handler.NewSystemHandler(nil, gateway, "test", logger),
	})

	return &testEnv{engine: engine, products: products, orders: orders, gateway: gateway}
}

func (e *testEnv) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, body)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func seedOrder(t *testing.T, repo *fakeOrderRepo) *trade.Order {
	t.Helper()
	order, err := trade.NewOrder("1001", time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	order.TotalAmount = decimal.RequireFromString("149.99")
	cost := decimal.RequireFromString("94.79")
	order.Items = []trade.OrderItem{
		{ExternalProductID: "55", Name: "Cable", Quantity: 1, UnitPrice: decimal.RequireFromString("149.99"), PurchaseCost: &cost},
	}
	require.NoError(t, repo.Save(context.Background(), order))
	return order
}

func TestListProducts(t *testing.T) {
	env := setupEnv(t)
	p, err := catalog.NewProduct("BL-1", "Cable")
	require.NoError(t, err)
	require.NoError(t, env.products.Save(context.Background(), p))

	rec := env.do(t, http.MethodGet, "/api/v1/products", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
	assert.Contains(t, string(resp.Data), `"total":1`)
}

func TestProductSyncEndpoint(t *testing.T) {
	env := setupEnv(t)
	env.gateway.products = []integration.VendorProduct{
		{ID: "BL-1", Name: "Cable"},
		{ID: "BL-2", Name: "Hub"},
	}

	rec := env.do(t, http.MethodPost, "/api/v1/products/sync", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
	assert.Contains(t, string(resp.Data), `"created":2`)
}

func TestGetOrderNotFound(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/orders/nope", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestGetOrderAndItems(t *testing.T) {
	env := setupEnv(t)
	seedOrder(t, env.orders)

	rec := env.do(t, http.MethodGet, "/api/v1/orders/1001", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/order-items/1001", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Contains(t, string(resp.Data), `"Cable"`)
}

func TestOrderProfitabilityEndpoint(t *testing.T) {
	env := setupEnv(t)
	order := seedOrder(t, env.orders)
	order.ApplyFees(
		decimal.RequireFromString("12"),
		decimal.RequireFromString("5"),
		decimal.RequireFromString("3"),
	)

	rec := env.do(t, http.MethodGet, "/api/v1/orders/1001/profitability", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Converted bool `json:"converted"`
			Result    struct {
				Profit        decimal.Decimal `json:"profit"`
				MarginPercent decimal.Decimal `json:"margin_percent"`
				MarginDefined bool            `json:"margin_defined"`
			} `json:"result"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Converted)
	assert.True(t, resp.Data.Result.MarginDefined)
	assert.True(t, resp.Data.Result.Profit.Equal(decimal.RequireFromString("35.20")))
	assert.Equal(t, "23.47", resp.Data.Result.MarginPercent.String())
}

func TestOrderSyncEndpointBadDates(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/orders/sync?from=March-1", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCSVImportEndpoint(t *testing.T) {
	env := setupEnv(t)
	seedOrder(t, env.orders)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "fees.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("order_id,allegro_fee,shipping_fee,payment_fee\n1001,3.50,5.00,1.20\n9999,1.00,,\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	rec := env.do(t, http.MethodPost, "/api/v1/csv/import", &buf, writer.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.Contains(t, string(resp.Data), `"processed":2`)
	assert.Contains(t, string(resp.Data), `"updated":1`)
	assert.Contains(t, string(resp.Data), `"errors":1`)

	order, err := env.orders.FindByExternalID(context.Background(), "1001")
	require.NoError(t, err)
	assert.True(t, order.MarketplaceFee.Equal(decimal.RequireFromString("3.5")))
}

func TestCSVImportMissingFile(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/csv/import", bytes.NewBufferString(""), "multipart/form-data")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVendorConnectionEndpoint(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/baselinker/test", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	env.gateway.connectionErr = &integration.VendorError{Code: "ERROR_AUTH_TOKEN", Message: "bad token"}
	rec = env.do(t, http.MethodGet, "/api/v1/baselinker/test", nil, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/system/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Contains(t, string(resp.Data), `"status":"ok"`)
}

func TestSyncStreamEmitsEvents(t *testing.T) {
	env := setupEnv(t)
	env.gateway.products = []integration.VendorProduct{{ID: "BL-1", Name: "Cable"}}

	rec := env.do(t, http.MethodGet, "/api/v1/sync/stream?op=products", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")

	body := rec.Body.String()
	assert.Contains(t, body, "event: started")
	assert.Contains(t, body, "event: complete")
	assert.Contains(t, body, `"operation":"product_sync"`)
}

func TestSyncStreamRejectsUnknownOp(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/sync/stream?op=everything", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestIDHeaderSet(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/system/health", nil, "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rr := httptest.NewRecorder()
	env.engine.ServeHTTP(rr, req)
	assert.Equal(t, "fixed-id", rr.Header().Get("X-Request-ID"))
}

type failingProductRepo struct {
	*fakeProductRepo
}

func (r *failingProductRepo) FindAll(context.Context, int, int) ([]*catalog.Product, error) {
	return nil, errors.New("connection refused")
}

func TestFailuresLoggedWithRequestScope(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	obsLogger := zap.New(core)

	products := &failingProductRepo{fakeProductRepo: newFakeProductRepo()}
	orders := newFakeOrderRepo()
	gateway := &fakeGateway{}

	productSync := synchro.NewProductSyncService(gateway, products, "inv-1", obsLogger)
	orderSync := synchro.NewOrderSyncService(gateway, orders, obsLogger)
	profitability := report.NewProfitabilityService(orders, products, staticRates(t), obsLogger)
	feeImport := importer.NewFeeImportService(orders, obsLogger)

	cfg := &config.Config{App: config.AppConfig{Env: "production"}}
	engine := router.New(cfg, obsLogger, router.Handlers{
		Products:  handler.NewProductHandler(products, productSync, obsLogger),
		Orders:    handler.NewOrderHandler(orders, orderSync, profitability, obsLogger),
		Sync:      handler.NewSyncHandler(productSync, orderSync, obsLogger),
		CSVImport: handler.NewCSVImportHandler(feeImport, obsLogger),
		System:    handler.NewSystemHandler(nil, gateway, "test", obsLogger),
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	requestID, ok := fields["request_id"].(string)
	require.True(t, ok, "failure log must carry the request-scoped fields")
	assert.NotEmpty(t, requestID)
	assert.Equal(t, "/api/v1/products", fields["path"])
}

func staticRates(t *testing.T) report.RateSource {
	t.Helper()
	nbp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"table":"A","effectiveDate":"2025-03-10","rates":[{"currency":"euro","code":"EUR","mid":4.0}]}]`)
	}))
	t.Cleanup(nbp.Close)
	return currency.NewConverter(&config.CurrencyConfig{BaseURL: nbp.URL, Timeout: time.Second}, zap.NewNop())
}
