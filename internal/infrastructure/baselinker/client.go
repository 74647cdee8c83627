package baselinker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/integration"
	"github.com/eempirepl/allegro-profit-analyzer/internal/infrastructure/config"
)

// Client talks to the vendor's RPC-over-HTTP API: every call is a
// form-encoded POST to a single endpoint carrying the token, the method
// name, and the method parameters as a JSON document. All calls are
// funneled through a shared Limiter.
type Client struct {
	token       string
	baseURL     string
	pageSize    int
	pageCeiling int
	batchSize   int

	httpClient *http.Client
	limiter    *Limiter
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the vendor endpoint URL
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// NewClient creates a vendor API client. The limiter is shared across all
// methods so paginated fetches and one-off calls obey the same pacing.
func NewClient(cfg *config.BaseLinkerConfig, limiter *Limiter, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		token:       cfg.Token,
		baseURL:     cfg.BaseURL,
		pageSize:    cfg.PageSize,
		pageCeiling: cfg.PageCeiling,
		batchSize:   cfg.BatchSize,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		limiter:     limiter,
		logger:      logger.Named("baselinker"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API token is present
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.token) != ""
}

// call performs one rate-limited RPC call and decodes the payload into out.
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	if !c.Configured() {
		return integration.ErrVendorNotConfigured
	}

	return c.limiter.Schedule(ctx, method, func(ctx context.Context) error {
		return c.post(ctx, method, params, out)
	})
}

// post is one raw HTTP round trip, without pacing or retries.
func (c *Client) post(ctx context.Context, method string, params any, out any) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal parameters for %s: %w", method, err)
	}

	form := url.Values{}
	form.Set("token", c.token)
	form.Set("method", method)
	form.Set("parameters", string(paramsJSON))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request for %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &integration.TransportError{Op: method, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 50<<20))
	if err != nil {
		return &integration.TransportError{Op: method, Err: err}
	}

	c.logger.Debug("vendor call completed",
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
		zap.Int("body_bytes", len(body)),
	)

	// The vendor answers every accepted call with 200 plus a status
	// envelope; anything else (including its HTTP 429 on quota overruns)
	// is a transport-level failure and stays retry eligible.
	if resp.StatusCode != http.StatusOK {
		return &integration.TransportError{Op: method, Err: fmt.Errorf("vendor returned HTTP %d", resp.StatusCode)}
	}

	var envelope rpcEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrInvalidResponse, err)
	}
	if envelope.Status != statusSuccess {
		return &integration.VendorError{Code: envelope.ErrorCode, Message: envelope.ErrorMessage}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: decode %s payload: %v", integration.ErrInvalidResponse, method, err)
		}
	}
	return nil
}

// TestConnection verifies token validity and connectivity with the
// cheapest call the vendor offers.
func (c *Client) TestConnection(ctx context.Context) error {
	return c.call(ctx, methodGetInventories, map[string]any{}, nil)
}

// ListInventories returns the vendor-side catalog partitions.
func (c *Client) ListInventories(ctx context.Context) ([]integration.Inventory, error) {
	var resp inventoriesResponse
	if err := c.call(ctx, methodGetInventories, map[string]any{}, &resp); err != nil {
		return nil, err
	}

	inventories := make([]integration.Inventory, 0, len(resp.Inventories))
	for _, inv := range resp.Inventories {
		inventories = append(inventories, integration.Inventory{
			ID:   inv.InventoryID.String(),
			Name: inv.Name,
		})
	}
	return inventories, nil
}

// FetchOrder returns a single order with its items.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (*integration.VendorOrder, error) {
	var resp ordersResponse
	params := map[string]any{"order_id": orderID}
	if err := c.call(ctx, methodGetOrders, params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Orders) == 0 {
		return nil, integration.ErrOrderNotFound
	}

	order := mapOrder(resp.Orders[0])
	return &order, nil
}

func mapOrder(w wireOrder) integration.VendorOrder {
	items := make([]integration.VendorOrderItem, 0, len(w.Products))
	for _, p := range w.Products {
		item := integration.VendorOrderItem{
			ProductID: p.ProductID.String(),
			Name:      p.Name,
			Quantity:  int(p.Quantity),
			UnitPrice: p.Price.Decimal,
		}
		if p.Cost != nil {
			cost := p.Cost.Decimal
			item.PurchaseCost = &cost
		}
		items = append(items, item)
	}

	currency := w.Currency
	if currency == "" {
		currency = "PLN"
	}

	return integration.VendorOrder{
		ID:              w.OrderID.String(),
		ExternalOrderID: w.ExternalOrderID.String(),
		StatusID:        int(w.StatusID),
		Source:          w.Source,
		Currency:        currency,
		DeliveryPrice:   w.DeliveryPrice.Decimal,
		CreatedAt:       w.DateAdd.Time,
		Items:           items,
	}
}
