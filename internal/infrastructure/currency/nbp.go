// Package currency resolves exchange rates against PLN using the National
// Bank of Poland's public table A endpoint.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eempirepl/allegro-profit-analyzer/internal/infrastructure/config"
)

// BasePLN is the currency everything converts into.
const BasePLN = "PLN"

// Rates is a snapshot of mid exchange rates keyed by ISO currency code.
// The base currency always maps to 1.
type Rates struct {
	table     map[string]decimal.Decimal
	fetchedAt time.Time
	// degraded marks a fallback snapshot taken when the rate source
	// was unreachable; only PLN converts, everything else passes through
	degraded bool
}

// Rate returns the PLN mid rate for code and whether the code is known.
func (r *Rates) Rate(code string) (decimal.Decimal, bool) {
	rate, ok := r.table[strings.ToUpper(strings.TrimSpace(code))]
	return rate, ok
}

// Degraded reports whether this snapshot is the unreachable-source fallback.
func (r *Rates) Degraded() bool {
	return r.degraded
}

// FetchedAt returns when the snapshot was taken.
func (r *Rates) FetchedAt() time.Time {
	return r.fetchedAt
}

// Convert converts amount from the given currency into PLN. The second
// return reports whether a rate was known; unknown currencies pass the
// amount through unchanged so a single odd order cannot sink a report.
func (r *Rates) Convert(amount decimal.Decimal, code string) (decimal.Decimal, bool) {
	rate, ok := r.Rate(code)
	if !ok {
		return amount, false
	}
	return amount.Mul(rate), true
}

// nbpTable mirrors the NBP exchangerates/tables/a response.
type nbpTable struct {
	Table         string    `json:"table"`
	EffectiveDate string    `json:"effectiveDate"`
	Rates         []nbpRate `json:"rates"`
}

type nbpRate struct {
	Code string          `json:"code"`
	Mid  decimal.Decimal `json:"mid"`
}

// Converter fetches and caches rate snapshots from NBP.
type Converter struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mu       sync.Mutex
	cached   *Rates
	cacheTTL time.Duration
}

// NewConverter creates a converter against the configured NBP endpoint.
func NewConverter(cfg *config.CurrencyConfig, logger *zap.Logger) *Converter {
	return &Converter{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("currency"),
		cacheTTL:   time.Hour,
	}
}

// Snapshot returns current rates, served from cache when fresh. When the
// source is unreachable and nothing is cached it returns a degraded
// snapshot knowing only PLN, never an error.
func (c *Converter) Snapshot(ctx context.Context) *Rates {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && !c.cached.degraded && time.Since(c.cached.fetchedAt) < c.cacheTTL {
		return c.cached
	}

	rates, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("exchange rate source unreachable, using degraded rates", zap.Error(err))
		if c.cached != nil && !c.cached.degraded {
			// Stale beats degraded
			return c.cached
		}
		c.cached = &Rates{
			table:     map[string]decimal.Decimal{BasePLN: decimal.NewFromInt(1)},
			fetchedAt: time.Now(),
			degraded:  true,
		}
		return c.cached
	}

	c.cached = rates
	return rates
}

func (c *Converter) fetch(ctx context.Context) (*Rates, error) {
	url := c.baseURL + "/exchangerates/tables/a/?format=json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate source returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var tables []nbpTable
	if err := json.Unmarshal(body, &tables); err != nil {
		return nil, fmt.Errorf("decode rate table: %w", err)
	}
	if len(tables) == 0 || len(tables[0].Rates) == 0 {
		return nil, fmt.Errorf("rate source returned an empty table")
	}

	table := make(map[string]decimal.Decimal, len(tables[0].Rates)+1)
	table[BasePLN] = decimal.NewFromInt(1)
	for _, rate := range tables[0].Rates {
		table[strings.ToUpper(rate.Code)] = rate.Mid
	}

	c.logger.Info("exchange rates refreshed",
		zap.Int("currencies", len(table)),
		zap.String("effective_date", tables[0].EffectiveDate),
	)
	return &Rates{table: table, fetchedAt: time.Now()}, nil
}
