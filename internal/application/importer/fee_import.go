// Package importer applies marketplace billing exports to stored orders.
package importer

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/shared"
	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/trade"
	"github.com/eempirepl/allegro-profit-analyzer/internal/infrastructure/csvimport"
)

// ImportResult summarizes a billing import run. Processed counts every
// data row seen; rows that parse but match no stored order, and rows that
// fail to parse, both land in Errors.
type ImportResult struct {
	Processed int      `json:"processed"`
	Updated   int      `json:"updated"`
	Errors    int      `json:"errors"`
	Details   []string `json:"details,omitempty"`
}

// FeeImportService parses billing CSV exports and writes fee amounts onto
// matching orders.
type FeeImportService struct {
	orders trade.OrderRepository
	logger *zap.Logger
}

// NewFeeImportService creates a fee import service.
func NewFeeImportService(orders trade.OrderRepository, logger *zap.Logger) *FeeImportService {
	return &FeeImportService{
		orders: orders,
		logger: logger.Named("fee-import"),
	}
}

// Import reads a billing export and updates fees on every order it can
// match by vendor identifier. Unmatched rows are counted, not fatal.
func (s *FeeImportService) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	parsed, err := csvimport.ParseFees(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Processed: len(parsed.Records) + len(parsed.Errors),
		Errors:    len(parsed.Errors),
	}
	for _, rowErr := range parsed.Errors {
		result.Details = append(result.Details, rowErr.String())
	}

	for _, record := range parsed.Records {
		err := s.orders.UpdateFees(ctx, record.OrderID, record.MarketplaceFee, record.ShippingFee, record.PaymentFee)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			result.Errors++
			result.Details = append(result.Details, "order "+record.OrderID+" not found")
			s.logger.Warn("billing row matches no stored order",
				zap.String("order_id", record.OrderID),
				zap.Int("line", record.Line),
			)
		case err != nil:
			return nil, err
		default:
			result.Updated++
		}
	}

	s.logger.Info("billing import finished",
		zap.Int("processed", result.Processed),
		zap.Int("updated", result.Updated),
		zap.Int("errors", result.Errors),
	)
	return result, nil
}
