// Package csvimport parses marketplace billing exports. Exports vary in
// encoding (UTF-8 BOM from Excel) and decimal notation (comma in Polish
// locales), so parsing is deliberately tolerant.
package csvimport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/shared"
)

// FeeRecord is one parsed row of a billing export.
type FeeRecord struct {
	// Line is the 1-based line number in the source file, for error reporting
	Line           int
	OrderID        string
	MarketplaceFee decimal.Decimal
	ShippingFee    decimal.Decimal
	PaymentFee     decimal.Decimal
}

// RowError describes a row that could not be parsed.
type RowError struct {
	Line   int
	Reason string
}

func (e RowError) String() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ParseResult carries parsed rows alongside per-row failures. A bad row
// never aborts the parse.
type ParseResult struct {
	Records []FeeRecord
	Errors  []RowError
}

const (
	colOrderID        = "order_id"
	colMarketplaceFee = "allegro_fee"
	colShippingFee    = "shipping_fee"
	colPaymentFee     = "payment_fee"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseFees reads a comma-delimited billing export with a header row.
// The order_id column is required; fee columns default to zero when
// absent or empty.
func ParseFees(r io.Reader) (*ParseResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, shared.NewDomainError("INVALID_INPUT", "import file is empty")
		}
		return nil, fmt.Errorf("read header row: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns[colOrderID]; !ok {
		return nil, shared.NewDomainError("INVALID_INPUT", "import file is missing the order_id column")
	}

	result := &ParseResult{}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: err.Error()})
			continue
		}

		record, rowErr := parseRow(row, columns, line)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		result.Records = append(result.Records, record)
	}
	return result, nil
}

func parseRow(row []string, columns map[string]int, line int) (FeeRecord, *RowError) {
	orderID := strings.TrimSpace(field(row, columns, colOrderID))
	if orderID == "" {
		return FeeRecord{}, &RowError{Line: line, Reason: "empty order_id"}
	}

	record := FeeRecord{Line: line, OrderID: orderID}

	var err error
	if record.MarketplaceFee, err = parseAmount(field(row, columns, colMarketplaceFee)); err != nil {
		return FeeRecord{}, &RowError{Line: line, Reason: fmt.Sprintf("bad %s: %v", colMarketplaceFee, err)}
	}
	if record.ShippingFee, err = parseAmount(field(row, columns, colShippingFee)); err != nil {
		return FeeRecord{}, &RowError{Line: line, Reason: fmt.Sprintf("bad %s: %v", colShippingFee, err)}
	}
	if record.PaymentFee, err = parseAmount(field(row, columns, colPaymentFee)); err != nil {
		return FeeRecord{}, &RowError{Line: line, Reason: fmt.Sprintf("bad %s: %v", colPaymentFee, err)}
	}
	return record, nil
}

func field(row []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// parseAmount accepts "12.34", "12,34" and blank (zero). Fees are stored
// as positive amounts even when the export lists them as charges.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Abs(), nil
}
