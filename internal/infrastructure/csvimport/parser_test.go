package csvimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/shared"
)

func TestParseFees(t *testing.T) {
	input := "order_id,allegro_fee,shipping_fee,payment_fee\n" +
		"1001,3.50,5.00,1.20\n" +
		"1002,\"2,99\",0,\n"

	result, err := ParseFees(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Empty(t, result.Errors)

	first := result.Records[0]
	assert.Equal(t, "1001", first.OrderID)
	assert.Equal(t, "3.5", first.MarketplaceFee.String())
	assert.Equal(t, "5", first.ShippingFee.String())
	assert.Equal(t, "1.2", first.PaymentFee.String())

	// Decimal comma and empty fee cell
	second := result.Records[1]
	assert.Equal(t, "2.99", second.MarketplaceFee.String())
	assert.True(t, second.PaymentFee.IsZero())
}

func TestParseFeesStripsBOM(t *testing.T) {
	input := "\xEF\xBB\xBForder_id,allegro_fee\n1001,3.50\n"

	result, err := ParseFees(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "1001", result.Records[0].OrderID)
}

func TestParseFeesNegativeChargesBecomePositive(t *testing.T) {
	input := "order_id,allegro_fee\n1001,-3.50\n"

	result, err := ParseFees(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "3.5", result.Records[0].MarketplaceFee.String())
}

func TestParseFeesRowErrorsDoNotAbort(t *testing.T) {
	input := "order_id,allegro_fee\n" +
		",3.50\n" +
		"1002,not-a-number\n" +
		"1003,4.00\n"

	result, err := ParseFees(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "1003", result.Records[0].OrderID)

	require.Len(t, result.Errors, 2)
	assert.Equal(t, 2, result.Errors[0].Line)
	assert.Equal(t, 3, result.Errors[1].Line)
}

func TestParseFeesMissingOrderIDColumn(t *testing.T) {
	input := "fee,amount\n1,2\n"

	_, err := ParseFees(strings.NewReader(input))
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_INPUT", domainErr.Code)
}

func TestParseFeesEmptyFile(t *testing.T) {
	_, err := ParseFees(strings.NewReader(""))
	assert.Error(t, err)
}
