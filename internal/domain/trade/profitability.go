package trade

import (
	"github.com/shopspring/decimal"
)

// Expenses is the cost breakdown of an order
type Expenses struct {
	ProductCost    decimal.Decimal `json:"product_cost"`
	MarketplaceFee decimal.Decimal `json:"marketplace_fee"`
	PaymentFee     decimal.Decimal `json:"payment_fee"`
	ShippingFee    decimal.Decimal `json:"shipping_fee"`
	Total          decimal.Decimal `json:"total"`
}

// Profitability is the computed profit figure for a single order.
// MarginDefined is false when revenue is zero; MarginPercent is zero in
// that case and must not be interpreted as an actual margin.
type Profitability struct {
	Revenue       decimal.Decimal `json:"revenue"`
	Expenses      Expenses        `json:"expenses"`
	Profit        decimal.Decimal `json:"profit"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
	MarginDefined bool            `json:"margin_defined"`
}

// CalculateProfitability computes net profit and margin for an order.
// Per-item purchase cost snapshots take precedence; productCosts supplies
// the linked product's purchase price (keyed by vendor product ID) as a
// fallback, and items with neither contribute zero cost.
//
// The computation is pure: no I/O, fully deterministic given its inputs.
func CalculateProfitability(order *Order, productCosts map[string]decimal.Decimal) Profitability {
	productCost := decimal.Zero
	for _, item := range order.Items {
		cost := decimal.Zero
		switch {
		case item.PurchaseCost != nil:
			cost = *item.PurchaseCost
		default:
			if c, ok := productCosts[item.ExternalProductID]; ok {
				cost = c
			}
		}
		productCost = productCost.Add(cost.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	expenses := Expenses{
		ProductCost:    productCost,
		MarketplaceFee: order.MarketplaceFee,
		PaymentFee:     order.PaymentFee,
		ShippingFee:    order.ShippingFee,
	}
	expenses.Total = productCost.
		Add(order.MarketplaceFee).
		Add(order.PaymentFee).
		Add(order.ShippingFee)

	revenue := order.TotalAmount
	profit := revenue.Sub(expenses.Total)

	result := Profitability{
		Revenue:  revenue,
		Expenses: expenses,
		Profit:   profit,
	}

	// Margin is undefined for zero revenue; guard the division instead of
	// surfacing Infinity/NaN.
	if !revenue.IsZero() {
		result.MarginDefined = true
		result.MarginPercent = profit.Div(revenue).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return result
}
