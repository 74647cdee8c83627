package baselinker

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	methodGetInventories           = "getInventories"
	methodGetInventoryProductsList = "getInventoryProductsList"
	methodGetInventoryProductsData = "getInventoryProductsData"
	methodGetOrders                = "getOrders"
)

const statusSuccess = "SUCCESS"

// rpcEnvelope is the status wrapper every vendor response carries,
// regardless of the method called.
type rpcEnvelope struct {
	Status       string `json:"status"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// flexString tolerates the vendor emitting identifiers as either JSON
// strings or numbers, which varies between methods.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

func (f flexString) String() string {
	return string(f)
}

// flexDecimal tolerates monetary amounts arriving as strings or numbers.
// Absent and null values decode to zero.
type flexDecimal struct {
	decimal.Decimal
}

func (f *flexDecimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" || string(data) == `""` {
		f.Decimal = decimal.Zero
		return nil
	}
	s := strings.Trim(string(data), `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	f.Decimal = d
	return nil
}

// flexInt tolerates counts arriving as strings or numbers.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" || string(data) == `""` {
		*f = 0
		return nil
	}
	s := strings.Trim(string(data), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		// Some methods report quantities as floats
		fl, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return err
		}
		n = int(fl)
	}
	*f = flexInt(n)
	return nil
}

// unixTime decodes the vendor's Unix-seconds timestamps.
type unixTime struct {
	time.Time
}

func (u *unixTime) UnmarshalJSON(data []byte) error {
	var n flexInt
	if err := n.UnmarshalJSON(data); err != nil {
		return err
	}
	if n == 0 {
		u.Time = time.Time{}
		return nil
	}
	u.Time = time.Unix(int64(n), 0).UTC()
	return nil
}

type wireInventory struct {
	InventoryID flexString `json:"inventory_id"`
	Name        string     `json:"name"`
}

type inventoriesResponse struct {
	Inventories []wireInventory `json:"inventories"`
}

// wireListProduct is a row of the paged product list. The list carries
// identity fields only; prices and stock come from the detail endpoint.
type wireListProduct struct {
	ID   flexString `json:"id"`
	SKU  string     `json:"sku"`
	EAN  string     `json:"ean"`
	Name string     `json:"name"`
}

type productsListResponse struct {
	Products map[string]wireListProduct `json:"products"`
}

// wireProductDetail is a product record from the batch detail endpoint.
// Stock is reported per warehouse location and summed by the caller.
type wireProductDetail struct {
	SKU           string             `json:"sku"`
	EAN           string             `json:"ean"`
	Name          string             `json:"name"`
	PurchasePrice *flexDecimal       `json:"purchase_price"`
	Stock         map[string]flexInt `json:"stock"`
}

func (p *wireProductDetail) totalStock() int {
	total := 0
	for _, qty := range p.Stock {
		total += int(qty)
	}
	return total
}

type productsDataResponse struct {
	Products map[string]wireProductDetail `json:"products"`
}

type wireOrderProduct struct {
	ProductID flexString   `json:"product_id"`
	Name      string       `json:"name"`
	Quantity  flexInt      `json:"quantity"`
	Price     flexDecimal  `json:"price_brutto"`
	Cost      *flexDecimal `json:"purchase_price"`
}

type wireOrder struct {
	OrderID         flexString         `json:"order_id"`
	ExternalOrderID flexString         `json:"external_order_id"`
	StatusID        flexInt            `json:"order_status_id"`
	Source          string             `json:"order_source"`
	Currency        string             `json:"currency"`
	DeliveryPrice   flexDecimal        `json:"delivery_price"`
	DateAdd         unixTime           `json:"date_add"`
	Products        []wireOrderProduct `json:"products"`
}

type ordersResponse struct {
	Orders []wireOrder `json:"orders"`
}
