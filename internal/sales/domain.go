package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// TableName is the name of the table holding sales line items.
const TableName = "sales"

// Column names of the sales table, in declaration order.
const (
	ColumnID              = "id"
	ColumnOrderID         = "order_id"
	ColumnProduct         = "product"
	ColumnQuantityOrdered = "quantity_ordered"
	ColumnPriceEach       = "price_each"
	ColumnOrderDate       = "order_date"
	ColumnPurchaseAddress = "purchase_address"
	ColumnOrderCity       = "order_city"
	ColumnOrderState      = "order_state"
)

// Declared bounds of the bounded columns. Text limits count characters.
const (
	MaxOrderIDLen    = 50
	MaxProductLen    = 100
	MaxOrderCityLen  = 100
	MaxOrderStateLen = 50

	PricePrecision = 10
	PriceScale     = 2
)

// InputColumns lists the caller-supplied columns in declaration order.
var InputColumns = []string{
	ColumnOrderID,
	ColumnProduct,
	ColumnQuantityOrdered,
	ColumnPriceEach,
	ColumnOrderDate,
	ColumnPurchaseAddress,
	ColumnOrderCity,
	ColumnOrderState,
}

// Input holds the caller-supplied values of one line item. Every field is
// optional; a nil pointer or an invalid NullDecimal is stored as NULL.
type Input struct {
	OrderID         *string             `json:"order_id" db:"order_id"`
	Product         *string             `json:"product" db:"product"`
	QuantityOrdered *int32              `json:"quantity_ordered" db:"quantity_ordered"`
	PriceEach       decimal.NullDecimal `json:"price_each" db:"price_each"`
	OrderDate       *time.Time          `json:"order_date" db:"order_date"`
	PurchaseAddress *string             `json:"purchase_address" db:"purchase_address"`
	OrderCity       *string             `json:"order_city" db:"order_city"`
	OrderState      *string             `json:"order_state" db:"order_state"`
}

// SalesRecord represents one persisted line item of a customer order.
type SalesRecord struct {
	ID int64 `json:"id" db:"id"`
	Input
}
