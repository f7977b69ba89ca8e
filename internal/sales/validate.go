package sales

import (
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// maxPrice is the smallest magnitude DECIMAL(10,2) cannot hold.
var maxPrice = decimal.New(1, PricePrecision-PriceScale)

// normalize checks in against the declared column types and returns a copy
// in stored form: prices at scale 2, timestamps in UTC at microsecond
// precision. The copy shares no memory with in.
func normalize(in Input) (Input, error) {
	out := Input{
		OrderID:         cloneString(in.OrderID),
		Product:         cloneString(in.Product),
		PurchaseAddress: cloneString(in.PurchaseAddress),
		OrderCity:       cloneString(in.OrderCity),
		OrderState:      cloneString(in.OrderState),
	}

	bounded := []struct {
		column string
		value  *string
		max    int
	}{
		{ColumnOrderID, out.OrderID, MaxOrderIDLen},
		{ColumnProduct, out.Product, MaxProductLen},
		{ColumnOrderCity, out.OrderCity, MaxOrderCityLen},
		{ColumnOrderState, out.OrderState, MaxOrderStateLen},
	}
	for _, b := range bounded {
		if b.value == nil {
			continue
		}
		if !utf8.ValidString(*b.value) {
			return Input{}, coercionError(b.column, *b.value, "invalid UTF-8")
		}
		if n := utf8.RuneCountInString(*b.value); n > b.max {
			return Input{}, coercionError(b.column, *b.value, "%d characters exceeds limit of %d", n, b.max)
		}
	}
	if out.PurchaseAddress != nil && !utf8.ValidString(*out.PurchaseAddress) {
		return Input{}, coercionError(ColumnPurchaseAddress, *out.PurchaseAddress, "invalid UTF-8")
	}

	if in.QuantityOrdered != nil {
		q := *in.QuantityOrdered
		out.QuantityOrdered = &q
	}

	if in.PriceEach.Valid {
		price, err := checkPrice(in.PriceEach.Decimal)
		if err != nil {
			return Input{}, err
		}
		out.PriceEach = decimal.NullDecimal{Decimal: price, Valid: true}
	}

	if in.OrderDate != nil {
		t := in.OrderDate.UTC().Truncate(time.Microsecond)
		out.OrderDate = &t
	}

	return out, nil
}

// normalizeBatch normalizes every record, stopping at the first failure and
// reporting its position.
func normalizeBatch(inputs []Input) ([]Input, error) {
	out := make([]Input, len(inputs))
	for i, in := range inputs {
		n, err := normalize(in)
		if err != nil {
			return nil, atPosition(err, i)
		}
		out[i] = n
	}
	return out, nil
}

func checkPrice(d decimal.Decimal) (decimal.Decimal, error) {
	if !d.Equal(d.Round(PriceScale)) {
		return decimal.Decimal{}, coercionError(ColumnPriceEach, d.String(), "more than %d fractional digits", PriceScale)
	}
	if d.Abs().GreaterThanOrEqual(maxPrice) {
		return decimal.Decimal{}, coercionError(ColumnPriceEach, d.String(), "exceeds DECIMAL(%d,%d)", PricePrecision, PriceScale)
	}
	return decimal.RequireFromString(d.StringFixed(PriceScale)), nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
