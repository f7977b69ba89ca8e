package sales

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDateLayouts are tried in order when parsing order_date strings.
// Layouts without a zone are read as UTC.
var DefaultDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Coerce converts loosely-typed column values, as decoded from JSON or read
// from a CSV cell, into an Input. Extra layouts are tried after
// DefaultDateLayouts. The returned *TypeCoercionError has Position 0.
func Coerce(values map[string]any, layouts ...string) (Input, error) {
	unknown := make([]string, 0)
	for column := range values {
		if !slices.Contains(InputColumns, column) {
			unknown = append(unknown, column)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		column := unknown[0]
		if column == ColumnID {
			return Input{}, coercionError(column, values[column], "id is assigned by the store")
		}
		return Input{}, coercionError(column, values[column], "unknown column")
	}

	var in Input
	for _, column := range InputColumns {
		value, ok := values[column]
		if !ok {
			continue
		}
		var err error
		switch column {
		case ColumnOrderID:
			in.OrderID, err = coerceText(column, value)
		case ColumnProduct:
			in.Product, err = coerceText(column, value)
		case ColumnPurchaseAddress:
			in.PurchaseAddress, err = coerceText(column, value)
		case ColumnOrderCity:
			in.OrderCity, err = coerceText(column, value)
		case ColumnOrderState:
			in.OrderState, err = coerceText(column, value)
		case ColumnQuantityOrdered:
			in.QuantityOrdered, err = coerceInt32(column, value)
		case ColumnPriceEach:
			in.PriceEach, err = coerceDecimal(column, value)
		case ColumnOrderDate:
			in.OrderDate, err = coerceTime(column, value, layouts)
		}
		if err != nil {
			return Input{}, err
		}
	}
	return in, nil
}

func coerceText(column string, value any) (*string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return &v, nil
	case json.Number:
		s := v.String()
		return &s, nil
	case fmt.Stringer:
		s := v.String()
		return &s, nil
	default:
		return nil, coercionError(column, value, "expected text, got %T", value)
	}
}

var (
	minInt32 = decimal.NewFromInt(math.MinInt32)
	maxInt32 = decimal.NewFromInt(math.MaxInt32)
)

func coerceInt32(column string, value any) (*int32, error) {
	var n int64
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int:
		n = int64(v)
	case int32:
		return &v, nil
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, coercionError(column, value, "not an integer")
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, coercionError(column, value, "out of INTEGER range")
		}
		n = int64(v)
	case json.Number:
		return coerceInt32(column, v.String())
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			// Integral decimals such as "3.0" or "1e3" are accepted, matching float64.
			d, derr := decimal.NewFromString(s)
			if derr != nil || !d.IsInteger() {
				return nil, coercionError(column, value, "not an integer")
			}
			if d.LessThan(minInt32) || d.GreaterThan(maxInt32) {
				return nil, coercionError(column, value, "out of INTEGER range")
			}
			parsed = d.IntPart()
		}
		n = parsed
	default:
		return nil, coercionError(column, value, "expected integer, got %T", value)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, coercionError(column, value, "out of INTEGER range")
	}
	q := int32(n)
	return &q, nil
}

func coerceDecimal(column string, value any) (decimal.NullDecimal, error) {
	switch v := value.(type) {
	case nil:
		return decimal.NullDecimal{}, nil
	case decimal.Decimal:
		return decimal.NewNullDecimal(v), nil
	case decimal.NullDecimal:
		return v, nil
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(v))), nil
	case int32:
		return decimal.NewNullDecimal(decimal.NewFromInt32(v)), nil
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(v)), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.NullDecimal{}, coercionError(column, value, "not a decimal number")
		}
		return decimal.NewNullDecimal(decimal.NewFromFloat(v)), nil
	case json.Number:
		return coerceDecimal(column, v.String())
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return decimal.NullDecimal{}, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.NullDecimal{}, coercionError(column, value, "not a decimal number")
		}
		return decimal.NewNullDecimal(d), nil
	default:
		return decimal.NullDecimal{}, coercionError(column, value, "expected decimal, got %T", value)
	}
}

func coerceTime(column string, value any, layouts []string) (*time.Time, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &v, nil
	case *time.Time:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		for _, layout := range append(DefaultDateLayouts[:len(DefaultDateLayouts):len(DefaultDateLayouts)], layouts...) {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return &t, nil
			}
		}
		return nil, coercionError(column, value, "unrecognized timestamp format")
	default:
		return nil, coercionError(column, value, "expected timestamp, got %T", value)
	}
}
