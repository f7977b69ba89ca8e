// Package exporter writes stored sales records as CSV in a form the importer
// reads back.
package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"sales_records/internal/sales"
)

// Lister returns every stored record ordered by id.
type Lister interface {
	List(ctx context.Context) ([]*sales.SalesRecord, error)
}

// Header is the first row of every export.
var Header = append([]string{sales.ColumnID}, sales.InputColumns...)

// TimeLayout keeps the stored microseconds.
const TimeLayout = "2006-01-02T15:04:05.999999"

type Exporter struct {
	store     Lister
	logger    *zap.Logger
	delimiter rune
}

type Option func(*Exporter)

func WithDelimiter(r rune) Option {
	return func(e *Exporter) {
		e.delimiter = r
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Exporter) {
		e.logger = logger
	}
}

func New(store Lister, opts ...Option) *Exporter {
	e := &Exporter{
		store:     store,
		logger:    zap.NewNop(),
		delimiter: ',',
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes the header and one row per record, returning the number of
// records written. NULL columns are written as empty cells, so a NULL text
// column reads back as an empty string.
func (e *Exporter) Export(ctx context.Context, w io.Writer) (int, error) {
	records, err := e.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = e.delimiter
	if err := cw.Write(Header); err != nil {
		return 0, fmt.Errorf("export: write header: %w", err)
	}
	for i, r := range records {
		if err := cw.Write(Row(r)); err != nil {
			return i, fmt.Errorf("export: record %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return len(records), fmt.Errorf("export: %w", err)
	}

	e.logger.Info("csv export finished", zap.Int("records", len(records)))
	return len(records), nil
}

// Row renders r in Header order.
func Row(r *sales.SalesRecord) []string {
	row := []string{
		strconv.FormatInt(r.ID, 10),
		text(r.OrderID),
		text(r.Product),
		"",
		"",
		"",
		text(r.PurchaseAddress),
		text(r.OrderCity),
		text(r.OrderState),
	}
	if r.QuantityOrdered != nil {
		row[3] = strconv.FormatInt(int64(*r.QuantityOrdered), 10)
	}
	if r.PriceEach.Valid {
		row[4] = r.PriceEach.Decimal.StringFixed(sales.PriceScale)
	}
	if r.OrderDate != nil {
		row[5] = r.OrderDate.UTC().Format(TimeLayout)
	}
	return row
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
