// Package importer loads sales records from delimited text, handing them to
// the store one all-or-nothing batch at a time.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"go.uber.org/zap"

	"sales_records/internal/sales"
)

const DefaultBatchSize = 500

// ErrEmptyInput is returned when the stream has no header row.
var ErrEmptyInput = errors.New("import: empty input")

// BulkInserter stores a batch of loosely-typed records all-or-nothing and
// returns their ids in input order.
type BulkInserter interface {
	BulkInsertValues(ctx context.Context, records []map[string]any) ([]int64, error)
}

// headerAliases maps normalized header names that differ from the column
// names.
var headerAliases = map[string]string{
	"city":  sales.ColumnOrderCity,
	"state": sales.ColumnOrderState,
}

// Result summarizes one import.
type Result struct {
	Rows     int     `json:"rows"`
	Inserted int     `json:"inserted"`
	Skipped  int     `json:"skipped"`
	Batches  int     `json:"batches"`
	IDs      []int64 `json:"ids"`
}

// Importer reads a CSV stream whose first row is a header.
type Importer struct {
	store     BulkInserter
	logger    *zap.Logger
	batchSize int
	delimiter rune
}

type Option func(*Importer)

func WithBatchSize(n int) Option {
	return func(i *Importer) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

func WithDelimiter(r rune) Option {
	return func(i *Importer) {
		i.delimiter = r
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(i *Importer) {
		i.logger = logger
	}
}

func New(store BulkInserter, opts ...Option) *Importer {
	i := &Importer{
		store:     store,
		logger:    zap.NewNop(),
		batchSize: DefaultBatchSize,
		delimiter: ',',
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

type pendingRow struct {
	line   int
	values map[string]any
}

// Import reads r to the end, inserting rows in batches. It stops at the
// first failing batch; batches committed before it stay committed and are
// reported in the returned Result.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Result, error) {
	var res Result

	reader := csv.NewReader(r)
	reader.Comma = im.delimiter

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return res, ErrEmptyInput
	}
	if err != nil {
		return res, fmt.Errorf("import: read header: %w", err)
	}
	columns := im.mapHeader(header)
	// Concatenated exports repeat the header without the leading BOM.
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	batch := make([]pendingRow, 0, im.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		records := make([]map[string]any, len(batch))
		for i, row := range batch {
			records[i] = row.values
		}
		ids, err := im.store.BulkInsertValues(ctx, records)
		if err != nil {
			var ce *sales.TypeCoercionError
			if errors.As(err, &ce) && ce.Position >= 0 && ce.Position < len(batch) {
				return fmt.Errorf("import: line %d: %w", batch[ce.Position].line, err)
			}
			return fmt.Errorf("import: batch starting at line %d: %w", batch[0].line, err)
		}
		res.Batches++
		res.Inserted += len(ids)
		res.IDs = append(res.IDs, ids...)
		batch = batch[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("import: %w", err)
		}
		line, _ := reader.FieldPos(0)
		res.Rows++

		if isBlank(fields) || slices.Equal(fields, header) {
			res.Skipped++
			continue
		}

		values := make(map[string]any, len(columns))
		for idx, column := range columns {
			if column == "" || idx >= len(fields) {
				continue
			}
			values[column] = fields[idx]
		}
		batch = append(batch, pendingRow{line: line, values: values})

		if len(batch) == im.batchSize {
			if err := flush(); err != nil {
				return res, err
			}
		}
	}
	if err := flush(); err != nil {
		return res, err
	}

	im.logger.Info("csv import finished",
		zap.Int("rows", res.Rows),
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
		zap.Int("batches", res.Batches),
	)
	return res, nil
}

// mapHeader resolves each header cell to a column name, or "" when the cell
// names no caller-supplied column.
func (im *Importer) mapHeader(header []string) []string {
	columns := make([]string, len(header))
	for i, h := range header {
		name := NormalizeHeader(h)
		if alias, ok := headerAliases[name]; ok {
			name = alias
		}
		if !slices.Contains(sales.InputColumns, name) {
			im.logger.Warn("ignoring csv column", zap.String("header", h))
			continue
		}
		columns[i] = name
	}
	return columns
}

// NormalizeHeader turns a header such as "Quantity Ordered" into
// "quantity_ordered".
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
