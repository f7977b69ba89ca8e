package sales

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// SQLSTATE duplicate_table.
const pgDuplicateTable = "42P07"

const (
	pgInsertSQL = `INSERT INTO sales (order_id, product, quantity_ordered, price_each, order_date, purchase_address, order_city, order_state)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`

	pgNextIDsSQL = `SELECT nextval(pg_get_serial_sequence('sales', 'id')) FROM generate_series(1, $1)`

	pgSelectSQL = `SELECT id, order_id, product, quantity_ordered, price_each::text, order_date, purchase_address, order_city, order_state FROM sales`
)

var pgCopyColumns = append([]string{ColumnID}, InputColumns...)

// PostgresStorage stores sales records in PostgreSQL through a pgx pool.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage connects a pool to the database at dsn.
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStorage{pool: pool}, nil
}

func (p *PostgresStorage) CreateTable(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, createTablePostgres); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgDuplicateTable {
			return fmt.Errorf("create table %s: %w: %s", TableName, ErrSchemaConflict, pgErr.Message)
		}
		return fmt.Errorf("create table %s: %w", TableName, err)
	}
	return nil
}

func (p *PostgresStorage) Insert(ctx context.Context, in Input) (int64, error) {
	row, err := normalize(in)
	if err != nil {
		return 0, err
	}

	var id int64
	args := pgArgs(row)
	if err := p.pool.QueryRow(ctx, pgInsertSQL, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert sales record: %w", err)
	}
	return id, nil
}

// BulkInsert draws one sequence value per record, then writes the batch with
// COPY inside a single transaction.
func (p *PostgresStorage) BulkInsert(ctx context.Context, inputs []Input) ([]int64, error) {
	rows, err := normalizeBatch(inputs)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []int64{}, nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback(ctx)

	idRows, err := tx.Query(ctx, pgNextIDsSQL, len(rows))
	if err != nil {
		return nil, fmt.Errorf("allocate ids: %w", err)
	}
	ids, err := pgx.CollectRows(idRows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("allocate ids: %w", err)
	}
	slices.Sort(ids)

	n, err := tx.CopyFrom(ctx, pgx.Identifier{TableName}, pgCopyColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return append([]any{ids[i]}, pgArgs(rows[i])...), nil
		}))
	if err != nil {
		return nil, fmt.Errorf("copy sales records: %w", err)
	}
	if n != int64(len(rows)) {
		return nil, fmt.Errorf("copy sales records: wrote %d of %d rows", n, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit bulk insert: %w", err)
	}
	return ids, nil
}

func (p *PostgresStorage) Get(ctx context.Context, id int64) (*SalesRecord, error) {
	rows, err := p.pool.Query(ctx, pgSelectSQL+" WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("get sales record: %w", err)
	}
	r, err := pgx.CollectExactlyOneRow(rows, scanPostgresRecord)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sales record: %w", err)
	}
	return r, nil
}

func (p *PostgresStorage) List(ctx context.Context) ([]*SalesRecord, error) {
	rows, err := p.pool.Query(ctx, pgSelectSQL+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list sales records: %w", err)
	}
	records, err := pgx.CollectRows(rows, scanPostgresRecord)
	if err != nil {
		return nil, fmt.Errorf("list sales records: %w", err)
	}
	return records, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

func pgArgs(in Input) []any {
	price := pgtype.Numeric{}
	if in.PriceEach.Valid {
		price = pgtype.Numeric{
			Int:   in.PriceEach.Decimal.Coefficient(),
			Exp:   in.PriceEach.Decimal.Exponent(),
			Valid: true,
		}
	}
	return []any{
		in.OrderID,
		in.Product,
		in.QuantityOrdered,
		price,
		in.OrderDate,
		in.PurchaseAddress,
		in.OrderCity,
		in.OrderState,
	}
}

func scanPostgresRecord(row pgx.CollectableRow) (*SalesRecord, error) {
	var (
		r     SalesRecord
		price *string
	)
	err := row.Scan(
		&r.ID,
		&r.OrderID,
		&r.Product,
		&r.QuantityOrdered,
		&price,
		&r.OrderDate,
		&r.PurchaseAddress,
		&r.OrderCity,
		&r.OrderState,
	)
	if err != nil {
		return nil, err
	}
	if price != nil {
		d, err := decimal.NewFromString(*price)
		if err != nil {
			return nil, fmt.Errorf("parse price_each %q: %w", *price, err)
		}
		r.PriceEach = decimal.NewNullDecimal(d)
	}
	return &r, nil
}
