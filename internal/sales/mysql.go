package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// ER_TABLE_EXISTS_ERROR
const mysqlTableExists = 1050

const (
	mysqlInsertSQL = `INSERT INTO sales (order_id, product, quantity_ordered, price_each, order_date, purchase_address, order_city, order_state)
VALUES (:order_id, :product, :quantity_ordered, :price_each, :order_date, :purchase_address, :order_city, :order_state)`

	mysqlSelectSQL = "SELECT id, order_id, product, quantity_ordered, price_each, order_date, purchase_address, order_city, order_state FROM sales"
)

// MySQLStorage stores sales records in MySQL through sqlx.
type MySQLStorage struct {
	db *sqlx.DB
}

// NewMySQLStorage connects to the database at dsn. Timestamps are always
// parsed and exchanged in UTC regardless of the DSN.
func NewMySQLStorage(ctx context.Context, dsn string) (*MySQLStorage, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	db, err := sqlx.ConnectContext(ctx, "mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return &MySQLStorage{db: db}, nil
}

func (m *MySQLStorage) CreateTable(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, createTableMySQL); err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlTableExists {
			return fmt.Errorf("create table %s: %w: %s", TableName, ErrSchemaConflict, myErr.Message)
		}
		return fmt.Errorf("create table %s: %w", TableName, err)
	}
	return nil
}

func (m *MySQLStorage) Insert(ctx context.Context, in Input) (int64, error) {
	row, err := normalize(in)
	if err != nil {
		return 0, err
	}

	res, err := m.db.NamedExecContext(ctx, mysqlInsertSQL, row)
	if err != nil {
		return 0, fmt.Errorf("insert sales record: %w", err)
	}
	return res.LastInsertId()
}

// BulkInsert writes the batch one row at a time inside a single transaction.
func (m *MySQLStorage) BulkInsert(ctx context.Context, inputs []Input) ([]int64, error) {
	rows, err := normalizeBatch(inputs)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []int64{}, nil
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, mysqlInsertSQL)
	if err != nil {
		return nil, fmt.Errorf("prepare bulk insert: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, len(rows))
	for i, row := range rows {
		res, err := stmt.ExecContext(ctx, row)
		if err != nil {
			return nil, fmt.Errorf("insert sales record %d: %w", i, err)
		}
		if ids[i], err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("insert sales record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk insert: %w", err)
	}
	return ids, nil
}

func (m *MySQLStorage) Get(ctx context.Context, id int64) (*SalesRecord, error) {
	var r SalesRecord
	err := m.db.GetContext(ctx, &r, mysqlSelectSQL+" WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sales record: %w", err)
	}
	return &r, nil
}

func (m *MySQLStorage) List(ctx context.Context) ([]*SalesRecord, error) {
	records := make([]*SalesRecord, 0)
	if err := m.db.SelectContext(ctx, &records, mysqlSelectSQL+" ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list sales records: %w", err)
	}
	return records, nil
}

func (m *MySQLStorage) Close() error {
	return m.db.Close()
}
