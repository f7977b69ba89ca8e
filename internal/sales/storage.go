package sales

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Storage is the main interface for our sales storage layer.
type Storage interface {
	// CreateTable creates the sales table. It fails with ErrSchemaConflict
	// if the table already exists.
	CreateTable(ctx context.Context) error
	// Insert stores one record and returns its newly assigned id.
	Insert(ctx context.Context, in Input) (int64, error)
	// BulkInsert stores all records or none. The i-th id belongs to the i-th
	// input.
	BulkInsert(ctx context.Context, inputs []Input) ([]int64, error)
	Get(ctx context.Context, id int64) (*SalesRecord, error)
	List(ctx context.Context) ([]*SalesRecord, error)
	Close() error
}

// LocalStorage provides an in-memory implementation for storing sales records.
type LocalStorage struct {
	mu      sync.Mutex
	created bool
	lastID  int64
	m       map[int64]*SalesRecord
}

// NewLocalStorage instantiates a new LocalStorage. The table does not exist
// until CreateTable is called.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		m: map[int64]*SalesRecord{},
	}
}

// CreateTable returns ErrSchemaConflict if the table was already created.
func (l *LocalStorage) CreateTable(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.created {
		return fmt.Errorf("create table %s: %w", TableName, ErrSchemaConflict)
	}
	l.created = true
	return nil
}

// Insert stores in under the next unused id.
func (l *LocalStorage) Insert(ctx context.Context, in Input) (int64, error) {
	ids, err := l.BulkInsert(ctx, []Input{in})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// BulkInsert validates the whole batch before drawing any id, so a failed
// batch leaves both the rows and the id counter untouched.
func (l *LocalStorage) BulkInsert(_ context.Context, inputs []Input) ([]int64, error) {
	rows, err := normalizeBatch(inputs)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.created {
		return nil, ErrNoTable
	}

	ids := make([]int64, len(rows))
	for i, row := range rows {
		l.lastID++
		ids[i] = l.lastID
		l.m[l.lastID] = &SalesRecord{ID: l.lastID, Input: row}
	}
	return ids, nil
}

// Get retrieves a copy of the record with the given id.
// Returns ErrNotFound if the record is not found.
func (l *LocalStorage) Get(_ context.Context, id int64) (*SalesRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.clone(), nil
}

// List retrieves copies of all records ordered by id.
func (l *LocalStorage) List(_ context.Context) ([]*SalesRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := make([]*SalesRecord, 0, len(l.m))
	for _, r := range l.m {
		records = append(records, r.clone())
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (l *LocalStorage) Close() error {
	return nil
}

func (r *SalesRecord) clone() *SalesRecord {
	c := &SalesRecord{
		ID: r.ID,
		Input: Input{
			OrderID:         cloneString(r.OrderID),
			Product:         cloneString(r.Product),
			PriceEach:       r.PriceEach,
			PurchaseAddress: cloneString(r.PurchaseAddress),
			OrderCity:       cloneString(r.OrderCity),
			OrderState:      cloneString(r.OrderState),
		},
	}
	if r.QuantityOrdered != nil {
		q := *r.QuantityOrdered
		c.QuantityOrdered = &q
	}
	if r.OrderDate != nil {
		t := *r.OrderDate
		c.OrderDate = &t
	}
	return c
}
