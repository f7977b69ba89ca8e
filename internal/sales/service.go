package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service provides high-level sales record operations on a Storage backend.
type Service struct {
	storage     Storage
	logger      *zap.Logger
	dateLayouts []string
}

// Option configures a Service.
type Option func(*Service)

// WithDateLayouts adds timestamp layouts tried after DefaultDateLayouts when
// coercing order_date strings.
func WithDateLayouts(layouts ...string) Option {
	return func(s *Service) {
		s.dateLayouts = append(s.dateLayouts, layouts...)
	}
}

// NewService creates a new Service.
func NewService(storage Storage, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	s := &Service{
		storage: storage,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTable creates the sales table in the underlying storage.
func (s *Service) CreateTable(ctx context.Context) error {
	if err := s.storage.CreateTable(ctx); err != nil {
		if errors.Is(err, ErrSchemaConflict) {
			s.logger.Warn("sales table already exists", zap.Error(err))
		} else {
			s.logger.Error("failed to create sales table", zap.Error(err))
		}
		return err
	}
	s.logger.Info("sales table created", zap.String("table", TableName))
	return nil
}

// Insert stores a single record and returns its id.
func (s *Service) Insert(ctx context.Context, in Input) (int64, error) {
	id, err := s.storage.Insert(ctx, in)
	if err != nil {
		s.logFailure("failed to insert sales record", err)
		return 0, err
	}
	s.logger.Info("sales record created", zap.Int64("sale_id", id))
	return id, nil
}

// BulkInsert stores all records or none, returning ids in input order.
func (s *Service) BulkInsert(ctx context.Context, inputs []Input) ([]int64, error) {
	batchID := uuid.NewString()
	ids, err := s.storage.BulkInsert(ctx, inputs)
	if err != nil {
		s.logFailure("bulk insert rejected", err, zap.String("batch_id", batchID), zap.Int("count", len(inputs)))
		return nil, err
	}

	fields := []zap.Field{zap.String("batch_id", batchID), zap.Int("count", len(ids))}
	if len(ids) > 0 {
		fields = append(fields, zap.Int64("first_id", ids[0]), zap.Int64("last_id", ids[len(ids)-1]))
	}
	s.logger.Info("sales records created", fields...)
	return ids, nil
}

// InsertValues coerces loosely-typed column values and stores the record.
func (s *Service) InsertValues(ctx context.Context, values map[string]any) (int64, error) {
	in, err := Coerce(values, s.dateLayouts...)
	if err != nil {
		s.logger.Warn("rejected sales record", zap.Error(err))
		return 0, err
	}
	return s.Insert(ctx, in)
}

// BulkInsertValues coerces every record before storing any of them. A
// coercion failure carries the record's position in records.
func (s *Service) BulkInsertValues(ctx context.Context, records []map[string]any) ([]int64, error) {
	inputs := make([]Input, len(records))
	for i, values := range records {
		in, err := Coerce(values, s.dateLayouts...)
		if err != nil {
			err = atPosition(err, i)
			s.logger.Warn("rejected sales batch", zap.Int("count", len(records)), zap.Error(err))
			return nil, err
		}
		inputs[i] = in
	}
	return s.BulkInsert(ctx, inputs)
}

// Get returns the record with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*SalesRecord, error) {
	r, err := s.storage.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to read sales record", zap.Int64("sale_id", id), zap.Error(err))
		}
		return nil, err
	}
	return r, nil
}

// List returns every record ordered by id.
func (s *Service) List(ctx context.Context) ([]*SalesRecord, error) {
	records, err := s.storage.List(ctx)
	if err != nil {
		s.logger.Error("failed to list sales records", zap.Error(err))
		return nil, fmt.Errorf("failed to list sales records: %w", err)
	}
	return records, nil
}

// logFailure logs coercion failures as warnings and everything else as errors.
func (s *Service) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if errors.Is(err, ErrTypeCoercion) {
		s.logger.Warn(msg, fields...)
		return
	}
	s.logger.Error(msg, fields...)
}
