package sales

import (
	"context"
	"fmt"
)

// Storage driver names.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// OpenStorage returns the Storage backend selected by driver.
func OpenStorage(ctx context.Context, driver, dsn string) (Storage, error) {
	switch driver {
	case DriverMemory:
		return NewLocalStorage(), nil
	case DriverPostgres:
		return NewPostgresStorage(ctx, dsn)
	case DriverMySQL:
		return NewMySQLStorage(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
