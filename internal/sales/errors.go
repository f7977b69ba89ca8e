package sales

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a sales record with the given ID is not found.
var ErrNotFound = errors.New("sales record not found")

// ErrSchemaConflict is returned when the sales table already exists.
var ErrSchemaConflict = errors.New("schema conflict")

// ErrNoTable is returned by the in-memory storage when rows are written
// before CreateTable.
var ErrNoTable = errors.New("sales table does not exist")

// ErrTypeCoercion is matched by every *TypeCoercionError.
var ErrTypeCoercion = errors.New("type coercion failed")

// ErrUnknownDriver is returned by OpenStorage for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown storage driver")

// TypeCoercionError reports a value that cannot be stored in its column.
// Position is the zero-based index of the offending record within its batch.
type TypeCoercionError struct {
	Position int
	Column   string
	Value    any
	Reason   string
}

func (e *TypeCoercionError) Error() string {
	return fmt.Sprintf("record %d: column %q: cannot store %v: %s", e.Position, e.Column, e.Value, e.Reason)
}

func (e *TypeCoercionError) Unwrap() error {
	return ErrTypeCoercion
}

func coercionError(column string, value any, format string, args ...any) *TypeCoercionError {
	return &TypeCoercionError{
		Column: column,
		Value:  value,
		Reason: fmt.Sprintf(format, args...),
	}
}

// atPosition sets the batch position on err if it is a coercion error.
func atPosition(err error, position int) error {
	var ce *TypeCoercionError
	if errors.As(err, &ce) {
		ce.Position = position
	}
	return err
}
