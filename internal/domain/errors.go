package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSafetyFactor is returned when the safety factor is outside [0.1, 1.0].
	ErrInvalidSafetyFactor = errors.New("safety factor must be between 0.1 and 1.0")
	// ErrNoActiveColors is returned when the active color allow-list is empty.
	ErrNoActiveColors = errors.New("at least one active color is required")
	// ErrUnsupportedFormat is returned for input files that are neither xlsx nor csv.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrUnknownSource     = errors.New("unknown input source")
)

// IsInvalidInput reports whether err was caused by the caller's files or
// parameters rather than by the system.
func IsInvalidInput(err error) bool {
	var schemaErr *SchemaError
	var dataErr *DataError
	return errors.As(err, &schemaErr) ||
		errors.As(err, &dataErr) ||
		errors.Is(err, ErrInvalidSafetyFactor) ||
		errors.Is(err, ErrNoActiveColors) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrUnknownSource)
}

// SchemaError reports a required input column that is absent.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s table is missing required column: %s", e.Table, e.Column)
}

// DataError reports a cell that could not be interpreted.
type DataError struct {
	Table string
	Row   int
	Err   error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s table row %d: %v", e.Table, e.Row, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}
