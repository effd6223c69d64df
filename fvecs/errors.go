package fvecs

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord is matched by every *MalformedRecordError.
var ErrMalformedRecord = errors.New("fvecs: malformed record")

// MalformedRecordError reports a trailing partial record: fewer bytes remain
// than the record's dimension prefix implies.
type MalformedRecordError struct {
	// Record is the zero-based index of the partial record.
	Record int
	// Offset is the byte offset at which the partial record starts.
	Offset int64
	// Trailing is the number of bytes left after the last complete record.
	Trailing int64
	cause    error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("fvecs: malformed record %d at offset %d (%d trailing bytes)", e.Record, e.Offset, e.Trailing)
}

func (e *MalformedRecordError) Unwrap() error { return e.cause }

// Is reports whether target is ErrMalformedRecord.
func (e *MalformedRecordError) Is(target error) bool { return target == ErrMalformedRecord }

// DimensionMismatchError is returned when a record's dimension differs from
// the dimension supplied by the caller or declared by the first record.
type DimensionMismatchError struct {
	Record   int
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("fvecs: record %d: dimension mismatch: expected %d, got %d", e.Record, e.Expected, e.Actual)
}
