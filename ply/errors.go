package ply

import (
	"errors"
	"fmt"
)

var (
	// ErrBadHeader is returned when header can't be parsed or is invalid
	ErrBadHeader = errors.New("bad header")
	// ErrShapeMismatch is returned when number of values in a row
	// doesn't match the property
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrIncompleteRow is returned when fixed-width property gets
	// fewer values than it needs. It's also an ErrShapeMismatch
	ErrIncompleteRow = fmt.Errorf("%w: incomplete row", ErrShapeMismatch)
	// ErrArityOverflow is returned when a list is too long for its count type
	ErrArityOverflow = errors.New("list too long for count type")
	// ErrCountMismatch is returned when number of rows written
	// doesn't match the count declared in the header
	ErrCountMismatch = errors.New("row count doesn't match header")
	// ErrValueRange is returned when a value can't be represented
	// by property type
	ErrValueRange = errors.New("value out of range")
	// ErrTruncatedInput is returned when data ends before all rows
	// declared in header were read
	ErrTruncatedInput = errors.New("truncated input")
	// ErrTrailingData is returned (in strict mode) when there's data
	// after the last element
	ErrTrailingData = errors.New("trailing data")
	// ErrIO wraps errors from underlying reader / writer
	ErrIO = errors.New("i/o failure")
)

func ioErr(err error) error {
	if err == nil || errors.Is(err, ErrIO) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrIO, err)
}

// where describes a position in the file for error messages
func where(e *Element, p *Property, row int) string {
	if p == nil {
		return fmt.Sprintf("element '%s' row %d", e.Name, row)
	}
	return fmt.Sprintf("element '%s' property '%s' row %d", e.Name, p.Name, row)
}
