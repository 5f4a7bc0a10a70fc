package stack

import (
	"errors"
	"fmt"
)

var (
	ErrWeightFormat = errors.New("self weight is not \"<number> <unit>\"")
	ErrWeightUnit   = errors.New("expected s or ms")
	ErrWeightNumber = errors.New("failed to parse weight as float")
	ErrEmptySymbol  = errors.New("empty symbol name")
	ErrColumnCount  = errors.New("expected 4 columns")
	ErrDepth        = errors.New("depth out of range")
	ErrThreadCount  = errors.New("thread count does not match thread root nodes")
	ErrOrphanLine   = errors.New("data line before first thread header")
)

// LineError ties a parse failure to the input line that caused it.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v (%q)", e.Line, e.Err, e.Text)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
