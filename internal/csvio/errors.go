package csvio

import (
	"errors"
	"fmt"
)

// ParseError wraps a specific error with context about where it occurred.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("csvio: parse error at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("csvio: parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	// ErrInsufficientRows is returned for empty and header-only uploads.
	ErrInsufficientRows = errors.New("insufficient rows")
	// ErrNoHeaders is returned when the header line yields no column names.
	ErrNoHeaders = errors.New("no header columns")
)
