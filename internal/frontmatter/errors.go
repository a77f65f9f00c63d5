package frontmatter

import (
	"errors"
	"fmt"
)

var (
	ErrUnexpectedEOF = errors.New("unexpected end of input")
	ErrEmptyScalar   = errors.New("empty key or scalar")
	ErrExpectedDigit = errors.New("expected digit after '-'")
	ErrExpected      = errors.New("expected character")
)

// SyntaxError reports why a metadata block could not be parsed.
type SyntaxError struct {
	Err    error
	Offset int
	Want   byte // set for ErrExpected
}

func (e *SyntaxError) Error() string {
	if errors.Is(e.Err, ErrExpected) {
		return fmt.Sprintf("frontmatter: expected %q at offset %d", e.Want, e.Offset)
	}
	return fmt.Sprintf("frontmatter: %v at offset %d", e.Err, e.Offset)
}

func (e *SyntaxError) Unwrap() error { return e.Err }
