package complexity

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is matched by every *ParseError.
	ErrParse = errors.New("source is not valid python")
	// ErrNotFound is returned when a path does not exist or cannot be read.
	ErrNotFound = errors.New("file not found")
)

// ParseError reports source text that could not be parsed.
type ParseError struct {
	Path string
	Line int
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: syntax error at line %d", ErrParse, e.Line)
	}
	return fmt.Sprintf("%s: %v: syntax error at line %d", e.Path, ErrParse, e.Line)
}

// Is makes errors.Is(err, ErrParse) hold for any ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
