package query

import (
	"errors"
	"fmt"
)

// ErrParse is returned when a non-empty value could not be parsed.
var ErrParse = errors.New("multi-value parse failed")

// BindingError reports a parameter whose separator could not be
// detected. It is non-fatal: the value was still bound using
// DefaultSeparator.
type BindingError struct {
	Field string
	Value string
}

func (e *BindingError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: separator not detected in %q, using %q", e.Field, e.Value, string(DefaultSeparator))
}

// ParseError wraps ErrParse with the parameter name.
type ParseError struct {
	Field string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, ErrParse)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// IsBindingError reports whether err carries a BindingError.
func IsBindingError(err error) bool {
	var be *BindingError
	return errors.As(err, &be)
}
