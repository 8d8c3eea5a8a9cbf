package builders

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrMissingField is returned by Raw when a required field was never set.
	ErrMissingField = errors.New("missing required field")
	// ErrDuplicateParameter is returned when an option or input name is added twice.
	ErrDuplicateParameter = errors.New("duplicate parameter")
	// ErrValueTooLong is returned when a value exceeds a platform limit.
	ErrValueTooLong = errors.New("value too long")
	// ErrInvalidValue is returned for values Discord would reject.
	ErrInvalidValue = errors.New("invalid value")
)

// FieldError locates a builder error.
type FieldError struct {
	Builder string
	Field   string
	Err     error
	Detail  string
}

func (e *FieldError) Error() string {
	msg := fmt.Sprintf("%s.%s: %v", e.Builder, e.Field, e.Err)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *FieldError) Unwrap() error { return e.Err }

func fieldErr(builder, field string, err error, format string, args ...any) *FieldError {
	return &FieldError{Builder: builder, Field: field, Err: err, Detail: fmt.Sprintf(format, args...)}
}

// sticky keeps the first error reported by a setter.
type sticky struct {
	err error
}

func (s *sticky) fail(err error) {
	if s.err == nil && err != nil {
		s.err = err
	}
}

// checkLen returns ErrValueTooLong when s is longer than max runes.
func checkLen(builder, field, s string, max int) error {
	if n := utf8.RuneCountInString(s); n > max {
		return fieldErr(builder, field, ErrValueTooLong, "%d > %d", n, max)
	}
	return nil
}

// checkRange returns ErrValueTooLong or ErrMissingField when s is outside [min, max] runes.
func checkRange(builder, field, s string, min, max int) error {
	n := utf8.RuneCountInString(s)
	if n < min {
		return fieldErr(builder, field, ErrMissingField, "%d < %d", n, min)
	}
	if n > max {
		return fieldErr(builder, field, ErrValueTooLong, "%d > %d", n, max)
	}
	return nil
}
