package projection

import (
	"errors"
	"fmt"
)

var (
	// ErrZeroRate is returned when a scenario resolves to a monthly rate of
	// exactly zero, which the closed-form formulas cannot divide by.
	ErrZeroRate = errors.New("monthly rate must not be zero")

	// ErrCapitalOutOfRange is wrapped by the ValidationError returned when a
	// valid-looking request projects a capital too large to represent.
	ErrCapitalOutOfRange = errors.New("projected capital exceeds the supported range")

	// ErrComputation marks an unexpected arithmetic fault such as a NaN
	// capital. It is an internal failure, never a validation one.
	ErrComputation = errors.New("projection computation failed")
)

// ValidationError reports malformed or out-of-domain input.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err (or anything it wraps) is a ValidationError.
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
