package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrExternalFetch is matched by every ExternalFetchError.
	ErrExternalFetch = errors.New("external fetch failed")
	// ErrConfirmationDeclined indicates the user rejected a soft warning.
	ErrConfirmationDeclined = errors.New("confirmation declined")
)

// ValidationError blocks the action and names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// MismatchWarning reports an allocation sum that differs from the line quantity.
// It is only returned when the user declined to proceed.
type MismatchWarning struct {
	Allocated decimal.Decimal
	Expected  decimal.Decimal
}

func (w *MismatchWarning) Error() string {
	return fmt.Sprintf("allocated %s vs total %s", w.Allocated.StringFixed(2), w.Expected.StringFixed(2))
}

// Is lets errors.Is(err, ErrConfirmationDeclined) match.
func (w *MismatchWarning) Is(target error) bool {
	return target == ErrConfirmationDeclined
}

// ExternalFetchError wraps failures of the record store or warehouse directory.
type ExternalFetchError struct {
	Op  string
	Err error
}

// WrapExternal returns nil for a nil err.
func WrapExternal(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *ExternalFetchError
	if errors.As(err, &existing) {
		return err
	}
	return &ExternalFetchError{Op: op, Err: err}
}

func (e *ExternalFetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExternalFetchError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrExternalFetch) match.
func (e *ExternalFetchError) Is(target error) bool {
	return target == ErrExternalFetch
}

// DataShapeError describes a malformed field in an externally supplied record.
// Callers coerce the field to its zero value and carry on.
type DataShapeError struct {
	Field string
	Raw   any
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("malformed field %s: %v", e.Field, e.Raw)
}
