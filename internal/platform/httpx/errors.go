// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/odyssey-po/internal/shared"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
)

// MismatchProblem extends ProblemDetail with both quantities of a declined allocation.
type MismatchProblem struct {
	ProblemDetail
	Allocated string `json:"allocated"`
	Expected  string `json:"expected"`
}

// ValidationProblem names the offending field.
type ValidationProblem struct {
	ProblemDetail
	Field string `json:"field,omitempty"`
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var validation *shared.ValidationError
	var mismatch *shared.MismatchWarning
	switch {
	case errors.As(err, &mismatch):
		JSON(w, http.StatusConflict, MismatchProblem{
			ProblemDetail: ProblemDetail{Title: "Allocation Mismatch", Status: http.StatusConflict, Detail: mismatch.Error()},
			Allocated:     mismatch.Allocated.StringFixed(2),
			Expected:      mismatch.Expected.StringFixed(2),
		})
	case errors.As(err, &validation):
		JSON(w, http.StatusUnprocessableEntity, ValidationProblem{
			ProblemDetail: ProblemDetail{Title: "Validation Failed", Status: http.StatusUnprocessableEntity, Detail: validation.Error()},
			Field:         validation.Field,
		})
	case errors.Is(err, shared.ErrConfirmationDeclined):
		Problem(w, http.StatusConflict, "Confirmation Required", err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate), errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrExternalFetch):
		Problem(w, http.StatusBadGateway, "Upstream Unavailable", "record store request failed")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
