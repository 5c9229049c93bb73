// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/udharbook/internal/shared"
)

// Extender is implemented by errors that carry extra problem members, such
// as the available quantity of an oversold product.
type Extender interface {
	ProblemFields() map[string]any
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	status, title := classify(err)
	detail := ""
	if status != http.StatusInternalServerError {
		detail = err.Error()
	}
	problem := ProblemDetail{Title: title, Status: status, Detail: detail}
	var ext Extender
	if errors.As(err, &ext) {
		problem.Extensions = ext.ProblemFields()
	}
	JSON(w, status, problem)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest, "Validation Failed"
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, shared.ErrEmailTaken):
		return http.StatusConflict, "Email Taken"
	case errors.Is(err, shared.ErrInsufficientStock):
		return http.StatusConflict, "Insufficient Stock"
	case errors.Is(err, shared.ErrIdempotencyConflict):
		return http.StatusConflict, "Duplicate Request"
	case errors.Is(err, shared.ErrInvalidCredentials), errors.Is(err, shared.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, shared.ErrWrongCurrentSecret):
		return http.StatusForbidden, "Forbidden"
	default:
		return http.StatusInternalServerError, "Internal Error"
	}
}
