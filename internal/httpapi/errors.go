package httpapi

import (
	"errors"
	"net/http"

	"github.com/stafflane/hr-copilot/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
// Unknown errors map to 500 and their detail never reaches the client.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var accessDenied *domain.AccessDeniedError
	var validation *domain.ValidationError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &accessDenied):
		return http.StatusForbidden
	case errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage returns the error text safe to send to the caller. Only
// typed domain errors carry their own message; everything else gets a
// generic line.
func clientMessage(err error) string {
	if httpStatusFromDomainError(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
