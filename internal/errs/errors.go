package errs

import (
	"errors"   // Sentinel errors
	"net/http" // HTTP status codes
)

// Error kinds shared by the checkout core and the HTTP layer. Concrete
// errors wrap one of these so callers classify with errors.Is.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnauthorized        = errors.New("not authorized")
	ErrConflict            = errors.New("conflicting record found")
	ErrStoreFailure        = errors.New("store failure")
)

// statusTable is checked in order, first match wins
var statusTable = []struct {
	kind   error
	status int
}{
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrInsufficientStock, http.StatusBadRequest},
	{ErrInsufficientBalance, http.StatusBadRequest},
	{ErrUnauthorized, http.StatusForbidden},
	{ErrNotFound, http.StatusNotFound},
	{ErrConflict, http.StatusConflict},
	{ErrStoreFailure, http.StatusInternalServerError},
}

// StatusCode returns the HTTP status for err, 500 when err matches no kind.
func StatusCode(err error) int {
	for _, entry := range statusTable {
		if errors.Is(err, entry.kind) {
			return entry.status
		}
	}
	return http.StatusInternalServerError
}

// IsBusiness reports whether err is an expected business outcome rather than
// an operational failure.
func IsBusiness(err error) bool {
	return StatusCode(err) != http.StatusInternalServerError
}
