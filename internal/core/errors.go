package core

import (
	"errors"
	"net/http"

	"github.com/hunghnUIT/seft-203/internal/database"
)

// Error kinds surfaced by the services. Handlers map each kind to a
// status exactly once, at the boundary; nothing below it picks codes.
var (
	ErrValidation         = errors.New("missing or malformed input")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidData        = errors.New("invalid import payload")
	ErrTransport          = errors.New("email delivery failed")
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidData):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotVerified):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusUnprocessableEntity
	default:
		// Storage and transport failures land here.
		return http.StatusInternalServerError
	}
}
