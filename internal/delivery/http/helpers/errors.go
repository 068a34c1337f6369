package helpers

import (
	"errors"
	"net/http"

	"eventcrm/internal/domain"
)

// StatusForError maps a service error to its HTTP status and envelope code.
// ok is false when the error is unexpected and should be logged.
func StatusForError(err error) (status int, code string, ok bool) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrCodeBadRequest, true
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound, true
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, ErrCodeConflict, true
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, ErrCodeUnauthorized, true
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden, true
	default:
		return http.StatusInternalServerError, ErrCodeInternalError, false
	}
}

// WriteServiceError writes err using StatusForError. Internal errors get a generic message.
func WriteServiceError(w http.ResponseWriter, err error) {
	status, code, ok := StatusForError(err)
	msg := err.Error()
	if !ok {
		msg = "internal server error"
	}
	WriteJSONError(w, status, code, msg)
}
