package infrastructure

import (
	"encoding/json"
	"errors"
	"net/http"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteJSONError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteError maps a sentinel error to its HTTP status and writes the
// structured error body.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSONError(w, StatusForError(err), err.Error())
}

func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUserAlreadyExists),
		errors.Is(err, ErrPasswordPolicy),
		errors.Is(err, ErrPasswordReused),
		errors.Is(err, ErrOTPInvalid),
		errors.Is(err, ErrOTPWrongType):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrMissingToken),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccountLocked),
		errors.Is(err, ErrPasswordExpired),
		errors.Is(err, ErrInvalidRefreshToken),
		errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
