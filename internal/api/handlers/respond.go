package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/metachat/accounts/internal/domain"
)

// Envelope is the response shape shared by every endpoint.
type Envelope struct {
	Success    bool    `json:"success"`
	Message    string  `json:"message"`
	Data       any     `json:"data"`
	StatusCode int     `json:"statusCode"`
	Error      *string `json:"error"`
}

func respond(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		StatusCode: status,
	})
}

func respondError(w http.ResponseWriter, err error) {
	status := statusOf(domain.KindOf(err))
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Envelope{
		Success:    false,
		Message:    msg,
		StatusCode: status,
		Error:      &msg,
	})
}

func statusOf(kind domain.Kind) int {
	switch kind {
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
