package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/doc-courier/internal/domain"
)

// Envelope is the response wrapper for every endpoint.
type Envelope struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Envelope{OK: false, Message: msg})
}

// httpError maps domain sentinels to statuses. Anything unrecognized becomes
// a generic 500 so internal detail never reaches the client.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "Invalid or expired code.")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "No user for this email.")
	case errors.Is(err, domain.ErrNoDocument):
		writeError(w, http.StatusNotFound, "No document stored for this user.")
	case errors.Is(err, domain.ErrDelivery):
		writeError(w, http.StatusBadGateway, "Could not send email.")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
