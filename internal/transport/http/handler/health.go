package handler

import "net/http"

// Healthz reports process liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Envelope{OK: true, Message: "ok"})
}
