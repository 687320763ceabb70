package handler

import (
	"encoding/json"
	"net/http"

	"github.com/doc-courier/internal/application/verification"
)

// VerificationHandler handles the code-request and code-redemption endpoints.
type VerificationHandler struct {
	svc verification.Service
}

func NewVerificationHandler(svc verification.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

func (h *VerificationHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req verification.RequestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.RequestCode(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{OK: true, Message: "We sent you a 6-digit code."})
}

func (h *VerificationHandler) VerifyAndSend(w http.ResponseWriter, r *http.Request) {
	var req verification.RedeemCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.RedeemCode(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{OK: true, Message: "Document sent! Check your inbox."})
}
