package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/qr-login-api/internal/application/handshake"
	"github.com/qr-login-api/internal/domain"
)

// HandshakeHandler exposes the cross-device login handshake endpoints.
type HandshakeHandler struct {
	svc handshake.Service
}

func NewHandshakeHandler(svc handshake.Service) *HandshakeHandler {
	return &HandshakeHandler{svc: svc}
}

// Start issues a fresh handshake code for the initiating device.
func (h *HandshakeHandler) Start(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Start(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Poll reports whether the handshake has been confirmed. Unknown and expired
// codes both answer 404 with an identical body.
func (h *HandshakeHandler) Poll(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "code required")
		return
	}
	res, err := h.svc.Resolve(r.Context(), code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Confirm redeems the code on behalf of the identity in the bearer token.
func (h *HandshakeHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "code required")
		return
	}
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		writeError(w, http.StatusUnauthorized, "missing or invalid authorization header")
		return
	}
	credential := strings.TrimPrefix(authHeader, "Bearer ")
	profile, err := h.svc.Confirm(r.Context(), code, credential)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string          `json:"message"`
		User    *domain.Profile `json:"user"`
	}{Message: "login confirmed", User: profile})
}
