// ABOUTME: Session endpoints for the cookie-held token pair
// ABOUTME: Login, identity resolution with silent refresh, logout, and account deletion

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/communityforum/bff/models"
)

// Login exchanges credentials for the access/refresh cookie pair
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		h.writeError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	if err := h.sessions.Login(r.Context(), h.store(w, r), req.Email, req.Password); err != nil {
		slog.Warn("Login failed", "email", req.Email, "error", err)
		h.writeServiceError(w, err, "Login failed")
		return
	}

	h.writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// Me resolves the current identity, refreshing the access token at most once
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	res, err := h.sessions.ResolveIdentity(r.Context(), h.store(w, r))
	if err != nil {
		slog.Debug("Identity resolution failed", "error", err)
		h.writeServiceError(w, err, "Authentication failed")
		return
	}

	if res.Refreshed {
		slog.Debug("Access token refreshed", "user_id", res.Identity.ID)
	}

	h.writeJSON(w, http.StatusOK, models.IdentityResponse{
		User:   *res.Identity,
		Access: res.AccessToken,
	})
}

// Logout clears both cookies; upstream notification is best-effort
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context(), h.store(w, r))
	h.writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// expireSession clears both cookies after the upstream removed the account
func (h *Handler) expireSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Expire(h.store(w, r))
}
