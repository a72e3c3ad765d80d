package handlers

import (
	"net/http"
	"time"

	"fieldmetrics-dashboard/internal/auth"
	"fieldmetrics-dashboard/pkg/response"
)

// DevToken mints a short-lived admin token for local dashboard development.
// Registered only in the development environment.
func (h *Handler) DevToken(w http.ResponseWriter, r *http.Request) {
	if h.Config.JWTSecret == "" {
		response.Error(w, http.StatusServiceUnavailable, "AUTH_DISABLED", "JWT_SECRET is not configured")
		return
	}

	ttl := time.Duration(h.Config.JWTExpirySeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	token, err := auth.IssueAccessToken("dev", auth.RoleAdmin, "dev@localhost", h.Config.JWTSecret, ttl)
	if err != nil {
		h.Logger.Error("dev token issue failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "TOKEN_ERROR", "failed to issue token")
		return
	}

	response.Success(w, map[string]any{
		"token":     token,
		"expiresIn": int64(ttl.Seconds()),
	})
}
