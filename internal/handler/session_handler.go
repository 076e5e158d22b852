package handler

import (
	"encoding/json"
	"net/http"

	"piaxe-console/internal/middleware"
	"piaxe-console/internal/session"
	"piaxe-console/pkg/logger"
)

// SessionHandler exposes the cookie session to the dashboard
type SessionHandler struct {
	cookies session.CookieOptions
	logger  *logger.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(cookies session.CookieOptions, logger *logger.Logger) *SessionHandler {
	return &SessionHandler{
		cookies: cookies,
		logger:  logger,
	}
}

// SessionResponse describes the cookie session without exposing tokens
type SessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	DeviceID      string `json:"device_id,omitempty"`
	TokenDeviceID string `json:"token_device_id,omitempty"`
	DeviceMatches bool   `json:"device_matches"`
}

// Get handles GET /api/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r)

	response := SessionResponse{
		Authenticated: s.Authenticated(),
		DeviceID:      s.DeviceID,
		TokenDeviceID: s.TokenDeviceID(),
		DeviceMatches: s.DeviceMatches(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.WithError(err).Error("Failed to encode session response")
	}
}

// Delete handles DELETE /api/session by expiring the session cookies
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session.ExpireAll(session.ResponseCookies{W: w}, h.cookies)

	h.logger.WithField("request_id", middleware.GetRequestID(r.Context())).Debug("Session cookies cleared")
	w.WriteHeader(http.StatusNoContent)
}
