package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"piaxe-console/internal/domain"
	"piaxe-console/internal/middleware"
	"piaxe-console/internal/service/auth"
	apperrors "piaxe-console/pkg/errors"
	"piaxe-console/pkg/logger"
)

const maxAuthBody = 1 << 20

// SessionFactory builds a session scoped to one request whose changes are
// written back to the response as cookies
type SessionFactory interface {
	RequestSession(w http.ResponseWriter, r *http.Request) (*auth.Provider, func())
}

// AuthHandler signs dashboard users in and out through the cookie session
type AuthHandler struct {
	sessions SessionFactory
	logger   *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions SessionFactory, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// AuthResponse is the signed-in account as the dashboard sees it
type AuthResponse struct {
	Authenticated bool                `json:"authenticated"`
	User          *domain.UserProfile `json:"user,omitempty"`
	DeviceID      string              `json:"device_id,omitempty"`
	IsDeveloper   bool                `json:"is_developer"`
	IsBusiness    bool                `json:"is_business"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if !h.decode(w, r, &creds) {
		return
	}

	provider, release := h.sessions.RequestSession(w, r)
	defer release()

	if err := provider.Login(r.Context(), creds); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, provider)
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var data domain.RegisterData
	if !h.decode(w, r, &data) {
		return
	}

	provider, release := h.sessions.RequestSession(w, r)
	defer release()

	if err := provider.Register(r.Context(), data); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, provider)
}

// Refresh handles POST /api/auth/refresh by exchanging the refresh token
// cookie for a new pair
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	provider, release := h.sessions.RequestSession(w, r)
	defer release()

	if err := provider.RefreshAuth(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, provider)
}

// Me handles GET /api/auth/me. The cookie token is verified against the
// backend and silently refreshed when it was rejected.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	provider, release := h.sessions.RequestSession(w, r)
	defer release()

	if err := provider.Hydrate(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	if !provider.IsAuthenticated() {
		h.fail(w, r, auth.ErrNotAuthenticated)
		return
	}
	h.respond(w, http.StatusOK, provider)
}

// Logout handles POST /api/auth/logout. Cookies are expired even when the
// session was already gone.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	provider, release := h.sessions.RequestSession(w, r)
	defer release()

	if err := provider.Hydrate(r.Context()); err != nil {
		h.logger.WithError(err).Warn("Failed to restore session before logout")
	}
	if err := provider.Logout(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthBody)).Decode(v); err != nil {
		middleware.WriteError(w, r, apperrors.NewValidationError("Invalid request body", nil), h.logger)
		return false
	}
	return true
}

func (h *AuthHandler) respond(w http.ResponseWriter, status int, provider *auth.Provider) {
	response := AuthResponse{
		Authenticated: provider.IsAuthenticated(),
		User:          provider.User(),
		DeviceID:      provider.DeviceID(),
		IsDeveloper:   provider.IsDeveloper(),
		IsBusiness:    provider.IsBusiness(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.WithError(err).Error("Failed to encode auth response")
	}
}

func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	middleware.WriteError(w, r, toAppError(err), h.logger)
}

// toAppError keeps backend errors as they are and maps session failures
// onto the error envelope
func toAppError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated), errors.Is(err, auth.ErrNoRefreshToken):
		return apperrors.NewAuthenticationError("Authentication required")
	default:
		return apperrors.NewInternalError("Session update failed", err)
	}
}
