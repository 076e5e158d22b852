package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"piaxe-console/internal/session"
	"piaxe-console/pkg/errors"
	"piaxe-console/pkg/logger"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// SessionContextKey is the key for the cookie session in context
	SessionContextKey ContextKey = "session"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"

	headerRequestID = "X-Request-ID"
)

// RequestID tags every request with an id, reusing a well-formed inbound one
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(headerRequestID)
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			w.Header().Set(headerRequestID, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID returns the request id stored by RequestID
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// SessionCookies puts the cookie session on the request context
func SessionCookies(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := session.FromRequest(r)
			if s.Authenticated() && !s.DeviceMatches() {
				log.WithField("request_id", GetRequestID(r.Context())).
					Warn("Device cookie does not match token claim")
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession returns the cookie session, reading the request directly when
// SessionCookies did not run.
func GetSession(r *http.Request) session.CookieSession {
	if s, ok := r.Context().Value(SessionContextKey).(session.CookieSession); ok {
		return s
	}
	return session.FromRequest(r)
}

// RequireSession guards routes that need a signed-in user. Page loads are
// sent to the login page; API calls get a 401.
func RequireSession(loginPath string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetSession(r).Authenticated() {
				next.ServeHTTP(w, r)
				return
			}

			if r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html") {
				target := loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusFound)
				return
			}

			WriteError(w, r, errors.NewAuthenticationError("Authentication required"), log)
		})
	}
}

// WriteError writes an AppError as the JSON error envelope
func WriteError(w http.ResponseWriter, r *http.Request, appErr *errors.AppError, log *logger.Logger) {
	requestID := GetRequestID(r.Context())

	entry := log.WithFields(map[string]interface{}{
		"request_id": requestID,
		"path":       r.URL.Path,
		"status":     appErr.StatusCode,
	}).WithError(appErr)
	if appErr.StatusCode >= http.StatusInternalServerError {
		entry.Error("Request error")
	} else {
		entry.Debug("Request error")
	}

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.RequestID = requestID
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(response)
}
